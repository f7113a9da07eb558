package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"atelier/internal/api"
	"atelier/internal/queue"
	"atelier/internal/workflow"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect operator queues",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatsCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [queue]",
		Short: "List items in a queue, oldest first",
		Long: "List items in a queue, oldest first.\n\n" +
			"Queues: submission, sampling, techpack, preproduction, marketplace, all (default).",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := string(queue.QueueAll)
			if len(args) == 1 {
				raw = args[0]
			}
			name, err := queue.ParseQueueName(raw)
			if err != nil {
				return err
			}
			return ctx.withEngine(cmd, func(engine *workflow.Engine, _ *queue.Store) error {
				entries, err := engine.ListQueue(cmd.Context(), name)
				if err != nil {
					return err
				}
				resp := api.FromQueueEntries(name, entries)
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintf(out, "%s queue is empty\n", displayLabel(string(name)))
					return nil
				}
				fmt.Fprint(out, renderQueueTable(resp.Items, shouldColorize(out)))
				fmt.Fprintln(out)
				return nil
			})
		},
	}
}

func renderQueueTable(items []api.PipelineItem, color bool) string {
	columns := []column{
		{header: "ID"},
		{header: "Title"},
		{header: "Owner"},
		{header: "Queue"},
		{header: "Status"},
		{header: "Priority"},
		{header: "Age", right: true},
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			item.ID,
			item.Title,
			item.OwnerID,
			displayLabel(item.Queue),
			colorize(item.Status, statusColor(item.Status), color),
			colorize(item.Priority, priorityColor(item.Priority), color),
			formatHours(item.AgeHours),
		})
	}
	return renderTable(columns, rows)
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue counts and pipeline throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(engine *workflow.Engine, _ *queue.Store) error {
				stats, err := engine.Stats(cmd.Context())
				if err != nil {
					return err
				}
				resp := api.FromStats(stats)
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStats(resp))
				return nil
			})
		},
	}
}

func renderStats(stats api.QueueStats) string {
	columns := []column{{header: "Queue"}, {header: "Items", right: true}}
	rows := make([][]string, 0, len(stats.Queues)+8)
	for _, entry := range api.SortedQueueCounts(stats.Queues) {
		rows = append(rows, []string{displayLabel(entry.Queue), strconv.Itoa(entry.Count)})
	}
	rows = append(rows,
		[]string{"On Hold", strconv.Itoa(stats.OnHold)},
		[]string{"Urgent", strconv.Itoa(stats.Urgent)},
		[]string{"Completed Today", strconv.Itoa(stats.CompletedToday)},
		[]string{"Published", strconv.Itoa(stats.Published)},
		[]string{"Rejected", strconv.Itoa(stats.Rejected)},
		[]string{"Total", strconv.Itoa(stats.Total)},
	)

	var b strings.Builder
	b.WriteString(renderTable(columns, rows))
	b.WriteString("\n")
	if stats.WaitSamples == 0 {
		fmt.Fprintf(&b, "Average wait: n/a (no reviews in the last %s)", formatHours(stats.WaitWindowHours))
	} else {
		fmt.Fprintf(&b, "Average wait: %s over %d reviews in the last %s",
			formatHours(stats.AvgWaitHours), stats.WaitSamples, formatHours(stats.WaitWindowHours))
	}
	return b.String()
}
