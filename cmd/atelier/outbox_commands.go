package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"atelier/internal/api"
	"atelier/internal/queue"
	"atelier/internal/workflow"
)

func newOutboxCommand(ctx *commandContext) *cobra.Command {
	outboxCmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and retry owner notifications",
	}
	outboxCmd.AddCommand(newOutboxListCommand(ctx))
	outboxCmd.AddCommand(newOutboxRetryCommand(ctx))
	return outboxCmd
}

func newOutboxListCommand(ctx *commandContext) *cobra.Command {
	var states []string
	var limit uint64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notification outbox entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := make([]queue.OutboxState, 0, len(states))
			for _, raw := range states {
				state, err := queue.ParseOutboxState(raw)
				if err != nil {
					return err
				}
				parsed = append(parsed, state)
			}
			return ctx.withEngine(cmd, func(_ *workflow.Engine, store *queue.Store) error {
				entries, err := store.ListOutbox(cmd.Context(), limit, parsed...)
				if err != nil {
					return err
				}
				resp := api.FromOutboxEntries(entries)
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(out, "Outbox is empty")
					return nil
				}
				color := shouldColorize(out)
				rows := make([][]string, 0, len(resp.Entries))
				for _, entry := range resp.Entries {
					stateColor := ""
					switch entry.State {
					case string(queue.OutboxDead):
						stateColor = ansiRed
					case string(queue.OutboxDelivered):
						stateColor = ansiGreen
					}
					rows = append(rows, []string{
						entry.ID,
						entry.ItemID,
						entry.Action,
						colorize(entry.State, stateColor, color),
						strconv.Itoa(entry.Attempts),
						entry.LastError,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					{header: "ID"}, {header: "Item"}, {header: "Action"}, {header: "State"},
					{header: "Attempts", right: true}, {header: "Last Error"},
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&states, "state", nil, "Filter by state (pending, delivered, dead); repeatable")
	cmd.Flags().Uint64Var(&limit, "limit", 50, "Maximum entries to list")
	return cmd
}

func newOutboxRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [entry-id...]",
		Short: "Requeue dead notifications (all dead entries when no ids are given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(_ *workflow.Engine, store *queue.Store) error {
				count, err := store.RetryOutbox(cmd.Context(), args...)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.OutboxRetryResponse{Requeued: count})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d notification(s)\n", count)
				return nil
			})
		},
	}
}
