package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"atelier/internal/api"
	"atelier/internal/queue"
	"atelier/internal/workflow"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <item-id>",
		Short: "Show an item with its priority and available actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(engine *workflow.Engine, _ *queue.Store) error {
				detail, err := engine.Describe(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				resp := api.FromItemDetail(detail)
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				printItem(out, resp.Item, shouldColorize(out))
				if len(resp.Actions) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, "Actions:")
					for _, action := range resp.Actions {
						fmt.Fprintf(out, "  %-20s %s\n", action.Token, action.Label)
					}
				}
				return nil
			})
		},
	}
}

func printItem(out io.Writer, item api.PipelineItem, color bool) {
	fmt.Fprintf(out, "%-12s %s\n", "ID:", item.ID)
	fmt.Fprintf(out, "%-12s %s\n", "Title:", item.Title)
	fmt.Fprintf(out, "%-12s %s\n", "Owner:", item.OwnerID)
	fmt.Fprintf(out, "%-12s %s\n", "Status:", colorize(item.Status, statusColor(item.Status), color))
	if item.Queue != "" {
		fmt.Fprintf(out, "%-12s %s\n", "Queue:", displayLabel(item.Queue))
	}
	fmt.Fprintf(out, "%-12s %s (%s old)\n", "Priority:", colorize(item.Priority, priorityColor(item.Priority), color), formatHours(item.AgeHours))
	fmt.Fprintf(out, "%-12s %s\n", "Submitted:", formatTimestamp(item.SubmittedAt))
	if item.ReviewedAt != "" {
		fmt.Fprintf(out, "%-12s %s by %s\n", "Reviewed:", formatTimestamp(item.ReviewedAt), item.ReviewerID)
	}
	if item.ReviewerNotes != "" {
		fmt.Fprintf(out, "%-12s %s\n", "Notes:", item.ReviewerNotes)
	}
	fmt.Fprintf(out, "%-12s %d\n", "Version:", item.Version)
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <item-id>",
		Short: "Show an item's review records and audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID := strings.TrimSpace(args[0])
			return ctx.withEngine(cmd, func(engine *workflow.Engine, _ *queue.Store) error {
				history, err := engine.History(cmd.Context(), itemID)
				if err != nil {
					return err
				}
				resp := api.FromHistory(itemID, history)
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Reviews) == 0 {
					fmt.Fprintln(out, "No reviews recorded")
				} else {
					rows := make([][]string, 0, len(resp.Reviews))
					for _, record := range resp.Reviews {
						rows = append(rows, []string{
							formatTimestamp(record.CreatedAt),
							record.ReviewerID,
							record.Action,
							record.FromStatus + " -> " + record.ToStatus,
							record.Notes,
						})
					}
					fmt.Fprintln(out, renderTable([]column{
						{header: "When"}, {header: "Reviewer"}, {header: "Action"}, {header: "Transition"}, {header: "Notes"},
					}, rows))
				}
				fmt.Fprintf(out, "%d audit entries\n", len(resp.Audit))
				return nil
			})
		},
	}
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var title string
	var owner string
	var actor string
	var metadata string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new item into the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			sub := queue.Submission{Title: title, OwnerID: owner, ActorID: actor}
			if strings.TrimSpace(metadata) != "" {
				sub.Metadata = json.RawMessage(metadata)
			}
			return ctx.withEngine(cmd, func(engine *workflow.Engine, _ *queue.Store) error {
				item, err := engine.Submit(cmd.Context(), sub)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.ItemResponse{Item: api.FromItem(item, engine.Now())})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted %s (%s)\n", item.ID, item.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Item title")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner (submitting maker) id")
	cmd.Flags().StringVar(&actor, "actor", "", "Actor recorded on the intake audit entry (defaults to owner)")
	cmd.Flags().StringVar(&metadata, "metadata", "", "Opaque JSON metadata to store with the item")
	return cmd
}

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var actor string
	var notes string
	var expect string

	cmd := &cobra.Command{
		Use:   "apply <item-id> <action>",
		Short: "Apply a pipeline action to an item",
		Long: "Apply a pipeline action to an item.\n\n" +
			"Actions: start_sampling, generate_tech_pack, approve_production, create_listing, reject, hold.\n" +
			"A pending item accepts only start_sampling and reject.\n\n" +
			"Pass --expect with the status you reviewed (for example approved/sampling). Without it the\n" +
			"item's current status is read first and used as the expectation, so a change someone else\n" +
			"made since you looked is not detected. Scripts and reviewers should always pass --expect.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID := strings.TrimSpace(args[0])
			return ctx.withEngine(cmd, func(engine *workflow.Engine, store *queue.Store) error {
				req := api.ApplyActionRequest{Action: args[1], ActorID: actor, Notes: notes, ExpectedStatus: expect}
				if _, err := queue.ParseAction(req.Action); err != nil {
					return err
				}
				if strings.TrimSpace(req.ExpectedStatus) == "" {
					current, err := store.GetByID(cmd.Context(), itemID)
					if err != nil {
						return err
					}
					if current == nil {
						return &queue.TransitionError{Kind: queue.KindNotFound, ItemID: itemID, Action: args[1]}
					}
					req.ExpectedStatus = current.Status.String()
				}
				applyReq, err := req.ToApplyRequest(itemID)
				if err != nil {
					return err
				}
				item, err := engine.Apply(cmd.Context(), applyReq)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.ItemResponse{Item: api.FromItem(item, engine.Now())})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", item.ID, applyReq.Expected, item.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "Operator id recorded as the reviewer")
	cmd.Flags().StringVar(&notes, "notes", "", "Reviewer notes")
	cmd.Flags().StringVar(&expect, "expect", "", "Status you reviewed; when omitted the current status is used and concurrent changes go undetected")
	return cmd
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "publish <item-id>",
		Short: "Record a marketplace publication for an item in marketplace prep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(engine *workflow.Engine, _ *queue.Store) error {
				item, err := engine.Publish(cmd.Context(), strings.TrimSpace(args[0]), notes)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, api.ItemResponse{Item: api.FromItem(item, engine.Now())})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: published\n", item.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Publication notes")
	return cmd
}
