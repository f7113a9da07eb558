package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"atelier/internal/api"
	"atelier/internal/preflight"
	"atelier/internal/queue"
	"atelier/internal/workflow"
)

type healthReport struct {
	Database api.DatabaseHealth `json:"database"`
	Checks   []preflight.Result `json:"checks"`
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the pipeline database, directories, and notification transports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd, func(_ *workflow.Engine, store *queue.Store) error {
				health, err := store.CheckHealth(cmd.Context())
				resp := api.FromDatabaseHealth(health)
				cfg, _ := ctx.ensureConfig()
				checks := preflight.RunAll(cmd.Context(), cfg)
				if ctx.jsonOutput() {
					if encodeErr := writeJSON(cmd, healthReport{Database: resp, Checks: checks}); encodeErr != nil {
						return encodeErr
					}
				} else {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "%-18s %s\n", "Database:", resp.DBPath)
					fmt.Fprintf(out, "%-18s %s\n", "Readable:", yesNo(resp.DatabaseReadable))
					fmt.Fprintf(out, "%-18s %d\n", "Schema version:", resp.SchemaVersion)
					fmt.Fprintf(out, "%-18s %s\n", "Integrity check:", yesNo(resp.IntegrityCheck))
					fmt.Fprintf(out, "%-18s %d\n", "Items:", resp.TotalItems)
					fmt.Fprintf(out, "%-18s %d pending, %d dead\n", "Outbox:", resp.PendingOutbox, resp.DeadOutbox)
					if resp.Error != "" {
						fmt.Fprintf(out, "%-18s %s\n", "Error:", resp.Error)
					}
					fmt.Fprintln(out)
					color := shouldColorize(out)
					for _, check := range checks {
						label, labelColor := "OK", ansiGreen
						if !check.Passed {
							label, labelColor = "FAIL", ansiRed
						}
						fmt.Fprintf(out, "%-18s %s %s\n", check.Name+":", colorize("["+label+"]", labelColor, color), check.Detail)
					}
				}
				if err != nil {
					return err
				}
				if !health.IntegrityCheck {
					return errors.New("database integrity check failed")
				}
				return nil
			})
		},
	}
}
