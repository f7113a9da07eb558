package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"atelier/internal/api"
	"atelier/internal/apiclient"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running daemon's dispatcher and database status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := apiclient.NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
			if err != nil {
				return fmt.Errorf("daemon api address: %w", err)
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				if !apiclient.IsAPIUnavailable(err) {
					return err
				}
				status = api.DaemonStatus{}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			if !status.Running {
				fmt.Fprintln(out, "Daemon: not running")
				return nil
			}
			color := shouldColorize(out)
			fmt.Fprintf(out, "%-18s %s (pid %d)\n", "Daemon:", colorize("running", ansiGreen, color), status.PID)
			fmt.Fprintf(out, "%-18s %s\n", "API:", status.APIAddress)
			fmt.Fprintf(out, "%-18s %s\n", "Database:", status.QueueDBPath)
			fmt.Fprintf(out, "%-18s %s\n", "Lock file:", status.LockFilePath)
			fmt.Fprintf(out, "%-18s %d pending, %d dead\n", "Outbox:", status.Database.PendingOutbox, status.Database.DeadOutbox)
			dispatcher := status.Dispatcher
			fmt.Fprintf(out, "%-18s %d delivered, %d retried, %d dead\n", "Dispatcher:", dispatcher.Delivered, dispatcher.Retried, dispatcher.Dead)
			if dispatcher.LastRun != "" {
				fmt.Fprintf(out, "%-18s %s\n", "Last run:", dispatcher.LastRun)
			}
			if dispatcher.LastError != "" {
				fmt.Fprintf(out, "%-18s %s\n", "Last error:", colorize(dispatcher.LastError, ansiRed, color))
			}
			return nil
		},
	}
}
