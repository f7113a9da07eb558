package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"atelier/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through every configured transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" && len(cfg.Notifications.KafkaBrokers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notification transport configured (set notifications.ntfy_topic or notifications.kafka_brokers)")
				return nil
			}
			svc := notifications.NewService(cfg)
			defer notifications.Close(svc)
			if err := svc.TestNotification(cmd.Context()); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
