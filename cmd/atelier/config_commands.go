package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"atelier/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set notifications.ntfy_topic or notifications.kafka_brokers to deliver owner notifications.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and summarize the pipeline settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			source := ctx.configPath
			if _, statErr := os.Stat(ctx.configPath); os.IsNotExist(statErr) {
				source += " (not found, defaults used)"
			}
			fmt.Fprintf(out, "%-16s %s\n", "Config:", source)
			fmt.Fprintf(out, "%-16s %s\n", "Database:", cfg.QueueDBPath())
			fmt.Fprintf(out, "%-16s %s, average wait over %s\n", "Stats:", cfg.Location(), formatHours(cfg.WaitWindow().Hours()))
			fmt.Fprintf(out, "%-16s %s\n", "Transports:", describeTransports(cfg))
			fmt.Fprintf(out, "%-16s %d attempts, backoff %ds to %ds\n", "Outbox retry:",
				cfg.Outbox.MaxAttempts, cfg.Outbox.BaseBackoff, cfg.Outbox.MaxBackoff)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func describeTransports(cfg *config.Config) string {
	var transports []string
	if cfg.Notifications.NtfyTopic != "" {
		transports = append(transports, "ntfy "+cfg.Notifications.NtfyTopic)
	}
	if len(cfg.Notifications.KafkaBrokers) > 0 {
		transports = append(transports, fmt.Sprintf("kafka %s@%s",
			cfg.Notifications.KafkaTopic, strings.Join(cfg.Notifications.KafkaBrokers, ",")))
	}
	if len(transports) == 0 {
		return "none (outbox entries are marked delivered without sending)"
	}
	return strings.Join(transports, "; ")
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			shown := *cfg
			if shown.Paths.APIToken != "" {
				shown.Paths.APIToken = "********"
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, shown)
			}
			data, err := toml.Marshal(shown)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
