package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"atelier/internal/api"
	"atelier/internal/config"
	"atelier/internal/logging"
	"atelier/internal/queue"
	"atelier/internal/workflow"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// withEngine opens the pipeline store for the duration of fn. Commands log
// warnings and errors to the command's stderr only.
func (c *commandContext) withEngine(cmd *cobra.Command, fn func(*workflow.Engine, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open pipeline store: %w", err)
	}
	defer store.Close()

	engine := workflow.NewEngine(cfg, store, commandLogger(cmd.ErrOrStderr()))
	return fn(engine, store)
}

func commandLogger(w io.Writer) *slog.Logger {
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Writer: w})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// describeError renders refusals with the operator-facing reason used by the
// HTTP API.
func describeError(err error) string {
	var transitionErr *queue.TransitionError
	if !errors.As(err, &transitionErr) {
		return err.Error()
	}
	_, resp := api.ErrorFor(err)
	message := fmt.Sprintf("refused (%s): %s", resp.Code, resp.Reason)
	if resp.CurrentStatus != "" {
		message += fmt.Sprintf(" Current status: %s.", resp.CurrentStatus)
	}
	return message
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
