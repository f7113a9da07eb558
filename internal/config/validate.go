package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateOutbox(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.WaitWindowHours <= 0 {
		return errors.New("pipeline.wait_window_hours must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	if len(c.Notifications.KafkaBrokers) > 0 && c.Notifications.KafkaTopic == "" {
		return errors.New("notifications.kafka_topic must be set when notifications.kafka_brokers is configured")
	}
	return nil
}

func (c *Config) validateOutbox() error {
	if err := ensurePositiveMap(map[string]int{
		"outbox.poll_interval": c.Outbox.PollInterval,
		"outbox.batch_size":    c.Outbox.BatchSize,
		"outbox.max_attempts":  c.Outbox.MaxAttempts,
		"outbox.base_backoff":  c.Outbox.BaseBackoff,
		"outbox.max_backoff":   c.Outbox.MaxBackoff,
	}); err != nil {
		return err
	}
	if c.Outbox.MaxBackoff < c.Outbox.BaseBackoff {
		return errors.New("outbox.max_backoff must be greater than or equal to outbox.base_backoff")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
