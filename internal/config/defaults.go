package config

const (
	defaultDataDir            = "~/.local/share/atelier"
	defaultLogDir             = "~/.local/share/atelier/logs"
	defaultAPIBind            = "127.0.0.1:7490"
	defaultTimezone           = "UTC"
	defaultWaitWindowHours    = 168
	defaultNotifyTimeout      = 10
	defaultKafkaTopic         = "atelier.pipeline.transitions"
	defaultOutboxPollInterval = 5
	defaultOutboxBatchSize    = 25
	defaultOutboxMaxAttempts  = 8
	defaultOutboxBaseBackoff  = 5
	defaultOutboxMaxBackoff   = 900
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Pipeline: Pipeline{
			Timezone:        defaultTimezone,
			WaitWindowHours: defaultWaitWindowHours,
		},
		Notifications: Notifications{
			RequestTimeout:  defaultNotifyTimeout,
			KafkaTopic:      defaultKafkaTopic,
			NotifyReject:    true,
			NotifyListing:   true,
			NotifyPublished: true,
		},
		Outbox: Outbox{
			PollInterval: defaultOutboxPollInterval,
			BatchSize:    defaultOutboxBatchSize,
			MaxAttempts:  defaultOutboxMaxAttempts,
			BaseBackoff:  defaultOutboxBaseBackoff,
			MaxBackoff:   defaultOutboxMaxBackoff,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
