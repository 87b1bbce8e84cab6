// Package config loads and validates the daemon configuration: the schedule
// bindings plus logging, metrics, and event-publishing settings. Sources are
// a YAML file and NANOCRON_* environment overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ThirdLetterC/nanocron/internal/errors"
)

// Duration decodes Go duration strings ("90s", "10m") from YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.ConfigInvalid("invalid duration").WithContext("value", raw)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root daemon configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Events    EventsConfig    `yaml:"events"`
}

// LoggingConfig holds the configured log level and format. Validate checks
// both values; the CLI sets up its slog logger from --verbose and does not
// read these settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig holds the registry settings and schedule bindings.
type SchedulerConfig struct {
	// UTCOffsetMinutes shifts instants before calendar breakdown, in
	// [-1440, 1440]. No DST rules are applied.
	UTCOffsetMinutes int `yaml:"utc_offset_minutes"`

	// CatchUpWindow bounds how far back the runner replays missed triggers
	// after a long sleep. Zero disables the bound.
	CatchUpWindow Duration `yaml:"catch_up_window"`

	Schedules []ScheduleConfig `yaml:"schedules"`
}

// ScheduleConfig binds a name to a 7-field schedule expression. Subject
// optionally overrides the event subject for this schedule.
type ScheduleConfig struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
	Subject    string `yaml:"subject,omitempty"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// EventsConfig controls trigger-event publishing over NATS.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Default returns a configuration with usable defaults and no schedules.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  string(LogLevelInfo),
			Format: string(LogFormatText),
		},
		Scheduler: SchedulerConfig{
			CatchUpWindow: Duration(time.Hour),
		},
		Metrics: MetricsConfig{
			Listen: ":9115",
		},
		Events: EventsConfig{
			URL:     "nats://127.0.0.1:4222",
			Subject: "nanocron.triggers",
		},
	}
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "reading configuration")
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "parsing configuration").
			WithContext("path", path)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays NANOCRON_* environment variables onto the config.
// Precedence: environment > file > defaults.
func (c *Config) applyEnv() {
	if v := os.Getenv("NANOCRON_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("NANOCRON_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("NANOCRON_UTC_OFFSET_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scheduler.UTCOffsetMinutes = n
		}
	}
	if v := os.Getenv("NANOCRON_METRICS_LISTEN"); v != "" {
		c.Metrics.Listen = v
		c.Metrics.Enabled = true
	}
	if v := os.Getenv("NANOCRON_NATS_URL"); v != "" {
		c.Events.URL = v
		c.Events.Enabled = true
	}
}

// Validate checks the configuration for structural problems. Expression
// syntax is checked by the registry when schedules are registered.
func (c *Config) Validate() error {
	if NormalizeLogLevel(c.Logging.Level) == "" {
		return errors.ConfigInvalid("unknown log level").WithContext("level", c.Logging.Level)
	}
	if NormalizeLogFormat(c.Logging.Format) == "" {
		return errors.ConfigInvalid("unknown log format").WithContext("format", c.Logging.Format)
	}
	if c.Scheduler.UTCOffsetMinutes < -1440 || c.Scheduler.UTCOffsetMinutes > 1440 {
		return errors.ConfigInvalid("utc_offset_minutes outside [-1440, 1440]").
			WithContext("offset", c.Scheduler.UTCOffsetMinutes)
	}
	if c.Scheduler.CatchUpWindow < 0 {
		return errors.ConfigInvalid("catch_up_window must not be negative")
	}
	seen := make(map[string]struct{}, len(c.Scheduler.Schedules))
	for _, s := range c.Scheduler.Schedules {
		if s.Name == "" {
			return errors.ConfigInvalid("schedule with empty name")
		}
		if s.Expression == "" {
			return errors.ConfigInvalid("schedule with empty expression").WithContext("name", s.Name)
		}
		if _, dup := seen[s.Name]; dup {
			return errors.ConfigInvalid("duplicate schedule name").WithContext("name", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return errors.ConfigInvalid("metrics enabled without listen address")
	}
	if c.Events.Enabled && c.Events.URL == "" {
		return errors.ConfigInvalid("events enabled without NATS URL")
	}
	return nil
}
