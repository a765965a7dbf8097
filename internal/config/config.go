package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config keeps runtime settings for the lifecycle engine. Retention
// constants are deployment inputs, never hard-coded in services.
type Config struct {
	DatabaseURL   string `env:"DATABASE_URL" envDefault:"classfeed.db"`
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	TriggerSecret string `env:"TRIGGER_SECRET"`
	Timezone      string `env:"TIMEZONE" envDefault:"Local"`

	// TaskAgeCeiling retires a task regardless of deadline once it is this
	// old. CompletionGrace lets a fully completed task linger in the feed
	// before retirement.
	TaskAgeCeiling    time.Duration `env:"TASK_AGE_CEILING" envDefault:"2160h"`
	CompletionGrace   time.Duration `env:"COMPLETION_GRACE" envDefault:"48h"`
	StaleStatusAge    time.Duration `env:"STALE_STATUS_AGE" envDefault:"720h"`
	ReminderTolerance time.Duration `env:"REMINDER_TOLERANCE" envDefault:"30m"`

	SweepInterval     time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"6h"`
	ReminderInterval  time.Duration `env:"REMINDER_INTERVAL" envDefault:"15m"`
	JobTimeout        time.Duration `env:"JOB_TIMEOUT" envDefault:"5m"`

	TelegramToken string `env:"TELEGRAM_TOKEN"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if cfg.TaskAgeCeiling <= 0 {
		return cfg, fmt.Errorf("TASK_AGE_CEILING must be positive")
	}
	if cfg.CompletionGrace <= 0 {
		return cfg, fmt.Errorf("COMPLETION_GRACE must be positive")
	}
	if cfg.StaleStatusAge <= 0 {
		return cfg, fmt.Errorf("STALE_STATUS_AGE must be positive")
	}
	if cfg.ReminderTolerance <= 0 {
		return cfg, fmt.Errorf("REMINDER_TOLERANCE must be positive")
	}

	return cfg, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
