package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port string `env:"PORT" envDefault:"8080" validate:"required"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	SchedulerEnable              bool    `env:"SCHEDULER_ENABLE" envDefault:"true"`
	SchedulerPollIntervalSeconds float64 `env:"SCHEDULER_POLL_INTERVAL_SECONDS" envDefault:"0.5" validate:"gt=0"`
	MaxWorkerThreads             int     `env:"MAX_WORKER_THREADS" envDefault:"8" validate:"min=1,max=256"`
	MaxClaimBatch                int     `env:"MAX_CLAIM_BATCH" envDefault:"100" validate:"min=1,max=1000"`
	DefaultTaskTimeoutSeconds    int     `env:"DEFAULT_TASK_TIMEOUT_SECONDS" envDefault:"30" validate:"min=1"`
	HTTPTaskURL                  string  `env:"HTTP_TASK_URL" envDefault:"https://httpbin.org/status/200"`

	// APIKey, when set, is the shared secret the x-api-key middleware
	// requires. Left empty, the API runs unauthenticated (local dev).
	APIKey string `env:"API_KEY"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
	LogJSON     bool   `env:"LOG_JSON" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts LOG_LEVEL to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// PollInterval converts SchedulerPollIntervalSeconds to a time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.SchedulerPollIntervalSeconds * float64(time.Second))
}

// DefaultTaskTimeout converts DefaultTaskTimeoutSeconds to a time.Duration.
func (c *Config) DefaultTaskTimeout() time.Duration {
	return time.Duration(c.DefaultTaskTimeoutSeconds) * time.Second
}
