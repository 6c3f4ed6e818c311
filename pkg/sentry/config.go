package sentry

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// Config Sentry 配置，DSN 为空表示不上报
type Config struct {
	DSN              string            `mapstructure:"dsn"`
	Environment      string            `mapstructure:"environment"`
	Release          string            `mapstructure:"release"`
	SampleRate       float64           `mapstructure:"sample_rate"`
	AttachStacktrace bool              `mapstructure:"attach_stacktrace"`
	ShutdownTimeout  time.Duration     `mapstructure:"shutdown_timeout"`
	Tags             map[string]string `mapstructure:"tags"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Environment:      "production",
		SampleRate:       1.0,
		AttachStacktrace: true,
		ShutdownTimeout:  2 * time.Second,
	}
}

// Enabled 是否配置了 DSN
func (c *Config) Enabled() bool {
	return c != nil && c.DSN != ""
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.DSN == "" {
		return ErrInvalidDSN
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return ErrInvalidConfig
	}
	return nil
}

func (c *Config) toClientOptions() sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              c.DSN,
		Environment:      c.Environment,
		Release:          c.Release,
		SampleRate:       c.SampleRate,
		AttachStacktrace: c.AttachStacktrace,
	}
}
