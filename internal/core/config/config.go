// Package config provides configuration management for expectree commands.
package config

import (
	"time"

	"github.com/solatis/expectree/internal/types"
)

// Config is the full runtime configuration.
type Config struct {
	Log    LogConfig
	IDs    IDConfig
	Checks ChecksConfig
	Serve  ServeConfig
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// IDConfig selects the leaf id generator used by builders and imports.
type IDConfig struct {
	Strategy string // incremental or uuid
	Prefix   string
}

// ChecksConfig bounds the check runner.
type ChecksConfig struct {
	Concurrency int
}

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Host        string
	Port        int
	MetricsAddr string        // empty disables the /metrics listener
	Debounce    time.Duration // quiet period before re-running checks on a facts change
}

// Default returns configuration with default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "json"},
		IDs: IDConfig{Strategy: "incremental", Prefix: types.DefaultIDPrefix},
		Checks: ChecksConfig{
			Concurrency: 4,
		},
		Serve: ServeConfig{
			Host:        "0.0.0.0",
			Port:        50051,
			MetricsAddr: ":9090",
			Debounce:    250 * time.Millisecond,
		},
	}
}

// IDGenerator builds the configured generator.
func (c *Config) IDGenerator() (types.IDGenerator, error) {
	return types.NewIDGenerator(c.IDs.Strategy, c.IDs.Prefix)
}
