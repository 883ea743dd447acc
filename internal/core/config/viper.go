package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/expectree/internal/types"
)

// EnvPrefix prefixes every environment override, e.g. EXPECTREE_SERVE_PORT.
const EnvPrefix = "EXPECTREE"

// Load reads configuration using viper.
// CLI flags > environment > config file > defaults precedence; flags are
// applied by the caller on top of the returned Config.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("ids.strategy", d.IDs.Strategy)
	v.SetDefault("ids.prefix", d.IDs.Prefix)
	v.SetDefault("checks.concurrency", d.Checks.Concurrency)
	v.SetDefault("serve.host", d.Serve.Host)
	v.SetDefault("serve.port", d.Serve.Port)
	v.SetDefault("serve.metrics_addr", d.Serve.MetricsAddr)
	v.SetDefault("serve.debounce", d.Serve.Debounce.String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		IDs: IDConfig{
			Strategy: v.GetString("ids.strategy"),
			Prefix:   v.GetString("ids.prefix"),
		},
		Checks: ChecksConfig{
			Concurrency: v.GetInt("checks.concurrency"),
		},
		Serve: ServeConfig{
			Host:        v.GetString("serve.host"),
			Port:        v.GetInt("serve.port"),
			MetricsAddr: v.GetString("serve.metrics_addr"),
			Debounce:    v.GetDuration("serve.debounce"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func Validate(cfg *Config) error {
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Log.Format)
	}
	if _, err := types.NewIDGenerator(cfg.IDs.Strategy, cfg.IDs.Prefix); err != nil {
		return fmt.Errorf("ids.strategy: %w", err)
	}
	if cfg.Checks.Concurrency <= 0 {
		return fmt.Errorf("checks.concurrency must be positive, got %d", cfg.Checks.Concurrency)
	}
	if cfg.Serve.Port <= 0 || cfg.Serve.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Serve.Port)
	}
	if cfg.Serve.Debounce < 0 {
		return fmt.Errorf("serve.debounce must not be negative, got %v", cfg.Serve.Debounce)
	}
	return nil
}
