// Package config loads server settings from GOLFCLUB_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Config is the server configuration
type Config struct {
	Host            string        `env:"GOLFCLUB_HOST"`
	Port            int           `env:"GOLFCLUB_PORT"             envDefault:"8080"`
	ReadTimeout     time.Duration `env:"GOLFCLUB_READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"GOLFCLUB_WRITE_TIMEOUT"    envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"GOLFCLUB_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	StorageType   string `env:"GOLFCLUB_STORAGE_TYPE"    envDefault:"memory"`
	RedisURL      string `env:"GOLFCLUB_REDIS_URL"`
	RedisPoolSize int    `env:"GOLFCLUB_REDIS_POOL_SIZE" envDefault:"10"`
	SQLitePath    string `env:"GOLFCLUB_SQLITE_PATH"     envDefault:"data/golfclub.db"`

	LogLevel       string `env:"GOLFCLUB_LOG_LEVEL"       envDefault:"info"`
	MetricsEnabled bool   `env:"GOLFCLUB_METRICS_ENABLED" envDefault:"true"`
}

// Load parses the environment and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements env tags cannot express
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory, StorageSQLite:
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("GOLFCLUB_REDIS_URL is required when GOLFCLUB_STORAGE_TYPE=%s", StorageRedis)
		}
	default:
		return fmt.Errorf("invalid GOLFCLUB_STORAGE_TYPE %q: must be memory, redis or sqlite", c.StorageType)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GOLFCLUB_PORT %d", c.Port)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level maps LogLevel to a slog level
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid GOLFCLUB_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
