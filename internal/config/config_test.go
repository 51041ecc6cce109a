package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.True(t, cfg.MetricsEnabled)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GOLFCLUB_PORT", "9090")
	t.Setenv("GOLFCLUB_STORAGE_TYPE", "redis")
	t.Setenv("GOLFCLUB_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("GOLFCLUB_LOG_LEVEL", "debug")
	t.Setenv("GOLFCLUB_SHUTDOWN_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	level, _ := cfg.Level()
	assert.Equal(t, slog.LevelDebug, level)
}

func TestRedisNeedsURL(t *testing.T) {
	t.Setenv("GOLFCLUB_STORAGE_TYPE", "redis")

	_, err := Load()
	assert.ErrorContains(t, err, "GOLFCLUB_REDIS_URL")
}

func TestRejectsUnknownStorage(t *testing.T) {
	t.Setenv("GOLFCLUB_STORAGE_TYPE", "postgres")

	_, err := Load()
	assert.ErrorContains(t, err, "postgres")
}

func TestRejectsBadLevel(t *testing.T) {
	t.Setenv("GOLFCLUB_LOG_LEVEL", "loud")

	_, err := Load()
	assert.ErrorContains(t, err, "GOLFCLUB_LOG_LEVEL")
}

func TestRejectsMalformedNumber(t *testing.T) {
	t.Setenv("GOLFCLUB_PORT", "eighty")

	_, err := Load()
	assert.ErrorContains(t, err, "parse env")
}
