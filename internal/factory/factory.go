package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/golfclub/internal/dependencies/clock"
	"github.com/mcoot/golfclub/internal/dependencies/random"
	"github.com/mcoot/golfclub/internal/metrics"
	"github.com/mcoot/golfclub/internal/services/member"
	"github.com/mcoot/golfclub/internal/services/query"
	"github.com/mcoot/golfclub/internal/services/registration"
	"github.com/mcoot/golfclub/internal/services/tournament"
	"github.com/mcoot/golfclub/internal/storage"
	"github.com/mcoot/golfclub/internal/storage/memory"
	redisstorage "github.com/mcoot/golfclub/internal/storage/redis"
	"github.com/mcoot/golfclub/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock   clock.Clock
	Random  random.Random
	Metrics *metrics.Metrics

	// Services
	Members      *member.Service
	Tournaments  *tournament.Service
	Registration *registration.Coordinator
	Queries      *query.Service
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// Metrics is the metrics sink (optional)
	// If nil, nothing is recorded
	Metrics *metrics.Metrics
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	var store storage.Storage
	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store = sqliteStore
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}

	app := newWithDependencies(store, clock.New(), random.New(), cfg.Metrics, logger)
	app.StorageType = storageType
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, m *metrics.Metrics, logger *slog.Logger) *App {
	return &App{
		Storage:      store,
		StorageType:  StorageTypeMemory,
		Clock:        clk,
		Random:       rnd,
		Metrics:      m,
		Members:      member.New(store, clk, logger.With(slog.String("component", "member")), m),
		Tournaments:  tournament.New(store, clk, logger.With(slog.String("component", "tournament")), m),
		Registration: registration.NewCoordinator(store, clk, logger.With(slog.String("component", "registration")), m),
		Queries:      query.New(store, clk),
	}
}

// Close releases the storage backend's resources, if it holds any
func (a *App) Close() error {
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
