package taskstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Backend     Backend
	Capacity    int    // memory only
	SQLitePath  string // sqlite only
	PostgresDSN string // postgres only
	Logger      *zap.Logger
}

// New creates the Store named by cfg.Backend.
func New(ctx context.Context, cfg Config) (Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case BackendMemory, "":
		logger.Info("using in-memory task store", zap.Int("capacity", cfg.Capacity))
		return NewMemoryStore(cfg.Capacity), nil
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("sqlite path is required for sqlite task store")
		}
		logger.Info("using sqlite task store", zap.String("path", cfg.SQLitePath))
		return NewSQLiteStore(cfg.SQLitePath)
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("dsn is required for postgres task store")
		}
		logger.Info("using postgres task store")
		return OpenPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported task store backend: %s", cfg.Backend)
	}
}
