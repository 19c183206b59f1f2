// Package backend selects and builds the store implementation from
// configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"riel/internal/store"
	"riel/internal/store/memory"
	"riel/internal/store/postgres"
	"riel/internal/store/sqlite"
)

// Type names a store backend.
type Type string

const (
	SQLite   Type = "sqlite"
	Postgres Type = "postgres"
	Memory   Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Postgres, Memory:
		return true
	default:
		return false
	}
}

// Config holds what each backend needs to start.
type Config struct {
	Type         Type
	SQLiteDBPath string
	PostgresDSN  string
}

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result pairs a ready store with its cleanup function. Cleanup may
// be nil for backends without resources to release.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Open builds the configured backend.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case SQLite:
		s, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: s, Cleanup: s.Close}, nil

	case Postgres:
		s, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres backend: %w", err)
		}
		logger.Info("Initialized Postgres backend")
		return &Result{Store: s, Cleanup: s.Close}, nil

	default:
		logger.Info("Initialized memory backend")
		return &Result{Store: memory.New()}, nil
	}
}
