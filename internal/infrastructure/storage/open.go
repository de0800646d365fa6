// Package storage selects the snapshot store of a deployment.
package storage

import (
	"context"
	"fmt"

	"trailerpos/internal/config"
	"trailerpos/internal/infrastructure/snapshot"
	"trailerpos/internal/infrastructure/storage/file"
	"trailerpos/internal/infrastructure/storage/postgres"
	"trailerpos/pkg/logger"
)

// Opened is a ready snapshot store.
type Opened struct {
	Store snapshot.Store

	// Kind is "postgres" or "file"
	Kind string

	// Ping checks the backing database; nil for file stores
	Ping func(ctx context.Context) error

	close func()
}

// Close releases the store's resources.
func (o *Opened) Close() {
	if o.close != nil {
		o.close()
	}
}

// Open returns the Postgres store when a database URL is configured and
// the file store otherwise. The Postgres schema is created if missing.
func Open(ctx context.Context, cfg config.StorageConfig) (*Opened, error) {
	if !cfg.UsesPostgres() {
		logger.Info(ctx, "using file snapshot store", "dir", cfg.SnapshotPath)
		return &Opened{
			Store: file.NewSnapshotStore(cfg.SnapshotPath, cfg.Retain),
			Kind:  "file",
		}, nil
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect snapshot database: %w", err)
	}
	store := postgres.NewSnapshotStore(pool, cfg.Retain)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	postgres.LogPoolStats(ctx, pool)

	return &Opened{
		Store: store,
		Kind:  "postgres",
		Ping:  pool.Ping,
		close: pool.Close,
	}, nil
}
