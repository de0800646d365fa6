// Package main provides a CLI tool that writes the demo catalog as the first
// snapshot of an empty store.
package main

import (
	"context"
	"fmt"
	"os"

	"trailerpos/internal/config"
	"trailerpos/internal/core/apperror"
	"trailerpos/internal/engine"
	"trailerpos/internal/infrastructure/storage"
	"trailerpos/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)

	opened, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalw("failed to open snapshot store", "error", err)
	}
	defer opened.Close()

	// Seeding on top of existing state would fork history
	_, existing, err := opened.Store.Latest(ctx)
	switch {
	case err == nil && os.Getenv("SEED_FORCE") != "true":
		log.Fatalw("store already holds a snapshot, set SEED_FORCE=true to seed anyway",
			"snapshot_id", existing.ID, "created_at", existing.CreatedAt)
	case err != nil && !apperror.IsNotFound(err):
		log.Fatalw("failed to read latest snapshot", "error", err)
	}

	pin := os.Getenv("SEED_PIN")
	if pin == "" {
		pin = "1234"
	}

	policy, err := cfg.LockPolicy()
	if err != nil {
		log.Fatalw("invalid order lock policy", "error", err)
	}
	eng := engine.New(engine.Options{LockPolicy: policy})

	if err := seedDemo(ctx, eng, pin); err != nil {
		log.Fatalw("failed to seed demo catalog", "error", err)
	}

	blob, err := eng.ExportSnapshot(ctx)
	if err != nil {
		log.Fatalw("failed to export snapshot", "error", err)
	}
	info, err := opened.Store.Save(ctx, blob)
	if err != nil {
		log.Fatalw("failed to save snapshot", "error", err)
	}

	log.Infow("seeding completed successfully",
		"store", opened.Kind,
		"snapshot_id", info.ID,
		"bytes", info.SizeBytes,
		"cashier", demoCashier)
}
