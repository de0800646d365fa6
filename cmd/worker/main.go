// Package main is the entry point for the trailer POS background worker.
// It periodically checks that the newest snapshot still restores.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"trailerpos/internal/config"
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
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting trailerpos snapshot worker")

	opened, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalw("failed to open snapshot store", "error", err)
	}
	defer opened.Close()

	policy, err := cfg.LockPolicy()
	if err != nil {
		log.Fatalw("invalid order lock policy", "error", err)
	}

	interval := cfg.AutosaveInterval()
	if interval <= 0 {
		interval = time.Minute
	}
	verifier := NewVerifier(opened.Store, engine.Options{LockPolicy: policy}, interval, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		verifier.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}
