// Package main is the entry point for the trailer POS API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trailerpos/internal/config"
	"trailerpos/internal/core/apperror"
	"trailerpos/internal/domain/auth"
	"trailerpos/internal/engine"
	v1 "trailerpos/internal/infrastructure/http/v1"
	"trailerpos/internal/infrastructure/http/v1/handlers"
	"trailerpos/internal/infrastructure/snapshot"
	"trailerpos/internal/infrastructure/storage"
	"trailerpos/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting trailerpos server", "version", version, "env", cfg.App.Env)

	// --- Engine ---
	policy, err := cfg.LockPolicy()
	if err != nil {
		log.Fatalw("invalid order lock policy", "error", err)
	}
	eng := engine.New(engine.Options{LockPolicy: policy})
	log.Infow("engine initialized", "order_lock", policy.String())

	// --- Snapshot store ---
	opened, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalw("failed to open snapshot store", "error", err)
	}
	defer opened.Close()

	if err := restore(ctx, eng, opened.Store); err != nil {
		log.Fatalw("failed to restore latest snapshot", "store", opened.Kind, "error", err)
	}

	autosaver := snapshot.NewAutosaver(eng, opened.Store, cfg.AutosaveInterval())
	autosaver.MarkSaved()

	// --- Auth Service ---
	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         "trailerpos",
		AccessTokenTTL: cfg.JWT.TTL,
	}, time.Now)
	authService := auth.NewService(eng.Catalog(), jwtService)

	checks := map[string]handlers.Check{}
	if opened.Ping != nil {
		checks["database"] = opened.Ping
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Engine:        eng,
		AuthService:   authService,
		Logger:        log,
		DefaultStore:  cfg.DefaultStore,
		SnapshotStore: opened.Store,
		Checks:        checks,
		Version:       version,
		Debug:         cfg.App.IsDevelopment(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", server.Addr, "store", opened.Kind)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	autosaveCtx, stopAutosave := context.WithCancel(ctx)
	autosaveDone := make(chan struct{})
	go func() {
		defer close(autosaveDone)
		autosaver.Run(autosaveCtx)
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	stopAutosave()
	<-autosaveDone

	if saved, err := autosaver.SaveNow(shutdownCtx); err != nil {
		log.Errorw("final snapshot failed", "error", err)
	} else if saved {
		log.Info("final snapshot saved")
	}

	log.Info("server stopped")
}

// restore loads the newest snapshot into eng. An empty store is not an error.
func restore(ctx context.Context, eng *engine.Engine, store snapshot.Store) error {
	blob, info, err := store.Latest(ctx)
	if apperror.IsNotFound(err) {
		logger.Info(ctx, "no snapshot found, starting with empty state")
		return nil
	}
	if err != nil {
		return err
	}
	if err := eng.ImportSnapshot(ctx, blob); err != nil {
		return err
	}
	logger.Info(ctx, "state restored",
		"snapshot_id", info.ID,
		"created_at", info.CreatedAt,
		"bytes", info.SizeBytes)
	return nil
}
