// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"trailerpos/internal/domain/auth"
	"trailerpos/internal/engine"
	"trailerpos/internal/infrastructure/http/v1/handlers"
	"trailerpos/internal/infrastructure/http/v1/middleware"
	"trailerpos/internal/infrastructure/snapshot"
	"trailerpos/pkg/logger"
)

// RoleManager may change the catalog and replace the state.
const RoleManager = "manager"

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Engine serves every POS operation
	Engine *engine.Engine

	// AuthService issues and validates cashier tokens
	AuthService *auth.Service

	// Logger for request logging
	Logger *logger.Logger

	// DefaultStore is the store code used when a request does not name one
	DefaultStore string

	// SnapshotStore, if set, persists imports and exposes saved snapshots
	SnapshotStore snapshot.Store

	// Checks are run by the readiness probe
	Checks map[string]handlers.Check

	Version string

	// Debug enables gin debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.Checks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler(cfg.Engine.Catalog(), cfg.DefaultStore)
	requireManager := middleware.RequireRole(RoleManager)

	v1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
		protectedAuth := v1.Group("/auth")
		protectedAuth.Use(middleware.Auth(cfg.AuthService))
		authHandler.RegisterRoutes(v1.Group("/auth"), protectedAuth)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.AuthService))

		handlers.NewOrderHandler(base, cfg.Engine).RegisterRoutes(protected)
		handlers.NewPurchaseHandler(base, cfg.Engine).RegisterRoutes(protected)
		handlers.NewMenuHandler(base, cfg.Engine).RegisterRoutes(protected, requireManager)
		handlers.NewReportsHandler(base, cfg.Engine).RegisterRoutes(protected)
		handlers.NewSnapshotHandler(base, cfg.Engine, cfg.SnapshotStore).RegisterRoutes(protected, requireManager)
	}

	return router
}
