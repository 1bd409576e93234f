// Copyright (c) 2026 Readstack. All rights reserved.

// Command api is the entry point for the Readstack HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Build the cache layer (in-process or Redis).
//  5. Run database migrations (idempotent).
//  6. Wire external clients and domain services.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/readstack/readstack/internal/api"
	"github.com/readstack/readstack/internal/catalog"
	"github.com/readstack/readstack/internal/openlibrary"
	"github.com/readstack/readstack/internal/platform/cache"
	"github.com/readstack/readstack/internal/platform/clients"
	"github.com/readstack/readstack/internal/platform/config"
	"github.com/readstack/readstack/internal/platform/constants"
	"github.com/readstack/readstack/internal/platform/migration"
	pgstore "github.com/readstack/readstack/internal/platform/postgres"
	redisstore "github.com/readstack/readstack/internal/platform/redis"
	"github.com/readstack/readstack/internal/platform/sec"
	storepg "github.com/readstack/readstack/internal/store/postgres"
	"github.com/readstack/readstack/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "readstack"))
	slog.SetDefault(log)

	log.Info("[Readstack] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "readstack"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("cache_backend", cfg.CacheBackend),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Application context lives until shutdown begins. Background workers
	// (rate limiter cleanup) stop when it is cancelled.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Cache Layer ────────────────────────────────────────────────────
	var cacheBackend cache.Backend
	var rdb *goredis.Client

	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		cacheBackend = cache.NewRedisBackend(rdb, constants.CacheKeyspace)
	default:
		cacheBackend = cache.NewMemoryBackend(cfg.CacheTTL)
	}

	cacheService := cache.NewService(cacheBackend, cfg.CacheTTL, log)
	defer func() {
		log.Info("closing cache backend")
		if cerr := cacheService.Close(); cerr != nil {
			log.Error("cache close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Auth Service ───────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	healthDeps := api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
	}
	if rdb != nil {
		healthDeps.CheckCache = func() error {
			return redisstore.Ping(context.Background(), rdb)
		}
	}
	liveness, readiness := api.NewHealthHandlers(healthDeps, log)

	// ── 8. External Clients ───────────────────────────────────────────────
	clientManager := clients.NewManager(openlibrary.Config{
		BaseURL:     cfg.OpenLibraryBaseURL,
		Timeout:     cfg.OpenLibraryTimeout,
		MaxRetries:  cfg.OpenLibraryMaxRetries,
		BackoffBase: cfg.OpenLibraryBackoffBase,
	}, cacheService, cfg.EnrichmentTTL, log)
	defer clientManager.Close()

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	storeFactory := storepg.NewFactory(pool, log)

	authService := auth.NewService(storeFactory, jwtSvc, log)
	authHandler := auth.NewHandler(authService)

	catalogService := catalog.NewService(storeFactory, clientManager.OpenLibrary(), cacheService, log)
	catalogHandler := catalog.NewHandler(catalogService)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Catalog:   catalogHandler,
	}

	server := api.NewServer(appCtx, cfg, log, jwtSvc, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
