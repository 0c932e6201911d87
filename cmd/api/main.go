package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/harvestconnect/harvestcart/api/middleware"
	"github.com/harvestconnect/harvestcart/api/routes"
	"github.com/harvestconnect/harvestcart/internal/kvstore"
	"github.com/harvestconnect/harvestcart/internal/sessions"
	"github.com/harvestconnect/harvestcart/pkg/config"
	"github.com/harvestconnect/harvestcart/pkg/logger"
	"github.com/harvestconnect/harvestcart/pkg/metrics"
	"github.com/harvestconnect/harvestcart/pkg/migrate"
	pkgredis "github.com/harvestconnect/harvestcart/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := kvstore.Open(runCtx, cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open cart storage", err)
		os.Exit(1)
	}

	if sqlBackend, ok := backend.(*kvstore.SQL); ok {
		if err := migrate.MaybeRunDev(runCtx, cfg, logg, sqlBackend.Client()); err != nil {
			logg.Error(context.Background(), "failed to run dev migrations", err)
			os.Exit(1)
		}
	}

	var idempotency pkgredis.IdempotencyStore = middleware.NewMemoryIdempotencyStore()
	if redisBackend, ok := backend.(*kvstore.Redis); ok {
		idempotency = redisBackend.Client()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)

	sessionRegistry, err := sessions.NewRegistry(sessions.RegistryParams{
		Backend:       backend,
		StorageKey:    cfg.Cart.StorageKey,
		IdleTTL:       cfg.Cart.SessionIdleTTL,
		InboxCapacity: cfg.Cart.InboxCapacity,
		Logger:        logg,
		Metrics:       cartMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session registry", err)
		os.Exit(1)
	}
	go sessionRegistry.Run(runCtx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"cart_backend": cfg.Cart.NormalizedBackend(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			Sessions:    sessionRegistry,
			Backend:     backend,
			Idempotency: idempotency,
			Gatherer:    registry,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", multierr.Append(err, backend.Close()))
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := multierr.Combine(server.Shutdown(shutdownCtx), backend.Close())
		if err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
