package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/city-explorer/internal/client"
	"github.com/kjstillabower/city-explorer/internal/config"
	httphandler "github.com/kjstillabower/city-explorer/internal/http"
	"github.com/kjstillabower/city-explorer/internal/lifecycle"
	"github.com/kjstillabower/city-explorer/internal/observability"
	"github.com/kjstillabower/city-explorer/internal/service"
	"github.com/kjstillabower/city-explorer/internal/store"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	newClient := func(e client.Endpoint) *client.Client {
		c, err := client.New(e, cfg.UpstreamTimeout)
		if err != nil {
			logger.Fatal("provider client", zap.String("resource", string(e.Resource)), zap.Error(err))
		}
		return c
	}
	p := cfg.Providers
	geocoder := newClient(client.LocationEndpoint(p.Location.URL, p.Location.APIKey))
	feeds := service.NewFeedService(
		newClient(client.WeatherEndpoint(p.Weather.URL, p.Weather.APIKey)),
		newClient(client.ReviewsEndpoint(p.Reviews.URL, p.Reviews.APIKey)),
		newClient(client.MoviesEndpoint(p.Movies.URL, p.Movies.APIKey)),
		newClient(client.TrailsEndpoint(p.Trails.URL, p.Trails.APIKey)),
	)

	opts := storeOptions(cfg)
	if cfg.TestingMode {
		logger.Warn("testing mode enabled; location store is in_memory and not persisted")
	}
	openCtx, openCancel := context.WithTimeout(context.Background(), 15*time.Second)
	locations, err := store.Open(openCtx, opts)
	openCancel()
	if err != nil {
		logger.Fatal("location store", zap.String("backend", opts.Backend), zap.Error(err))
	}
	logger.Info("location store ready", zap.String("backend", opts.Backend))

	resolver := service.NewLocationResolver(geocoder, locations, cfg.UpstreamTimeout, cfg.StoreTimeout)

	if len(cfg.WarmLocations) > 0 {
		warmer := store.NewWarmer(resolver, logger)
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := warmer.Warm(warmCtx, cfg.WarmLocations); err != nil {
			logger.Warn("location warming incomplete", zap.Error(err))
		}
		warmCancel()
	}

	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
		StorePing:        locations.Ping,
	}
	observability.RegisterTrafficGauges(cfg.DegradedWindow)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(resolver, feeds, healthConfig, logger, cfg.MaxQueryLength)
	router := httphandler.NewRouter(handler, logger, httphandler.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		Limiter:        limiter,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	if err := httphandler.WaitForInFlight(shutdownCtx, 100*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := locations.Close(); err != nil {
		logger.Error("location store close", zap.Error(err))
	}
	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete", zap.Duration("drain", lifecycle.DrainDuration()))
}

// storeOptions maps config onto store options. Testing mode always uses the
// in-memory backend so no database is required.
func storeOptions(cfg *config.Config) store.Options {
	opts := store.Options{
		Backend:               cfg.StoreBackend,
		DatabaseURL:           cfg.DatabaseURL,
		MaxOpenConns:          cfg.StoreMaxOpenConns,
		MemcachedAddrs:        cfg.MemcachedAddrs,
		MemcachedTimeout:      cfg.MemcachedTimeout,
		MemcachedMaxIdleConns: cfg.MemcachedMaxIdleConns,
	}
	if cfg.TestingMode {
		opts.Backend = store.BackendInMemory
	}
	return opts
}
