package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/skywash/skywash-api/internal/cache"
	"github.com/skywash/skywash-api/internal/circuitbreaker"
	"github.com/skywash/skywash-api/internal/client"
	"github.com/skywash/skywash-api/internal/config"
	"github.com/skywash/skywash-api/internal/dataset"
	httphandler "github.com/skywash/skywash-api/internal/http"
	"github.com/skywash/skywash-api/internal/observability"
	"github.com/skywash/skywash-api/internal/service"
	"github.com/skywash/skywash-api/internal/traffic"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	waqiClient := client.NewWAQIClient(cfg.WAQIToken, cfg.WAQIBaseURL, cfg.FetchTimeout)
	if cfg.CircuitBreakerEnabled {
		cb := circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold: cfg.CircuitBreakerFailureThreshold,
			SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
			Timeout:          cfg.CircuitBreakerTimeout,
			OnStateChange: func(from, to circuitbreaker.State) {
				observability.RecordCircuitBreakerTransition("waqi_feed", from.String(), to.String(), float64(to))
			},
		})
		waqiClient.SetCircuitBreaker(cb)
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}

	var store cache.Store
	var memcacheCloser *cache.MemcachedStore
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedStore(cfg.MemcachedAddrs, cfg.CacheTTL, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		memcacheCloser = mc
		store = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		store = cache.NewInMemoryStore(cfg.CacheTTL, nil)
		logger.Info("cache backend: in_memory", zap.Duration("ttl", cfg.CacheTTL))
	}

	cities, err := dataset.Load(cfg.CitiesPath)
	if err != nil {
		logger.Fatal("city dataset", zap.String("path", cfg.CitiesPath), zap.Error(err))
	}
	logger.Info("city dataset loaded", zap.Int("cities", cities.Len()))

	tracker := traffic.New()
	enricher := service.NewEnrichmentService(cities, waqiClient, store, tracker, logger, nil)

	if cfg.WarmCache {
		warmer := cache.NewWarmer(enricher, logger)
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := warmer.Warm(warmCtx); err != nil {
			logger.Warn("cache warming failed", zap.Error(err))
		}
		warmCancel()
		if cfg.WarmInterval > 0 {
			go func() {
				if err := warmer.WarmPeriodic(context.Background(), cfg.WarmInterval); err != nil && err != context.Canceled {
					logger.Error("periodic cache warming stopped", zap.Error(err))
				}
			}()
		}
	}

	healthConfig := &httphandler.HealthConfig{
		DegradedWindow:    cfg.DegradedWindow,
		DegradedStaticPct: cfg.DegradedStaticPct,
		StartTime:         time.Now(),
	}
	if memcacheCloser != nil {
		healthConfig.CachePing = memcacheCloser.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(enricher, tracker, cfg.WashoutCoeff, healthConfig, logger)

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.RecoverMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(httphandler.RateLimitMiddleware(limiter))
	apiRouter.HandleFunc("/cities", handler.GetCities).Methods("GET")
	apiRouter.HandleFunc("/cities/refresh", handler.RefreshCities).Methods("GET")
	apiRouter.HandleFunc("/washout", handler.GetWashout).Methods("GET")

	// The front-end mounts last so it never shadows the API routes.
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
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
	httphandler.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
