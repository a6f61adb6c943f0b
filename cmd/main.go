package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/keepsake/internal/adapters/http/api"
	"github.com/okian/keepsake/internal/adapters/http/swagger"
	service "github.com/okian/keepsake/internal/app"
	"github.com/okian/keepsake/internal/config"
	"github.com/okian/keepsake/internal/domain/allocate"
	"github.com/okian/keepsake/internal/domain/rating"
	"github.com/okian/keepsake/internal/domain/selector"
	"github.com/okian/keepsake/internal/domain/session"
	"github.com/okian/keepsake/pkg/logger"
	"github.com/okian/keepsake/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	// We collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		return
	}

	// Apply configured log level, falling back to info on bad input.
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log level, using info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithEngine(buildEngine(cfg)),
		service.WithDataDir(cfg.DataDir),
		service.WithSnapshotQueueSize(cfg.SnapshotQueueSize),
		service.WithWriterCount(cfg.SnapshotWriterCount),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithShardCount(cfg.ShardCount),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()

	// API docs under /api-docs, business routes under /sessions.
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// buildEngine assembles the contest engine from configuration.
func buildEngine(cfg *config.Config) *session.Engine {
	allocOpts := []allocate.Option{
		allocate.WithTemperature(cfg.RatioTemperature),
	}
	if cfg.SizePrior {
		allocOpts = append(allocOpts, allocate.WithWeightFunc(allocate.SizePriorWeight))
	}

	return session.NewEngine(
		session.WithMaxMatches(cfg.MaxMatches),
		session.WithWarmupMatches(cfg.MaxWarmupMatches),
		session.WithStreakThreshold(cfg.StreakThreshold),
		session.WithUpdater(rating.NewUpdater(
			rating.WithK(cfg.EloK),
			rating.WithBaseRating(cfg.BaseRating),
			rating.WithSizeBoost(cfg.SizeBoost),
		)),
		session.WithSelector(selector.New(
			selector.WithTopPoolSize(cfg.TopPoolSize),
		)),
		session.WithAllocator(allocate.New(allocOpts...)),
	)
}

// startSystemMetricsUpdater periodically refreshes runtime metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater periodically refreshes service-level gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if n, ok := stats["queueLength"].(int); ok {
		metrics.UpdateSnapshotQueueSize(n)
	}
	if n, ok := stats["writerCount"].(int); ok {
		metrics.UpdateSnapshotWriterCount(n)
	}
	if capacity, ok := stats["queueSize"].(int); ok && capacity > 0 {
		metrics.UpdateSnapshotQueueCapacity(capacity)
		if n, ok := stats["queueLength"].(int); ok {
			metrics.UpdateSnapshotQueueUtilization(float64(n) / float64(capacity))
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
