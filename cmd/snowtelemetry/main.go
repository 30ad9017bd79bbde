// Command snowtelemetry runs the plow route density pipeline: AVL
// telemetry in, normalized coverage scores and precipitation severities
// out. With RUN_SCHEDULE unset it performs one run and exits; with a cron
// expression it runs on schedule while serving health and metrics
// endpoints.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/jaketajohnson/SnowTelemetry/internal/adapter/avl"
	"github.com/jaketajohnson/SnowTelemetry/internal/adapter/forecast"
	"github.com/jaketajohnson/SnowTelemetry/internal/adapter/httpserver"
	kafkaadapter "github.com/jaketajohnson/SnowTelemetry/internal/adapter/kafka"
	"github.com/jaketajohnson/SnowTelemetry/internal/adapter/roadway"
	"github.com/jaketajohnson/SnowTelemetry/internal/adapter/store"
	"github.com/jaketajohnson/SnowTelemetry/internal/config"
	"github.com/jaketajohnson/SnowTelemetry/internal/domain"
	"github.com/jaketajohnson/SnowTelemetry/internal/observability"
	"github.com/jaketajohnson/SnowTelemetry/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	avlClient := avl.NewClient(cfg.AVLFeedURL, cfg.AVLTimeout, logger)

	roadwayStore, err := roadway.Open(cfg.RoadwayDB)
	if err != nil {
		logger.Error("failed to open roadway db", "error", err)
		os.Exit(1)
	}
	defer roadwayStore.Close()

	datasetStore, err := store.Open(cfg.StoreDB)
	if err != nil {
		logger.Error("failed to open store db", "error", err)
		os.Exit(1)
	}
	defer datasetStore.Close()

	var forecastSource pipeline.ForecastSource
	if cfg.ForecastEnabled() {
		forecastSource = forecast.NewClient(cfg.ForecastURL, cfg.ForecastTimeout, logger)
		logger.Info("severity classification enabled", "url", cfg.ForecastURL)
	} else {
		logger.Info("severity classification disabled")
	}

	var publisher pipeline.SnapshotPublisher
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer writer.Close()
		publisher = writer
		logger.Info("kafka snapshot publish enabled", "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(
		avlClient,
		roadwayStore,
		forecastSource,
		datasetStore,
		publisher,
		domain.DissolveOptions{FineGrained: cfg.FineGrainedDissolve},
		logger,
		metrics,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunSchedule == "" {
		if err := p.Run(ctx); err != nil {
			os.Exit(1)
		}
		return
	}

	runScheduled(ctx, cfg, p, logger)
}

// runScheduled serves health endpoints and triggers runs on the cron
// schedule until a shutdown signal arrives. Overlapping ticks are
// skipped: one run at a time.
func runScheduled(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) {
	srv := httpserver.NewServer(cfg.HTTPAddr, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var running sync.Mutex
	c := cron.New()
	_, err := c.AddFunc(cfg.RunSchedule, func() {
		if !running.TryLock() {
			logger.Warn("previous run still in progress, skipping tick")
			return
		}
		defer running.Unlock()
		if err := p.Run(ctx); err != nil {
			logger.Error("scheduled run failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("invalid RUN_SCHEDULE", "schedule", cfg.RunSchedule, "error", err)
		os.Exit(1)
	}
	c.Start()
	logger.Info("scheduler started", "schedule", cfg.RunSchedule)

	<-ctx.Done()
	logger.Info("shutting down")

	stopCtx := c.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
