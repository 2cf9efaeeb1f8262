package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/climadash/weather-pipeline/internal/adapter/httpapi"
	kafkaadapter "github.com/climadash/weather-pipeline/internal/adapter/kafka"
	"github.com/climadash/weather-pipeline/internal/adapter/openmeteo"
	"github.com/climadash/weather-pipeline/internal/cache"
	"github.com/climadash/weather-pipeline/internal/config"
	"github.com/climadash/weather-pipeline/internal/observability"
	"github.com/climadash/weather-pipeline/internal/pipeline"
	"github.com/climadash/weather-pipeline/internal/scheduler"
	"github.com/climadash/weather-pipeline/internal/storage"
	"github.com/climadash/weather-pipeline/internal/transform"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	client := openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.FetchTimeout, logger, metrics)
	transformer := transform.New()
	store := storage.NewManager(logger, metrics)
	datasetCache := cache.New(cfg.CacheTTL, cfg.CacheMaxEntries, clock, logger, metrics)

	opts := []pipeline.Option{pipeline.WithCache(datasetCache)}

	// Kafka sink is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, clock, logger, metrics)
		opts = append(opts, pipeline.WithSink(writer))
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	runner := pipeline.NewRunner(client, transformer, store, logger, metrics, opts...)

	srv := httpapi.NewServer(cfg, runner, runner, datasetCache, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched = scheduler.New(cfg, runner, logger)
		if err := sched.Start(); err != nil {
			logger.Error("scheduler start error", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("scheduler disabled")
	}

	logger.Info("service started",
		"addr", cfg.HTTPAddr,
		"location", cfg.Location.Name,
		"output", cfg.OutputPath,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
