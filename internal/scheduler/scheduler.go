// Package scheduler runs the pipeline on a fixed interval so the CSV keeps
// accumulating hourly observations without operator involvement.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sony/gobreaker"

	"github.com/climadash/weather-pipeline/internal/config"
	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/pipeline"
	"github.com/climadash/weather-pipeline/internal/storage"
)

// runTimeout bounds one scheduled run end to end.
const runTimeout = 2 * time.Minute

// PipelineRunner executes one fetch-transform-save cycle.
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Scheduler periodically appends fresh data for the configured location.
// A circuit breaker keeps a flapping upstream from burning every interval
// on doomed requests.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    PipelineRunner
	circuit   *gobreaker.CircuitBreaker
	cfg       *config.Config
	logger    *slog.Logger
}

// New creates a Scheduler around the given runner.
func New(cfg *config.Config, runner PipelineRunner, logger *slog.Logger) *Scheduler {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "scheduled-fetch",
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     10 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit state changed", "circuit", name, "from", from.String(), "to", to.String())
		},
	})
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		circuit:   cb,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.cfg.FetchInterval).Do(s.runOnce)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.cfg.FetchInterval.String())
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runOnce() {
	_, err := s.circuit.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		return s.runner.Run(ctx, pipeline.Request{
			Location:   s.cfg.Location,
			Variables:  domain.Variables,
			OutputPath: s.cfg.OutputPath,
			Mode:       storage.ModeAppend,
		})
	})
	if err != nil {
		s.logger.Error("scheduled run failed", "error", err)
	}
}
