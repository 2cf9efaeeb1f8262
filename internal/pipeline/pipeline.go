// Package pipeline orchestrates a complete fetch-transform-save run.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/climadash/weather-pipeline/internal/cache"
	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/observability"
	"github.com/climadash/weather-pipeline/internal/storage"
)

// Fetcher retrieves raw hourly weather data for a location.
type Fetcher interface {
	FetchHourly(ctx context.Context, loc domain.Location, start, end time.Time, vars []domain.Variable) (*domain.HourlyResponse, error)
}

// Normalizer turns a raw provider response into a clean dataset.
type Normalizer interface {
	Normalize(raw *domain.HourlyResponse, loc domain.Location, requested []domain.Variable) (domain.Dataset, error)
}

// Storer persists a dataset and reports the resulting table size.
type Storer interface {
	Save(dataset domain.Dataset, path string, mode storage.Mode) (int, error)
}

// Sink receives each successfully persisted dataset, for downstream
// consumers outside the CSV file.
type Sink interface {
	Publish(ctx context.Context, loc domain.Location, dataset domain.Dataset) error
}

// DatasetCache stores normalized datasets between runs with the same
// request shape.
type DatasetCache interface {
	Get(key string) (domain.Dataset, bool)
	Put(key string, dataset domain.Dataset)
}

// Request describes one pipeline run.
type Request struct {
	Location   domain.Location
	Start      time.Time
	End        time.Time
	Variables  []domain.Variable
	OutputPath string
	Mode       storage.Mode
}

// Result reports what a run produced.
type Result struct {
	RunID         string
	Dataset       domain.Dataset
	RowsPersisted int
	FromCache     bool
}

// Runner wires the pipeline stages together. Cache and sink are optional.
type Runner struct {
	fetcher    Fetcher
	normalizer Normalizer
	storer     Storer
	sink       Sink
	cache      DatasetCache
	logger     *slog.Logger
	metrics    *observability.Metrics

	ready atomic.Bool
}

// CheckReadiness reports whether the pipeline has proven itself end to end.
// Ready means at least one run has completed successfully.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no successful pipeline run yet")
	}
	return nil
}

// Option configures optional Runner collaborators.
type Option func(*Runner)

// WithCache short-circuits fetch and normalize when a fresh dataset for the
// same request shape is already in memory.
func WithCache(c DatasetCache) Option {
	return func(r *Runner) { r.cache = c }
}

// WithSink publishes every persisted dataset to the given sink.
func WithSink(s Sink) Option {
	return func(r *Runner) { r.sink = s }
}

// NewRunner creates a pipeline Runner.
func NewRunner(fetcher Fetcher, normalizer Normalizer, storer Storer, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Runner {
	r := &Runner{
		fetcher:    fetcher,
		normalizer: normalizer,
		storer:     storer,
		logger:     logger,
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one fetch-transform-save cycle. Stage errors abort the run
// and surface unchanged so callers can classify them; a sink failure only
// logs, the run already succeeded by then.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID, "location", req.Location.Name)

	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)
	timer := prometheus.NewTimer(r.metrics.RunDuration)
	defer timer.ObserveDuration()

	result, err := r.run(ctx, req, runID, logger)
	if err != nil {
		r.metrics.PipelineRuns.WithLabelValues("error").Inc()
		logger.Error("pipeline run failed", "error", err, "kind", domain.ErrorKind(err))
		return nil, err
	}
	r.metrics.PipelineRuns.WithLabelValues("success").Inc()
	r.ready.Store(true)
	logger.Info("pipeline run complete",
		"rows", len(result.Dataset),
		"rows_persisted", result.RowsPersisted,
		"from_cache", result.FromCache,
	)
	return result, nil
}

func (r *Runner) run(ctx context.Context, req Request, runID string, logger *slog.Logger) (*Result, error) {
	result := &Result{RunID: runID}

	key := cache.KeyFor(req.Location, req.Start, req.End, req.Variables)
	if r.cache != nil {
		if dataset, ok := r.cache.Get(key); ok {
			logger.Debug("dataset served from cache", "key", key)
			result.Dataset = dataset
			result.FromCache = true
		}
	}

	if !result.FromCache {
		raw, err := r.fetcher.FetchHourly(ctx, req.Location, req.Start, req.End, req.Variables)
		if err != nil {
			return nil, err
		}

		dataset, err := r.normalizer.Normalize(raw, req.Location, req.Variables)
		if err != nil {
			r.metrics.TransformErrors.Inc()
			return nil, err
		}
		result.Dataset = dataset

		if r.cache != nil {
			r.cache.Put(key, dataset)
		}
	}

	persisted, err := r.storer.Save(result.Dataset, req.OutputPath, req.Mode)
	if err != nil {
		return nil, err
	}
	result.RowsPersisted = persisted

	if r.sink != nil {
		if err := r.sink.Publish(ctx, req.Location, result.Dataset); err != nil {
			// The CSV is the source of truth; a slow or down broker must
			// not fail a run that already persisted its data.
			logger.Warn("sink publish failed", "error", err)
		}
	}
	return result, nil
}
