package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climadash/weather-pipeline/internal/config"
	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/pipeline"
	"github.com/climadash/weather-pipeline/internal/storage"
)

type stubRunner struct {
	err     error
	calls   int
	lastReq pipeline.Request
}

func (r *stubRunner) Run(_ context.Context, req pipeline.Request) (*pipeline.Result, error) {
	r.calls++
	r.lastReq = req
	if r.err != nil {
		return nil, r.err
	}
	return &pipeline.Result{RunID: "run-1"}, nil
}

func newTestScheduler(runner PipelineRunner) *Scheduler {
	cfg := &config.Config{
		Location: domain.Location{
			Name:      "Medellín",
			Latitude:  6.244,
			Longitude: -75.581,
			Timezone:  "America/Bogota",
		},
		OutputPath:    "data/weather_data.csv",
		FetchInterval: time.Hour,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, runner, logger)
}

func TestRunOnceAppendsForConfiguredLocation(t *testing.T) {
	runner := &stubRunner{}
	s := newTestScheduler(runner)

	s.runOnce()

	require.Equal(t, 1, runner.calls)
	assert.Equal(t, "Medellín", runner.lastReq.Location.Name)
	assert.Equal(t, storage.ModeAppend, runner.lastReq.Mode)
	assert.Equal(t, "data/weather_data.csv", runner.lastReq.OutputPath)
	assert.Equal(t, domain.Variables, runner.lastReq.Variables)
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	runner := &stubRunner{err: &domain.NetworkError{Err: errors.New("connection refused")}}
	s := newTestScheduler(runner)

	// The breaker trips after more than five consecutive failures, so later
	// intervals stop reaching the runner at all.
	for i := 0; i < 10; i++ {
		s.runOnce()
	}

	assert.Equal(t, 6, runner.calls)
}
