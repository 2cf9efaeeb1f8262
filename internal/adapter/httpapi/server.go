// Package httpapi exposes the pipeline over HTTP: operational endpoints
// (health, readiness, metrics) plus a small JSON API for on-demand weather
// fetches and cache management.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/climadash/weather-pipeline/internal/cache"
	"github.com/climadash/weather-pipeline/internal/config"
	"github.com/climadash/weather-pipeline/internal/domain"
	"github.com/climadash/weather-pipeline/internal/pipeline"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// PipelineRunner executes one fetch-transform-save cycle.
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// DatasetCache is the subset of cache behavior the API manages.
type DatasetCache interface {
	Stats() cache.Stats
	Clear() int
}

// Server exposes the weather API and operational HTTP endpoints.
type Server struct {
	httpServer *http.Server
	runner     PipelineRunner
	cache      DatasetCache
	cfg        *config.Config
	logger     *slog.Logger
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(cfg *config.Config, runner PipelineRunner, ready ReadinessChecker, datasetCache DatasetCache, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		runner: runner,
		cache:  datasetCache,
		cfg:    cfg,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/weather/current", s.handleCurrentWeather)
	mux.HandleFunc("GET /api/v1/locations/default", s.handleDefaultLocation)
	mux.HandleFunc("GET /api/v1/cache/stats", s.handleCacheStats)
	mux.HandleFunc("DELETE /api/v1/cache", s.handleCacheClear)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleDefaultLocation(w http.ResponseWriter, _ *http.Request) {
	loc := s.cfg.Location
	writeJSON(w, http.StatusOK, locationPayload{
		Name:      loc.Name,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Timezone:  loc.Timezone,
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	removed := s.cache.Clear()
	s.logger.Info("cache cleared", "entries_removed", removed)
	writeJSON(w, http.StatusOK, map[string]int{"entries_removed": removed})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

// writeError maps a pipeline error to an HTTP status by its kind: caller
// mistakes are 400, upstream trouble is 502, everything else is 500.
func writeError(w http.ResponseWriter, err error) {
	kind := domain.ErrorKind(err)
	var status int
	switch kind {
	case "validation", "unsupported_variable":
		status = http.StatusBadRequest
	case "network", "http_status", "malformed_response", "incomplete_data", "data_integrity":
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "kind": kind})
}
