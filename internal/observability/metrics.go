package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// weather pipeline.
type Metrics struct {
	FetchRequests *prometheus.CounterVec // labels: outcome={success,validation,network,http_status,malformed}
	FetchDuration prometheus.Histogram

	TransformErrors prometheus.Counter

	RowsPersisted prometheus.Counter
	StorageErrors prometheus.Counter

	PipelineRuns    *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge

	CacheLookups *prometheus.CounterVec // labels: result={hit,miss}

	SinkMessages prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.TransformErrors,
		m.RowsPersisted,
		m.StorageErrors,
		m.PipelineRuns,
		m.RunDuration,
		m.PipelineRunning,
		m.CacheLookups,
		m.SinkMessages,
	)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_pipeline",
			Name:      "fetch_requests_total",
			Help:      "Open-Meteo fetch attempts by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_pipeline",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of Open-Meteo API requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_pipeline",
			Name:      "transform_errors_total",
			Help:      "Total normalization failures.",
		}),
		RowsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_pipeline",
			Name:      "rows_persisted_total",
			Help:      "Total rows in persisted datasets after each save.",
		}),
		StorageErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_pipeline",
			Name:      "storage_errors_total",
			Help:      "Total CSV save/load failures.",
		}),
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_pipeline",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-transform-save run.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_pipeline",
			Name:      "running",
			Help:      "1 while a pipeline run is in flight, 0 otherwise.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_pipeline",
			Name:      "cache_lookups_total",
			Help:      "Dataset cache lookups by result.",
		}, []string{"result"}),
		SinkMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_pipeline",
			Name:      "sink_messages_total",
			Help:      "Records published to the Kafka sink.",
		}),
	}
}
