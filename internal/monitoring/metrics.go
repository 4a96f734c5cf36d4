// internal/monitoring/metrics.go

// Package monitoring exposes Prometheus metrics and health checks for
// the batch pipeline and the results API.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsManager owns the Prometheus collectors for one process. Each
// manager carries its own registry so tests can build them freely.
type MetricsManager struct {
	registry *prometheus.Registry

	// Pipeline metrics
	rowsProcessed *prometheus.CounterVec
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram

	// Fetch metrics
	fetchRequests *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	batchChunks   *prometheus.CounterVec

	// Store metrics
	storeUpserts *prometheus.CounterVec
}

// MetricsConfig configures the metrics namespace.
type MetricsConfig struct {
	Namespace string `yaml:"namespace" json:"namespace"`
}

// NewMetricsManager creates a metrics manager with all pipeline
// collectors registered.
func NewMetricsManager(config MetricsConfig) *MetricsManager {
	if config.Namespace == "" {
		config.Namespace = "kolmetrics"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	mm := &MetricsManager{registry: registry}

	mm.rowsProcessed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "rows_processed_total",
			Help:      "Input rows processed, by platform and outcome",
		},
		[]string{"platform", "status"},
	)

	mm.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "runs_total",
			Help:      "Batch runs completed, by result",
		},
		[]string{"result"},
	)

	mm.runDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one batch run",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		},
	)

	mm.fetchRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "fetch_requests_total",
			Help:      "Metric fetch attempts, by strategy and result",
		},
		[]string{"strategy", "result"},
	)

	mm.fetchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one metric fetch",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	mm.batchChunks = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "batch_chunks_total",
			Help:      "Authenticated batch chunks issued, by result",
		},
		[]string{"result"},
	)

	mm.storeUpserts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "store_upserts_total",
			Help:      "Store upserts, by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	return mm
}

// RecordRow counts one processed input row. All recorders are nil-safe
// so callers can run without metrics wired.
func (mm *MetricsManager) RecordRow(platform, status string) {
	if mm == nil {
		return
	}
	mm.rowsProcessed.WithLabelValues(platform, status).Inc()
}

// RecordRun counts one completed batch run.
func (mm *MetricsManager) RecordRun(result string, duration time.Duration) {
	if mm == nil {
		return
	}
	mm.runsTotal.WithLabelValues(result).Inc()
	mm.runDuration.Observe(duration.Seconds())
}

// RecordFetch counts one fetch attempt and its latency.
func (mm *MetricsManager) RecordFetch(strategy, result string, duration time.Duration) {
	if mm == nil {
		return
	}
	mm.fetchRequests.WithLabelValues(strategy, result).Inc()
	mm.fetchDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordChunk counts one authenticated batch chunk.
func (mm *MetricsManager) RecordChunk(result string) {
	if mm == nil {
		return
	}
	mm.batchChunks.WithLabelValues(result).Inc()
}

// RecordUpsert counts one store write.
func (mm *MetricsManager) RecordUpsert(backend, outcome string) {
	if mm == nil {
		return
	}
	mm.storeUpserts.WithLabelValues(backend, outcome).Inc()
}

// Registry exposes the underlying registry for custom collectors.
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// Handler serves the metrics in the Prometheus text format.
func (mm *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{})
}
