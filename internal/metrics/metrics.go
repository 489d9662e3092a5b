// Package metrics provides Prometheus metrics for a pipeline run.
package metrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "podcastproc"

// Metrics holds the Prometheus collectors for one process. Each instance owns
// its registry so tests and concurrent runs never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	// Completion service metrics
	CompletionAttempts *prometheus.CounterVec
	CompletionLatency  prometheus.Histogram
	RetryWaitSeconds   prometheus.Counter

	// Validation metrics
	RepairAttempts *prometheus.CounterVec

	// Generation metrics
	ContentOutcomes  *prometheus.CounterVec
	ChaptersDropped  prometheus.Counter
	SegmentsPerRun   prometheus.Histogram
	GenerationLength prometheus.Histogram

	// Cache metrics
	CacheLookups *prometheus.CounterVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		CompletionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_attempts_total",
			Help:      "Total completion requests by outcome",
		}, []string{"outcome"}),
		CompletionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_seconds",
			Help:      "Completion request latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		RetryWaitSeconds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_retry_wait_seconds_total",
			Help:      "Total time spent waiting between completion attempts",
		}),
		RepairAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_repair_attempts_total",
			Help:      "Total schema repair requests by content type",
		}, []string{"content_type"}),
		ContentOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_outcomes_total",
			Help:      "Terminal content type states",
		}, []string{"content_type", "state"}),
		ChaptersDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chapters_dropped_total",
			Help:      "Chapters dropped by timestamp alignment",
		}),
		SegmentsPerRun: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "segments_per_run",
			Help:      "Number of transcript segments per generation run",
			Buckets:   []float64{1, 2, 3, 5, 8, 13},
		}),
		GenerationLength: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of a full generation run in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Generation cache lookups by result",
		}, []string{"result"}),
	}
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// RecordAttempt records one completion request.
func (m *Metrics) RecordAttempt(outcome string, latencySeconds float64) {
	if m == nil {
		return
	}
	m.CompletionAttempts.WithLabelValues(outcome).Inc()
	m.CompletionLatency.Observe(latencySeconds)
}

// RecordRetryWait records time spent backing off.
func (m *Metrics) RecordRetryWait(seconds float64) {
	if m == nil || seconds <= 0 {
		return
	}
	m.RetryWaitSeconds.Add(seconds)
}

// RecordRepair records a schema repair request.
func (m *Metrics) RecordRepair(contentType string) {
	if m == nil {
		return
	}
	m.RepairAttempts.WithLabelValues(contentType).Inc()
}

// RecordOutcome records the terminal state of a content type.
func (m *Metrics) RecordOutcome(contentType, state string) {
	if m == nil {
		return
	}
	m.ContentOutcomes.WithLabelValues(contentType, state).Inc()
}

// RecordChaptersDropped records chapters discarded during alignment.
func (m *Metrics) RecordChaptersDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ChaptersDropped.Add(float64(n))
}

// RecordRun records segment count and wall time of a generation run.
func (m *Metrics) RecordRun(segments int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SegmentsPerRun.Observe(float64(segments))
	m.GenerationLength.Observe(durationSeconds)
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// WriteTextfile writes the current metric values in the node_exporter
// textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("metrics textfile path is empty")
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
