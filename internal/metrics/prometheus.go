package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns the Prometheus collectors for scrape runs.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	chunksAttempted   prometheus.Counter
	chunksProcessed   prometheus.Counter
	chunksSkipped     *prometheus.CounterVec
	chunksNearCap     prometheus.Counter
	fetchAttempts     *prometheus.CounterVec
	fetchDuration     prometheus.Histogram
	eventsMerged      prometheus.Counter
	eventsDuplicate   prometheus.Counter
	rowsRejected      prometheus.Counter
	sessionRefreshes  prometheus.Counter
	sessionInvalidate prometheus.Counter
	runs              *prometheus.CounterVec
	runDuration       prometheus.Histogram
	lastRunEvents     prometheus.Gauge
}

// NewManager creates a metrics manager on its own registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "econ_calendar",
		subsystem:        "scrape",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.chunksAttempted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chunks_attempted_total",
		Help:      "Date chunks the orchestrator tried to fetch",
	})
	m.chunksProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chunks_processed_total",
		Help:      "Date chunks fetched and parsed successfully",
	})
	m.chunksSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chunks_skipped_total",
		Help:      "Date chunks abandoned after retries, by failure reason",
	}, []string{"reason"})
	m.chunksNearCap = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "chunks_near_cap_total",
		Help:      "Date chunks whose row count reached the truncation hint",
	})
	m.fetchAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_attempts_total",
		Help:      "Endpoint requests by outcome",
	}, []string{"outcome"})
	m.fetchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_duration_seconds",
		Help:      "Endpoint request latency",
		Buckets:   m.histogramBuckets,
	})
	m.eventsMerged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_merged_total",
		Help:      "Events added to run results",
	})
	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Events dropped because their id was already merged",
	})
	m.rowsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_rejected_total",
		Help:      "Table rows dropped for lacking an event name",
	})
	m.sessionRefreshes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "session",
		Name:      "refresh_total",
		Help:      "Session cookie sets acquired through the browser",
	})
	m.sessionInvalidate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "session",
		Name:      "invalidate_total",
		Help:      "Session cookie sets discarded after a blocked response",
	})
	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Scrape runs by result",
	}, []string{"result"})
	m.runDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Wall time of a scrape run",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
	m.lastRunEvents = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_events",
		Help:      "Events returned by the most recent run",
	})
}

// Registry returns the registry holding the collectors.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// ChunkAttempted records a chunk entering the fetch loop.
func (m *Manager) ChunkAttempted() {
	m.chunksAttempted.Inc()
}

// ChunkProcessed records a chunk that was fetched and parsed.
func (m *Manager) ChunkProcessed() {
	m.chunksProcessed.Inc()
}

// ChunkSkipped records a chunk abandoned for reason.
func (m *Manager) ChunkSkipped(reason string) {
	m.chunksSkipped.WithLabelValues(reason).Inc()
}

// ChunkNearCap records a possibly truncated chunk.
func (m *Manager) ChunkNearCap() {
	m.chunksNearCap.Inc()
}

// FetchAttempt records one endpoint request.
func (m *Manager) FetchAttempt(outcome string, d time.Duration) {
	m.fetchAttempts.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

// EventsMerged records the outcome of merging one chunk.
func (m *Manager) EventsMerged(added, duplicates, rejected int) {
	m.eventsMerged.Add(float64(added))
	m.eventsDuplicate.Add(float64(duplicates))
	m.rowsRejected.Add(float64(rejected))
}

// SessionRefreshed records a cookie acquisition.
func (m *Manager) SessionRefreshed() {
	m.sessionRefreshes.Inc()
}

// SessionInvalidated records a cookie set being discarded.
func (m *Manager) SessionInvalidated() {
	m.sessionInvalidate.Inc()
}

// RunCompleted records the end of a run.
func (m *Manager) RunCompleted(result string, events int, d time.Duration) {
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.Observe(d.Seconds())
	m.lastRunEvents.Set(float64(events))
}

// WriteTextfile writes every collector in the node-exporter textfile format.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
