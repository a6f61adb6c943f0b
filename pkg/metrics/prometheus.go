// Package metrics provides Prometheus metrics for the keepsake
// curation service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the keepsake service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Session lifecycle
	sessionsCreated   prometheus.Counter
	sessionsCompleted *prometheus.CounterVec
	activeSessions    prometheus.Gauge

	// Contest flow
	choicesRecorded  prometheus.Counter
	choicesDuplicate prometheus.Counter
	choicesInvalid   prometheus.Counter
	matchupsServed   *prometheus.CounterVec

	// Engine performance
	choiceLatency     prometheus.Histogram
	allocationLatency prometheus.Histogram

	// Snapshot persistence
	snapshotQueueSize        prometheus.Gauge
	snapshotQueueCapacity    prometheus.Gauge
	snapshotQueueUtilization prometheus.Gauge
	snapshotEnqueues         prometheus.Counter
	snapshotEnqueueErrors    prometheus.Counter
	snapshotWrites           prometheus.Counter
	snapshotWriteErrors      prometheus.Counter
	snapshotWriteLatency     prometheus.Histogram
	snapshotWriterCount      prometheus.Gauge

	// HTTP performance
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System health
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "keepsake",
		subsystem:        "curator",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sessionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_created_total",
		Help:      "Total number of curation sessions created",
	})

	m.sessionsCompleted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_completed_total",
			Help:      "Total number of sessions reaching a terminal state, by stop reason",
		},
		[]string{"stop_reason"},
	)

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_sessions",
		Help:      "Number of sessions currently tracked in memory",
	})

	m.choicesRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "choices_recorded_total",
		Help:      "Total number of contest outcomes applied",
	})

	m.choicesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "choices_duplicate_total",
		Help:      "Total number of duplicate choice submissions detected",
	})

	m.choicesInvalid = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "choices_invalid_total",
		Help:      "Total number of rejected contest submissions",
	})

	m.matchupsServed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "matchups_served_total",
			Help:      "Total number of next-match responses, by selection phase",
		},
		[]string{"phase"},
	)

	m.choiceLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "choice_latency_milliseconds",
		Help:      "Histogram of full choice-application latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.allocationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "allocation_latency_milliseconds",
		Help:      "Histogram of allocation recompute latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_queue_size",
		Help:      "Current size of the snapshot persistence queue",
	})

	m.snapshotQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_queue_capacity",
		Help:      "Capacity of the snapshot persistence queue",
	})

	m.snapshotQueueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_queue_utilization",
		Help:      "Snapshot queue utilization ratio (0.0 to 1.0)",
	})

	m.snapshotEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_enqueues_total",
		Help:      "Total number of snapshots queued for persistence",
	})

	m.snapshotEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_enqueue_errors_total",
		Help:      "Total number of snapshots dropped at enqueue time",
	})

	m.snapshotWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_writes_total",
		Help:      "Total number of durable snapshot writes",
	})

	m.snapshotWriteErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_write_errors_total",
		Help:      "Total number of failed durable snapshot writes",
	})

	m.snapshotWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_write_latency_milliseconds",
		Help:      "Histogram of durable snapshot write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.snapshotWriterCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_writer_count",
		Help:      "Number of snapshot writer goroutines",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors by component and type",
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total errors by type and severity",
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total errors by endpoint and method",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "error_latency_milliseconds",
			Help:      "Latency of requests ending in an error",
			Buckets:   m.histogramBuckets,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordSessionCreated increments the created sessions counter.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionCompleted increments the completed sessions counter.
func RecordSessionCompleted(stopReason string) {
	globalManager.sessionsCompleted.WithLabelValues(stopReason).Inc()
}

// UpdateActiveSessions sets the in-memory session gauge.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// RecordChoiceRecorded increments the applied choices counter.
func RecordChoiceRecorded() {
	globalManager.choicesRecorded.Inc()
}

// RecordChoiceDuplicate increments the duplicate choices counter.
func RecordChoiceDuplicate() {
	globalManager.choicesDuplicate.Inc()
}

// RecordChoiceInvalid increments the rejected choices counter.
func RecordChoiceInvalid() {
	globalManager.choicesInvalid.Inc()
}

// RecordMatchupServed increments the served matchups counter by phase.
func RecordMatchupServed(phase string) {
	globalManager.matchupsServed.WithLabelValues(phase).Inc()
}

// RecordChoiceLatency records full choice-application latency.
func RecordChoiceLatency(latencyMs float64) {
	globalManager.choiceLatency.Observe(latencyMs)
}

// RecordAllocationLatency records allocation recompute latency.
func RecordAllocationLatency(latencyMs float64) {
	globalManager.allocationLatency.Observe(latencyMs)
}

// UpdateSnapshotQueueSize sets the snapshot queue size gauge.
func UpdateSnapshotQueueSize(size int) {
	globalManager.snapshotQueueSize.Set(float64(size))
}

// UpdateSnapshotQueueCapacity sets the snapshot queue capacity gauge.
func UpdateSnapshotQueueCapacity(capacity int) {
	globalManager.snapshotQueueCapacity.Set(float64(capacity))
}

// UpdateSnapshotQueueUtilization sets the snapshot queue utilization gauge.
func UpdateSnapshotQueueUtilization(utilization float64) {
	globalManager.snapshotQueueUtilization.Set(utilization)
}

// RecordSnapshotEnqueue increments the snapshot enqueue counter.
func RecordSnapshotEnqueue() {
	globalManager.snapshotEnqueues.Inc()
}

// RecordSnapshotEnqueueError increments the snapshot enqueue error counter.
func RecordSnapshotEnqueueError() {
	globalManager.snapshotEnqueueErrors.Inc()
}

// RecordSnapshotWrite increments the durable write counter.
func RecordSnapshotWrite() {
	globalManager.snapshotWrites.Inc()
}

// RecordSnapshotWriteError increments the durable write error counter.
func RecordSnapshotWriteError() {
	globalManager.snapshotWriteErrors.Inc()
}

// RecordSnapshotWriteLatency records durable write latency.
func RecordSnapshotWriteLatency(latencyMs float64) {
	globalManager.snapshotWriteLatency.Observe(latencyMs)
}

// UpdateSnapshotWriterCount sets the writer goroutine gauge.
func UpdateSnapshotWriterCount(count int) {
	globalManager.snapshotWriterCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint and method.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed request.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an observed GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by the
// global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
