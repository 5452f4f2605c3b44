package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the badgeboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Record store
	badgesRead        prometheus.Counter
	badgesMalformed   prometheus.Counter
	badgesAppended    prometheus.Counter
	appendErrors      prometheus.Counter
	storeRecords      prometheus.Gauge
	storeReadLatency  prometheus.Histogram
	storeWriteLatency prometheus.Histogram

	// Aggregation
	leaderboardLatency *prometheus.HistogramVec
	timelineRows       prometheus.Counter
	exportsTotal       *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "badgeboard",
		subsystem:        "leaderboard",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.badgesRead = m.counter("badges_read_total", "Badge records parsed from the store")
	m.badgesMalformed = m.counter("badges_malformed_total", "Store lines skipped because they could not be decoded")
	m.badgesAppended = m.counter("badges_appended_total", "Badge records appended to the store")
	m.appendErrors = m.counter("append_errors_total", "Failed badge appends")
	m.storeRecords = m.gauge("store_records", "Records returned by the most recent full read")
	m.storeReadLatency = m.histogram("store_read_latency_milliseconds", "Full store read latency in milliseconds", m.histogramBuckets)
	m.storeWriteLatency = m.histogram("store_write_latency_milliseconds", "Append latency in milliseconds", m.histogramBuckets)

	m.leaderboardLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "compute_latency_milliseconds",
		Help:        "Time spent computing a view from the full dataset",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"view"})

	m.timelineRows = m.counter("timeline_rows_total", "Timeline rows produced by exports")

	m.exportsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "exports_total",
		Help:        "Timeline exports by output format",
		ConstLabels: m.constLabels,
	}, []string{"format"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "HTTP requests by endpoint, method and status",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Errors by endpoint and error type",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.errorsByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_type_total",
		Help:        "Errors by type and severity",
		ConstLabels: m.constLabels,
	}, []string{"error_type", "severity"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Allocated heap memory in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordBadgesRead records the outcome of one full store read.
func (m *Manager) RecordBadgesRead(parsed, malformed int, latencyMs float64) {
	m.badgesRead.Add(float64(parsed))
	m.badgesMalformed.Add(float64(malformed))
	m.storeRecords.Set(float64(parsed))
	m.storeReadLatency.Observe(latencyMs)
}

// RecordBadgeAppended records a successful append.
func (m *Manager) RecordBadgeAppended(latencyMs float64) {
	m.badgesAppended.Inc()
	m.storeWriteLatency.Observe(latencyMs)
}

// RecordAppendError records a failed append.
func (m *Manager) RecordAppendError() { m.appendErrors.Inc() }

// RecordComputeLatency records how long computing a view took.
func (m *Manager) RecordComputeLatency(view string, latencyMs float64) {
	m.leaderboardLatency.WithLabelValues(view).Observe(latencyMs)
}

// RecordExport records one timeline export of rows rows.
func (m *Manager) RecordExport(format string, rows int) {
	m.exportsTotal.WithLabelValues(format).Inc()
	m.timelineRows.Add(float64(rows))
}

// RecordHTTPRequest records one served request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPError records a request that ended in an error status.
func (m *Manager) RecordHTTPError(endpoint, method, errorType, severity string) {
	m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	m.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystem records process level gauges.
func (m *Manager) UpdateSystem(memBytes uint64, goroutines int, avgGCPauseMs float64) {
	m.systemMemoryUsage.Set(float64(memBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
	if avgGCPauseMs > 0 {
		m.systemGCPauseTime.Observe(avgGCPauseMs)
	}
}

// Global delegates.

// RecordBadgesRead records a full store read on the global manager.
func RecordBadgesRead(parsed, malformed int, latencyMs float64) {
	globalManager.RecordBadgesRead(parsed, malformed, latencyMs)
}

// RecordBadgeAppended records a successful append on the global manager.
func RecordBadgeAppended(latencyMs float64) { globalManager.RecordBadgeAppended(latencyMs) }

// RecordAppendError records a failed append on the global manager.
func RecordAppendError() { globalManager.RecordAppendError() }

// RecordComputeLatency records view computation latency on the global manager.
func RecordComputeLatency(view string, latencyMs float64) {
	globalManager.RecordComputeLatency(view, latencyMs)
}

// RecordExport records a timeline export on the global manager.
func RecordExport(format string, rows int) { globalManager.RecordExport(format, rows) }

// RecordHTTPRequest records a served request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordHTTPError records an error response on the global manager.
func RecordHTTPError(endpoint, method, errorType, severity string) {
	globalManager.RecordHTTPError(endpoint, method, errorType, severity)
}

// UpdateSystem records process gauges on the global manager.
func UpdateSystem(memBytes uint64, goroutines int, avgGCPauseMs float64) {
	globalManager.UpdateSystem(memBytes, goroutines, avgGCPauseMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
