// Package metrics provides Prometheus metrics for the carelens risk engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the carelens service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingest metrics - one-time load phase
	tablesLoaded   *prometheus.CounterVec
	rowsLoaded     *prometheus.CounterVec
	missingSources prometheus.Counter
	parseSkips     *prometheus.CounterVec

	// Engine state metrics
	subjects        prometheus.Gauge
	subjectsByIndex *prometheus.GaugeVec
	thresholdRuns   *prometheus.CounterVec
	explanations    prometheus.Counter

	// Alert metrics
	alertsGenerated  *prometheus.CounterVec
	alertTransitions *prometheus.CounterVec
	alertsOpen       prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "carelens",
		subsystem:        "engine",
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

	m.tablesLoaded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "tables_loaded_total",
			Help:      "Total number of tabular sources loaded, by source name",
		},
		[]string{"source"},
	)

	m.rowsLoaded = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "rows_loaded_total",
			Help:      "Total number of rows loaded, by source name",
		},
		[]string{"source"},
	)

	m.missingSources = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "missing_sources_total",
		Help:      "Total number of absent sources replaced by an empty table",
	})

	m.parseSkips = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "parse_skips_total",
			Help:      "Total number of malformed numeric fields dropped during parsing",
		},
		[]string{"column"},
	)

	m.subjects = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "subjects",
		Help:      "Number of subjects in the canonical roster",
	})

	m.subjectsByIndex = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "subjects_by_index_source",
			Help:      "Number of subjects by independence index provenance",
		},
		[]string{"index_source"},
	)

	m.thresholdRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "threshold_computations_total",
			Help:      "Total number of threshold computations, by method",
		},
		[]string{"method"},
	)

	m.explanations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "explanations_total",
		Help:      "Total number of risk explanations produced",
	})

	m.alertsGenerated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "alerts_generated_total",
			Help:      "Total number of alerts created, by alert type",
		},
		[]string{"type"},
	)

	m.alertTransitions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "alert_transitions_total",
			Help:      "Total number of alert status transitions, by target status",
		},
		[]string{"status"},
	)

	m.alertsOpen = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "alerts_open",
		Help:      "Current number of alerts in open status",
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

	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint, method and error type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorsByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total number of errors by type and severity",
		},
		[]string{"error_type", "severity"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "error_latency_milliseconds",
			Help:      "Latency of operations that resulted in an error",
			Buckets:   m.histogramBuckets,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Ingest metrics functions.

// RecordTableLoaded increments the loaded-table counter for a source.
func RecordTableLoaded(source string) {
	globalManager.tablesLoaded.WithLabelValues(source).Inc()
}

// RecordRowsLoaded adds the number of rows loaded from a source.
func RecordRowsLoaded(source string, rows int) {
	globalManager.rowsLoaded.WithLabelValues(source).Add(float64(rows))
}

// RecordMissingSource increments the missing-source counter.
func RecordMissingSource() {
	globalManager.missingSources.Inc()
}

// RecordParseSkip increments the parse-skip counter for a column.
func RecordParseSkip(column string) {
	globalManager.parseSkips.WithLabelValues(column).Inc()
}

// Engine state metrics functions.

// UpdateSubjectCount sets the roster size gauge.
func UpdateSubjectCount(count int) {
	globalManager.subjects.Set(float64(count))
}

// UpdateSubjectsByIndexSource sets the per-provenance subject gauge.
func UpdateSubjectsByIndexSource(source string, count int) {
	globalManager.subjectsByIndex.WithLabelValues(source).Set(float64(count))
}

// RecordThresholdComputation increments the threshold computation counter.
func RecordThresholdComputation(method string) {
	globalManager.thresholdRuns.WithLabelValues(method).Inc()
}

// RecordExplanation increments the explanation counter.
func RecordExplanation() {
	globalManager.explanations.Inc()
}

// Alert metrics functions.

// RecordAlertGenerated increments the alert creation counter for a type.
func RecordAlertGenerated(alertType string) {
	globalManager.alertsGenerated.WithLabelValues(alertType).Inc()
}

// RecordAlertTransition increments the transition counter for a target status.
func RecordAlertTransition(status string) {
	globalManager.alertTransitions.WithLabelValues(status).Inc()
}

// UpdateOpenAlerts sets the open-alert gauge.
func UpdateOpenAlerts(count int) {
	globalManager.alertsOpen.Set(float64(count))
}

// HTTP metrics functions.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics functions.

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
