// Package metrics provides Prometheus metrics for the chipledger service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Reports
	reportsBuilt       *prometheus.CounterVec
	reportsAnonymized  prometheus.Counter
	reportBuildLatency prometheus.Histogram
	snapshotGames      prometheus.Histogram
	snapshotPlayers    prometheus.Histogram

	// Store
	storeQueryLatency *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec
	storeRooms        prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by the Record* helpers

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // avoids default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "chipledger",
		subsystem:        "ledger",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often gauges are refreshed by background updaters.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) opts(name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts(m.opts(name, help)))
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts(m.opts(name, help)), labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts(m.opts(name, help)))
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	o := m.opts(name, help)
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   o.Namespace,
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		ConstLabels: o.ConstLabels,
		Buckets:     buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	o := m.opts(name, help)
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   o.Namespace,
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		ConstLabels: o.ConstLabels,
		Buckets:     m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	sizeBuckets := prometheus.ExponentialBuckets(1, 2, 10)

	m.reportsBuilt = m.counterVec("reports_built_total", "Total number of analytics reports built by kind", "kind")
	m.reportsAnonymized = m.counter("reports_anonymized_total", "Total number of reports served with aliased player names")
	m.reportBuildLatency = m.histogram("report_build_latency_milliseconds", "Time spent computing a report in milliseconds", m.histogramBuckets)
	m.snapshotGames = m.histogram("snapshot_games", "Number of games per analysed snapshot", sizeBuckets)
	m.snapshotPlayers = m.histogram("snapshot_players", "Number of roster players per analysed snapshot", sizeBuckets)

	m.storeQueryLatency = m.histogramVec("store_query_latency_milliseconds", "Store query latency in milliseconds", "op")
	m.storeErrors = m.counterVec("store_errors_total", "Total number of failed store queries", "op")
	m.storeRooms = m.gauge("store_rooms", "Number of rooms held by the store")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordReportBuilt counts a built report of the given kind (report, series, leaderboard, metrics).
func RecordReportBuilt(kind string) {
	if globalManager.enabled {
		globalManager.reportsBuilt.WithLabelValues(kind).Inc()
	}
}

// RecordReportAnonymized counts a report served with aliases.
func RecordReportAnonymized() {
	if globalManager.enabled {
		globalManager.reportsAnonymized.Inc()
	}
}

// RecordReportBuildLatency records report computation time in milliseconds.
func RecordReportBuildLatency(latencyMs float64) {
	if globalManager.enabled {
		globalManager.reportBuildLatency.Observe(latencyMs)
	}
}

// RecordSnapshotSize records the size of an analysed snapshot.
func RecordSnapshotSize(games, players int) {
	if globalManager.enabled {
		globalManager.snapshotGames.Observe(float64(games))
		globalManager.snapshotPlayers.Observe(float64(players))
	}
}

// RecordStoreQuery records the latency of a store operation.
func RecordStoreQuery(op string, latencyMs float64) {
	if globalManager.enabled {
		globalManager.storeQueryLatency.WithLabelValues(op).Observe(latencyMs)
	}
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) {
	if globalManager.enabled {
		globalManager.storeErrors.WithLabelValues(op).Inc()
	}
}

// UpdateStoreRooms sets the number of rooms in the store.
func UpdateStoreRooms(count int) {
	if globalManager.enabled {
		globalManager.storeRooms.Set(float64(count))
	}
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if globalManager.enabled {
		globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint counts an error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets allocated memory in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// RefreshInterval returns the refresh interval of the global manager.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
