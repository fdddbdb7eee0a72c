// Package metrics provides Prometheus metrics for the peloton rider service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring
	ridersScored     prometheus.Counter
	scoringDuration  prometheus.Histogram
	validationErrors prometheus.Counter
	populationSize   prometheus.Gauge
	tierRiders       *prometheus.GaugeVec
	outlierRiders    *prometheus.GaugeVec

	// Data source
	populationLoads *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	fetches         *prometheus.CounterVec
	fetchDuration   prometheus.Histogram

	// Reloads
	reloadRequests  *prometheus.CounterVec
	reloadQueueSize prometheus.Gauge
	reloads         *prometheus.CounterVec
	reloadDuration  prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton used by the package-level recorders

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // shared registry served on /healthz

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "peloton",
		subsystem:        "riders",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per collector
	auto := promauto.With(m.registry)

	m.ridersScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scored_total",
		Help:      "Total number of rider records scored",
	})
	m.scoringDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_duration_milliseconds",
		Help:      "Time spent scoring one population",
		Buckets:   m.histogramBuckets,
	})
	m.validationErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "validation_errors_total",
		Help:      "Rider records rejected as malformed",
	})
	m.populationSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "population_size",
		Help:      "Number of riders in the loaded population",
	})
	m.tierRiders = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tier_riders",
		Help:      "Riders per performance tier in the last full-population scoring",
	}, []string{"tier"})
	m.outlierRiders = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "outlier_riders",
		Help:      "Riders per outlier class in the last full-population scoring",
	}, []string{"class"})

	m.populationLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "population_loads_total",
		Help:      "Population loads by result",
	}, []string{"result"})
	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_lookups_total",
		Help:      "Race-result cache lookups by result (hit, miss, stale)",
	}, []string{"result"})
	m.fetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetches_total",
		Help:      "Third-party race-result fetches by result",
	}, []string{"result"})
	m.fetchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fetch_duration_milliseconds",
		Help:      "Latency of third-party race-result fetches",
		Buckets:   prometheus.ExponentialBuckets(10, 2, 10),
	})

	m.reloadRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reload_requests_total",
		Help:      "Reload requests by result (queued, coalesced, rejected)",
	}, []string{"result"})
	m.reloadQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reload_queue_size",
		Help:      "Pending reload requests",
	})
	m.reloads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reloads_total",
		Help:      "Population reloads by trigger and result",
	}, []string{"trigger", "result"})
	m.reloadDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reload_duration_milliseconds",
		Help:      "Duration of population reloads",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})
	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_by_type_total",
		Help:      "HTTP errors by type and severity",
	}, []string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Heap bytes allocated",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Number of goroutines",
	})
}

// RecordScoring records one scoring pass over n riders.
func RecordScoring(n int, durationMs float64) {
	globalManager.ridersScored.Add(float64(n))
	globalManager.scoringDuration.Observe(durationMs)
}

// RecordValidationError increments the malformed-record counter.
func RecordValidationError() {
	globalManager.validationErrors.Inc()
}

// UpdatePopulationSize sets the loaded population size.
func UpdatePopulationSize(n int) {
	globalManager.populationSize.Set(float64(n))
}

// UpdateTierCounts replaces the per-tier rider gauges.
func UpdateTierCounts(counts map[string]int) {
	globalManager.tierRiders.Reset()
	for tier, n := range counts {
		globalManager.tierRiders.WithLabelValues(tier).Set(float64(n))
	}
}

// UpdateOutlierCounts replaces the per-class outlier gauges.
func UpdateOutlierCounts(counts map[string]int) {
	globalManager.outlierRiders.Reset()
	for class, n := range counts {
		globalManager.outlierRiders.WithLabelValues(class).Set(float64(n))
	}
}

// RecordPopulationLoad counts a load attempt; result is "ok" or "error".
func RecordPopulationLoad(result string) {
	globalManager.populationLoads.WithLabelValues(result).Inc()
}

// RecordCacheLookup counts a cache lookup; result is "hit", "miss" or "stale".
func RecordCacheLookup(result string) {
	globalManager.cacheLookups.WithLabelValues(result).Inc()
}

// RecordFetch counts a third-party fetch and its latency.
func RecordFetch(result string, durationMs float64) {
	globalManager.fetches.WithLabelValues(result).Inc()
	globalManager.fetchDuration.Observe(durationMs)
}

// RecordReloadRequest counts a reload request by how the queue took it.
func RecordReloadRequest(result string) {
	globalManager.reloadRequests.WithLabelValues(result).Inc()
}

// UpdateReloadQueueSize sets the number of pending reload requests.
func UpdateReloadQueueSize(n int) {
	globalManager.reloadQueueSize.Set(float64(n))
}

// RecordReload counts a finished reload and its duration.
func RecordReload(trigger, result string, durationMs float64) {
	globalManager.reloads.WithLabelValues(trigger, result).Inc()
	globalManager.reloadDuration.Observe(durationMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
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
