// Package metrics provides Prometheus metrics for the weekly ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Computation metrics
	computeRuns     *prometheus.CounterVec
	computeDuration prometheus.Histogram
	membersScored   prometheus.Counter
	rowsPublished   prometheus.Counter
	readBackWarns   prometheus.Counter
	activeMembers   prometheus.Gauge

	// Store metrics
	storeQueryLatency   prometheus.Histogram
	storePublishLatency prometheus.Histogram

	// Notification metrics
	pushesSent   prometheus.Counter
	pushesFailed prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry so the default Go runtime collectors stay out of scrapes.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "weeklyrank",
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

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.computeRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "compute_runs_total",
			Help:      "Total weekly computations by outcome",
		},
		[]string{"outcome"},
	)

	m.computeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "compute_duration_seconds",
		Help:      "Duration of full weekly computations in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.membersScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "members_scored_total",
		Help:      "Total per-member scoring computations",
	})

	m.rowsPublished = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_published_total",
		Help:      "Total score result rows published",
	})

	m.readBackWarns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "readback_warnings_total",
		Help:      "Publishes that succeeded but whose read-back failed",
	})

	m.activeMembers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_members",
		Help:      "Active member population seen by the last computation",
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_seconds",
		Help:      "Latency of attendance and result store reads in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.storePublishLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_publish_latency_seconds",
		Help:      "Latency of weekly result publishes in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.pushesSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pushes_sent_total",
		Help:      "Push notifications delivered to the push gateway",
	})

	m.pushesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pushes_failed_total",
		Help:      "Push notifications rejected by the push gateway",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint, method and status code",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// GetRegistry returns the registry metrics are collected on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Compute run outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeWarning     = "warning"
	OutcomeInvalid     = "invalid_input"
	OutcomeConfig      = "configuration_error"
	OutcomeUnavailable = "upstream_unavailable"
)

// RecordComputeRun increments the run counter for the given outcome.
func RecordComputeRun(outcome string) {
	globalManager.computeRuns.WithLabelValues(outcome).Inc()
}

// RecordComputeDuration observes a full computation duration.
func RecordComputeDuration(seconds float64) {
	globalManager.computeDuration.Observe(seconds)
}

// RecordMemberScored counts one per-member scoring computation.
func RecordMemberScored() {
	globalManager.membersScored.Inc()
}

// RecordRowsPublished counts published result rows.
func RecordRowsPublished(n int) {
	globalManager.rowsPublished.Add(float64(n))
}

// RecordReadBackWarning counts a publish whose read-back failed.
func RecordReadBackWarning() {
	globalManager.readBackWarns.Inc()
}

// UpdateActiveMembers sets the active member population gauge.
func UpdateActiveMembers(n int) {
	globalManager.activeMembers.Set(float64(n))
}

// RecordStoreQuery observes a store read latency.
func RecordStoreQuery(seconds float64) {
	globalManager.storeQueryLatency.Observe(seconds)
}

// RecordStorePublish observes a publish latency.
func RecordStorePublish(seconds float64) {
	globalManager.storePublishLatency.Observe(seconds)
}

// RecordPushSent counts a delivered push notification.
func RecordPushSent() {
	globalManager.pushesSent.Inc()
}

// RecordPushFailed counts a rejected push notification.
func RecordPushFailed() {
	globalManager.pushesFailed.Inc()
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, seconds float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(seconds)
}
