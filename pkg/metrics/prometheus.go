package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch duration buckets in seconds; runs over a large population take minutes.
var batchDurationBuckets = []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800} //nolint:gochecknoglobals // bucket layout

// Manager owns every Prometheus collector of the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Matching
	suggestions       prometheus.Counter
	suggestionLatency prometheus.Histogram
	candidatesScored  prometheus.Counter
	scoringErrors     prometheus.Counter
	decisions         *prometheus.CounterVec

	// Batch generation
	batchRuns             *prometheus.CounterVec
	batchDuration         prometheus.Histogram
	batchRunning          prometheus.Gauge
	batchUsersWithMatches prometheus.Gauge
	batchTotalMatches     prometheus.Gauge
	batchGenerationRate   prometheus.Gauge
	batchUserFailures     prometheus.Counter

	// Notifications
	notifications     *prometheus.CounterVec
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	workerCount       prometheus.Gauge
	deliveryLatency   prometheus.Histogram
	breakerState      *prometheus.GaugeVec
	retentionPurged   prometheus.Counter
	storeQueryLatency *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "skillswap",
		subsystem:        "matching",
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.suggestions = m.counter("suggestions_total", "Total number of suggestion requests served")
	m.suggestionLatency = m.histogram("suggestion_latency_milliseconds",
		"Histogram of end-to-end suggestion latency in milliseconds", m.histogramBuckets)
	m.candidatesScored = m.counter("candidates_scored_total", "Total number of candidate pairs scored")
	m.scoringErrors = m.counter("scoring_errors_total", "Total number of candidates skipped because scoring failed")
	m.decisions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "decisions_total", Help: "Total number of recorded interactions by type",
	}, []string{"type"})

	m.batchRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "batch_runs_total", Help: "Total number of batch generation runs by status",
	}, []string{"status"})
	m.batchDuration = m.histogram("batch_duration_seconds", "Duration of batch generation runs in seconds", batchDurationBuckets)
	m.batchRunning = m.gauge("batch_running", "1 while a batch generation run is in progress")
	m.batchUsersWithMatches = m.gauge("batch_last_users_with_matches", "Users that received matches in the last run")
	m.batchTotalMatches = m.gauge("batch_last_total_matches", "Matches produced by the last run")
	m.batchGenerationRate = m.gauge("batch_last_generation_rate", "Share of active users that received matches in the last run")
	m.batchUserFailures = m.counter("batch_user_failures_total", "Total number of per-user failures during batch runs")

	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "notifications_total", Help: "Notifications by outcome (enqueued, dropped, delivered, failed)",
	}, []string{"result"})
	m.queueSize = m.gauge("notification_queue_size", "Current number of queued notifications")
	m.queueCapacity = m.gauge("notification_queue_capacity", "Capacity of the notification queue")
	m.workerCount = m.gauge("notification_workers", "Number of running notification workers")
	m.deliveryLatency = m.histogram("notification_delivery_latency_milliseconds",
		"Histogram of notification delivery latency in milliseconds", m.histogramBuckets)
	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "circuit_breaker_state", Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})
	m.retentionPurged = m.counter("retention_purged_total", "Total number of stale interaction rows purged")
	m.storeQueryLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "store_query_latency_milliseconds", Help: "Store query latency in milliseconds by operation",
		Buckets: m.histogramBuckets,
	}, []string{"operation"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total", Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_request_duration_milliseconds", Help: "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordSuggestion records one served suggestion request.
func RecordSuggestion(latencyMs float64) {
	globalManager.suggestions.Inc()
	globalManager.suggestionLatency.Observe(latencyMs)
}

// RecordCandidatesScored adds n scored pairs.
func RecordCandidatesScored(n int) {
	globalManager.candidatesScored.Add(float64(n))
}

// RecordScoringError counts a skipped candidate.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordDecision counts a recorded interaction.
func RecordDecision(interactionType string) {
	globalManager.decisions.WithLabelValues(interactionType).Inc()
}

// RecordBatchRun records the outcome of a batch run.
func RecordBatchRun(status string, durationSeconds float64) {
	globalManager.batchRuns.WithLabelValues(status).Inc()
	if status != "skipped" {
		globalManager.batchDuration.Observe(durationSeconds)
	}
}

// UpdateBatchRunning flips the running gauge.
func UpdateBatchRunning(running bool) {
	v := 0.0
	if running {
		v = 1
	}
	globalManager.batchRunning.Set(v)
}

// UpdateBatchResult publishes the aggregates of the last completed run.
func UpdateBatchResult(usersWithMatches, totalMatches int, generationRate float64) {
	globalManager.batchUsersWithMatches.Set(float64(usersWithMatches))
	globalManager.batchTotalMatches.Set(float64(totalMatches))
	globalManager.batchGenerationRate.Set(generationRate)
}

// RecordBatchUserFailure counts one person whose generation failed.
func RecordBatchUserFailure() {
	globalManager.batchUserFailures.Inc()
}

// RecordNotification counts a notification by outcome.
func RecordNotification(result string) {
	globalManager.notifications.WithLabelValues(result).Inc()
}

// UpdateQueueSize sets the current notification backlog.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the notification queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerCount sets the number of running notification workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordDeliveryLatency observes one sink delivery.
func RecordDeliveryLatency(latencyMs float64) {
	globalManager.deliveryLatency.Observe(latencyMs)
}

// UpdateBreakerState publishes a circuit breaker state.
func UpdateBreakerState(name string, state int) {
	globalManager.breakerState.WithLabelValues(name).Set(float64(state))
}

// RecordRetentionPurged adds purged rows.
func RecordRetentionPurged(rows int64) {
	globalManager.retentionPurged.Add(float64(rows))
}

// RecordStoreQueryLatency observes one store round trip.
func RecordStoreQueryLatency(operation string, latencyMs float64) {
	globalManager.storeQueryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
