// Package metrics provides Prometheus metrics for the clip analysis service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the clip analysis service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Pipeline metrics
	analysesStarted   *prometheus.CounterVec
	analysesCompleted *prometheus.CounterVec
	analysesFailed    *prometheus.CounterVec
	analysisLatency   *prometheus.HistogramVec
	framesSampled     prometheus.Histogram

	// Inference metrics
	inferenceCalls      *prometheus.CounterVec
	inferenceLatency    *prometheus.HistogramVec
	extractionStrategy  *prometheus.CounterVec
	highlightsExtracted prometheus.Histogram

	// Job metrics
	jobsSubmitted  prometheus.Counter
	jobsDuplicate  prometheus.Counter
	jobsFinished   *prometheus.CounterVec
	storedAnalyses prometheus.Gauge
	publishResults *prometheus.CounterVec

	// Repository metrics
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
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
		namespace:        "clipscout",
		subsystem:        "analysis",
		histogramBuckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Pipeline
	m.analysesStarted = auto.NewCounterVec(
		m.counterOpts("analyses_started_total", "Total number of analyses started by mode"),
		[]string{"mode"},
	)
	m.analysesCompleted = auto.NewCounterVec(
		m.counterOpts("analyses_completed_total", "Total number of analyses that produced a record"),
		[]string{"mode"},
	)
	m.analysesFailed = auto.NewCounterVec(
		m.counterOpts("analyses_failed_total", "Total number of failed analyses by last reached stage and error kind"),
		[]string{"mode", "stage", "kind"},
	)
	m.analysisLatency = auto.NewHistogramVec(
		m.histogramOpts("analysis_latency_milliseconds", "End to end analysis latency in milliseconds", m.histogramBuckets),
		[]string{"mode"},
	)
	m.framesSampled = auto.NewHistogram(
		m.histogramOpts("frames_sampled", "Number of frame references sampled per clip", []float64{5, 6, 7, 8, 9, 10}),
	)

	// Inference
	m.inferenceCalls = auto.NewCounterVec(
		m.counterOpts("inference_calls_total", "Total number of vision inference calls by purpose and outcome"),
		[]string{"purpose", "outcome"},
	)
	m.inferenceLatency = auto.NewHistogramVec(
		m.histogramOpts("inference_latency_milliseconds", "Vision inference round trip latency in milliseconds", m.histogramBuckets),
		[]string{"purpose"},
	)
	m.extractionStrategy = auto.NewCounterVec(
		m.counterOpts("extraction_strategy_total", "Which extraction strategy recovered the structured payload"),
		[]string{"purpose", "strategy"},
	)
	m.highlightsExtracted = auto.NewHistogram(
		m.histogramOpts("highlights_extracted", "Number of highlights kept per analysis", []float64{0, 1, 2, 3, 4, 5}),
	)

	// Jobs
	m.jobsSubmitted = auto.NewCounter(m.counterOpts("jobs_submitted_total", "Total number of accepted analysis jobs"))
	m.jobsDuplicate = auto.NewCounter(m.counterOpts("jobs_duplicate_total", "Total number of job submissions resolved by idempotency key"))
	m.jobsFinished = auto.NewCounterVec(
		m.counterOpts("jobs_finished_total", "Total number of jobs that reached a terminal state"),
		[]string{"state"},
	)
	m.storedAnalyses = auto.NewGauge(m.gaugeOpts("stored_analyses", "Number of analysis records held by the store"))
	m.publishResults = auto.NewCounterVec(
		m.counterOpts("publish_total", "Completion notifications by outcome"),
		[]string{"outcome"},
	)

	// Repository
	m.repositoryUpdateLatency = auto.NewHistogram(
		m.histogramOpts("repository_update_latency_milliseconds", "Repository write latency in milliseconds", m.histogramBuckets),
	)
	m.repositoryQueryLatency = auto.NewHistogram(
		m.histogramOpts("repository_query_latency_milliseconds", "Repository read latency in milliseconds", m.histogramBuckets),
	)

	// Queue
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of queued jobs"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Total number of jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Total number of jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Total number of rejected enqueues"))

	// Workers
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured number of workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers currently running a job"))
	m.workerProcessingLatency = auto.NewHistogram(
		m.histogramOpts("worker_processing_latency_milliseconds", "Worker job processing latency in milliseconds", m.histogramBuckets),
	)
	m.workerErrorRate = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of jobs that ended in failure"))

	// HTTP
	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	// Errors
	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	// System
	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordAnalysisStarted counts an analysis entering the pipeline.
func RecordAnalysisStarted(mode string) {
	globalManager.analysesStarted.WithLabelValues(mode).Inc()
}

// RecordAnalysisCompleted counts a composed record and observes its latency.
func RecordAnalysisCompleted(mode string, latencyMs float64) {
	globalManager.analysesCompleted.WithLabelValues(mode).Inc()
	globalManager.analysisLatency.WithLabelValues(mode).Observe(latencyMs)
}

// RecordAnalysisFailed counts a failed analysis.
func RecordAnalysisFailed(mode, stage, kind string) {
	globalManager.analysesFailed.WithLabelValues(mode, stage, kind).Inc()
}

// RecordFramesSampled observes how many frame references were produced.
func RecordFramesSampled(count int) {
	globalManager.framesSampled.Observe(float64(count))
}

// RecordInferenceCall counts a vision inference call.
func RecordInferenceCall(purpose, outcome string) {
	globalManager.inferenceCalls.WithLabelValues(purpose, outcome).Inc()
}

// RecordInferenceLatency records inference round trip latency.
func RecordInferenceLatency(purpose string, latencyMs float64) {
	globalManager.inferenceLatency.WithLabelValues(purpose).Observe(latencyMs)
}

// RecordExtractionStrategy counts which extraction strategy matched.
func RecordExtractionStrategy(purpose, strategy string) {
	globalManager.extractionStrategy.WithLabelValues(purpose, strategy).Inc()
}

// RecordHighlightsExtracted observes the number of highlights kept.
func RecordHighlightsExtracted(count int) {
	globalManager.highlightsExtracted.Observe(float64(count))
}

// RecordJobSubmitted increments the accepted jobs counter.
func RecordJobSubmitted() {
	globalManager.jobsSubmitted.Inc()
}

// RecordJobDuplicate increments the idempotent replay counter.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// RecordJobFinished counts a job reaching a terminal state.
func RecordJobFinished(state string) {
	globalManager.jobsFinished.WithLabelValues(state).Inc()
}

// UpdateStoredAnalyses sets the number of stored records.
func UpdateStoredAnalyses(count int) {
	globalManager.storedAnalyses.Set(float64(count))
}

// RecordPublish counts a completion notification outcome.
func RecordPublish(outcome string) {
	globalManager.publishResults.WithLabelValues(outcome).Inc()
}

// RecordRepositoryUpdateLatency records repository write latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency records repository read latency.
func RecordRepositoryQueryLatency(latencyMs float64) {
	globalManager.repositoryQueryLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// AddWorkerActive moves the busy worker gauge by delta.
func AddWorkerActive(delta int) {
	globalManager.workerActiveCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
