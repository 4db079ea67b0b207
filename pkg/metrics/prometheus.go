// Package metrics provides Prometheus metrics for the saccade detection service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// latencyBuckets covers sub-millisecond detections up to multi-second
// batches, in milliseconds.
var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500} //nolint:gochecknoglobals // bucket layout

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// exposed is what GetRegistry serves when the manager is global.
	exposed *prometheus.Registry

	// Detection
	windowsProcessed      *prometheus.CounterVec
	windowsDuplicate      prometheus.Counter
	saccadesDetected      prometheus.Counter
	microsaccadesDetected prometheus.Counter
	detectionLatency      prometheus.Histogram
	detectionErrors       *prometheus.CounterVec

	// Operational health
	queueSize   prometheus.Gauge
	workerCount prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Repository
	repositoryRecordsTotal  prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram
	repositoryQueryLatency  prometheus.Histogram

	// Queue
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance, swapped by Configure.
var globalManager atomic.Pointer[Manager] //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Configure()
}

// Configure replaces the global manager with one built from opts on a
// fresh registry, so it can run again with other options. Collectors of the
// previous manager are no longer served. Call it before handlers capture
// GetRegistry.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	m := NewManager(append([]Option{WithPrometheusRegistry(reg)}, opts...)...)
	m.exposed = reg
	global().Store(m)
}

func global() *Manager { return global().Load() }

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "locem",
		subsystem:        "saccades",
		histogramBuckets: latencyBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		// Collectors still exist so recording never panics; nothing scrapes them.
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval is how often periodic gauges of the global manager
// should be refreshed.
func RefreshInterval() time.Duration { return global().refreshInterval }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.customLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.windowsProcessed = m.counterVec("windows_processed_total", "Windows analyzed, by outcome status", "status")
	m.windowsDuplicate = m.counter("windows_duplicate_total", "Windows rejected as already submitted")
	m.saccadesDetected = m.counter("saccades_detected_total", "Saccades reported across all windows")
	m.microsaccadesDetected = m.counter("microsaccades_detected_total", "Saccades at or below the microsaccade amplitude")
	m.detectionLatency = m.histogram("detection_latency_milliseconds", "Time spent analyzing one window")
	m.detectionErrors = m.counterVec("detection_errors_total", "Windows that could not be analyzed, by status", "status")

	m.queueSize = m.gauge("queue_size", "Windows waiting in the queue")
	m.workerCount = m.gauge("worker_count", "Configured number of analysis workers")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", "endpoint", "method", "status_code")

	m.repositoryRecordsTotal = m.gauge("repository_records_total", "Results held by the result store")
	m.repositoryUpdateLatency = m.histogram("repository_update_latency_milliseconds", "Result store write latency")
	m.repositoryQueryLatency = m.histogram("repository_query_latency_milliseconds", "Result store read latency")

	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued windows")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue length over capacity")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Windows accepted by the queue")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Windows handed to workers")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Windows rejected by the queue")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Time windows spent queued")

	m.workerActiveCount = m.gauge("worker_active_count", "Running workers")
	m.workerIdleCount = m.gauge("worker_idle_count", "Idle workers")
	m.workerMessagesPerSecond = m.gauge("worker_windows_per_second", "Recent worker throughput")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Analyze plus store time per window")
	m.workerErrorRate = m.counter("worker_errors_total", "Worker failures")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of failed operations", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes in use")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Running goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Most recent GC pause")
}

// Detection

// RecordWindowProcessed counts one analyzed window by its status.
func RecordWindowProcessed(status string) {
	global().windowsProcessed.WithLabelValues(status).Inc()
}

// RecordWindowDuplicate counts a resubmitted window.
func RecordWindowDuplicate() {
	global().windowsDuplicate.Inc()
}

// RecordSaccadesDetected adds the saccades found in one window.
func RecordSaccadesDetected(total, micro int) {
	if total > 0 {
		global().saccadesDetected.Add(float64(total))
	}
	if micro > 0 {
		global().microsaccadesDetected.Add(float64(micro))
	}
}

// RecordDetectionLatency observes the time to analyze one window.
func RecordDetectionLatency(latencyMs float64) {
	global().detectionLatency.Observe(latencyMs)
}

// RecordDetectionError counts a window that ended degenerate or invalid.
func RecordDetectionError(status string) {
	global().detectionErrors.WithLabelValues(status).Inc()
}

// Operational health

// UpdateQueueSize sets the queue backlog.
func UpdateQueueSize(size int) {
	global().queueSize.Set(float64(size))
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	global().workerCount.Set(float64(count))
}

// HTTP

// RecordHTTPRequest counts one request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	global().httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	global().httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Repository

// UpdateRepositoryRecordsTotal sets the number of stored results.
func UpdateRepositoryRecordsTotal(count int) {
	global().repositoryRecordsTotal.Set(float64(count))
}

// RecordRepositoryUpdateLatency observes a store write.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	global().repositoryUpdateLatency.Observe(latencyMs)
}

// RecordRepositoryQueryLatency observes a store read.
func RecordRepositoryQueryLatency(latencyMs float64) {
	global().repositoryQueryLatency.Observe(latencyMs)
}

// Queue

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	global().queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets length over capacity.
func UpdateQueueUtilization(utilization float64) {
	global().queueUtilization.Set(utilization)
}

// RecordQueueEnqueue counts an accepted window.
func RecordQueueEnqueue() {
	global().queueEnqueueRate.Inc()
}

// RecordQueueDequeue counts a window handed to a worker.
func RecordQueueDequeue() {
	global().queueDequeueRate.Inc()
}

// RecordQueueEnqueueError counts a rejected window.
func RecordQueueEnqueueError() {
	global().queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency observes the time a window waited in the queue.
func RecordQueueProcessingLatency(latencyMs float64) {
	global().queueProcessingLatency.Observe(latencyMs)
}

// Worker

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	global().workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	global().workerIdleCount.Set(float64(count))
}

// UpdateWorkerMessagesPerSecond sets recent throughput.
func UpdateWorkerMessagesPerSecond(rate float64) {
	global().workerMessagesPerSecond.Set(rate)
}

// RecordWorkerProcessingLatency observes analyze plus store time.
func RecordWorkerProcessingLatency(latencyMs float64) {
	global().workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a worker failure.
func RecordWorkerError() {
	global().workerErrorRate.Inc()
}

// Errors

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	global().errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	global().errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint counts an error returned by an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	global().errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency observes how long a failed operation took.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	global().errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	global().systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	global().systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes a GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	global().systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry the global manager reports to.
func GetRegistry() *prometheus.Registry {
	return global().exposed
}
