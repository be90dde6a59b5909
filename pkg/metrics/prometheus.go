// Package metrics provides Prometheus metrics for the gametel SDK and the
// dev collector that ships with it.
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

// Manager manages all Prometheus metrics for the gametel pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Client pipeline metrics - the queue/flush engine
	eventsEnqueued  prometheus.Counter
	eventsSent      prometheus.Counter
	eventsDropped   *prometheus.CounterVec
	batchesSent     prometheus.Counter
	batchesRequeued prometheus.Counter
	flushDuration   prometheus.Histogram
	flushTriggers   *prometheus.CounterVec
	deliveryLatency prometheus.Histogram

	// Queue health metrics
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge

	// Collector-side metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	eventsReceived      prometheus.Counter
	payloadsRejected    *prometheus.CounterVec

	// Enhanced error metrics
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gametel",
		subsystem:        "client",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	m.eventsEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_enqueued_total",
		Help:        "Total number of events accepted into the queue",
		ConstLabels: m.customLabels,
	})

	m.eventsSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "events_sent_total",
		Help:        "Total number of events delivered to the collector",
		ConstLabels: m.customLabels,
	})

	m.eventsDropped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "events_dropped_total",
			Help:        "Total number of events dropped, by reason",
			ConstLabels: m.customLabels,
		},
		[]string{"reason"},
	)

	m.batchesSent = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batches_sent_total",
		Help:        "Total number of batches delivered successfully",
		ConstLabels: m.customLabels,
	})

	m.batchesRequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "batches_requeued_total",
		Help:        "Total number of batches returned to the queue head after a delivery failure (delayed, not lost)",
		ConstLabels: m.customLabels,
	})

	m.flushDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "flush_duration_milliseconds",
		Help:        "Histogram of full flush (drain loop) duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	m.flushTriggers = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "flush_triggers_total",
			Help:        "Total number of flush triggers fired, by source",
			ConstLabels: m.customLabels,
		},
		[]string{"trigger"},
	)

	m.deliveryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "delivery_latency_milliseconds",
		Help:        "Histogram of single delivery attempt latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	})

	// Queue health metrics
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_size",
		Help:        "Current number of events waiting in the queue (backlog indicator)",
		ConstLabels: m.customLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_capacity",
		Help:        "Maximum queue capacity",
		ConstLabels: m.customLabels,
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_utilization_ratio",
		Help:        "Queue utilization ratio (current size / capacity)",
		ConstLabels: m.customLabels,
	})

	// Collector-side metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   "collector",
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.customLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   "collector",
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.customLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.eventsReceived = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "collector",
		Name:        "events_received_total",
		Help:        "Total number of events accepted by the collector",
		ConstLabels: m.customLabels,
	})

	m.payloadsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   "collector",
			Name:        "payloads_rejected_total",
			Help:        "Total number of rejected payloads, by reason",
			ConstLabels: m.customLabels,
		},
		[]string{"reason"},
	)

	// Enhanced error metrics
	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_component_total",
			Help:        "Total number of errors by component",
			ConstLabels: m.customLabels,
		},
		[]string{"component", "error_type"},
	)
}

// RecordEventEnqueued increments the enqueued events counter.
func RecordEventEnqueued() {
	if !globalManager.enabled {
		return
	}
	globalManager.eventsEnqueued.Inc()
}

// RecordEventsSent adds n to the sent events counter.
func RecordEventsSent(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.eventsSent.Add(float64(n))
}

// RecordEventDropped increments the dropped events counter for a reason.
func RecordEventDropped(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.eventsDropped.WithLabelValues(reason).Inc()
}

// RecordBatchSent increments the sent batches counter.
func RecordBatchSent() {
	if !globalManager.enabled {
		return
	}
	globalManager.batchesSent.Inc()
}

// RecordBatchRequeued increments the requeued batches counter.
func RecordBatchRequeued() {
	if !globalManager.enabled {
		return
	}
	globalManager.batchesRequeued.Inc()
}

// RecordFlushDuration records a full drain loop duration in milliseconds.
func RecordFlushDuration(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.flushDuration.Observe(latencyMs)
}

// RecordFlushTrigger increments the trigger counter for a source.
func RecordFlushTrigger(trigger string) {
	if !globalManager.enabled {
		return
	}
	globalManager.flushTriggers.WithLabelValues(trigger).Inc()
}

// RecordDeliveryLatency records a single delivery attempt latency in milliseconds.
func RecordDeliveryLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.deliveryLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.queueUtilization.Set(utilization)
}

// RecordHTTPRequest records an HTTP request on the collector.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration on the collector.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordEventsReceived adds n to the collector's received events counter.
func RecordEventsReceived(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.eventsReceived.Add(float64(n))
}

// RecordPayloadRejected increments the collector's rejected payloads counter.
func RecordPayloadRejected(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.payloadsRejected.WithLabelValues(reason).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
