package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ispbilling/ispbilling/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics owns a private prometheus registry so that tests and multiple
// instances never collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry
	path     string

	ServiceOperations      *prometheus.CounterVec
	ServiceDuration        *prometheus.HistogramVec
	ServiceRetries         *prometheus.CounterVec
	BreakerState           *prometheus.GaugeVec
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	SubscriptionEvents     *prometheus.CounterVec
	EventRecordingFailures *prometheus.CounterVec
	EventsConsumed         *prometheus.CounterVec
}

// NewMetrics builds the collectors under the configured namespace
func NewMetrics(cfg *config.Configuration) *Metrics {
	ns := cfg.Metrics.Namespace
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		path:     cfg.Metrics.Path,
		ServiceOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "service_operations_total",
			Help:      "Total number of service operations",
		}, []string{"service", "operation", "status"}),
		ServiceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "service_operation_duration_seconds",
			Help:      "Duration of service operations in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		ServiceRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "service_operation_retries_total",
			Help:      "Total number of retried service operation attempts",
		}, []string{"service", "operation"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		}, []string{"breaker"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		SubscriptionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "subscription_events_total",
			Help:      "Total number of recorded subscription events",
		}, []string{"event_type"}),
		EventRecordingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "subscription_event_failures_total",
			Help:      "Subscription events that could not be persisted or published",
		}, []string{"event_type", "stage"}),
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "subscription_events_consumed_total",
			Help:      "Subscription events read back from the events topic",
		}, []string{"event_type", "status"}),
	}

	reg.MustRegister(
		m.ServiceOperations,
		m.ServiceDuration,
		m.ServiceRetries,
		m.BreakerState,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SubscriptionEvents,
		m.EventRecordingFailures,
		m.EventsConsumed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Path returns the configured scrape path
func (m *Metrics) Path() string { return m.path }

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordOperation records the outcome and latency of a service call
func (m *Metrics) RecordOperation(service, operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.ServiceOperations.WithLabelValues(service, operation, status).Inc()
	m.ServiceDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordRetry counts one retried attempt
func (m *Metrics) RecordRetry(service, operation string) {
	if m == nil {
		return
	}
	m.ServiceRetries.WithLabelValues(service, operation).Inc()
}

// SetBreakerState publishes the numeric state of a named breaker
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSubscriptionEvent counts a persisted subscription event
func (m *Metrics) RecordSubscriptionEvent(eventType string) {
	if m == nil {
		return
	}
	m.SubscriptionEvents.WithLabelValues(eventType).Inc()
}

// RecordEventFailure counts an event lost at the given stage (persist or publish)
func (m *Metrics) RecordEventFailure(eventType, stage string) {
	if m == nil {
		return
	}
	m.EventRecordingFailures.WithLabelValues(eventType, stage).Inc()
}

// RecordEventConsumed counts a message taken off the events topic
func (m *Metrics) RecordEventConsumed(eventType, status string) {
	if m == nil {
		return
	}
	m.EventsConsumed.WithLabelValues(eventType, status).Inc()
}
