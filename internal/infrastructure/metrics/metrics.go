// Package metrics exposes Prometheus metrics for detection and the HTTP API.
//
// Every method is safe on a nil *Metrics, so components can run without
// metrics wired in.
//
// Example usage:
//
//	m := metrics.New()
//	m.RecordDetection(result.DetectedFrequency != nil, result.Confidence, len(result.MatchedTransactions))
//	router.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "subtrack"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Registry owns these metrics; /metrics serves from it
	Registry *prometheus.Registry

	detections         *prometheus.CounterVec
	confidence         prometheus.Histogram
	matchedCount       prometheus.Histogram
	subscriptions      *prometheus.CounterVec
	linkedTransactions prometheus.Counter
	errors             *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates a private registry so repeated construction in tests
// does not trip duplicate-collector panics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		detections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "detections_total",
				Help:      "Detections run, by outcome.",
			},
			[]string{"outcome"},
		),
		confidence: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "detection_confidence",
				Help:      "Confidence of detections that found a frequency.",
				Buckets:   prometheus.LinearBuckets(0, 10, 11),
			},
		),
		matchedCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "detection_matched_transactions",
				Help:      "Matched transactions per detection, source included.",
				Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 24, 52},
			},
		),
		subscriptions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscriptions_total",
				Help:      "Subscription lifecycle events.",
			},
			[]string{"event"},
		),
		linkedTransactions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "linked_transactions_total",
				Help:      "Transactions linked when materializing subscriptions.",
			},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Errors returned from service operations, by code.",
			},
			[]string{"operation", "code"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of service operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route pattern and status.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route pattern.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// RecordDetection counts a finished detection
func (m *Metrics) RecordDetection(detected bool, confidence, matched int) {
	if m == nil {
		return
	}
	m.matchedCount.Observe(float64(matched))
	if !detected {
		m.detections.WithLabelValues("no_pattern").Inc()
		return
	}
	m.detections.WithLabelValues("detected").Inc()
	m.confidence.Observe(float64(confidence))
}

// RecordSubscriptionEvent counts created, deleted, activated, deactivated events
func (m *Metrics) RecordSubscriptionEvent(event string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(event).Inc()
}

// AddLinked adds n linked transactions
func (m *Metrics) AddLinked(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.linkedTransactions.Add(float64(n))
}

// RecordError counts a failed operation
func (m *Metrics) RecordError(operation, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(operation, code).Inc()
}

// ObserveOperation records the duration of a service operation
func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveHTTP records one HTTP request
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
