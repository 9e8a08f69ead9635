// Package metrics exposes the prometheus collectors of the API server.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	authzDecisions *prometheus.CounterVec
	subscriptions  prometheus.Gauge
	deletionJobs   *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the metrics registered with the default prometheus registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// New creates and registers the collectors with registerer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgtodo",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "orgtodo",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authzDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgtodo",
			Name:      "authz_decisions_total",
			Help:      "Authorization decisions by result, action and entity type.",
		}, []string{"result", "action", "entity"}),
		subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orgtodo",
			Name:      "todo_subscriptions_active",
			Help:      "Open todo observe streams.",
		}),
		deletionJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orgtodo",
			Name:      "deletion_jobs_total",
			Help:      "Organization deletion job runs by outcome.",
		}, []string{"status"}),
	}

	registerer.MustRegister(m.requests, m.duration, m.authzDecisions, m.subscriptions, m.deletionJobs)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) AuthzDecision(allowed bool, action, entity string) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.authzDecisions.WithLabelValues(result, action, entity).Inc()
}

func (m *Metrics) SubscriptionOpened() { m.subscriptions.Inc() }

func (m *Metrics) SubscriptionClosed() { m.subscriptions.Dec() }

func (m *Metrics) DeletionJob(status string) {
	m.deletionJobs.WithLabelValues(status).Inc()
}
