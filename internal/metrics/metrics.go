package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "waitlist"

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	cleanupRuns    *prometheus.CounterVec
	cleanupDeleted prometheus.Counter
	cleanupLatency prometheus.Histogram
	httpRequests   *prometheus.CounterVec
	relayCalls     *prometheus.CounterVec
}

// New creates collectors registered on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		cleanupRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cleanup_runs_total",
				Help:      "Expiry cleanup runs by outcome",
			},
			[]string{"outcome"},
		),
		cleanupDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cleanup_deleted_total",
				Help:      "Waitlist entries deleted by the expiry cleanup",
			},
		),
		cleanupLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cleanup_duration_seconds",
				Help:      "Duration of expiry cleanup runs",
				Buckets:   []float64{.05, .1, .5, 1, 5, 10, 30},
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		relayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_alert_relays_total",
				Help:      "Match alert relay calls by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cleanupRuns,
		m.cleanupDeleted,
		m.cleanupLatency,
		m.httpRequests,
		m.relayCalls,
	)
	return m
}

// RecordCleanup counts one cleanup run. outcome is "deleted", "noop" or "error".
func (m *Metrics) RecordCleanup(outcome string, deleted int) {
	if m == nil {
		return
	}
	m.cleanupRuns.WithLabelValues(outcome).Inc()
	m.cleanupDeleted.Add(float64(deleted))
}

func (m *Metrics) ObserveCleanupDuration(took time.Duration) {
	if m == nil {
		return
	}
	m.cleanupLatency.Observe(took.Seconds())
}

func (m *Metrics) RecordRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *Metrics) RecordRelay(outcome string) {
	if m == nil {
		return
	}
	m.relayCalls.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
