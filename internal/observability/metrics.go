package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for the HTTP layer and the scheduling core.
type Metrics struct {
	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	conflicts   prometheus.Counter
}

// NewMetrics registers collectors on reg. A nil registerer yields no-op metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP error responses by method, route and error code.",
		}, []string{"method", "path", "code"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "production_transitions_total",
			Help: "Production status transitions.",
		}, []string{"from", "to"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "availability_conflicts_total",
			Help: "Overlapping productions reported by availability checks.",
		}),
	}
	reg.MustRegister(m.requests, m.latency, m.errors, m.transitions, m.conflicts)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(method, normalizePath(path), strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, normalizePath(path)).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(method, normalizePath(path), code).Inc()
}

// RecordTransition counts a lifecycle transition.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// RecordConflicts adds the number of overlapping productions found by one check.
func (m *Metrics) RecordConflicts(count int) {
	if m == nil || m.conflicts == nil || count <= 0 {
		return
	}
	m.conflicts.Add(float64(count))
}

func normalizePath(path string) string {
	if path == "" {
		return "unknown"
	}
	return path
}
