package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ubloom"

// Reflection outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeFallback    = "fallback"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
	OutcomeUpstream    = "upstream_error"
	OutcomeInternal    = "internal_error"
)

// Metrics holds the Prometheus collectors of the service.
//
// Every method is safe on a nil receiver so callers can leave metrics unset.
//
// Metrics:
//   - ubloom_reflection_requests_total{outcome}
//   - ubloom_reflection_model_call_duration_seconds{outcome}
//   - ubloom_http_requests_total{method,route,status}
//   - ubloom_http_request_duration_seconds{method,route}
type Metrics struct {
	registry *prometheus.Registry

	ReflectionsTotal  *prometheus.CounterVec
	ModelCallDuration *prometheus.HistogramVec
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ReflectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reflection",
				Name:      "requests_total",
				Help:      "Reflection requests by outcome.",
			},
			[]string{"outcome"},
		),
		ModelCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "reflection",
				Name:      "model_call_duration_seconds",
				Help:      "Latency of completion calls to the model.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"outcome"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// RecordReflection counts one finished reflection request.
func (m *Metrics) RecordReflection(outcome string) {
	if m == nil {
		return
	}
	m.ReflectionsTotal.WithLabelValues(outcome).Inc()
}

// RecordModelCall observes the latency of one completion call.
func (m *Metrics) RecordModelCall(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ModelCallDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordHTTP observes one served HTTP request.
func (m *Metrics) RecordHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
