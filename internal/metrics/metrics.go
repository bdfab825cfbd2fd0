// Package metrics exposes the Prometheus collectors of the security layer.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without metrics when they are disabled in the configuration.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatchedRoute = "unmatched"

// Metrics owns a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	rejections         *prometheus.CounterVec
	rateLimitDecisions *prometheus.CounterVec
	csrfTokensIssued   prometheus.Counter
	auditDropped       prometheus.Counter
	requestDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "security_rejections_total",
				Help: "Requests rejected by the security gateway, by rejection type.",
			},
			[]string{"type"},
		),

		rateLimitDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratelimit_decisions_total",
				Help: "Rate limiter decisions, by route class and outcome.",
			},
			[]string{"class", "allowed"},
		),

		csrfTokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csrf_tokens_issued_total",
			Help: "CSRF tokens issued by the token endpoint.",
		}),

		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_events_dropped_total",
			Help: "Security events dropped because the audit buffer was full.",
		}),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of latencies for HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "code"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rejections,
		m.rateLimitDecisions,
		m.csrfTokensIssued,
		m.auditDropped,
		m.requestDuration,
	)

	return m
}

// Registry returns the registry backing the handler.
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
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRejection counts one gateway rejection.
func (m *Metrics) RecordRejection(rejectionType string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(rejectionType).Inc()
}

// RecordRateLimitDecision counts one limiter decision.
func (m *Metrics) RecordRateLimitDecision(class string, allowed bool) {
	if m == nil {
		return
	}
	m.rateLimitDecisions.WithLabelValues(class, strconv.FormatBool(allowed)).Inc()
}

// CSRFTokenIssued counts one issued token.
func (m *Metrics) CSRFTokenIssued() {
	if m == nil {
		return
	}
	m.csrfTokensIssued.Inc()
}

// AuditEventDropped counts one dropped audit event.
func (m *Metrics) AuditEventDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}

// ObserveRequest records the latency of one request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Middleware measures request latency. The route label is the chi route
// pattern, never the raw path, to keep label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.ObserveRequest(r.Method, route, status, time.Since(start))
	})
}
