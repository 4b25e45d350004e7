// Package observability collects Prometheus metrics for the gateway:
// request throughput plus the auth lifecycle counters the session core
// reports into.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the gateway's Prometheus collectors.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	logins          prometheus.Counter
	logouts         prometheus.Counter
	evictions       prometheus.Counter
	denials         prometheus.Counter
}

// NewMetrics initialises the registry and base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wfadmin_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wfadmin_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	logins := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wfadmin_auth_logins_total",
		Help: "Successful operator logins.",
	})
	logouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wfadmin_auth_logouts_total",
		Help: "Operator logouts.",
	})
	evictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wfadmin_auth_evictions_total",
		Help: "Credential evictions after rejected sessions.",
	})
	denials := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wfadmin_authz_denials_total",
		Help: "Route authorization denials.",
	})
	registry.MustRegister(requests, duration, logins, logouts, evictions, denials)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		logins:          logins,
		logouts:         logouts,
		evictions:       evictions,
		denials:         denials,
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// RecordLogin implements session.Events.
func (m *Metrics) RecordLogin() {
	if m != nil {
		m.logins.Inc()
	}
}

// RecordLogout implements session.Events.
func (m *Metrics) RecordLogout() {
	if m != nil {
		m.logouts.Inc()
	}
}

// RecordEviction implements session.Events and api.EvictionRecorder.
func (m *Metrics) RecordEviction() {
	if m != nil {
		m.evictions.Inc()
	}
}

// RecordDenial implements route.DenialRecorder.
func (m *Metrics) RecordDenial() {
	if m != nil {
		m.denials.Inc()
	}
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
