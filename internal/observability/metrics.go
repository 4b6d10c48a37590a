// Package observability exposes Prometheus metrics for the posting API.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects request and posting metrics on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	postingsTotal   *prometheus.CounterVec
	reversalsTotal  prometheus.Counter
	overridesTotal  prometheus.Counter
}

// NewMetrics initialises the registry and the base metric set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "munim_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "munim_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	postings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "munim_postings_total",
		Help: "Posted accounting events by event type.",
	}, []string{"type"})
	reversals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "munim_reversals_total",
		Help: "Reversed journal entries.",
	})
	overrides := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "munim_stock_overrides_total",
		Help: "Postings that drove stock negative under an authorized override.",
	})
	registry.MustRegister(requests, duration, postings, reversals, overrides)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		postingsTotal:   postings,
		reversalsTotal:  reversals,
		overridesTotal:  overrides,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and duration for each HTTP request.
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

// ObservePosting counts a successfully posted event.
func (m *Metrics) ObservePosting(eventType string, overrode bool) {
	if m == nil {
		return
	}
	m.postingsTotal.WithLabelValues(eventType).Inc()
	if overrode {
		m.overridesTotal.Inc()
	}
}

// ObserveReversal counts a successful reversal.
func (m *Metrics) ObserveReversal() {
	if m == nil {
		return
	}
	m.reversalsTotal.Inc()
}

// Registerer exposes the registry for custom metric registration.
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
