package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics of the backoffice.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	listingFetches  *prometheus.CounterVec
	listingStale    prometheus.Counter
	totalsMismatch  *prometheus.CounterVec
	detailLoads     *prometheus.CounterVec
}

// NewMetrics initialises the registry and the base collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backoffice_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_sales_listing_fetches_total",
		Help: "Remote sale listing fetches by outcome.",
	}, []string{"outcome"})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_sales_listing_stale_total",
		Help: "Listing responses discarded because a newer fetch had been issued.",
	})
	mismatch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_sales_totals_mismatch_total",
		Help: "Sales whose stored aggregates disagree with their line items.",
	}, []string{"field"})
	detail := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_sales_detail_loads_total",
		Help: "Sale detail loads by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(requests, duration, fetches, stale, mismatch, detail)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		listingFetches:  fetches,
		listingStale:    stale,
		totalsMismatch:  mismatch,
		detailLoads:     detail,
	}
}

// Handler returns the http.Handler serving /metrics.
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

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// ListingFetched counts a listing fetch outcome ("success" or "failure").
func (m *Metrics) ListingFetched(outcome string) {
	if m == nil {
		return
	}
	m.listingFetches.WithLabelValues(outcome).Inc()
}

// ListingStale counts a discarded out-of-order listing response.
func (m *Metrics) ListingStale() {
	if m == nil {
		return
	}
	m.listingStale.Inc()
}

// TotalsMismatch counts an aggregate that disagrees with the line items.
func (m *Metrics) TotalsMismatch(field string) {
	if m == nil {
		return
	}
	m.totalsMismatch.WithLabelValues(field).Inc()
}

// DetailLoaded counts a sale detail load outcome ("success", "not_found", "failure").
func (m *Metrics) DetailLoaded(outcome string) {
	if m == nil {
		return
	}
	m.detailLoads.WithLabelValues(outcome).Inc()
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
