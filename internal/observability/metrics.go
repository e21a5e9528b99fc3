package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk konsol.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	pollsTotal       *prometheus.CounterVec
	lastPoll         prometheus.Gauge
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cti_console_http_requests_total",
		Help: "HTTP requests served by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cti_console_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	upstream := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cti_console_upstream_requests_total",
		Help: "Threat API calls by operation and outcome.",
	}, []string{"op", "outcome"})
	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cti_console_upstream_request_duration_seconds",
		Help:    "Threat API call duration per operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	polls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cti_console_stats_polls_total",
		Help: "Dashboard stats refresh cycles by outcome.",
	}, []string{"outcome"})
	lastPoll := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cti_console_stats_last_poll_timestamp_seconds",
		Help: "Unix time of the last applied stats refresh.",
	})
	registry.MustRegister(requests, duration, upstream, upstreamDuration, polls, lastPoll)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		upstreamTotal:    upstream,
		upstreamDuration: upstreamDuration,
		pollsTotal:       polls,
		lastPoll:         lastPoll,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
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

// ObserveUpstream records one threat API call.
func (m *Metrics) ObserveUpstream(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(op, outcome).Inc()
	m.upstreamDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObservePoll records one stats refresh cycle.
func (m *Metrics) ObservePoll(outcome string) {
	if m == nil {
		return
	}
	m.pollsTotal.WithLabelValues(outcome).Inc()
	if outcome != "superseded" {
		m.lastPoll.SetToCurrentTime()
	}
}

// TrackLivePanels exposes count as a gauge sampled on every scrape.
func (m *Metrics) TrackLivePanels(count func() int) error {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "cti_console_lookup_panels",
		Help: "Lookup panels currently held in memory.",
	}, func() float64 { return float64(count()) })
	return m.Registerer().Register(gauge)
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
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

// Flush keeps streamed exports flowing through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
