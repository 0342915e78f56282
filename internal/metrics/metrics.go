// Package metrics exposes Prometheus metrics for the sweeper.
//
// Metrics live on their own registry rather than the global default so tests
// can create independent instances.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/sweeper/internal/core"
)

const namespace = "sweeper"

// Metrics implements core.Recorder and instruments HTTP handlers.
type Metrics struct {
	registry *prometheus.Registry

	filesProcessed     *prometheus.CounterVec
	fileDuration       *prometheus.HistogramVec
	chartFailures      *prometheus.CounterVec
	uploadsRejected    *prometheus.CounterVec
	conversions        prometheus.Counter
	conversionDuration prometheus.Histogram
	sessionsActive     prometheus.Gauge

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	httpActiveRequests prometheus.Gauge
}

var _ core.Recorder = (*Metrics)(nil)

// New creates the metrics and registers them, together with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Files run through the pipeline, by source format and outcome.",
		}, []string{"format", "outcome"}),
		fileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time to process one file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"format"}),
		chartFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_failures_total",
			Help:      "Requested charts that could not be built, by error kind.",
		}, []string{"kind"}),
		uploadsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Uploads refused before processing, by reason.",
		}, []string{"reason"}),
		conversions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Completed conversion requests.",
		}),
		conversionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Time to convert every file of a session.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions held in memory.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "HTTP requests currently being served.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.filesProcessed,
		m.fileDuration,
		m.chartFailures,
		m.uploadsRejected,
		m.conversions,
		m.conversionDuration,
		m.sessionsActive,
		m.httpRequests,
		m.httpDuration,
		m.httpActiveRequests,
	)
	return m
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) FileProcessed(format core.Format, outcome string, d time.Duration) {
	m.filesProcessed.WithLabelValues(string(format), outcome).Inc()
	m.fileDuration.WithLabelValues(string(format)).Observe(d.Seconds())
}

func (m *Metrics) ChartFailed(kind string) {
	m.chartFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) UploadRejected(reason string) {
	m.uploadsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ConversionCompleted(_ int, d time.Duration) {
	m.conversions.Inc()
	m.conversionDuration.Observe(d.Seconds())
}

func (m *Metrics) SessionsActive(n int) {
	m.sessionsActive.Set(float64(n))
}

// Middleware records request counts and latency. Routes are labelled with the
// chi route pattern so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpActiveRequests.Inc()
		defer m.httpActiveRequests.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
