package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	recordFetches       *prometheus.CounterVec
	recordCount         *prometheus.GaugeVec
	exports             *prometheus.CounterVec
	exportDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "atlas",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	recordFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Name:      "record_fetches_total",
		Help:      "Dashboard record fetches by collection and outcome",
	}, []string{"collection", "outcome"})

	recordCount := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "atlas",
		Name:      "records_loaded",
		Help:      "Number of records currently held by the dashboard store",
	}, []string{"collection"})

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Name:      "exports_total",
		Help:      "Map exports by format and outcome",
	}, []string{"format", "outcome"})

	exportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "atlas",
		Name:      "export_duration_seconds",
		Help:      "Duration of map exports from prepare to finalize",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"format"})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		recordFetches,
		recordCount,
		exports,
		exportDuration,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		recordFetches:       recordFetches,
		recordCount:         recordCount,
		exports:             exports,
		exportDuration:      exportDuration,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveFetch counts one store load. outcome is "loaded", "errored" or "stale".
func (m *Metrics) ObserveFetch(collection, outcome string, records int) {
	if m == nil {
		return
	}
	m.recordFetches.WithLabelValues(collection, outcome).Inc()
	if outcome == "loaded" {
		m.recordCount.WithLabelValues(collection).Set(float64(records))
	}
}

// ObserveExport counts one export run.
func (m *Metrics) ObserveExport(format, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format, outcome).Inc()
	m.exportDuration.WithLabelValues(format).Observe(duration.Seconds())
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
