package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tickerd",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickerd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tickerd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ingestFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickerd",
			Subsystem: "ingest",
			Name:      "fetches_total",
			Help:      "Total number of price fetch attempts.",
		},
		[]string{"ticker", "status"},
	)

	ingestCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tickerd",
			Subsystem: "ingest",
			Name:      "cycles_total",
			Help:      "Total number of ingestion cycles.",
		},
		[]string{"status"},
	)

	ingestCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tickerd",
			Subsystem: "ingest",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of ingestion cycles.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	observationsInserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tickerd",
			Subsystem: "ingest",
			Name:      "observations_inserted_total",
			Help:      "Total number of observations committed to the store.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ingestFetches,
		ingestCycles,
		ingestCycleDuration,
		observationsInserted,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordFetch records one price fetch attempt for a ticker.
func RecordFetch(ticker, status string) {
	if ticker == "" {
		ticker = "unknown"
	}
	ingestFetches.WithLabelValues(ticker, status).Inc()
}

// RecordCycle records the outcome of one ingestion cycle.
func RecordCycle(duration time.Duration, inserted int, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	status := "failed"
	if success {
		status = "ok"
	}
	ingestCycles.WithLabelValues(status).Inc()
	ingestCycleDuration.Observe(duration.Seconds())
	if inserted > 0 {
		observationsInserted.Add(float64(inserted))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "prices" {
		return "/" + parts[0]
	}
	if len(parts) == 1 {
		return "/prices"
	}
	return "/prices/" + parts[1]
}
