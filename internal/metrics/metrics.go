package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tracker"

// HTTPCollector exposes Prometheus metrics for inbound HTTP requests and the
// tracker's own counters.
type HTTPCollector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	eventsIngested prometheus.Counter
	syncRejected   *prometheus.CounterVec
	aiRequests     *prometheus.CounterVec
}

// NewHTTPCollector constructs a collector on a private registry.
func NewHTTPCollector() (*HTTPCollector, error) {
	registry := prometheus.NewRegistry()

	c := &HTTPCollector{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),
		eventsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "ingested_total",
			Help:      "Telemetry events stored from extension syncs.",
		}),
		syncRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "sync_rejected_total",
			Help:      "Sync requests or individual events rejected, by reason.",
		}, []string{"reason"}),
		aiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "Text generation calls by provider, operation and outcome.",
		}, []string{"provider", "operation", "status"}),
	}

	collectors := []prometheus.Collector{
		c.requestDuration,
		c.requestTotal,
		c.eventsIngested,
		c.syncRejected,
		c.aiRequests,
	}
	for _, col := range collectors {
		if err := registry.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *HTTPCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics. The
// path label is the matched ServeMux pattern so IDs in URLs do not explode
// label cardinality.
func (c *HTTPCollector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// EventsIngested adds n stored events.
func (c *HTTPCollector) EventsIngested(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.eventsIngested.Add(float64(n))
}

// SyncRejected counts n rejections for reason.
func (c *HTTPCollector) SyncRejected(reason string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.syncRejected.WithLabelValues(reason).Add(float64(n))
}

// AIRequest counts one text generation call.
func (c *HTTPCollector) AIRequest(provider, operation, status string) {
	if c == nil {
		return
	}
	c.aiRequests.WithLabelValues(provider, operation, status).Inc()
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
