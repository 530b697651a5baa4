// Package metrics provides Prometheus metrics collection.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the MetricsCollector port using Prometheus.
type Collector struct {
	anchorsProcessed    *prometheus.CounterVec
	invalidFootprints   prometheus.Counter
	pairsFound          prometheus.Counter
	groupsFound         prometheus.Counter
	selectionDuration   *prometheus.HistogramVec
	footprintsLoaded    prometheus.Gauge
	storageOperations   *prometheus.CounterVec
	storageDuration     *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "looksel"
	}

	return &Collector{
		anchorsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "anchors_processed_total",
				Help:      "Total number of anchor footprints processed",
			},
			[]string{"mode", "status"},
		),

		invalidFootprints: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invalid_footprints_total",
				Help:      "Total number of footprints rejected as invalid",
			},
		),

		pairsFound: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stereo_pairs_found_total",
				Help:      "Total number of stereo pairs found",
			},
		),

		groupsFound: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "multilook_groups_found_total",
				Help:      "Total number of multilook groups found",
			},
		),

		selectionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "selection_duration_seconds",
				Help:      "Selection run duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"mode"},
		),

		footprintsLoaded: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "footprints_loaded",
				Help:      "Number of footprints currently in the pool",
			},
		),

		storageOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of storage operations",
			},
			[]string{"operation", "status"},
		),

		storageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_duration_seconds",
				Help:      "Storage operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// IncAnchorsProcessed increments the anchor counter for a selection mode.
func (c *Collector) IncAnchorsProcessed(mode string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.anchorsProcessed.WithLabelValues(mode, status).Inc()
}

// IncInvalidFootprints increments the invalid footprint counter.
func (c *Collector) IncInvalidFootprints() {
	c.invalidFootprints.Inc()
}

// IncPairsFound adds to the stereo pair counter.
func (c *Collector) IncPairsFound(count int) {
	c.pairsFound.Add(float64(count))
}

// IncGroupsFound adds to the multilook group counter.
func (c *Collector) IncGroupsFound(count int) {
	c.groupsFound.Add(float64(count))
}

// ObserveSelectionDuration records a selection run's duration.
func (c *Collector) ObserveSelectionDuration(mode string, duration time.Duration) {
	c.selectionDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// SetFootprintsLoaded sets the pool size gauge.
func (c *Collector) SetFootprintsLoaded(count int) {
	c.footprintsLoaded.Set(float64(count))
}

// IncStorageOperations increments storage operation counter.
func (c *Collector) IncStorageOperations(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.storageOperations.WithLabelValues(operation, status).Inc()
}

// ObserveStorageDuration records storage operation duration.
func (c *Collector) ObserveStorageDuration(operation string, duration time.Duration) {
	c.storageDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncHTTPRequests increments the HTTP request counter.
func (c *Collector) IncHTTPRequests(method, path, status string) {
	c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveHTTPDuration records HTTP request duration.
func (c *Collector) ObserveHTTPDuration(method, path string, duration time.Duration) {
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns HTTP middleware for metrics collection.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		path := normalizePath(r.URL.Path)
		status := statusToString(wrapped.statusCode)

		c.IncHTTPRequests(r.Method, path, status)
		c.ObserveHTTPDuration(r.Method, path, duration)
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes the URL path for metrics.
func normalizePath(path string) string {
	// Replace dynamic segments with placeholders
	// This prevents high cardinality metrics
	switch {
	case len(path) > 20:
		return path[:20] + "..."
	default:
		return path
	}
}

// statusToString converts HTTP status code to string category.
func statusToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
