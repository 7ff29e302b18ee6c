package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Publication metrics
	PublishTotal    *prometheus.CounterVec
	PublishDuration prometheus.Histogram

	// Graph metrics
	GraphNodes prometheus.Gauge
	GraphEdges prometheus.Gauge
	GraphEpoch prometheus.Gauge

	// Query metrics
	QueryTotal    *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal          *prometheus.CounterVec
	CacheMissesTotal        *prometheus.CounterVec
	CacheInvalidationsTotal prometheus.Counter
	CacheStaleEvictedTotal  prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Business metrics
	ContractsTotal prometheus.Gauge
	VersionsTotal  prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "registry_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "registry_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		// Publication metrics
		PublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_publishes_total",
				Help: "Total number of publish attempts by outcome",
			},
			[]string{"outcome"},
		),
		PublishDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "registry_publish_duration_seconds",
				Help:    "Publish pipeline duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),

		// Graph metrics
		GraphNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "registry_graph_nodes",
				Help: "Number of version nodes in the current snapshot",
			},
		),
		GraphEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "registry_graph_edges",
				Help: "Number of dependency edges in the current snapshot",
			},
		),
		GraphEpoch: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "registry_graph_epoch",
				Help: "Epoch counter of the current snapshot",
			},
		),

		// Query metrics
		QueryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_graph_queries_total",
				Help: "Total number of graph queries",
			},
			[]string{"kind", "status"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "registry_graph_query_duration_seconds",
				Help:    "Graph query duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"kind"},
		),

		// Cache metrics
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_cache_hits_total",
				Help: "Total number of result cache hits",
			},
			[]string{"kind"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "registry_cache_misses_total",
				Help: "Total number of result cache misses",
			},
			[]string{"kind"},
		),
		CacheInvalidationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "registry_cache_invalidations_total",
				Help: "Total number of full cache invalidations",
			},
		),
		CacheStaleEvictedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "registry_cache_stale_evicted_total",
				Help: "Total number of stale entries evicted from the result cache",
			},
		),

		// Database metrics
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "registry_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "registry_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		// Business metrics
		ContractsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "registry_contracts_total",
				Help: "Total number of registered contracts",
			},
		),
		VersionsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "registry_versions_total",
				Help: "Total number of published versions",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.PublishTotal,
		m.PublishDuration,
		m.GraphNodes,
		m.GraphEdges,
		m.GraphEpoch,
		m.QueryTotal,
		m.QueryDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheInvalidationsTotal,
		m.CacheStaleEvictedTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.ContractsTotal,
		m.VersionsTotal,
	)

	return m
}

// Publish outcome label values.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeCycle     = "cycle"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
