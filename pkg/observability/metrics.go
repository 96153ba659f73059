package observability

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Template metrics
	TemplateCacheHitsTotal   prometheus.Counter
	TemplateCacheMissesTotal prometheus.Counter
	TemplateRenderErrors     *prometheus.CounterVec

	// Database pool metrics
	DBConnectionsOpen         prometheus.Gauge
	DBConnectionsInUse        prometheus.Gauge
	DBConnectionsIdle         prometheus.Gauge
	DBConnectionsWaitCount    prometheus.Gauge
	DBConnectionsWaitDuration prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hrms_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hrms_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hrms_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "route"},
		),

		TemplateCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hrms_template_cache_hits_total",
				Help: "Total number of compiled template cache hits",
			},
		),
		TemplateCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hrms_template_cache_misses_total",
				Help: "Total number of compiled template cache misses",
			},
		),
		TemplateRenderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hrms_template_render_errors_total",
				Help: "Total number of template lookup or render failures",
			},
			[]string{"template", "reason"},
		),

		DBConnectionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hrms_db_connections_open",
				Help: "Number of established database connections",
			},
		),
		DBConnectionsInUse: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hrms_db_connections_in_use",
				Help: "Number of database connections currently in use",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hrms_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hrms_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
		DBConnectionsWaitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hrms_db_connections_wait_duration_seconds",
				Help: "Total time spent waiting for connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.TemplateCacheHitsTotal,
		m.TemplateCacheMissesTotal,
		m.TemplateRenderErrors,
		m.DBConnectionsOpen,
		m.DBConnectionsInUse,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
		m.DBConnectionsWaitDuration,
	)

	return m
}

// ObserveDBStats copies a pool snapshot into the database gauges
func (m *Metrics) ObserveDBStats(stats sql.DBStats) {
	m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
	m.DBConnectionsInUse.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaitCount.Set(float64(stats.WaitCount))
	m.DBConnectionsWaitDuration.Set(stats.WaitDuration.Seconds())
}

// RouteNamer maps a request to a low-cardinality route label
type RouteNamer func(r *http.Request) string

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
// Requests are labelled by route name rather than raw path.
func HTTPMetricsMiddleware(metrics *Metrics, routeName RouteNamer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeName(r)
			snoop := httpsnoop.CaptureMetrics(next, w, r)

			status := strconv.Itoa(snoop.Code)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(snoop.Duration.Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(snoop.Written))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
