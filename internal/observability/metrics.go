package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnmatchedRoute is the label value used for requests that do not
// match any registered route, ensuring bounded cardinality.
const UnmatchedRoute = "unmatched"

// UnknownMethod is the label value used for method tokens outside the
// served set. The parser accepts any token as a method, so the label
// must not come from the wire verbatim.
const UnknownMethod = "other"

// knownMethods is the closed set of method label values.
var knownMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
}

// methodLabel bounds the method label to the known set.
func methodLabel(method string) string {
	if knownMethods[method] {
		return method
	}
	return UnknownMethod
}

// Metrics holds all Prometheus metrics for the server.
type Metrics struct {
	connectionsTotal  prometheus.Counter
	activeConnections prometheus.Gauge
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	responseSize      *prometheus.HistogramVec
	buildInfo         *prometheus.GaugeVec
	registry          *prometheus.Registry
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "minapi"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.connectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted TCP connections",
		},
	)

	m.activeConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of connections currently being serviced",
		},
	)

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets: []float64{
				.001, .005, .01, .025, .05,
				.1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"method", "route", "status"},
	)

	m.responseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(
				100, 10, 6,
			),
		},
		[]string{"method", "route"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version"},
	)

	m.registry.MustRegister(
		m.connectionsTotal,
		m.activeConnections,
		m.requestsTotal,
		m.requestDuration,
		m.responseSize,
		m.buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ConnectionAccepted records an accepted connection.
func (m *Metrics) ConnectionAccepted() {
	m.connectionsTotal.Inc()
	m.activeConnections.Inc()
}

// ConnectionClosed records a closed connection.
func (m *Metrics) ConnectionClosed() {
	m.activeConnections.Dec()
}

// RecordRequest records a completed request. The route label is the
// registered pattern, or UnmatchedRoute for 404s and parse failures;
// the method label is bounded to the known set, with anything else
// recorded as UnknownMethod.
func (m *Metrics) RecordRequest(method, route string, status int, duration time.Duration, responseBytes int) {
	method = methodLabel(method)
	statusLabel := strconv.Itoa(status)
	m.requestsTotal.WithLabelValues(method, route, statusLabel).Inc()
	m.requestDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
	m.responseSize.WithLabelValues(method, route).Observe(float64(responseBytes))
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(version string) {
	m.buildInfo.WithLabelValues(version).Set(1)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for scraping the registry. Package
// router keeps its own counters on the default registry, so both are
// gathered.
func (m *Metrics) Handler() http.Handler {
	gatherers := prometheus.Gatherers{m.registry, prometheus.DefaultGatherer}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}
