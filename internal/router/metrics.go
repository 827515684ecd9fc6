package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// routerMetrics contains Prometheus metrics for route matching.
type routerMetrics struct {
	routesRegistered prometheus.Gauge
	matchesTotal     prometheus.Counter
	missesTotal      prometheus.Counter
}

var (
	routerMetricsInstance *routerMetrics
	routerMetricsOnce     sync.Once
)

// metrics returns the singleton router metrics instance.
func metrics() *routerMetrics {
	routerMetricsOnce.Do(func() {
		routerMetricsInstance = &routerMetrics{
			routesRegistered: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "minapi",
					Subsystem: "router",
					Name:      "routes_registered",
					Help:      "Number of routes in the route table",
				},
			),
			matchesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "minapi",
					Subsystem: "router",
					Name:      "matches_total",
					Help:      "Total number of successful route matches",
				},
			),
			missesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "minapi",
					Subsystem: "router",
					Name:      "misses_total",
					Help:      "Total number of lookups matching no route",
				},
			),
		}
	})
	return routerMetricsInstance
}
