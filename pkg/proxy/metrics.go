package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// routerMetrics are the Prometheus series the router updates on every
// request. They are registered against a caller-supplied registerer so
// multiple Router instances in tests don't collide on the default
// registry.
type routerMetrics struct {
	requestsTotal  *prometheus.CounterVec
	routingErrors  *prometheus.CounterVec
	forwardSeconds *prometheus.HistogramVec
}

func newRouterMetrics(reg prometheus.Registerer) *routerMetrics {
	m := &routerMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "modelzoo_proxy_requests_total",
			Help: "Total proxy requests by endpoint class and outcome status code.",
		}, []string{"endpoint", "status"}),
		routingErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "modelzoo_proxy_routing_errors_total",
			Help: "Routing failures by endpoint class and error kind.",
		}, []string{"endpoint", "kind"}),
		forwardSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modelzoo_proxy_forward_duration_seconds",
			Help:    "Time spent forwarding a request to the selected backend.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	return m
}
