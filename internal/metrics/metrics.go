// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Default histogram buckets for API latency.
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// fixedPrefixes are gateway-owned paths that get their own label value.
var fixedPrefixes = []string{"/api/routes", "/healthz", "/health", "/metrics"}

// Metrics holds all Prometheus metric collectors for the gateway.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	UpstreamDuration  *prometheus.HistogramVec
	UpstreamResponses *prometheus.CounterVec
	ProxyOutcomes     *prometheus.CounterVec

	HealthStatus        *prometheus.GaugeVec
	HealthCheckDuration *prometheus.HistogramVec

	pathPrefixes []string
}

// New creates a Metrics instance with a custom registry and all collectors
// registered. routePrefixes bound the path_prefix label; unknown paths are
// reported as "other".
func New(routePrefixes ...string) *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_gateway_http_requests_total",
			Help: "Total inbound HTTP requests.",
		}, []string{"method", "status_code", "path_prefix"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_gateway_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"method", "status_code", "path_prefix"}),

		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "api_gateway_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed.",
		}),

		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_gateway_upstream_request_duration_seconds",
			Help:    "Upstream call latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"service", "method"}),

		UpstreamResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_gateway_upstream_responses_total",
			Help: "Total upstream responses by service, method and status code.",
		}, []string{"service", "method", "status_code"}),

		ProxyOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_gateway_proxy_outcomes_total",
			Help: "Proxy decisions by service and outcome.",
		}, []string{"service", "outcome"}),

		HealthStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "api_gateway_service_healthy",
			Help: "1 if the last health probe of the service succeeded, else 0.",
		}, []string{"service"}),

		HealthCheckDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_gateway_health_check_duration_seconds",
			Help:    "Health probe latency in seconds.",
			Buckets: defaultBuckets,
		}, []string{"service"}),

		pathPrefixes: append(append([]string{}, fixedPrefixes...), routePrefixes...),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RequestsInFlight,
		m.UpstreamDuration,
		m.UpstreamResponses,
		m.ProxyOutcomes,
		m.HealthStatus,
		m.HealthCheckDuration,
	)

	return m
}

// knownMethods lists the allowed HTTP method label values (bounded cardinality).
var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// NormalizeMethod returns a bounded HTTP method label for Prometheus metrics.
// Non-standard methods are mapped to "other" to prevent cardinality explosion.
func NormalizeMethod(method string) string {
	if knownMethods[method] {
		return method
	}
	return "other"
}

// NormalizePath returns a bounded path label for Prometheus metrics.
func (m *Metrics) NormalizePath(path string) string {
	for _, prefix := range m.pathPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return prefix
		}
	}
	return "other"
}

// ObserveHealth records the outcome of one health probe.
func (m *Metrics) ObserveHealth(service string, healthy bool, seconds float64) {
	v := 0.0
	if healthy {
		v = 1
	}
	m.HealthStatus.WithLabelValues(service).Set(v)
	m.HealthCheckDuration.WithLabelValues(service).Observe(seconds)
}
