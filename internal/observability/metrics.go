package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 increases on /api/cities.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation during enrichment passes.
	HTTPRequestsInFlight prometheus.Gauge

	// WAQI feed call rate by status. Watch for: error vs success ratio.
	WAQICallsTotal *prometheus.CounterVec

	// WAQI feed latency. Watch for: p95 > 2s (upstream degradation), p99 near the 10s timeout.
	WAQICallDuration *prometheus.HistogramVec

	// PM2.5 cache hits. A full pass with N cities and H hits issues N-H feed calls.
	CacheHitsTotal prometheus.Counter

	// Cache clears triggered by /api/cities/refresh.
	CacheClearsTotal prometheus.Counter

	// Enrichment pass rate and latency.
	EnrichmentPassesTotal     prometheus.Counter
	EnrichmentDurationSeconds prometheus.Histogram

	// Per-city enrichment outcomes by data source (real_time vs static).
	EnrichmentResultsTotal *prometheus.CounterVec

	// Washout calculations served.
	WashoutCalculationsTotal prometheus.Counter

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Circuit breaker state transitions for the WAQI feed.
	CircuitBreakerTransitionsTotal *prometheus.CounterVec

	// Current circuit breaker state (0=closed, 1=open, 2=half-open).
	CircuitBreakerState *prometheus.GaugeVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WAQICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waqiCallsTotal",
			Help: "Total number of WAQI feed calls",
		},
		[]string{"status"},
	)
	WAQICallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waqiCallDurationSeconds",
			Help:    "WAQI feed latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pm25CacheHitsTotal",
			Help: "Total number of PM2.5 cache hits",
		},
	)
	CacheClearsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pm25CacheClearsTotal",
			Help: "Total number of cache clears (refresh endpoint)",
		},
	)
	EnrichmentPassesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrichmentPassesTotal",
			Help: "Total number of full enrichment passes",
		},
	)
	EnrichmentDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrichmentDurationSeconds",
			Help:    "Full enrichment pass latency in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 15},
		},
	)
	EnrichmentResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichmentResultsTotal",
			Help: "Per-city enrichment outcomes by data source",
		},
		[]string{"source"},
	)
	WashoutCalculationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "washoutCalculationsTotal",
			Help: "Total number of washout calculations served",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	CircuitBreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuitBreakerTransitionsTotal",
			Help: "Circuit breaker state transitions",
		},
		[]string{"component", "from", "to"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Current circuit breaker state (0=closed, 1=open, 2=half_open)",
		},
		[]string{"component"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WAQICallsTotal, WAQICallDuration,
		CacheHitsTotal, CacheClearsTotal,
		EnrichmentPassesTotal, EnrichmentDurationSeconds, EnrichmentResultsTotal,
		WashoutCalculationsTotal,
		RateLimitDeniedTotal,
		CircuitBreakerTransitionsTotal, CircuitBreakerState,
	)
}

// RecordCircuitBreakerTransition records a breaker transition and updates
// the state gauge.
func RecordCircuitBreakerTransition(component, from, to string, stateValue float64) {
	CircuitBreakerTransitionsTotal.WithLabelValues(component, from, to).Inc()
	CircuitBreakerState.WithLabelValues(component).Set(stateValue)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
