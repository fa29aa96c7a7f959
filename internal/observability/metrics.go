package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/city-explorer/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Provider call rate per resource. Watch for: error vs success ratio per provider.
	UpstreamCallsTotal *prometheus.CounterVec

	// Provider latency per resource. Watch for: one provider dragging p95.
	UpstreamDuration *prometheus.HistogramVec

	// Location lookups by outcome (hit, miss). Hit rate = hit/(hit+miss).
	LocationLookupsTotal *prometheus.CounterVec

	// Store operations by op and result. Watch for: error results (store down).
	StoreOperationsTotal *prometheus.CounterVec

	// Store latency per op.
	StoreOperationDuration *prometheus.HistogramVec

	// Misses that overlapped another miss for the same search string.
	ConcurrentMissesTotal prometheus.Counter

	// Requests that waited on another request's provider call instead of making their own.
	CoalescedLookupsTotal prometheus.Counter

	// Failures by category (see client.CategorizeError).
	RequestErrorsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Startup warming runs, failed runs and duration.
	LocationWarmingTotal           prometheus.Counter
	LocationWarmingErrorsTotal     prometheus.Counter
	LocationWarmingDurationSeconds prometheus.Histogram

	rateLimitGaugesOnce sync.Once
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
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamCallsTotal",
			Help: "Total number of provider calls by resource and status",
		},
		[]string{"resource", "status"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamDurationSeconds",
			Help:    "Provider latency in seconds (per call)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"resource", "status"},
	)
	LocationLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locationLookupsTotal",
			Help: "Location lookups by store outcome",
		},
		[]string{"outcome"},
	)
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storeOperationsTotal",
			Help: "Location store operations by op and result",
		},
		[]string{"op", "result"},
	)
	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storeOperationDurationSeconds",
			Help:    "Location store latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"op"},
	)
	ConcurrentMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locationConcurrentMissesTotal",
			Help: "Location misses that overlapped another in-flight miss for the same search string",
		},
	)
	CoalescedLookupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locationCoalescedLookupsTotal",
			Help: "Location misses served by another request's provider call",
		},
	)
	RequestErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requestErrorsTotal",
			Help: "Failed resource requests by route and error category",
		},
		[]string{"route", "category"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)
	LocationWarmingTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locationWarmingTotal",
			Help: "Location store warming runs",
		},
	)
	LocationWarmingErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locationWarmingErrorsTotal",
			Help: "Location store warming runs with at least one failure",
		},
	)
	LocationWarmingDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "locationWarmingDurationSeconds",
			Help:    "Location store warming duration in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30},
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		UpstreamCallsTotal, UpstreamDuration,
		LocationLookupsTotal, StoreOperationsTotal, StoreOperationDuration,
		ConcurrentMissesTotal, CoalescedLookupsTotal,
		RequestErrorsTotal, RateLimitDeniedTotal,
		LocationWarmingTotal, LocationWarmingErrorsTotal, LocationWarmingDurationSeconds,
	)
}

// ObserveStoreOp records one store operation. result is "success" or "error".
func ObserveStoreOp(op string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	StoreOperationsTotal.WithLabelValues(op, result).Inc()
	StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// RegisterTrafficGauges registers sliding-window gauges over the traffic tracker.
// Call from main after config load. Safe to call more than once.
func RegisterTrafficGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "trafficRequestsInWindow",
					Help: "Requests (success + error + denied) in sliding window",
				},
				func() float64 { return float64(traffic.RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window",
				},
				func() float64 { return float64(traffic.DenialCount(window)) },
			),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
