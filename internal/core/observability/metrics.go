// Package observability holds the service's Prometheus collectors and the
// helpers that record into them.
package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"upstream", "outcome"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by op and result.",
		},
		[]string{"op", "result"},
	)

	redisOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "POI cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	poiLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poi_lookups_total",
			Help: "Point-of-interest lookups by place type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	evaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "area_evaluation_duration_seconds",
			Help:    "Time to score a full location grid.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	listingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listing_events_total",
			Help: "Listing events handed to the publisher by outcome.",
		},
		[]string{"outcome"},
	)

	invalidationEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poi_invalidation_events_total",
			Help: "POI invalidation events by outcome.",
		},
		[]string{"outcome"},
	)

	invalidatedCells = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "poi_invalidated_cells_total",
			Help: "H3 cells evicted from the POI cache.",
		},
	)

	sheetInputs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheet_inputs_total",
			Help: "Bottom sheet session inputs by type.",
		},
		[]string{"type"},
	)

	trackedCells = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "popularity_tracked_cells",
			Help: "H3 cells currently tracked for lookup popularity.",
		},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds, upstreamLatencySeconds,
		cacheOpTotal, redisOpDuration, cacheResults, poiLookups,
		evaluationDuration, listingEvents, invalidationEvents, invalidatedCells,
		sheetInputs, trackedCells, buildInfo,
	}
}

func init() {
	Init(prometheus.DefaultRegisterer)
}

// Init registers every collector with reg. Registering twice with the same
// registry is a no-op.
func Init(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(err)
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstream(upstream string, err error, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(upstream, outcome(err)).Observe(durationSeconds)
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	cacheOpTotal.WithLabelValues(op, outcome(err)).Inc()
	redisOpDuration.WithLabelValues(op).Observe(durationSeconds)
}

func CacheHit(tier string)  { cacheResults.WithLabelValues(tier, "hit").Inc() }
func CacheMiss(tier string) { cacheResults.WithLabelValues(tier, "miss").Inc() }

func ObservePOILookup(placeType string, err error) {
	poiLookups.WithLabelValues(placeType, outcome(err)).Inc()
}

func ObserveEvaluation(durationSeconds float64) {
	evaluationDuration.Observe(durationSeconds)
}

func IncListingEvent(outcome string) { listingEvents.WithLabelValues(outcome).Inc() }

func IncInvalidationEvent(outcome string) { invalidationEvents.WithLabelValues(outcome).Inc() }

func AddInvalidatedCells(n int) {
	if n > 0 {
		invalidatedCells.Add(float64(n))
	}
}

func IncSheetInput(kind string) { sheetInputs.WithLabelValues(kind).Inc() }

func SetTrackedCells(n int) { trackedCells.Set(float64(n)) }

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
