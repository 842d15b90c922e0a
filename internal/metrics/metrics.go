// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package metrics registers the Prometheus collectors for unboxd.
// Collectors are package-level promauto variables; the Record* helpers keep
// label handling in one place.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fetch metrics
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unboxd_fetch_requests_total",
			Help: "Total upstream fetch attempts by host and outcome",
		},
		[]string{"host", "outcome"}, // "ok", "transient", "fatal"
	)

	FetchRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unboxd_fetch_retries_total",
			Help: "Total fetch retries scheduled after a transient failure",
		},
		[]string{"host"},
	)

	FetchUnavailableTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unboxd_fetch_unavailable_total",
			Help: "Total fetches that gave up and reported the resource unavailable",
		},
		[]string{"host"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unboxd_fetch_duration_seconds",
			Help:    "Duration of a single upstream fetch attempt",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"host"},
	)

	FetchInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "unboxd_fetch_in_flight",
			Help: "Upstream requests currently holding a host slot",
		},
		[]string{"host"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "unboxd_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unboxd_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Cache tier metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unboxd_cache_lookups_total",
			Help: "Cache tier lookups by tier and result",
		},
		[]string{"tier", "result"}, // tier: static, semi_static, user_set; result: hit, stale, miss
	)

	CacheDuplicateInserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unboxd_cache_duplicate_inserts_total",
			Help: "First-write inserts that found the key already present",
		},
		[]string{"tier"},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Pipeline metrics
	CrawlDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unboxd_crawl_duration_seconds",
			Help:    "Duration of a complete crawl by kind and outcome",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"kind", "outcome"}, // kind: movies, friends, reviews
	)

	CrawlItemsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "unboxd_crawl_items_dropped_total",
			Help: "Listing items dropped because their resolution failed",
		},
	)

	SchedulerTaskFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unboxd_scheduler_task_failures_total",
			Help: "Scheduler task slots that ended in an error or panic",
		},
		[]string{"kind"}, // "error", "panic"
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordDBQuery records a database query metric.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache tier lookup result.
func RecordCacheLookup(tier, result string) {
	CacheLookups.WithLabelValues(tier, result).Inc()
}

// RecordCrawl records the duration and outcome of a crawl.
func RecordCrawl(kind string, duration time.Duration, err error) {
	outcome := "complete"
	if err != nil {
		outcome = "failed"
	}
	CrawlDuration.WithLabelValues(kind, outcome).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}
