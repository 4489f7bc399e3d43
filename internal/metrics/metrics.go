// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the feed service:
// - Feed generation latency and outcome per algorithm
// - Per-pool fetch performance and failures
// - Slot fill behavior (unfilled slots after fallthrough)
// - Postgres query performance
// - Circuit breaker state for store and graph lookups
// - Analytics event publishing

var (
	// Feed Generation Metrics
	FeedRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_requests_total",
			Help: "Total number of feed generation requests",
		},
		[]string{"algorithm", "viewer_class"}, // viewer_class: "authenticated", "anonymous"
	)

	FeedGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_generation_duration_seconds",
			Help:    "Feed generation latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"algorithm"},
	)

	FeedDegradedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_degraded_total",
			Help: "Total number of feed generations that completed degraded",
		},
		[]string{"reason"}, // "pool_fetch", "relationship_lookup", "annotation"
	)

	FeedPostsReturned = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_posts_returned",
			Help:    "Number of posts returned per feed generation",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 50},
		},
		[]string{"algorithm"},
	)

	// Pool Metrics
	PoolFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_pool_fetch_duration_seconds",
			Help:    "Candidate pool fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pool"},
	)

	PoolFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_pool_fetch_failures_total",
			Help: "Total number of failed pool fetches (degraded to empty)",
		},
		[]string{"pool"},
	)

	PoolCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_pool_candidates",
			Help:    "Number of candidates returned per pool fetch",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500},
		},
		[]string{"pool"},
	)

	// Slot Metrics
	SlotsUnfilled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_slots_unfilled_total",
			Help: "Total number of slots left unfilled after pool fallthrough",
		},
	)

	RelationshipLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_relationship_lookup_failures_total",
			Help: "Total number of failed relationship snapshot lookups",
		},
	)

	// API Endpoint Metrics
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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of Postgres queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total number of Postgres query errors",
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Analytics Event Metrics
	AnalyticsEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_published_total",
			Help: "Total number of analytics events published",
		},
		[]string{"status"}, // "ok", "error"
	)
)

// ObserveAPIRequest records a completed API request.
func ObserveAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ObserveDBQuery records a completed store query.
func ObserveDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
