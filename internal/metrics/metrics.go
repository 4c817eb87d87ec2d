// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Rating store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB rating store operations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"operation"}, // "import", "ratings", "items", "count"
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_duckdb_query_errors_total",
			Help: "Total number of failed DuckDB rating store operations",
		},
		[]string{"operation"},
	)

	DBRowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_duckdb_rows_read_total",
			Help: "Total number of rows read from the rating store",
		},
		[]string{"table"},
	)

	// Build metrics
	BuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_build_duration_seconds",
			Help:    "Duration of generation builds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_builds_total",
			Help: "Total number of generation builds by result",
		},
		[]string{"result"}, // "success" or an error kind
	)

	BuildLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_build_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful build",
		},
	)

	GenerationRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_generation_rows",
			Help: "Number of items (matrix rows) in the current generation",
		},
	)

	GenerationCols = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_generation_cols",
			Help: "Number of users (matrix columns) in the current generation",
		},
	)

	GenerationSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_generation_size_bytes",
			Help: "Compressed artifact size of the current generation",
		},
	)

	GenerationsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_generations_pruned_total",
			Help: "Total number of generations removed by pruning",
		},
	)

	// Query metrics
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_queries_total",
			Help: "Total number of recommendation queries by outcome",
		},
		[]string{"outcome"}, // "success" or an error kind
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_query_duration_seconds",
			Help:    "Recommendation query latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
	)

	QueryResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_query_result_size",
			Help:    "Number of recommendations returned per successful query",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_cache_lookups_total",
			Help: "Total number of in-memory cache lookups by result",
		},
		[]string{"cache", "result"}, // "hit" or "miss"
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "folio_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "folio_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_circuit_breaker_requests_total",
			Help: "Total number of requests through a circuit breaker",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordDBQuery records a rating store operation.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordRowsRead adds n rows read from table.
func RecordRowsRead(table string, n int) {
	DBRowsRead.WithLabelValues(table).Add(float64(n))
}

// RecordBuild records a finished build. kind is "" on success or the error kind.
func RecordBuild(duration time.Duration, kind string) {
	BuildDuration.Observe(duration.Seconds())
	if kind == "" {
		BuildsTotal.WithLabelValues("success").Inc()
		BuildLastSuccess.Set(float64(time.Now().Unix()))
		return
	}
	BuildsTotal.WithLabelValues(kind).Inc()
}

// SetGeneration publishes the shape of the generation now serving queries.
func SetGeneration(rows, cols int, sizeBytes int64) {
	GenerationRows.Set(float64(rows))
	GenerationCols.Set(float64(cols))
	GenerationSizeBytes.Set(float64(sizeBytes))
}

// RecordPruned adds n pruned generations.
func RecordPruned(n int) {
	if n > 0 {
		GenerationsPruned.Add(float64(n))
	}
}

// RecordQuery records a recommendation query. kind is "" on success.
func RecordQuery(duration time.Duration, results int, kind string) {
	QueryDuration.Observe(duration.Seconds())
	if kind == "" {
		QueriesTotal.WithLabelValues("success").Inc()
		QueryResultSize.Observe(float64(results))
		return
	}
	QueriesTotal.WithLabelValues(kind).Inc()
}

// RecordCacheLookup records a lookup in the named cache.
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a request rejected by the rate limiter.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordBreakerTransition records a circuit breaker state change.
func RecordBreakerTransition(name, from, to string, toValue float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(toValue)
}

// RecordBreakerRequest records one call through a circuit breaker.
func RecordBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}
