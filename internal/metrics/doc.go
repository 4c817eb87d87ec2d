// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package metrics provides Prometheus instrumentation for Folio.

All collectors are registered with the default registry at package
initialization and exposed by Handler at /metrics.

# Available Metrics

Rating store:
  - folio_duckdb_query_duration_seconds{operation}
  - folio_duckdb_query_errors_total{operation}
  - folio_duckdb_rows_read_total{table}

Builds:
  - folio_build_duration_seconds
  - folio_builds_total{result}: "success" or an error kind such as insufficient_data
  - folio_build_last_success_timestamp_seconds
  - folio_generation_rows, folio_generation_cols, folio_generation_size_bytes
  - folio_generations_pruned_total

Queries:
  - folio_queries_total{outcome}: "success" or an error kind such as unknown_item
  - folio_query_duration_seconds
  - folio_query_result_size

API:
  - folio_api_requests_total{method,endpoint,status_code}
  - folio_api_request_duration_seconds{method,endpoint}
  - folio_api_active_requests
  - folio_api_rate_limit_hits_total{endpoint}

Circuit breaker (scheduled rebuilds):
  - folio_circuit_breaker_state{name}: 0=closed, 1=half-open, 2=open
  - folio_circuit_breaker_requests_total{name,result}
  - folio_circuit_breaker_state_transitions_total{name,from_state,to_state}

Endpoint labels use chi route patterns, never raw paths, to keep
cardinality bounded.
*/
package metrics
