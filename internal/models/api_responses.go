// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import (
	"time"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIResponse is the envelope of every API response.
//
// Status is "success" with Data set, or "error" with Error set.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata describes how a response was produced.
//
// GenerationID names the model generation that answered a query, so
// clients can tell when results change after a retrain.
type Metadata struct {
	Timestamp    time.Time `json:"timestamp"`
	QueryTimeMS  int64     `json:"query_time_ms,omitempty"`
	GenerationID string    `json:"generation_id,omitempty"`
	Cached       bool      `json:"cached,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
}

// APIError is a structured error.
//
// Codes used by the API:
//   - VALIDATION_FAILED: malformed query parameters
//   - UNKNOWN_ITEM: title or item id not in the current generation
//   - NOT_TRAINED: no generation has been published yet
//   - BUILD_IN_PROGRESS: a training run is already active
//   - INSUFFICIENT_DATA: thresholds removed every rating
//   - INVALID_RATING: the rating store holds unusable rows
//   - ARTIFACT_ERROR: a stored generation is missing or corrupt
//   - UNAUTHORIZED, FORBIDDEN: admin token missing, invalid or lacking role
//   - RATE_LIMITED, NOT_FOUND, METHOD_NOT_ALLOWED, INTERNAL_ERROR
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
