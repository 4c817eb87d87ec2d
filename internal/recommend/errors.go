// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNotTrained is returned by queries when no generation has been published.
	ErrNotTrained = errors.New("no trained generation available")

	// ErrInvalidQuery is returned for malformed queries.
	ErrInvalidQuery = errors.New("invalid query")
)

// InsufficientDataError is returned when filtering leaves no rows or no columns.
type InsufficientDataError struct {
	Ratings         int
	Rows            int
	Cols            int
	MinUserActivity int
	MinItemActivity int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d ratings left %d items x %d users (min_user_activity=%d, min_item_activity=%d)",
		e.Ratings, e.Rows, e.Cols, e.MinUserActivity, e.MinItemActivity)
}

// UnknownItemError is returned when a title or item id is not a row of the
// current matrix.
type UnknownItemError struct {
	Title  string
	ItemID string
}

func (e *UnknownItemError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("unknown item id %q", e.ItemID)
	}
	return fmt.Sprintf("unknown title %q", e.Title)
}

// ArtifactMissingError is returned when a generation or one of its artifacts
// is not present in the store.
type ArtifactMissingError struct {
	Generation string
	Artifact   string
}

func (e *ArtifactMissingError) Error() string {
	if e.Generation == "" {
		return fmt.Sprintf("artifact missing: %s", e.Artifact)
	}
	return fmt.Sprintf("artifact missing: generation %s: %s", e.Generation, e.Artifact)
}

// ArtifactCorruptError is returned when an artifact fails to decode, fails its
// checksum, or is inconsistent with the rest of its generation.
type ArtifactCorruptError struct {
	Generation string
	Artifact   string
	Err        error
}

func (e *ArtifactCorruptError) Error() string {
	return fmt.Sprintf("artifact corrupt: generation %s: %s: %v", e.Generation, e.Artifact, e.Err)
}

func (e *ArtifactCorruptError) Unwrap() error {
	return e.Err
}

// ConcurrentBuildError is returned when Train is called while another build
// is in progress.
type ConcurrentBuildError struct {
	Stage string
}

func (e *ConcurrentBuildError) Error() string {
	if e.Stage == "" {
		return "build already in progress"
	}
	return fmt.Sprintf("build already in progress (stage %s)", e.Stage)
}

// InvalidRatingError is returned when a rating violates the source contract.
type InvalidRatingError struct {
	Position int
	Rating   Rating
	Reason   string
}

func (e *InvalidRatingError) Error() string {
	return fmt.Sprintf("invalid rating at position %d (user %q, item %q, rating %v): %s",
		e.Position, e.Rating.UserID, e.Rating.ItemID, e.Rating.Rating, e.Reason)
}

// QueryStage names a step of the query state machine.
type QueryStage string

// Query stages.
const (
	StageLookupRow       QueryStage = "lookup_row"
	StageQueryIndex      QueryStage = "query_index"
	StageResolveMetadata QueryStage = "resolve_metadata"
)

// QueryError records the stage at which a query failed. The wrapped error
// keeps its type, so errors.As on the cause works through a QueryError.
type QueryError struct {
	Stage QueryStage
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("recommend %s: %v", e.Stage, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Error kinds returned by Kind.
const (
	KindUnknownItem      = "unknown_item"
	KindNotTrained       = "not_trained"
	KindInvalidQuery     = "invalid_query"
	KindArtifact         = "artifact"
	KindBuildInProgress  = "build_in_progress"
	KindInsufficientData = "insufficient_data"
	KindInvalidRating    = "invalid_rating"
	KindCanceled         = "canceled"
	KindInternal         = "internal"
)

// Kind classifies err into a short label for metrics and API error codes.
// It returns "" for a nil error.
func Kind(err error) string {
	var (
		unknown      *UnknownItemError
		missing      *ArtifactMissingError
		corrupt      *ArtifactCorruptError
		concurrent   *ConcurrentBuildError
		insufficient *InsufficientDataError
		invalid      *InvalidRatingError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &unknown):
		return KindUnknownItem
	case errors.Is(err, ErrNotTrained):
		return KindNotTrained
	case errors.Is(err, ErrInvalidQuery):
		return KindInvalidQuery
	case errors.As(err, &missing), errors.As(err, &corrupt):
		return KindArtifact
	case errors.As(err, &concurrent):
		return KindBuildInProgress
	case errors.As(err, &insufficient):
		return KindInsufficientData
	case errors.As(err, &invalid):
		return KindInvalidRating
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
