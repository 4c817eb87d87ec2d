// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/validation"
)

// Error codes for domain error kinds.
const (
	CodeUnknownItem      = "UNKNOWN_ITEM"
	CodeNotTrained       = "NOT_TRAINED"
	CodeArtifact         = "ARTIFACT_ERROR"
	CodeBuildInProgress  = "BUILD_IN_PROGRESS"
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeInvalidRating    = "INVALID_RATING"
	CodeInternal         = "INTERNAL_ERROR"
)

// domainError maps an engine error to a status and a client-safe error.
// Server-side failures get generic messages; details stay in the log.
func domainError(err error) (int, *models.APIError) {
	switch recommend.Kind(err) {
	case recommend.KindUnknownItem:
		apiErr := &models.APIError{Code: CodeUnknownItem, Message: "Book not found in the current model"}
		var unknown *recommend.UnknownItemError
		if errors.As(err, &unknown) {
			if unknown.ItemID != "" {
				apiErr.Details = map[string]interface{}{"item_id": unknown.ItemID}
			} else {
				apiErr.Details = map[string]interface{}{"title": unknown.Title}
			}
		}
		return http.StatusNotFound, apiErr

	case recommend.KindNotTrained:
		return http.StatusServiceUnavailable, &models.APIError{
			Code:    CodeNotTrained,
			Message: "No trained model is available yet",
		}

	case recommend.KindInvalidQuery:
		return http.StatusBadRequest, &models.APIError{
			Code:    validation.ErrorCode,
			Message: err.Error(),
		}

	case recommend.KindBuildInProgress:
		apiErr := &models.APIError{Code: CodeBuildInProgress, Message: "A training run is already in progress"}
		var concurrent *recommend.ConcurrentBuildError
		if errors.As(err, &concurrent) && concurrent.Stage != "" {
			apiErr.Details = map[string]interface{}{"stage": concurrent.Stage}
		}
		return http.StatusConflict, apiErr

	case recommend.KindInsufficientData:
		apiErr := &models.APIError{Code: CodeInsufficientData, Message: "Activity thresholds left no data to train on"}
		var insufficient *recommend.InsufficientDataError
		if errors.As(err, &insufficient) {
			apiErr.Details = map[string]interface{}{
				"ratings":           insufficient.Ratings,
				"min_user_activity": insufficient.MinUserActivity,
				"min_item_activity": insufficient.MinItemActivity,
			}
		}
		return http.StatusUnprocessableEntity, apiErr

	case recommend.KindInvalidRating:
		return http.StatusUnprocessableEntity, &models.APIError{
			Code:    CodeInvalidRating,
			Message: err.Error(),
		}

	case recommend.KindArtifact:
		return http.StatusInternalServerError, &models.APIError{
			Code:    CodeArtifact,
			Message: "Stored model is missing or corrupt",
		}

	default:
		return http.StatusInternalServerError, &models.APIError{
			Code:    CodeInternal,
			Message: "Internal server error",
		}
	}
}

// respondDomainError renders err with domainError.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := domainError(err)
	respondError(w, r, status, apiErr, err)
}
