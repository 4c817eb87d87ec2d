// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the whole process; it caches struct
// metadata, so repeated validation of request and configuration structs is
// cheap. Field names in errors come from the json tag when present, so API
// clients see the parameter names they sent.
//
// # Usage
//
//	type RecommendRequest struct {
//	    Title  string `json:"title" validate:"required_without=ItemID,omitempty,notblank,max=512"`
//	    ItemID string `json:"item_id" validate:"omitempty,max=64"`
//	    K      int    `json:"k" validate:"omitempty,min=2,max=1000"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// # Custom Tags
//
//   - notblank: string must contain a non-whitespace character
//   - metric: one of euclidean, cosine, manhattan
//
// # Thread Safety
//
// GetValidator and ValidateStruct are safe for concurrent use.
package validation
