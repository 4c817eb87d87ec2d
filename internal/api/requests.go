// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

// RecommendationsRequest holds the query parameters of GET /recommendations.
// K of zero selects the configured default; larger values are capped by the
// engine.
type RecommendationsRequest struct {
	Title  string `json:"title" validate:"required_without=ItemID,omitempty,notblank,max=512"`
	ItemID string `json:"item_id" validate:"omitempty,notblank,max=64"`
	K      int    `json:"k" validate:"omitempty,min=2,max=1000"`
}

// TitlesRequest holds the query parameters of GET /titles.
type TitlesRequest struct {
	Prefix string `json:"prefix" validate:"max=512"`
	Limit  int    `json:"limit" validate:"min=0,max=1000"`
}

// TrainRequest holds the query parameters of POST /train.
type TrainRequest struct {
	Wait string `json:"wait" validate:"omitempty,oneof=true false"`
}
