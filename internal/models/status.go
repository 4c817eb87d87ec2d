// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import (
	"time"

	"github.com/tomtom215/folio/internal/recommend"
)

// HealthStatus is the readiness probe document.
type HealthStatus struct {
	Status            string  `json:"status"` // "healthy" or "degraded"
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	Trained           bool    `json:"trained"`
	GenerationID      string  `json:"generation_id,omitempty"`
	Uptime            float64 `json:"uptime_seconds"`
}

// RatingCounts summarizes the rating store.
type RatingCounts struct {
	Ratings int64 `json:"ratings"`
	Users   int64 `json:"users"`
	Books   int64 `json:"books"`
}

// EngineSettings is the public subset of the engine configuration.
type EngineSettings struct {
	Metric          recommend.Metric  `json:"metric"`
	MinUserActivity int               `json:"min_user_activity"`
	MinItemActivity int               `json:"min_item_activity"`
	DefaultK        int               `json:"default_k"`
	MaxK            int               `json:"max_k"`
	JoinKey         recommend.JoinKey `json:"join_key"`
	KeepGenerations int               `json:"keep_generations"`
}

// ServiceStatus is returned by GET /api/v1/status.
type ServiceStatus struct {
	Training recommend.TrainingStatus `json:"training"`
	Engine   EngineSettings           `json:"engine"`

	// Ratings is nil when the rating store could not be queried.
	Ratings *RatingCounts `json:"ratings,omitempty"`

	StartedAt time.Time `json:"started_at"`
}

// NewEngineSettings extracts the public settings from cfg.
func NewEngineSettings(cfg *recommend.Config) EngineSettings {
	return EngineSettings{
		Metric:          cfg.Index.Metric,
		MinUserActivity: cfg.Build.MinUserActivity,
		MinItemActivity: cfg.Build.MinItemActivity,
		DefaultK:        cfg.Query.DefaultK,
		MaxK:            cfg.Query.MaxK,
		JoinKey:         cfg.Query.JoinKey,
		KeepGenerations: cfg.Training.KeepGenerations,
	}
}
