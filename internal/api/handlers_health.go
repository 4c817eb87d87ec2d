// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/models"
)

const healthCheckTimeout = 2 * time.Second

// HealthLive handles liveness probes. It answers 200 while the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, models.Metadata{})
}

// HealthReady handles readiness probes. The service is ready once a
// generation is serving and the rating store, when configured, answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	health := models.HealthStatus{
		Status:            "healthy",
		Version:           Version,
		DatabaseConnected: true,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	if gen := h.recommender.Current(); gen != nil {
		health.Trained = true
		health.GenerationID = gen.ID()
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			health.DatabaseConnected = false
			logging.Ctx(r.Context()).Warn().Err(err).Msg("rating store ping failed")
		}
	}

	status := http.StatusOK
	if !health.Trained || !health.DatabaseConnected {
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	respondSuccess(w, r, status, health, models.Metadata{GenerationID: health.GenerationID})
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := models.ServiceStatus{
		Training:  h.recommender.Status(),
		Engine:    models.NewEngineSettings(h.recommender.GetConfig()),
		StartedAt: h.startTime,
	}

	if h.store != nil {
		counts, err := h.store.Counts(r.Context())
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("rating store counts failed")
		} else {
			status.Ratings = &models.RatingCounts{
				Ratings: counts.Ratings,
				Users:   counts.Users,
				Books:   counts.Books,
			}
		}
	}

	respondSuccess(w, r, http.StatusOK, status, models.Metadata{
		GenerationID: status.Training.CurrentGeneration,
	})
}

// NotFound answers unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, &models.APIError{
		Code:    CodeNotFound,
		Message: "Route not found",
	}, nil)
}

// MethodNotAllowed answers a matched route with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, &models.APIError{
		Code:    CodeMethodNotAllowed,
		Message: "Method not allowed",
	}, nil)
}
