// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// TrainAccepted is the payload of an asynchronous train request.
type TrainAccepted struct {
	Accepted bool   `json:"accepted"`
	Stage    string `json:"stage"`
}

// Train handles POST /api/v1/train.
//
// By default the request blocks until the build finishes and returns the
// TrainResult. With wait=false the build runs in the background and the
// handler answers 202; progress is visible on /status.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	req := TrainRequest{Wait: r.URL.Query().Get("wait")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	if req.Wait == "false" {
		h.trainAsync(w, r)
		return
	}

	res, err := h.trainer.Train(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusOK, res, models.Metadata{
		QueryTimeMS:  res.Duration.Milliseconds(),
		GenerationID: res.GenerationID,
	})
}

func (h *Handler) trainAsync(w http.ResponseWriter, r *http.Request) {
	// The build must outlive the request.
	ctx := logging.ContextWithLogger(context.WithoutCancel(r.Context()), logging.WithComponent("train"))
	logger := logging.Ctx(ctx)

	h.background.Add(1)
	err := h.trainer.StartTrain(ctx, func(res *recommend.TrainResult, err error) {
		defer h.background.Done()
		if err != nil {
			logger.Error().Err(err).Str("kind", recommend.Kind(err)).Msg("background training failed")
			return
		}
		logger.Info().Str("generation", res.GenerationID).Msg("background training complete")
	})
	if err != nil {
		h.background.Done()
		respondDomainError(w, r, err)
		return
	}

	respondSuccess(w, r, http.StatusAccepted, TrainAccepted{Accepted: true, Stage: "started"}, models.Metadata{})
}
