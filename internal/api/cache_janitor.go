// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"time"

	"github.com/tomtom215/folio/internal/logging"
)

// ResultCacheJanitor periodically removes expired entries from the handler's
// result cache. Expired entries are never served, but without a sweep they
// hold memory until evicted by newer results.
//
// It implements suture.Service and runs in the API layer.
type ResultCacheJanitor struct {
	handler  *Handler
	interval time.Duration
}

// ResultCacheJanitor returns a janitor that sweeps once per result TTL.
func (h *Handler) ResultCacheJanitor() *ResultCacheJanitor {
	return &ResultCacheJanitor{handler: h, interval: h.config.ResultCacheTTL}
}

// Serve implements suture.Service.
func (j *ResultCacheJanitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := j.handler.results.CleanupExpired(); removed > 0 {
				logging.Debug().Int("removed", removed).Msg("expired cached results removed")
			}
		}
	}
}

// String returns the service name for logging.
func (j *ResultCacheJanitor) String() string {
	return "result-cache-janitor"
}
