// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

const resultCacheName = "recommendations"

// TitlesResponse is the payload of GET /titles.
type TitlesResponse struct {
	Titles []cache.TitleMatch `json:"titles"`
	Total  int                `json:"total"`
}

// Recommendations handles GET /api/v1/recommendations.
//
// The result holds the query book in "item" and up to k-1 neighbors in
// "items", closest first.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	k, apiErr := parseIntParam(r, "k")
	if apiErr != nil {
		metrics.RecordQuery(time.Since(start), 0, recommend.KindInvalidQuery)
		respondError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	req := RecommendationsRequest{
		Title:  r.URL.Query().Get("title"),
		ItemID: strings.TrimSpace(r.URL.Query().Get("item_id")),
		K:      k,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		metrics.RecordQuery(time.Since(start), 0, recommend.KindInvalidQuery)
		respondError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	query := recommend.Query{Title: req.Title, ItemID: req.ItemID, K: req.K}

	var key string
	if gen := h.recommender.Current(); gen != nil {
		h.syncResultCache(gen.ID())
		key = resultCacheKey(gen.ID(), query)
		res, ok := h.results.Get(key)
		metrics.RecordCacheLookup(resultCacheName, ok)
		if ok {
			metrics.RecordQuery(time.Since(start), len(res.Items), "")
			respondSuccess(w, r, http.StatusOK, res, models.Metadata{
				QueryTimeMS:  time.Since(start).Milliseconds(),
				GenerationID: res.GenerationID,
				Cached:       true,
			})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.QueryTimeout)
	defer cancel()

	res, err := h.recommender.Recommend(ctx, query)
	if err != nil {
		metrics.RecordQuery(time.Since(start), 0, recommend.Kind(err))
		respondDomainError(w, r, err)
		return
	}
	metrics.RecordQuery(time.Since(start), len(res.Items), "")

	// A rebuild may have swapped generations between Current and Recommend;
	// only cache under the generation that produced the result.
	if key != "" && strings.HasPrefix(key, res.GenerationID+"|") {
		h.results.Set(key, res)
	}

	respondSuccess(w, r, http.StatusOK, res, models.Metadata{
		QueryTimeMS:  time.Since(start).Milliseconds(),
		GenerationID: res.GenerationID,
	})
}

//nolint:gocritic // hugeParam: q passed by value for immutability
func resultCacheKey(generationID string, q recommend.Query) string {
	return generationID + "|" + q.ItemID + "|" + q.Title + "|" + strconv.Itoa(q.K)
}

// Titles handles GET /api/v1/titles.
//
// With a prefix, titles are matched case-insensitively and ranked by the
// number of ratings behind them. Without one, all titles are listed
// alphabetically. limit of 0 returns everything.
func (h *Handler) Titles(w http.ResponseWriter, r *http.Request) {
	limit, apiErr := parseIntParam(r, "limit")
	if apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}
	req := TitlesRequest{
		Prefix: r.URL.Query().Get("prefix"),
		Limit:  limit,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	gen := h.recommender.Current()
	if gen == nil {
		// Let the engine report why: never trained or a failed load.
		_, err := h.recommender.Titles(r.Context())
		if err == nil {
			err = recommend.ErrNotTrained
		}
		respondDomainError(w, r, err)
		return
	}

	var matches []cache.TitleMatch
	if strings.TrimSpace(req.Prefix) != "" {
		matches = h.titleIndex(gen).Complete(req.Prefix, req.Limit)
	} else {
		titles := gen.Titles()
		if req.Limit > 0 && len(titles) > req.Limit {
			titles = titles[:req.Limit]
		}
		idx := h.titleIndex(gen)
		matches = make([]cache.TitleMatch, 0, len(titles))
		for _, title := range titles {
			matches = append(matches, cache.TitleMatch{Title: title, Weight: idx.Weight(title)})
		}
	}
	if matches == nil {
		matches = []cache.TitleMatch{}
	}

	respondSuccess(w, r, http.StatusOK, TitlesResponse{
		Titles: matches,
		Total:  len(gen.Titles()),
	}, models.Metadata{GenerationID: gen.ID()})
}

// Generations handles GET /api/v1/generations, newest first.
func (h *Handler) Generations(w http.ResponseWriter, r *http.Request) {
	manifests, err := h.recommender.Generations(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if manifests == nil {
		manifests = []recommend.Manifest{}
	}

	meta := models.Metadata{}
	if gen := h.recommender.Current(); gen != nil {
		meta.GenerationID = gen.ID()
	}
	respondSuccess(w, r, http.StatusOK, manifests, meta)
}
