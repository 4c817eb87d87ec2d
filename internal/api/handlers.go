// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/folio/internal/auth"
	"github.com/tomtom215/folio/internal/cache"
	"github.com/tomtom215/folio/internal/database"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/recommend"
)

// Recommender answers queries against the current generation.
// *recommend.Engine implements it.
type Recommender interface {
	Recommend(ctx context.Context, q recommend.Query) (*recommend.Result, error)
	Titles(ctx context.Context) ([]string, error)
	Current() *recommend.Generation
	Generations(ctx context.Context) ([]recommend.Manifest, error)
	Status() recommend.TrainingStatus
	GetConfig() *recommend.Config
}

// Trainer builds and publishes a new generation. StartTrain must reserve
// the single build slot before returning, so a concurrent request is
// rejected synchronously.
type Trainer interface {
	Train(ctx context.Context) (*recommend.TrainResult, error)
	StartTrain(ctx context.Context, done func(*recommend.TrainResult, error)) error
}

// RatingStore reports on the rating database. Optional.
type RatingStore interface {
	Ping(ctx context.Context) error
	Counts(ctx context.Context) (database.Counts, error)
}

// Version is reported by the readiness probe.
var Version = "dev"

// HandlerConfig sizes the handler caches.
type HandlerConfig struct {
	ResultCacheSize int
	ResultCacheTTL  time.Duration
	QueryTimeout    time.Duration
}

// DefaultHandlerConfig returns the default handler settings.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		ResultCacheSize: 4096,
		ResultCacheTTL:  10 * time.Minute,
		QueryTimeout:    10 * time.Second,
	}
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_recommend.go: recommendations, titles, generations
//   - handlers_train.go: training trigger
//   - handlers_health.go: health probes and status
type Handler struct {
	recommender Recommender
	trainer     Trainer
	store       RatingStore

	jwtManager  *auth.JWTManager
	securityLog *logging.SecurityLogger

	config    HandlerConfig
	startTime time.Time

	// results caches query results of resultsGen; a new generation clears it.
	resultsMu  sync.Mutex
	results    *cache.LFU[string, *recommend.Result]
	resultsGen string

	titlesMu sync.Mutex
	titles   *generationTitles

	// background tracks asynchronous training runs.
	background sync.WaitGroup
}

// generationTitles is the title index of one generation.
type generationTitles struct {
	generationID string
	index        *cache.TitleIndex
}

// NewHandler creates an API handler. store and jwtManager may be nil; without
// a JWT manager the train endpoint is not mounted.
func NewHandler(recommender Recommender, trainer Trainer, store RatingStore, jwtManager *auth.JWTManager, cfg HandlerConfig) *Handler {
	defaults := DefaultHandlerConfig()
	if cfg.ResultCacheSize <= 0 {
		cfg.ResultCacheSize = defaults.ResultCacheSize
	}
	if cfg.ResultCacheTTL <= 0 {
		cfg.ResultCacheTTL = defaults.ResultCacheTTL
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaults.QueryTimeout
	}

	return &Handler{
		recommender: recommender,
		trainer:     trainer,
		store:       store,
		jwtManager:  jwtManager,
		securityLog: logging.NewSecurityLogger(logging.Logger()),
		config:      cfg,
		results:     cache.NewLFU[string, *recommend.Result](cfg.ResultCacheSize, cfg.ResultCacheTTL),
		startTime:   time.Now(),
	}
}

// Wait blocks until background training runs started by the handler finish.
func (h *Handler) Wait() {
	h.background.Wait()
}

// syncResultCache drops cached results when the serving generation changes.
func (h *Handler) syncResultCache(generationID string) {
	h.resultsMu.Lock()
	defer h.resultsMu.Unlock()

	if h.resultsGen == generationID {
		return
	}
	if h.resultsGen != "" {
		h.results.Clear()
	}
	h.resultsGen = generationID
}

// titleIndex returns the title index for gen, building it on first use.
func (h *Handler) titleIndex(gen *recommend.Generation) *cache.TitleIndex {
	h.titlesMu.Lock()
	defer h.titlesMu.Unlock()

	if h.titles != nil && h.titles.generationID == gen.ID() {
		return h.titles.index
	}

	weights := make(map[string]int, len(gen.Titles()))
	for _, title := range gen.Titles() {
		weights[title] = 0
	}
	for i := range gen.Join {
		if _, ok := weights[gen.Join[i].Title]; ok {
			weights[gen.Join[i].Title]++
		}
	}

	idx := cache.NewTitleIndex(weights)
	h.titles = &generationTitles{generationID: gen.ID(), index: idx}
	return idx
}
