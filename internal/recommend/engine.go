// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Build stages reported through TrainingStatus.Stage.
const (
	stageLoad    = "load"
	stageBuild   = "build"
	stageFit     = "fit"
	stageSave    = "save"
	stagePublish = "publish"
)

// Engine builds generations and answers recommendation queries against the
// current one. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	source RatingSource
	store  ArtifactStore
	fit    IndexFitFunc

	// current is the generation serving queries. Nil until the first
	// successful Load or Train.
	current atomic.Pointer[Generation]

	// trainMu is held for the whole build; TryLock enforces a single writer.
	trainMu sync.Mutex

	statusMu sync.RWMutex
	status   TrainingStatus
	loadErr  error
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, source RatingSource, store ArtifactStore, fit IndexFitFunc, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if source == nil {
		return nil, errors.New("rating source is required")
	}
	if store == nil {
		return nil, errors.New("artifact store is required")
	}
	if fit == nil {
		return nil, errors.New("index fit function is required")
	}

	return &Engine{
		config: cfg.Clone(),
		logger: logger.With().Str("component", "recommend").Logger(),
		source: source,
		store:  store,
		fit:    fit,
	}, nil
}

// Load installs the store's current generation. A store with no published
// generation is not an error; the engine stays untrained.
func (e *Engine) Load(ctx context.Context) error {
	gen, err := e.store.LoadCurrent(ctx)
	if errors.Is(err, ErrNotTrained) {
		e.logger.Info().Msg("no published generation, waiting for first build")
		return nil
	}
	if err != nil {
		e.statusMu.Lock()
		e.loadErr = err
		e.status.LastError = err.Error()
		e.statusMu.Unlock()
		return fmt.Errorf("load current generation: %w", err)
	}

	e.install(gen)
	e.logger.Info().
		Str("generation", gen.ID()).
		Int("rows", gen.Matrix.NumRows()).
		Int("cols", gen.Matrix.NumCols()).
		Msg("loaded current generation")
	return nil
}

// Current returns the generation serving queries, or nil.
func (e *Engine) Current() *Generation {
	return e.current.Load()
}

// install publishes gen in memory and clears any previous load failure.
func (e *Engine) install(gen *Generation) {
	e.current.Store(gen)

	e.statusMu.Lock()
	e.loadErr = nil
	e.status.CurrentGeneration = gen.ID()
	e.status.Rows = gen.Matrix.NumRows()
	e.status.Cols = gen.Matrix.NumCols()
	e.statusMu.Unlock()
}

// Train reads the rating source, builds a new generation, stores it and makes
// it current. It returns *ConcurrentBuildError immediately if a build is
// already running. On any failure the previous generation stays current.
func (e *Engine) Train(ctx context.Context) (*TrainResult, error) {
	if !e.trainMu.TryLock() {
		return nil, &ConcurrentBuildError{Stage: e.Status().Stage}
	}
	defer e.trainMu.Unlock()

	return e.runTrain(ctx)
}

// StartTrain reserves the build slot and runs the build in a new goroutine.
// When a build is already running it returns *ConcurrentBuildError and starts
// nothing. done, if not nil, receives the outcome after the slot is released.
func (e *Engine) StartTrain(ctx context.Context, done func(*TrainResult, error)) error {
	if !e.trainMu.TryLock() {
		return &ConcurrentBuildError{Stage: e.Status().Stage}
	}
	e.setTraining(true)

	go func() {
		res, err := e.runTrain(ctx)
		e.trainMu.Unlock()
		if done != nil {
			done(res, err)
		}
	}()
	return nil
}

// runTrain performs one build. The caller holds trainMu.
func (e *Engine) runTrain(ctx context.Context) (*TrainResult, error) {
	start := time.Now()
	e.setTraining(true)
	e.logger.Info().Msg("starting generation build")

	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	res, err := e.train(trainCtx, start)

	e.statusMu.Lock()
	e.status.IsTraining = false
	e.status.Stage = ""
	e.status.LastTrainingDurationMS = time.Since(start).Milliseconds()
	if err != nil {
		e.status.LastError = err.Error()
	} else {
		e.status.LastError = ""
		e.status.LastTrainedAt = time.Now()
	}
	e.statusMu.Unlock()

	if err != nil {
		e.logger.Error().Err(err).Msg("generation build failed")
		return nil, err
	}

	e.logger.Info().
		Str("generation", res.GenerationID).
		Int("rows", res.Manifest.Rows).
		Int("cols", res.Manifest.Cols).
		Int("pruned", res.Pruned).
		Dur("duration", res.Duration).
		Msg("generation build complete")

	return res, nil
}

func (e *Engine) train(ctx context.Context, start time.Time) (*TrainResult, error) {
	e.setStage(stageLoad)
	ratings, items, err := e.loadSource(ctx)
	if err != nil {
		return nil, err
	}

	e.setStage(stageBuild)
	gen, err := e.build(ctx, start, ratings, items)
	if err != nil {
		return nil, err
	}

	e.setStage(stageSave)
	if err := e.store.Save(ctx, gen); err != nil {
		return nil, fmt.Errorf("save generation %s: %w", gen.ID(), err)
	}

	e.setStage(stagePublish)
	if err := ctx.Err(); err != nil {
		e.discard(ctx, gen.ID())
		return nil, err
	}
	if err := e.store.Publish(ctx, gen.ID()); err != nil {
		e.discard(ctx, gen.ID())
		return nil, fmt.Errorf("publish generation %s: %w", gen.ID(), err)
	}
	e.install(gen)

	res := &TrainResult{
		GenerationID: gen.ID(),
		Manifest:     gen.Manifest,
		Duration:     time.Since(start),
	}

	if keep := e.config.Training.KeepGenerations; keep > 0 {
		pruned, err := e.store.Prune(context.WithoutCancel(ctx), keep)
		if err != nil {
			e.logger.Warn().Err(err).Msg("prune old generations failed")
		}
		res.Pruned = pruned
	}

	return res, nil
}

// loadSource reads ratings and items concurrently.
func (e *Engine) loadSource(ctx context.Context) ([]Rating, []Item, error) {
	var (
		ratings []Rating
		items   []Item
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ratings, err = e.source.Ratings(gctx)
		if err != nil {
			return fmt.Errorf("read ratings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = e.source.Items(gctx)
		if err != nil {
			return fmt.Errorf("read items: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	e.logger.Info().
		Int("ratings", len(ratings)).
		Int("items", len(items)).
		Msg("loaded rating source")

	return ratings, items, nil
}

// build runs the matrix builder and fits the index.
func (e *Engine) build(ctx context.Context, start time.Time, ratings []Rating, items []Item) (*Generation, error) {
	opts := e.config.Build
	if err := ValidateRatings(ratings); err != nil {
		return nil, err
	}

	known, unknown := RestrictToKnownItems(ratings, items)
	kept, stats, err := FilterRatings(known, opts)
	stats.RatingsIn = len(ratings)
	stats.UnknownItemsDropped = unknown
	if err != nil {
		return nil, err
	}

	m := Pivot(kept)
	join := BuildJoinTable(kept, items)

	e.logger.Info().
		Int("rows", m.NumRows()).
		Int("cols", m.NumCols()).
		Int("out_of_range_dropped", stats.OutOfRangeDropped).
		Int("duplicates_dropped", stats.DuplicatesDropped).
		Int("unknown_items_dropped", stats.UnknownItemsDropped).
		Float64("density", m.Density()).
		Msg("built rating matrix")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.setStage(stageFit)
	idx, err := e.fit(ctx, m, e.config.Index.Metric)
	if err != nil {
		return nil, fmt.Errorf("fit index: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate generation id: %w", err)
	}

	manifest := Manifest{
		ID:              id.String(),
		CreatedAt:       start.UTC(),
		Metric:          idx.Metric(),
		MinUserActivity: opts.MinUserActivity,
		MinItemActivity: opts.MinItemActivity,
		Rows:            m.NumRows(),
		Cols:            m.NumCols(),
		Stats:           stats,
		BuildDurationMS: time.Since(start).Milliseconds(),
	}

	return NewGeneration(manifest, join, m, idx)
}

// discard removes a saved but unpublished generation.
func (e *Engine) discard(ctx context.Context, id string) {
	if err := e.store.Delete(context.WithoutCancel(ctx), id); err != nil {
		e.logger.Warn().Err(err).Str("generation", id).Msg("discard unpublished generation failed")
	}
}

// Recommend answers q against the current generation. The result holds
// min(K, rows)-1 items, closest first, never including the query item.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()

	k, err := e.effectiveK(q)
	if err != nil {
		return nil, err
	}

	gen, err := e.servingGeneration()
	if err != nil {
		return nil, &QueryError{Stage: StageLookupRow, Err: err}
	}

	logger := e.logger.With().
		Str("generation", gen.ID()).
		Str("title", q.Title).
		Str("item_id", q.ItemID).
		Int("k", k).
		Logger()
	logger.Debug().Msg("processing recommendation query")

	row, err := lookupRow(gen, q)
	if err != nil {
		return nil, &QueryError{Stage: StageLookupRow, Err: err}
	}

	neighbors, err := gen.Index.QueryRow(ctx, row, k)
	if err != nil {
		return nil, &QueryError{Stage: StageQueryIndex, Err: err}
	}
	if len(neighbors) == 0 || neighbors[0].Row != row {
		return nil, &QueryError{Stage: StageQueryIndex, Err: fmt.Errorf("index did not return row %d first", row)}
	}

	res, err := e.resolve(gen, neighbors)
	if err != nil {
		return nil, &QueryError{Stage: StageResolveMetadata, Err: err}
	}
	res.K = k
	res.LatencyMS = time.Since(start).Milliseconds()

	logger.Debug().
		Int("returned", len(res.Items)).
		Int64("latency_ms", res.LatencyMS).
		Msg("recommendation complete")

	return res, nil
}

// effectiveK applies the default and the cap to the requested K.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (e *Engine) effectiveK(q Query) (int, error) {
	if q.Title == "" && q.ItemID == "" {
		return 0, fmt.Errorf("%w: title or item id is required", ErrInvalidQuery)
	}

	k := q.K
	if k == 0 {
		k = e.config.Query.DefaultK
	}
	if k < 2 {
		return 0, fmt.Errorf("%w: k must be at least 2, got %d", ErrInvalidQuery, k)
	}
	if k > e.config.Query.MaxK {
		k = e.config.Query.MaxK
	}
	return k, nil
}

// servingGeneration returns the current generation, the load failure that
// left the engine without one, or ErrNotTrained.
func (e *Engine) servingGeneration() (*Generation, error) {
	if gen := e.current.Load(); gen != nil {
		return gen, nil
	}

	e.statusMu.RLock()
	loadErr := e.loadErr
	e.statusMu.RUnlock()

	if loadErr != nil {
		return nil, loadErr
	}
	return nil, ErrNotTrained
}

//nolint:gocritic // hugeParam: q passed by value for immutability
func lookupRow(gen *Generation, q Query) (int, error) {
	if q.ItemID != "" {
		row, ok := gen.RowForItem(q.ItemID)
		if !ok {
			return 0, &UnknownItemError{ItemID: q.ItemID}
		}
		return row, nil
	}

	row, ok := gen.RowForTitle(q.Title)
	if !ok {
		return 0, &UnknownItemError{Title: q.Title}
	}
	return row, nil
}

// resolve joins neighbors back to display metadata. neighbors[0] is the
// query item itself.
func (e *Engine) resolve(gen *Generation, neighbors []Neighbor) (*Result, error) {
	key := e.config.Query.JoinKey

	toRec := func(n Neighbor) (Recommendation, error) {
		meta, ok := gen.Resolve(n.Label, key)
		if !ok {
			return Recommendation{}, fmt.Errorf("no metadata for item %q", n.Label)
		}
		return Recommendation{
			ItemID:   n.Label,
			Title:    meta.Title,
			Author:   meta.Author,
			ImageURL: meta.ImageURL,
			Distance: n.Distance,
		}, nil
	}

	self, err := toRec(neighbors[0])
	if err != nil {
		return nil, err
	}

	items := make([]Recommendation, 0, len(neighbors)-1)
	for _, n := range neighbors[1:] {
		rec, err := toRec(n)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}

	return &Result{
		GenerationID: gen.ID(),
		Item:         self,
		Items:        items,
	}, nil
}

// Titles returns the sorted distinct titles of the current generation.
func (e *Engine) Titles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gen, err := e.servingGeneration()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), gen.Titles()...), nil
}

// Generations lists the stored generations, newest first.
func (e *Engine) Generations(ctx context.Context) ([]Manifest, error) {
	return e.store.List(ctx)
}

// Status returns the current training status.
func (e *Engine) Status() TrainingStatus {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// GetConfig returns a copy of the engine configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

func (e *Engine) setTraining(training bool) {
	e.statusMu.Lock()
	e.status.IsTraining = training
	e.statusMu.Unlock()
}

func (e *Engine) setStage(stage string) {
	e.statusMu.Lock()
	e.status.Stage = stage
	e.statusMu.Unlock()

	e.logger.Debug().Str("stage", stage).Msg("build stage")
}
