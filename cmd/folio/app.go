// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/database"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/recommend"
	"github.com/tomtom215/folio/internal/recommend/algorithms"
	"github.com/tomtom215/folio/internal/recommend/storage"
	"github.com/tomtom215/folio/internal/supervisor/services"
)

// app holds the opened components shared by the commands.
type app struct {
	cfg     *config.Config
	db      *database.DB // nil when ratings come from another source
	store   *storage.Store
	engine  *recommend.Engine
	trainer *services.TrainerService
}

// openApp opens the rating store and the artifact store and loads the
// current generation. A corrupt or missing current generation does not stop
// the app from opening; queries report it until the next successful train.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := database.New(cfg.RatingStoreConfig(), logging.WithComponent("database"))
	if err != nil {
		return nil, fmt.Errorf("failed to open rating store: %w", err)
	}

	store, err := storage.Open(storage.Config{
		Path: cfg.Recommend.ArtifactDir,
		KNN:  cfg.KNNConfig(),
	}, logging.WithComponent("artifacts"))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}

	a, err := assembleApp(ctx, cfg, db, store)
	if err != nil {
		_ = store.Close()
		_ = db.Close()
		return nil, err
	}
	a.db = db
	return a, nil
}

// assembleApp builds the engine and trainer over source and store.
func assembleApp(ctx context.Context, cfg *config.Config, source recommend.RatingSource, store *storage.Store) (*app, error) {
	engine, err := recommend.NewEngine(
		cfg.EngineConfig(),
		source,
		store,
		algorithms.NewFitter(cfg.KNNConfig()),
		logging.WithComponent("recommend"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	// A generation that fails to load is reported by every query; a
	// successful train replaces it.
	if err := engine.Load(ctx); err != nil {
		logging.Error().
			Err(err).
			Str("kind", recommend.Kind(err)).
			Msg("current generation could not be loaded, run train to replace it")
	}

	trainer := services.NewTrainerService(engine, services.TrainerConfig{
		TrainOnStartup:     cfg.Recommend.TrainOnStartup,
		Interval:           cfg.Recommend.TrainInterval,
		BreakerMaxFailures: cfg.Recommend.BreakerMaxFailures,
		BreakerTimeout:     cfg.Recommend.BreakerTimeout,
	}, logging.WithComponent("trainer"))

	return &app{
		cfg:     cfg,
		store:   store,
		engine:  engine,
		trainer: trainer,
	}, nil
}

// Close closes the artifact store and the rating store.
func (a *app) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
