// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package recommend implements item-to-item book recommendations from explicit
// user ratings.
//
// # Architecture
//
// The pipeline has an offline half and an online half:
//
//   - Matrix Builder: filters ratings by user and item activity thresholds and
//     pivots the survivors into a dense item x user matrix (BuildMatrix).
//   - Similarity Index: a brute-force nearest-neighbor structure over the matrix
//     rows (see the algorithms subpackage).
//   - Artifact Store: persists the join table, matrix and index as one immutable
//     generation and publishes it through a "current" pointer (see storage).
//   - Query Service: resolves a title to a matrix row, queries the index and joins
//     the neighbors back to title and cover image (Engine.Recommend).
//
// # Generations
//
// Every successful Train produces a new Generation. A generation is never
// modified after it is published. Queries load the current generation pointer
// once and use it for the whole request, so a concurrent rebuild never mixes
// artifacts from two builds.
//
// # Usage
//
//	cfg := recommend.DefaultConfig()
//	engine, err := recommend.NewEngine(cfg, source, store, algorithms.NewFitter(algorithms.DefaultKNNConfig()), logger)
//	if err != nil {
//	    return err
//	}
//	if _, err := engine.Train(ctx); err != nil {
//	    return err
//	}
//	res, err := engine.Recommend(ctx, recommend.Query{Title: "The Da Vinci Code", K: 6})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Train is single-writer: a second call
// while a build is running fails fast with *ConcurrentBuildError. Queries never
// block on a build.
//
// This package has no dependencies on other internal packages. Rating sources,
// artifact stores and index implementations are injected through interfaces.
package recommend
