// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package algorithms implements the similarity index used by the
// recommendation engine.
//
// # KNN
//
// KNN is an exact, brute-force nearest-neighbor index over the rows of a
// recommend.Matrix. Every query scans all rows, so results are exact and
// independent of insertion order. Supported metrics:
//
//   - euclidean: sqrt(sum((a_i - b_i)^2)), the default
//   - cosine:    1 - a.b / (|a| |b|); a zero vector is at distance 1 from everything
//   - manhattan: sum(|a_i - b_i|)
//
// The metric is fixed when the index is fitted and stored with it, so a
// persisted index is always queried with the metric it was built with.
//
// # Ordering
//
// Results are sorted by ascending distance, ties broken by ascending row
// index. QueryRow always places the query row first with distance 0, even
// when another row has an identical vector.
//
// # Usage
//
//	idx, err := algorithms.Fit(ctx, matrix, recommend.MetricEuclidean, algorithms.DefaultKNNConfig())
//	if err != nil {
//	    return err
//	}
//	neighbors, err := idx.QueryRow(ctx, row, 6)
//
// # Thread Safety
//
// A fitted KNN is immutable and safe for concurrent queries. Large scans are
// split across a fixed number of worker goroutines.
package algorithms
