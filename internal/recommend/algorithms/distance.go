// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package algorithms

import (
	"context"
	"math"
	"sort"

	"github.com/tomtom215/folio/internal/recommend"
)

// euclideanDistance computes the L2 distance between two vectors of equal length.
func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// manhattanDistance computes the L1 distance between two vectors of equal length.
func manhattanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum
}

// cosineDistance computes 1 - cosine similarity given precomputed norms.
// A zero vector is at distance 1 from every vector.
func cosineDistance(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 1
	}

	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}

	d := 1 - dot/(normA*normB)
	// Rounding can push identical directions slightly below zero.
	if d < 0 {
		return 0
	}
	return d
}

// l2Norm returns the Euclidean norm of v.
func l2Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// sortNeighbors orders by ascending distance, then ascending row.
func sortNeighbors(ns []recommend.Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Distance != ns[j].Distance {
			return ns[i].Distance < ns[j].Distance
		}
		return ns[i].Row < ns[j].Row
	})
}

// finite reports whether every element of v is a finite number.
func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
