// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package algorithms

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tomtom215/folio/internal/recommend"
)

// KNNConfig contains configuration for the brute-force index.
type KNNConfig struct {
	// NumWorkers is the number of parallel scan workers.
	NumWorkers int

	// MinParallelRows is the row count below which scans run on a single
	// goroutine.
	MinParallelRows int
}

// DefaultKNNConfig returns default KNN configuration.
func DefaultKNNConfig() KNNConfig {
	return KNNConfig{
		NumWorkers:      4,
		MinParallelRows: 2048,
	}
}

// KNN is an exact nearest-neighbor index over matrix rows.
//
// A query scans every row, so results are exact and deterministic: ties on
// distance break by row number, and the query row itself is always returned
// first even when another row has an identical vector. Scans over at least
// MinParallelRows rows are split into NumWorkers contiguous chunks and
// merged; the merge preserves the serial order.
//
// The metric is fixed at fit time and travels with State, so a loaded index
// answers with the metric it was built with.
type KNN struct {
	config KNNConfig
	metric recommend.Metric

	labels  []string
	vectors [][]float64

	// norms caches row L2 norms for the cosine metric.
	norms []float64
}

// KNNState is the serializable form of a KNN.
type KNNState struct {
	Metric  string
	Labels  []string
	Vectors [][]float64
}

// NewFitter returns a recommend.IndexFitFunc that fits KNN indexes with cfg.
func NewFitter(cfg KNNConfig) recommend.IndexFitFunc {
	return func(ctx context.Context, m *recommend.Matrix, metric recommend.Metric) (recommend.Index, error) {
		return Fit(ctx, m, metric, cfg)
	}
}

// Fit builds an index over the rows of m. The index shares the matrix
// vectors, so m must not be modified afterwards.
func Fit(ctx context.Context, m *recommend.Matrix, metric recommend.Metric, cfg KNNConfig) (*KNN, error) {
	if m == nil {
		return nil, errors.New("fit: nil matrix")
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}
	return newKNN(ctx, metric, m.Rows, m.Values, cfg)
}

// FromState rebuilds an index from its serialized form.
//
//nolint:gocritic // hugeParam: state is decoded once per load
func FromState(ctx context.Context, state KNNState, cfg KNNConfig) (*KNN, error) {
	return newKNN(ctx, recommend.Metric(state.Metric), state.Labels, state.Vectors, cfg)
}

func newKNN(ctx context.Context, metric recommend.Metric, labels []string, vectors [][]float64, cfg KNNConfig) (*KNN, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("unsupported metric %q", metric)
	}
	if len(labels) == 0 {
		return nil, errors.New("cannot fit index on an empty matrix")
	}
	if len(vectors) != len(labels) {
		return nil, fmt.Errorf("%d vectors for %d labels", len(vectors), len(labels))
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("row %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 1
	}

	k := &KNN{
		config:  cfg,
		metric:  metric,
		labels:  labels,
		vectors: vectors,
	}

	if metric == recommend.MetricCosine {
		k.norms = make([]float64, len(vectors))
		for i, v := range vectors {
			if i%1024 == 0 && ContextCancelled(ctx) {
				return nil, ctx.Err()
			}
			k.norms[i] = l2Norm(v)
		}
	}

	return k, nil
}

// Metric implements recommend.Index.
func (k *KNN) Metric() recommend.Metric {
	return k.metric
}

// Labels implements recommend.Index.
func (k *KNN) Labels() []string {
	return k.labels
}

// Dim implements recommend.Index.
func (k *KNN) Dim() int {
	return len(k.vectors[0])
}

// Len returns the number of indexed rows.
func (k *KNN) Len() int {
	return len(k.labels)
}

// State returns the serializable form of the index.
func (k *KNN) State() KNNState {
	return KNNState{
		Metric:  string(k.metric),
		Labels:  k.labels,
		Vectors: k.vectors,
	}
}

// Query returns up to n rows closest to vector, closest first.
// n larger than the row count is clamped.
func (k *KNN) Query(ctx context.Context, vector []float64, n int) ([]recommend.Neighbor, error) {
	if n < 1 {
		return nil, fmt.Errorf("n must be positive, got %d", n)
	}
	if len(vector) != k.Dim() {
		return nil, fmt.Errorf("query vector has dimension %d, index has %d", len(vector), k.Dim())
	}
	if !finite(vector) {
		return nil, errors.New("query vector contains non-finite values")
	}

	neighbors, err := k.scan(ctx, vector, -1)
	if err != nil {
		return nil, err
	}
	if len(neighbors) > n {
		neighbors = neighbors[:n]
	}
	return neighbors, nil
}

// QueryRow returns up to n rows closest to row, closest first. The row itself
// is always first with distance 0.
func (k *KNN) QueryRow(ctx context.Context, row, n int) ([]recommend.Neighbor, error) {
	if n < 1 {
		return nil, fmt.Errorf("n must be positive, got %d", n)
	}
	if row < 0 || row >= len(k.vectors) {
		return nil, fmt.Errorf("row %d out of range [0, %d)", row, len(k.vectors))
	}

	others, err := k.scan(ctx, k.vectors[row], row)
	if err != nil {
		return nil, err
	}
	if len(others) > n-1 {
		others = others[:n-1]
	}

	out := make([]recommend.Neighbor, 0, len(others)+1)
	out = append(out, recommend.Neighbor{Label: k.labels[row], Row: row, Distance: 0})
	return append(out, others...), nil
}

// QueryLabel is QueryRow addressed by row label.
func (k *KNN) QueryLabel(ctx context.Context, label string, n int) ([]recommend.Neighbor, error) {
	for i, l := range k.labels {
		if l == label {
			return k.QueryRow(ctx, i, n)
		}
	}
	return nil, &recommend.UnknownItemError{ItemID: label}
}

// scan computes the distance from vector to every row except skip and
// returns them sorted.
func (k *KNN) scan(ctx context.Context, vector []float64, skip int) ([]recommend.Neighbor, error) {
	rows := len(k.vectors)
	out := make([]recommend.Neighbor, rows)

	var qnorm float64
	if k.metric == recommend.MetricCosine {
		if skip >= 0 {
			qnorm = k.norms[skip]
		} else {
			qnorm = l2Norm(vector)
		}
	}

	workers := k.config.NumWorkers
	if rows < k.config.MinParallelRows {
		workers = 1
	}
	chunkSize := (rows + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > rows {
			end = rows
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			for i := start; i < end; i++ {
				if (i-start)%1024 == 0 && ContextCancelled(ctx) {
					return
				}
				out[i] = recommend.Neighbor{
					Label:    k.labels[i],
					Row:      i,
					Distance: k.distance(vector, qnorm, i),
				}
			}
		}(start, end)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if skip >= 0 {
		out = append(out[:skip], out[skip+1:]...)
	}
	sortNeighbors(out)
	return out, nil
}

// distance computes the metric distance between vector and row i.
func (k *KNN) distance(vector []float64, qnorm float64, i int) float64 {
	switch k.metric {
	case recommend.MetricCosine:
		return cosineDistance(vector, k.vectors[i], qnorm, k.norms[i])
	case recommend.MetricManhattan:
		return manhattanDistance(vector, k.vectors[i])
	default:
		return euclideanDistance(vector, k.vectors[i])
	}
}

// Ensure KNN implements the index interface.
var _ recommend.Index = (*KNN)(nil)
