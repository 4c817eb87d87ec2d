// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"fmt"
	"math"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Build contains matrix builder parameters.
	Build BuildOptions `json:"build"`

	// Index contains similarity index parameters.
	Index IndexConfig `json:"index"`

	// Query contains query service parameters.
	Query QueryConfig `json:"query"`

	// Training contains trainer parameters.
	Training TrainingConfig `json:"training"`
}

// BuildOptions controls how ratings are filtered and pivoted.
type BuildOptions struct {
	// MinUserActivity is the minimum number of ratings a user needs to be kept.
	MinUserActivity int `json:"min_user_activity"`

	// MinItemActivity is the minimum number of ratings, counted over retained
	// users, an item needs to be kept.
	MinItemActivity int `json:"min_item_activity"`

	// Duplicates decides which rating wins for a repeated (user, item) pair.
	Duplicates DuplicatePolicy `json:"duplicates"`

	// MinRating and MaxRating bound the ratings used in a build (inclusive).
	// Ratings outside the range are dropped and counted, not rejected.
	MinRating float64 `json:"min_rating"`
	MaxRating float64 `json:"max_rating"`
}

// IndexConfig controls the similarity index.
type IndexConfig struct {
	// Metric is the distance metric fixed into every generation.
	Metric Metric `json:"metric"`
}

// QueryConfig controls the query service.
type QueryConfig struct {
	// DefaultK is the neighbor count used when a query does not set one.
	// It includes the query item itself, so DefaultK-1 items are returned.
	DefaultK int `json:"default_k"`

	// MaxK caps the neighbor count of a single query.
	MaxK int `json:"max_k"`

	// JoinKey selects how neighbors are resolved to metadata.
	JoinKey JoinKey `json:"join_key"`
}

// TrainingConfig controls the trainer.
type TrainingConfig struct {
	// Timeout bounds a single build.
	Timeout time.Duration `json:"timeout"`

	// KeepGenerations is how many generations are retained after a build.
	// Zero disables pruning.
	KeepGenerations int `json:"keep_generations"`
}

// DefaultConfig returns the default engine configuration.
// Thresholds follow the Book-Crossing analysis the system was tuned on:
// users with at least 200 ratings and books with at least 50.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildOptions{
			MinUserActivity: 200,
			MinItemActivity: 50,
			Duplicates:      DuplicatesFirst,
			MinRating:       0,
			MaxRating:       10,
		},
		Index: IndexConfig{
			Metric: MetricEuclidean,
		},
		Query: QueryConfig{
			DefaultK: 6,
			MaxK:     51,
			JoinKey:  JoinByItemID,
		},
		Training: TrainingConfig{
			Timeout:         30 * time.Minute,
			KeepGenerations: 3,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Build.Validate(); err != nil {
		return err
	}
	if !c.Index.Metric.Valid() {
		return fmt.Errorf("index.metric must be one of euclidean, cosine, manhattan, got %q", c.Index.Metric)
	}
	if c.Query.DefaultK < 2 {
		return fmt.Errorf("query.default_k must be at least 2, got %d", c.Query.DefaultK)
	}
	if c.Query.MaxK < c.Query.DefaultK {
		return fmt.Errorf("query.max_k must be >= query.default_k, got %d < %d", c.Query.MaxK, c.Query.DefaultK)
	}
	switch c.Query.JoinKey {
	case JoinByItemID, JoinByTitle:
	default:
		return fmt.Errorf("query.join_key must be item_id or title, got %q", c.Query.JoinKey)
	}
	if c.Training.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", c.Training.Timeout)
	}
	if c.Training.KeepGenerations < 0 {
		return fmt.Errorf("training.keep_generations must be non-negative, got %d", c.Training.KeepGenerations)
	}
	return nil
}

// Validate checks the build options for errors.
//
//nolint:gocritic // value receiver keeps BuildOptions usable as a plain value
func (o BuildOptions) Validate() error {
	if o.MinUserActivity < 1 {
		return fmt.Errorf("build.min_user_activity must be at least 1, got %d", o.MinUserActivity)
	}
	if o.MinItemActivity < 1 {
		return fmt.Errorf("build.min_item_activity must be at least 1, got %d", o.MinItemActivity)
	}
	switch o.Duplicates {
	case DuplicatesFirst, DuplicatesLast:
	default:
		return fmt.Errorf("build.duplicates must be first or last, got %q", o.Duplicates)
	}
	if math.IsNaN(o.MinRating) || math.IsNaN(o.MaxRating) || o.MaxRating < o.MinRating {
		return fmt.Errorf("build rating bounds invalid: [%v, %v]", o.MinRating, o.MaxRating)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs hold value types only.
	clone := *c
	return &clone
}
