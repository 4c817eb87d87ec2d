// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"fmt"
	"math"

	"github.com/tomtom215/folio/internal/validation"
)

// Validate checks field constraints, then the rules that span fields.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateRatings(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	return c.EngineConfig().Validate()
}

func (c *Config) validateRatings() error {
	r := &c.Ratings
	if math.IsNaN(r.MinRating) || math.IsNaN(r.MaxRating) || r.MaxRating < r.MinRating {
		return fmt.Errorf("ratings.max_rating (%v) must be >= ratings.min_rating (%v)", r.MaxRating, r.MinRating)
	}
	if r.ImportOnStartup && r.BooksCSV == "" && r.RatingsCSV == "" {
		return fmt.Errorf("ratings.import_on_startup requires ratings.books_csv or ratings.ratings_csv")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.MaxK < c.Recommend.DefaultK {
		return fmt.Errorf("recommend.max_k (%d) must be >= recommend.default_k (%d)", c.Recommend.MaxK, c.Recommend.DefaultK)
	}
	return nil
}
