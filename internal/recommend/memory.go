// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"sync"
)

// MemorySource is an in-memory RatingSource.
type MemorySource struct {
	mu      sync.RWMutex
	ratings []Rating
	items   []Item
}

// NewMemorySource creates a source over copies of ratings and items.
func NewMemorySource(ratings []Rating, items []Item) *MemorySource {
	s := &MemorySource{}
	s.Replace(ratings, items)
	return s
}

// Replace swaps the source contents.
func (s *MemorySource) Replace(ratings []Rating, items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ratings = append([]Rating(nil), ratings...)
	s.items = append([]Item(nil), items...)
}

// Ratings implements RatingSource.
func (s *MemorySource) Ratings(ctx context.Context) ([]Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Rating(nil), s.ratings...), nil
}

// Items implements RatingSource.
func (s *MemorySource) Items(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Item(nil), s.items...), nil
}
