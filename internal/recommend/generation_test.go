// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"context"
	"reflect"
	"testing"
)

// stubIndex satisfies Index for generation assembly checks.
type stubIndex struct {
	labels []string
	dim    int
}

func (s stubIndex) Metric() Metric   { return MetricEuclidean }
func (s stubIndex) Labels() []string { return s.labels }
func (s stubIndex) Dim() int         { return s.dim }

func (s stubIndex) Query(context.Context, []float64, int) ([]Neighbor, error) { return nil, nil }
func (s stubIndex) QueryRow(context.Context, int, int) ([]Neighbor, error)    { return nil, nil }

func generationFixture() (*Matrix, []JoinRow) {
	m := &Matrix{
		Rows:   []string{"a", "b", "c"},
		Cols:   []string{"u1"},
		Values: [][]float64{{1}, {2}, {3}},
	}
	join := []JoinRow{
		{UserID: "u1", ItemID: "a", Title: "Dune", ImageURL: "img-a"},
		{UserID: "u1", ItemID: "b", Title: "Dune", ImageURL: "img-b"},
		{UserID: "u1", ItemID: "c", Title: "Emma", ImageURL: "img-c"},
	}
	return m, join
}

func TestNewGeneration_Lookups(t *testing.T) {
	m, join := generationFixture()
	gen, err := NewGeneration(Manifest{ID: "g1"}, join, m, stubIndex{labels: m.Rows, dim: 1})
	if err != nil {
		t.Fatalf("NewGeneration() error = %v", err)
	}

	if want := []string{"Dune", "Emma"}; !reflect.DeepEqual(gen.Titles(), want) {
		t.Errorf("Titles() = %v, want %v", gen.Titles(), want)
	}
	if row, ok := gen.RowForTitle("Dune"); !ok || row != 0 {
		t.Errorf("RowForTitle(Dune) = %d, %v, want 0, true", row, ok)
	}
	if row, ok := gen.RowForItem("c"); !ok || row != 2 {
		t.Errorf("RowForItem(c) = %d, %v, want 2, true", row, ok)
	}
	if _, ok := gen.RowForItem("zzz"); ok {
		t.Error("RowForItem(zzz) found a row")
	}

	byItem, _ := gen.Resolve("b", JoinByItemID)
	if byItem.ImageURL != "img-b" {
		t.Errorf("Resolve(b, item_id).ImageURL = %q, want img-b", byItem.ImageURL)
	}
	byTitle, _ := gen.Resolve("b", JoinByTitle)
	if byTitle.ImageURL != "img-a" {
		t.Errorf("Resolve(b, title).ImageURL = %q, want img-a", byTitle.ImageURL)
	}
}

func TestNewGeneration_Inconsistent(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Matrix, join *[]JoinRow, idx *stubIndex)
	}{
		{name: "label mismatch", mutate: func(m *Matrix, join *[]JoinRow, idx *stubIndex) {
			idx.labels = []string{"a", "b", "x"}
		}},
		{name: "row count mismatch", mutate: func(m *Matrix, join *[]JoinRow, idx *stubIndex) {
			idx.labels = []string{"a", "b"}
		}},
		{name: "dimension mismatch", mutate: func(m *Matrix, join *[]JoinRow, idx *stubIndex) {
			idx.dim = 4
		}},
		{name: "row without metadata", mutate: func(m *Matrix, join *[]JoinRow, idx *stubIndex) {
			*join = (*join)[:2]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, join := generationFixture()
			idx := stubIndex{labels: m.Rows, dim: 1}
			tt.mutate(m, &join, &idx)
			if _, err := NewGeneration(Manifest{ID: "g1"}, join, m, idx); err == nil {
				t.Error("NewGeneration() expected error")
			}
		})
	}
}
