// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"fmt"
	"sort"
)

// Artifact names, used for store keys, checksums and error reporting.
const (
	ArtifactManifest = "manifest"
	ArtifactJoin     = "join"
	ArtifactMatrix   = "matrix"
	ArtifactIndex    = "index"
)

// Generation is one immutable build: join table, matrix and index created
// together. Use NewGeneration so the lookup tables are populated.
type Generation struct {
	Manifest Manifest
	Join     []JoinRow
	Matrix   *Matrix
	Index    Index

	// titleRow maps a title to the first matrix row carrying it.
	titleRow map[string]int

	// joinByItem and joinByTitle map to the first join row with that key.
	joinByItem  map[string]int
	joinByTitle map[string]int

	titles []string
}

// NewGeneration assembles a generation and checks that its artifacts agree:
// the index must have been fitted on exactly the matrix rows in order.
//
//nolint:gocritic // manifest passed by value, it is copied into the generation
func NewGeneration(manifest Manifest, join []JoinRow, m *Matrix, idx Index) (*Generation, error) {
	if m == nil {
		return nil, fmt.Errorf("generation %s: nil matrix", manifest.ID)
	}
	if idx == nil {
		return nil, fmt.Errorf("generation %s: nil index", manifest.ID)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("generation %s: %w", manifest.ID, err)
	}

	labels := idx.Labels()
	if len(labels) != len(m.Rows) {
		return nil, fmt.Errorf("generation %s: index has %d rows, matrix has %d", manifest.ID, len(labels), len(m.Rows))
	}
	for i := range labels {
		if labels[i] != m.Rows[i] {
			return nil, fmt.Errorf("generation %s: row %d label mismatch: index %q, matrix %q", manifest.ID, i, labels[i], m.Rows[i])
		}
	}
	if idx.Dim() != len(m.Cols) {
		return nil, fmt.Errorf("generation %s: index dimension %d, matrix has %d columns", manifest.ID, idx.Dim(), len(m.Cols))
	}

	g := &Generation{
		Manifest:    manifest,
		Join:        join,
		Matrix:      m,
		Index:       idx,
		joinByItem:  make(map[string]int),
		joinByTitle: make(map[string]int),
		titleRow:    make(map[string]int),
	}

	for i := range join {
		if _, ok := g.joinByItem[join[i].ItemID]; !ok {
			g.joinByItem[join[i].ItemID] = i
		}
		if _, ok := g.joinByTitle[join[i].Title]; !ok {
			g.joinByTitle[join[i].Title] = i
		}
	}

	for row, label := range m.Rows {
		j, ok := g.joinByItem[label]
		if !ok {
			return nil, fmt.Errorf("generation %s: matrix row %q has no join table entry", manifest.ID, label)
		}
		title := join[j].Title
		if _, seen := g.titleRow[title]; !seen {
			g.titleRow[title] = row
		}
	}

	g.titles = make([]string, 0, len(g.titleRow))
	for title := range g.titleRow {
		g.titles = append(g.titles, title)
	}
	sort.Strings(g.titles)

	return g, nil
}

// ID returns the generation id.
func (g *Generation) ID() string {
	return g.Manifest.ID
}

// Titles returns the distinct titles of the matrix rows, sorted.
// The returned slice must not be modified.
func (g *Generation) Titles() []string {
	return g.titles
}

// RowForTitle returns the first matrix row whose item carries title.
func (g *Generation) RowForTitle(title string) (int, bool) {
	row, ok := g.titleRow[title]
	return row, ok
}

// RowForItem returns the matrix row of an item id.
func (g *Generation) RowForItem(itemID string) (int, bool) {
	row := g.Matrix.RowIndex(itemID)
	return row, row >= 0
}

// Resolve returns the display metadata of a matrix row label using key.
func (g *Generation) Resolve(label string, key JoinKey) (JoinRow, bool) {
	j, ok := g.joinByItem[label]
	if !ok {
		return JoinRow{}, false
	}
	if key == JoinByTitle {
		j = g.joinByTitle[g.Join[j].Title]
	}
	return g.Join[j], true
}
