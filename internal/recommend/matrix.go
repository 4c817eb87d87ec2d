// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package recommend

import (
	"fmt"
	"math"
	"sort"
)

// Matrix is a dense item x user rating matrix.
// Rows are item ids and columns are user ids, both sorted ascending.
// A zero cell means the user did not rate the item.
type Matrix struct {
	Rows   []string
	Cols   []string
	Values [][]float64
}

// NumRows returns the number of rows.
func (m *Matrix) NumRows() int {
	return len(m.Rows)
}

// NumCols returns the number of columns.
func (m *Matrix) NumCols() int {
	return len(m.Cols)
}

// RowIndex returns the row index of label, or -1 if absent.
func (m *Matrix) RowIndex(label string) int {
	i := sort.SearchStrings(m.Rows, label)
	if i < len(m.Rows) && m.Rows[i] == label {
		return i
	}
	return -1
}

// Row returns the vector for label.
func (m *Matrix) Row(label string) ([]float64, bool) {
	i := m.RowIndex(label)
	if i < 0 {
		return nil, false
	}
	return m.Values[i], true
}

// Density returns the fraction of non-zero cells.
func (m *Matrix) Density() float64 {
	if len(m.Rows) == 0 || len(m.Cols) == 0 {
		return 0
	}
	nonZero := 0
	for _, row := range m.Values {
		for _, v := range row {
			if v != 0 {
				nonZero++
			}
		}
	}
	return float64(nonZero) / float64(len(m.Rows)*len(m.Cols))
}

// Validate checks the matrix shape and label ordering.
func (m *Matrix) Validate() error {
	if len(m.Values) != len(m.Rows) {
		return fmt.Errorf("matrix has %d value rows for %d labels", len(m.Values), len(m.Rows))
	}
	for i, row := range m.Values {
		if len(row) != len(m.Cols) {
			return fmt.Errorf("matrix row %d has %d values, want %d", i, len(row), len(m.Cols))
		}
	}
	if !isStrictlySorted(m.Rows) {
		return fmt.Errorf("matrix row labels are not unique and sorted")
	}
	if !isStrictlySorted(m.Cols) {
		return fmt.Errorf("matrix column labels are not unique and sorted")
	}
	return nil
}

// ValidateRatings checks every rating against the source contract: both
// identifiers set and a finite value. Range bounds are a filter, not a
// contract; see FilterRatings.
func ValidateRatings(ratings []Rating) error {
	for i, r := range ratings {
		switch {
		case r.UserID == "":
			return &InvalidRatingError{Position: i, Rating: r, Reason: "empty user id"}
		case r.ItemID == "":
			return &InvalidRatingError{Position: i, Rating: r, Reason: "empty item id"}
		case math.IsNaN(r.Rating) || math.IsInf(r.Rating, 0):
			return &InvalidRatingError{Position: i, Rating: r, Reason: "not a finite number"}
		}
	}
	return nil
}

// FilterRatings drops ratings outside [MinRating, MaxRating], deduplicates the
// rest and applies the activity thresholds. User activity is counted first.
// Item activity is counted over the ratings of retained users only. The
// result is sorted by (item id, user id).
//
//nolint:gocritic // opts passed by value for immutability
func FilterRatings(ratings []Rating, opts BuildOptions) ([]Rating, BuildStats, error) {
	stats := BuildStats{RatingsIn: len(ratings)}

	if err := opts.Validate(); err != nil {
		return nil, stats, err
	}

	inRange := make([]Rating, 0, len(ratings))
	for _, r := range ratings {
		if r.Rating >= opts.MinRating && r.Rating <= opts.MaxRating {
			inRange = append(inRange, r)
		}
	}
	stats.OutOfRangeDropped = len(ratings) - len(inRange)

	deduped := dedupeRatings(inRange, opts.Duplicates)
	stats.DuplicatesDropped = len(inRange) - len(deduped)

	userCounts := make(map[string]int)
	for _, r := range deduped {
		userCounts[r.UserID]++
	}

	byActiveUsers := make([]Rating, 0, len(deduped))
	itemCounts := make(map[string]int)
	for _, r := range deduped {
		if userCounts[r.UserID] >= opts.MinUserActivity {
			byActiveUsers = append(byActiveUsers, r)
			itemCounts[r.ItemID]++
		}
	}

	kept := make([]Rating, 0, len(byActiveUsers))
	users := make(map[string]struct{})
	items := make(map[string]struct{})
	for _, r := range byActiveUsers {
		if itemCounts[r.ItemID] >= opts.MinItemActivity {
			kept = append(kept, r)
			users[r.UserID] = struct{}{}
			items[r.ItemID] = struct{}{}
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].ItemID != kept[j].ItemID {
			return kept[i].ItemID < kept[j].ItemID
		}
		return kept[i].UserID < kept[j].UserID
	})

	stats.UsersRetained = len(users)
	stats.ItemsRetained = len(items)
	stats.RatingsRetained = len(kept)

	if len(kept) == 0 {
		return nil, stats, &InsufficientDataError{
			Ratings:         len(ratings),
			Rows:            len(items),
			Cols:            len(users),
			MinUserActivity: opts.MinUserActivity,
			MinItemActivity: opts.MinItemActivity,
		}
	}

	return kept, stats, nil
}

// Pivot turns filtered, deduplicated ratings into a dense item x user matrix.
// Columns are the users that have at least one rating in the input.
func Pivot(ratings []Rating) *Matrix {
	rowSet := make(map[string]struct{})
	colSet := make(map[string]struct{})
	for _, r := range ratings {
		rowSet[r.ItemID] = struct{}{}
		colSet[r.UserID] = struct{}{}
	}

	rows := sortedKeys(rowSet)
	cols := sortedKeys(colSet)

	rowIdx := indexOf(rows)
	colIdx := indexOf(cols)

	values := make([][]float64, len(rows))
	backing := make([]float64, len(rows)*len(cols))
	for i := range values {
		values[i] = backing[i*len(cols) : (i+1)*len(cols) : (i+1)*len(cols)]
	}

	for _, r := range ratings {
		values[rowIdx[r.ItemID]][colIdx[r.UserID]] = r.Rating
	}

	return &Matrix{Rows: rows, Cols: cols, Values: values}
}

// BuildMatrix filters ratings by activity thresholds and pivots the result.
// It returns *InsufficientDataError when nothing survives the filters.
// Identical input always yields an identical matrix.
//
//nolint:gocritic // opts passed by value for immutability
func BuildMatrix(ratings []Rating, opts BuildOptions) (*Matrix, error) {
	kept, _, err := FilterRatings(ratings, opts)
	if err != nil {
		return nil, err
	}
	return Pivot(kept), nil
}

// RestrictToKnownItems drops ratings whose item has no metadata row.
func RestrictToKnownItems(ratings []Rating, items []Item) ([]Rating, int) {
	known := make(map[string]struct{}, len(items))
	for i := range items {
		known[items[i].ItemID] = struct{}{}
	}

	kept := make([]Rating, 0, len(ratings))
	for _, r := range ratings {
		if _, ok := known[r.ItemID]; ok {
			kept = append(kept, r)
		}
	}
	return kept, len(ratings) - len(kept)
}

// BuildJoinTable joins filtered ratings with item metadata.
// The output keeps the input order, which FilterRatings sorts by (item, user).
func BuildJoinTable(ratings []Rating, items []Item) []JoinRow {
	meta := make(map[string]*Item, len(items))
	for i := range items {
		if _, dup := meta[items[i].ItemID]; !dup {
			meta[items[i].ItemID] = &items[i]
		}
	}

	rows := make([]JoinRow, 0, len(ratings))
	for _, r := range ratings {
		row := JoinRow{UserID: r.UserID, ItemID: r.ItemID, Rating: r.Rating}
		if it, ok := meta[r.ItemID]; ok {
			row.Title = it.Title
			row.Author = it.Author
			row.ImageURL = it.ImageURL
		}
		rows = append(rows, row)
	}
	return rows
}

// dedupeRatings removes repeated (user, item) pairs per policy, keeping the
// position of the first occurrence.
func dedupeRatings(ratings []Rating, policy DuplicatePolicy) []Rating {
	type key struct{ user, item string }

	pos := make(map[key]int, len(ratings))
	out := make([]Rating, 0, len(ratings))
	for _, r := range ratings {
		k := key{r.UserID, r.ItemID}
		if i, seen := pos[k]; seen {
			if policy == DuplicatesLast {
				out[i].Rating = r.Rating
			}
			continue
		}
		pos[k] = len(out)
		out = append(out, r)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(labels []string) map[string]int {
	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return idx
}

func isStrictlySorted(labels []string) bool {
	for i := 1; i < len(labels); i++ {
		if labels[i-1] >= labels[i] {
			return false
		}
	}
	return true
}
