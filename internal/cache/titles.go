// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package cache

import (
	"sort"
	"strings"
	"unicode"
)

type titleNode struct {
	children map[rune]*titleNode
	// terminal holds the titles ending here; several titles can normalize
	// to the same key.
	terminal []int
}

// TitleIndex is an immutable case-insensitive prefix index over titles.
// It is safe for concurrent use.
type TitleIndex struct {
	root    *titleNode
	titles  []string
	weights []int
	byTitle map[string]int
}

// TitleMatch is one autocomplete result.
type TitleMatch struct {
	Title  string `json:"title"`
	Weight int    `json:"weight"`
}

// NewTitleIndex indexes the titles in weights. Higher weights rank first.
func NewTitleIndex(weights map[string]int) *TitleIndex {
	idx := &TitleIndex{
		root:    &titleNode{},
		titles:  make([]string, 0, len(weights)),
		weights: make([]int, 0, len(weights)),
		byTitle: make(map[string]int, len(weights)),
	}

	for title := range weights {
		if strings.TrimSpace(title) != "" {
			idx.titles = append(idx.titles, title)
		}
	}
	sort.Strings(idx.titles)

	for i, title := range idx.titles {
		idx.weights = append(idx.weights, weights[title])
		idx.byTitle[title] = i
		node := idx.root
		for _, r := range normalizeTitle(title) {
			if node.children == nil {
				node.children = make(map[rune]*titleNode)
			}
			child := node.children[r]
			if child == nil {
				child = &titleNode{}
				node.children[r] = child
			}
			node = child
		}
		node.terminal = append(node.terminal, i)
	}
	return idx
}

// Len returns the number of indexed titles.
func (idx *TitleIndex) Len() int {
	return len(idx.titles)
}

// Weight returns the weight of an exact title, or 0 if it is not indexed.
func (idx *TitleIndex) Weight(title string) int {
	if i, ok := idx.byTitle[title]; ok {
		return idx.weights[i]
	}
	return 0
}

// Complete returns up to limit titles starting with prefix, ignoring case and
// surrounding whitespace, ordered by weight descending then title.
// A limit of zero or less returns every match.
func (idx *TitleIndex) Complete(prefix string, limit int) []TitleMatch {
	node := idx.root
	for _, r := range normalizeTitle(prefix) {
		node = node.children[r]
		if node == nil {
			return nil
		}
	}

	var ids []int
	collect(node, &ids)

	sort.Slice(ids, func(a, b int) bool {
		wa, wb := idx.weights[ids[a]], idx.weights[ids[b]]
		if wa != wb {
			return wa > wb
		}
		return ids[a] < ids[b] // titles are sorted, so ids order alphabetically
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]TitleMatch, len(ids))
	for i, id := range ids {
		out[i] = TitleMatch{Title: idx.titles[id], Weight: idx.weights[id]}
	}
	return out
}

func collect(node *titleNode, ids *[]int) {
	*ids = append(*ids, node.terminal...)
	for _, child := range node.children {
		collect(child, ids)
	}
}

func normalizeTitle(s string) string {
	return strings.Map(unicode.ToLower, strings.TrimSpace(s))
}
