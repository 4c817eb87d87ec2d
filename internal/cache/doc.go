// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package cache provides the in-memory structures the query API keeps next to
a generation.

LFU is a thread-safe least-frequently-used cache with TTL. The API caches
recommendation results in it, keyed by generation id and query, so entries
for a replaced generation are never hit again and age out by frequency:

	results := cache.NewLFU[string, *recommend.Result](4096, 10*time.Minute)
	results.Set(key, res)
	if res, ok := results.Get(key); ok { ... }

TitleIndex is an immutable prefix index over a generation's titles, ranked
by weight (the number of retained ratings), backing title autocomplete:

	idx := cache.NewTitleIndex(weights)
	idx.Complete("harry", 10)
*/
package cache
