// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package cache

import (
	"sync"
	"time"
)

// Default sizing when NewLFU is given non-positive values.
const (
	DefaultCapacity = 10000
	DefaultTTL      = 5 * time.Minute
)

type lfuEntry[K comparable, V any] struct {
	key       K
	value     V
	freq      int
	expiresAt time.Time
	prev      *lfuEntry[K, V]
	next      *lfuEntry[K, V]
}

// freqList is a doubly-linked list of entries sharing one frequency, most
// recently used at the front.
type freqList[K comparable, V any] struct {
	head, tail *lfuEntry[K, V] // sentinels
	size       int
}

func newFreqList[K comparable, V any]() *freqList[K, V] {
	fl := &freqList[K, V]{head: &lfuEntry[K, V]{}, tail: &lfuEntry[K, V]{}}
	fl.head.next = fl.tail
	fl.tail.prev = fl.head
	return fl
}

func (fl *freqList[K, V]) pushFront(e *lfuEntry[K, V]) {
	e.prev = fl.head
	e.next = fl.head.next
	fl.head.next.prev = e
	fl.head.next = e
	fl.size++
}

func (fl *freqList[K, V]) remove(e *lfuEntry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	fl.size--
}

func (fl *freqList[K, V]) back() *lfuEntry[K, V] {
	if fl.size == 0 {
		return nil
	}
	return fl.tail.prev
}

// LFU is a thread-safe least-frequently-used cache with per-entry TTL.
// Get, Set, and eviction are O(1). Ties at the lowest frequency evict the
// least recently used entry. Expired entries are removed lazily.
type LFU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	entries map[K]*lfuEntry[K, V]
	freqs   map[int]*freqList[K, V]
	minFreq int

	hits   int64
	misses int64
}

// NewLFU creates a cache holding at most capacity entries for ttl each.
func NewLFU[K comparable, V any](capacity int, ttl time.Duration) *LFU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LFU[K, V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[K]*lfuEntry[K, V]),
		freqs:    make(map[int]*freqList[K, V]),
	}
}

// Get returns the value for key and bumps its frequency.
func (c *LFU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.removeEntry(e)
		c.misses++
		return zero, false
	}

	c.touch(e)
	c.hits++
	return e.value, true
}

// Set stores value under key with the default TTL.
func (c *LFU[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key, evicting if the cache is full.
// Updating an existing key counts as a use.
func (c *LFU[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.touch(e)
		return
	}

	if len(c.entries) >= c.capacity {
		c.evict()
	}

	e := &lfuEntry[K, V]{key: key, value: value, freq: 1, expiresAt: expiresAt}
	c.list(1).pushFront(e)
	c.entries[key] = e
	c.minFreq = 1
}

// Delete removes key and reports whether it was present.
func (c *LFU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok {
		c.removeEntry(e)
	}
	return ok
}

// Len returns the number of entries, including expired ones not yet removed.
func (c *LFU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries. Hit and miss counters are kept.
func (c *LFU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*lfuEntry[K, V])
	c.freqs = make(map[int]*freqList[K, V])
	c.minFreq = 0
}

// Stats returns hit and miss counts and the current size.
func (c *LFU[K, V]) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.entries)
}

// CleanupExpired removes expired entries and returns how many were removed.
func (c *LFU[K, V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			c.removeEntry(e)
			removed++
		}
	}
	return removed
}

// The methods below require c.mu.

func (c *LFU[K, V]) list(freq int) *freqList[K, V] {
	fl := c.freqs[freq]
	if fl == nil {
		fl = newFreqList[K, V]()
		c.freqs[freq] = fl
	}
	return fl
}

func (c *LFU[K, V]) touch(e *lfuEntry[K, V]) {
	fl := c.freqs[e.freq]
	fl.remove(e)
	if fl.size == 0 {
		delete(c.freqs, e.freq)
		if c.minFreq == e.freq {
			c.minFreq++
		}
	}
	e.freq++
	c.list(e.freq).pushFront(e)
}

func (c *LFU[K, V]) evict() {
	fl := c.freqs[c.minFreq]
	if fl == nil {
		// minFreq is stale after a Delete or expiry; find the real minimum.
		c.minFreq = 0
		for f := range c.freqs {
			if c.minFreq == 0 || f < c.minFreq {
				c.minFreq = f
			}
		}
		if fl = c.freqs[c.minFreq]; fl == nil {
			return
		}
	}
	if e := fl.back(); e != nil {
		c.removeEntry(e)
	}
}

func (c *LFU[K, V]) removeEntry(e *lfuEntry[K, V]) {
	if fl := c.freqs[e.freq]; fl != nil {
		fl.remove(e)
		if fl.size == 0 {
			delete(c.freqs, e.freq)
		}
	}
	delete(c.entries, e.key)
}
