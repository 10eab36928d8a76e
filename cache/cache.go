// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package cache

import (
	"sync"
	"time"
)

// Stats is a point-in-time snapshot of a cache's counters.
type Stats struct {
	Size      int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 when the cache is untouched.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a capacity-bounded TTL cache. When full, the entry with the
// oldest store time is evicted. Safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	capacity  int
	ttl       time.Duration
	entries   map[K]entry[V]
	now       func() time.Time
	hits      uint64
	misses    uint64
	evictions uint64
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithClock overrides the cache's time source. Used in tests to control
// expiry deterministically.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.now = now
	}
}

// New creates a cache holding at most capacity entries, each valid for ttl
// after being stored. A non-positive ttl disables expiry.
func New[K comparable, V any](capacity int, ttl time.Duration, opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[K]entry[V], capacity),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key. An expired entry is removed and
// reported as a miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Put stores value under key, refreshing the store time if the key already
// exists. When the cache is at capacity the oldest entry is evicted first.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

// evictOldestLocked removes the entry with the earliest store time.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictOldestLocked() {
	var oldestKey K
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}

// Len returns the number of live entries, including any not yet observed
// as expired.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes every entry and returns how many were removed.
// Counters are preserved.
func (c *Cache[K, V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[K]entry[V], c.capacity)
	return n
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:      len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
