package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/candidex/core"
)

func TestCache_PutGet(t *testing.T) {
	c := New[string, int](10, time.Hour)

	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 2, c.Len())
}

func TestCache_TTLExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	c := New[string, int](10, time.Minute, WithClock[string, int](clock))
	c.Put("a", 1)

	_, ok := c.Get("a")
	require.True(t, ok)

	now = now.Add(2 * time.Minute)

	_, ok = c.Get("a")
	assert.False(t, ok, "entry past TTL should be a miss")
	assert.Equal(t, 0, c.Len(), "expired entry should be dropped on access")
}

func TestCache_EvictsOldestFirst(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	c := New[string, int](3, 0, WithClock[string, int](clock))
	c.Put("first", 1)
	now = now.Add(time.Second)
	c.Put("second", 2)
	now = now.Add(time.Second)
	c.Put("third", 3)
	now = now.Add(time.Second)
	c.Put("fourth", 4)

	_, ok := c.Get("first")
	assert.False(t, ok, "oldest entry should have been evicted")

	for _, k := range []string{"second", "third", "fourth"} {
		_, ok := c.Get(k)
		assert.True(t, ok, "entry %q should survive", k)
	}

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Evictions)
}

func TestCache_PutRefreshesExisting(t *testing.T) {
	c := New[string, int](2, 0)

	c.Put("a", 1)
	c.Put("a", 10)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, c.Len(), "re-put must not grow the cache")
}

func TestCache_ClearReturnsCount(t *testing.T) {
	c := New[string, int](10, time.Hour)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	assert.Equal(t, 3, c.Clear())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Clear())
}

func TestCache_Stats(t *testing.T) {
	c := New[string, int](10, time.Hour)
	c.Put("a", 1)

	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRate(), 1e-9)
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	c := New[string, int](10, 0, WithClock[string, int](clock))
	c.Put("a", 1)

	now = now.Add(1000 * time.Hour)

	_, ok := c.Get("a")
	assert.True(t, ok)
}

func TestStore_ClearAll(t *testing.T) {
	s := NewStore(nil)

	s.Embeddings.Put(core.HashFromContent("go developer"), []float32{0.1, 0.2})
	s.Embeddings.Put(core.HashFromContent("data engineer"), []float32{0.3, 0.4})
	s.Extraction.Put(core.HashFromContent("senior go developer"), []string{"go"})

	counts := s.ClearAll()
	assert.Equal(t, 2, counts["embeddings"])
	assert.Equal(t, 1, counts["extraction"])
	assert.Equal(t, 0, counts["similarity"])
	assert.Equal(t, 0, counts["expansion"])
	assert.Equal(t, 0, counts["rerank"])

	assert.Equal(t, 0, s.Embeddings.Len())
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithEmbeddingCache(128, time.Minute),
		WithRerankCache(64, time.Second),
	)

	assert.Equal(t, 128, cfg.EmbeddingCapacity)
	assert.Equal(t, time.Minute, cfg.EmbeddingTTL)
	assert.Equal(t, 64, cfg.RerankCapacity)
	// untouched fields keep defaults
	assert.Equal(t, DefaultConfig().ExtractionCapacity, cfg.ExtractionCapacity)
}
