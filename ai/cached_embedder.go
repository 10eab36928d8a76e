package ai

import (
	"context"
	"log/slog"

	"github.com/poiesic/candidex/cache"
	"github.com/poiesic/candidex/core"
)

// CachedEmbedder wraps an Embedder with a content-keyed cache and unit
// normalization. Batch calls only reach the provider for cache misses;
// results always come back in input order, L2-normalized.
type CachedEmbedder struct {
	inner  Embedder
	cache  *cache.Cache[core.HashKey, []float32]
	logger *slog.Logger
}

// CachedEmbedderOption configures a CachedEmbedder.
type CachedEmbedderOption func(*CachedEmbedder)

// WithLogger sets the logger for the cached embedder.
func WithLogger(logger *slog.Logger) CachedEmbedderOption {
	return func(e *CachedEmbedder) {
		e.logger = logger
	}
}

// NewCachedEmbedder creates a caching layer over inner backed by the given
// cache layer (typically cache.Store.Embeddings).
func NewCachedEmbedder(inner Embedder, c *cache.Cache[core.HashKey, []float32], opts ...CachedEmbedderOption) *CachedEmbedder {
	e := &CachedEmbedder{
		inner:  inner,
		cache:  c,
		logger: slog.Default().With("component", "cached-embedder"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EmbedText returns the cached embedding for text, calling the provider on
// a miss. The returned vector is unit-normalized.
func (e *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedTexts returns embeddings for texts in input order. Only cache misses
// are sent to the provider, as a single batch. Identical texts within one
// call are embedded once.
func (e *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	// Collect misses, collapsing duplicate texts to one provider slot.
	missKeys := make([]core.HashKey, 0)
	missTexts := make([]string, 0)
	missSlot := make(map[core.HashKey]int)

	for i, text := range texts {
		key := core.HashFromContent(text)
		if vec, ok := e.cache.Get(key); ok {
			results[i] = vec
			continue
		}
		if _, pending := missSlot[key]; !pending {
			missSlot[key] = len(missTexts)
			missKeys = append(missKeys, key)
			missTexts = append(missTexts, text)
		}
	}

	if len(missTexts) > 0 {
		e.logger.Debug("embedding cache misses", "total", len(texts), "misses", len(missTexts))

		fresh, err := e.inner.EmbedTexts(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(fresh) != len(missTexts) {
			return nil, core.ErrEmbeddingFailed
		}

		for slot, key := range missKeys {
			e.cache.Put(key, core.NormalizeVector(fresh[slot]))
		}

		for i, text := range texts {
			if results[i] != nil {
				continue
			}
			key := core.HashFromContent(text)
			vec, ok := e.cache.Get(key)
			if !ok {
				// Capacity smaller than the batch; fall back to the
				// freshly computed vector.
				vec = core.NormalizeVector(fresh[missSlot[key]])
			}
			results[i] = vec
		}
	}

	return results, nil
}
