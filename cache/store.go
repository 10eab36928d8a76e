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
	"time"

	"github.com/poiesic/candidex/core"
)

// Config holds the capacity and TTL for each cache layer.
type Config struct {
	EmbeddingCapacity int
	EmbeddingTTL      time.Duration

	SimilarityCapacity int
	SimilarityTTL      time.Duration

	ExtractionCapacity int
	ExtractionTTL      time.Duration

	ExpansionCapacity int
	ExpansionTTL      time.Duration

	RerankCapacity int
	RerankTTL      time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingCache sets the embedding cache capacity and TTL.
func WithEmbeddingCache(capacity int, ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.EmbeddingCapacity = capacity
		c.EmbeddingTTL = ttl
	}
}

// WithSimilarityCache sets the similarity cache capacity and TTL.
func WithSimilarityCache(capacity int, ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.SimilarityCapacity = capacity
		c.SimilarityTTL = ttl
	}
}

// WithExtractionCache sets the skill-extraction cache capacity and TTL.
func WithExtractionCache(capacity int, ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.ExtractionCapacity = capacity
		c.ExtractionTTL = ttl
	}
}

// WithExpansionCache sets the skill-expansion cache capacity and TTL.
func WithExpansionCache(capacity int, ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.ExpansionCapacity = capacity
		c.ExpansionTTL = ttl
	}
}

// WithRerankCache sets the rerank-score cache capacity and TTL.
func WithRerankCache(capacity int, ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.RerankCapacity = capacity
		c.RerankTTL = ttl
	}
}

// DefaultConfig returns the production cache sizing.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingCapacity:  10000,
		EmbeddingTTL:       30 * 24 * time.Hour,
		SimilarityCapacity: 20000,
		SimilarityTTL:      time.Hour,
		ExtractionCapacity: 5000,
		ExtractionTTL:      24 * time.Hour,
		ExpansionCapacity:  5000,
		ExpansionTTL:       72 * time.Hour,
		RerankCapacity:     10000,
		RerankTTL:          time.Hour,
	}
}

// NewConfig creates a Config with default values and applies the provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Store groups the engine's cache layers behind one lifecycle. All caches
// are keyed by BLAKE2b content hashes so identical inputs collapse to the
// same entry regardless of caller.
type Store struct {
	Embeddings *Cache[core.HashKey, []float32]
	Similarity *Cache[core.HashKey, float64]
	Extraction *Cache[core.HashKey, []string]
	Expansion  *Cache[core.HashKey, []string]
	Rerank     *Cache[core.HashKey, float64]
}

// NewStore builds every cache layer from cfg. A nil cfg uses DefaultConfig.
func NewStore(cfg *Config) *Store {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Store{
		Embeddings: New[core.HashKey, []float32](cfg.EmbeddingCapacity, cfg.EmbeddingTTL),
		Similarity: New[core.HashKey, float64](cfg.SimilarityCapacity, cfg.SimilarityTTL),
		Extraction: New[core.HashKey, []string](cfg.ExtractionCapacity, cfg.ExtractionTTL),
		Expansion:  New[core.HashKey, []string](cfg.ExpansionCapacity, cfg.ExpansionTTL),
		Rerank:     New[core.HashKey, float64](cfg.RerankCapacity, cfg.RerankTTL),
	}
}

// ClearAll empties every layer and returns the number of entries removed
// from each, keyed by layer name.
func (s *Store) ClearAll() map[string]int {
	return map[string]int{
		"embeddings": s.Embeddings.Clear(),
		"similarity": s.Similarity.Clear(),
		"extraction": s.Extraction.Clear(),
		"expansion":  s.Expansion.Clear(),
		"rerank":     s.Rerank.Clear(),
	}
}
