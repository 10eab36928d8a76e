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


package search

import (
	"fmt"
	"math"

	"github.com/poiesic/candidex/core"
)

// ScoreWeights blends the per-profile ranking signals into one score.
// The components must be non-negative and sum to 1.
type ScoreWeights struct {
	VectorSimilarity float64
	SkillOverlap     float64
	TitleAlignment   float64
	DomainSimilarity float64
	Hierarchical     float64
}

// DefaultScoreWeights returns the production ranking weights.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		VectorSimilarity: 0.45,
		SkillOverlap:     0.25,
		TitleAlignment:   0.18,
		DomainSimilarity: 0.10,
		Hierarchical:     0.02,
	}
}

// Validate checks that the weights form a convex combination.
func (w ScoreWeights) Validate() error {
	components := []float64{
		w.VectorSimilarity, w.SkillOverlap, w.TitleAlignment,
		w.DomainSimilarity, w.Hierarchical,
	}
	sum := 0.0
	for _, c := range components {
		if c < 0 {
			return fmt.Errorf("%w: negative component %v", ErrInvalidWeights, c)
		}
		sum += c
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: components sum to %v, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

// chunkTypeWeights rank chunk types by how strongly a match in that section
// signals candidate relevance. The skills summary dominates; raw-text
// fallback chunks count the least.
var chunkTypeWeights = map[core.ChunkType]float64{
	core.ChunkTypeSkills:         1.0,
	core.ChunkTypeExperience:     0.9,
	core.ChunkTypeProjects:       0.8,
	core.ChunkTypeCertifications: 0.7,
	core.ChunkTypeRaw:            0.6,
}

// Config holds the query engine settings.
type Config struct {
	// Weights blend the ranking signals into the final score.
	Weights ScoreWeights

	// ExpansionWeight is the embedding weight given to expanded terms that
	// were not in the original query. Original terms weigh 1.0.
	ExpansionWeight float64

	// ChunkOverfetch multiplies topK when fetching chunk candidates, so
	// per-profile duplicates still leave enough distinct profiles.
	ChunkOverfetch int

	// DefaultTopK applies when a caller asks for zero results.
	DefaultTopK int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithWeights sets the ranking weights.
func WithWeights(w ScoreWeights) ConfigOption {
	return func(c *Config) {
		c.Weights = w
	}
}

// WithExpansionWeight sets the embedding weight of expanded terms.
func WithExpansionWeight(w float64) ConfigOption {
	return func(c *Config) {
		c.ExpansionWeight = w
	}
}

// WithChunkOverfetch sets the chunk candidate oversampling factor.
func WithChunkOverfetch(n int) ConfigOption {
	return func(c *Config) {
		c.ChunkOverfetch = n
	}
}

// WithDefaultTopK sets the result count used when callers pass zero.
func WithDefaultTopK(n int) ConfigOption {
	return func(c *Config) {
		c.DefaultTopK = n
	}
}

// DefaultConfig returns the production query engine settings.
func DefaultConfig() *Config {
	return &Config{
		Weights:         DefaultScoreWeights(),
		ExpansionWeight: 0.7,
		ChunkOverfetch:  5,
		DefaultTopK:     10,
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
