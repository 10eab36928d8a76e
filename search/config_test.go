package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreWeightsValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, DefaultScoreWeights().Validate())
	})

	t.Run("components must sum to one", func(t *testing.T) {
		w := ScoreWeights{VectorSimilarity: 0.5, SkillOverlap: 0.5, Hierarchical: 0.1}
		assert.ErrorIs(t, w.Validate(), ErrInvalidWeights)
	})

	t.Run("negative component rejected", func(t *testing.T) {
		w := ScoreWeights{VectorSimilarity: 1.2, SkillOverlap: -0.2}
		assert.ErrorIs(t, w.Validate(), ErrInvalidWeights)
	})
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithExpansionWeight(0.5),
		WithChunkOverfetch(8),
		WithDefaultTopK(25),
	)
	assert.Equal(t, 0.5, cfg.ExpansionWeight)
	assert.Equal(t, 8, cfg.ChunkOverfetch)
	assert.Equal(t, 25, cfg.DefaultTopK)
	assert.Equal(t, DefaultScoreWeights(), cfg.Weights)
}
