package skills

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/candidex/ai/mock"
	"github.com/poiesic/candidex/cache"
	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/storage/badger"
)

func newTestEngine(t *testing.T, opts ...ConfigOption) (*Engine, *mock.MockEmbedder, *mock.MockSkillExtractor) {
	t.Helper()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	profiles := []*core.CandidateProfile{
		{ID: "p1", Skills: []string{"python", "django", "postgresql"}, SkillDomains: []string{"Backend"}},
		{ID: "p2", Skills: []string{"python", "airflow", "spark"}, SkillDomains: []string{"Data Engineering"}},
		{ID: "p3", Skills: []string{"java", "spring"}, SkillDomains: []string{"Backend"}},
	}
	for _, p := range profiles {
		_, err := store.Profiles.PutProfile(ctx, p)
		require.NoError(t, err)
	}

	// 64 dims keeps random-vector cosines well below the 0.7 domain
	// threshold, so centroid detection stays deterministic in tests.
	embedder := mock.NewMockEmbedder(64)
	extractor := mock.NewMockSkillExtractor()
	engine := NewEngine(store.Profiles, embedder, extractor, cache.NewStore(nil), NewConfig(opts...))
	return engine, embedder, extractor
}

func TestExtractSkills(t *testing.T) {
	engine, _, extractor := newTestEngine(t)
	ctx := context.Background()

	t.Run("validates against vocabulary", func(t *testing.T) {
		skills, err := engine.ExtractSkills(ctx, "python developer")
		require.NoError(t, err)
		assert.Equal(t, []string{"python"}, skills)
	})

	t.Run("empty query", func(t *testing.T) {
		skills, err := engine.ExtractSkills(ctx, "   ")
		require.NoError(t, err)
		assert.Empty(t, skills)
	})

	t.Run("second call hits the cache", func(t *testing.T) {
		before := extractor.CallCount()
		_, err := engine.ExtractSkills(ctx, "python developer")
		require.NoError(t, err)
		assert.Equal(t, before, extractor.CallCount(), "cached query must not call the provider")
	})

	t.Run("unknown terms are kept", func(t *testing.T) {
		skills, err := engine.ExtractSkills(ctx, "haskell wizard")
		require.NoError(t, err)
		assert.Contains(t, skills, "haskell")
	})

	t.Run("provider failure degrades to fallback", func(t *testing.T) {
		extractor.ExtractSkillsFunc = func(ctx context.Context, query string) ([]string, error) {
			return nil, errors.New("provider down")
		}
		defer func() { extractor.ExtractSkillsFunc = nil }()

		skills, err := engine.ExtractSkills(ctx, "senior rust engineer")
		require.NoError(t, err, "extraction failure must not surface as an error")
		assert.Equal(t, []string{"rust"}, skills, "stop words stripped, remainder kept as one phrase")
	})
}

func TestGraph(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, engine.RebuildGraph(ctx))

	graph, err := engine.graphSnapshot(ctx)
	require.NoError(t, err)

	t.Run("co-occurrence neighbors", func(t *testing.T) {
		neighbors := graph.Neighbors("python")
		require.NotEmpty(t, neighbors)
		names := make([]string, 0, len(neighbors))
		for _, n := range neighbors {
			names = append(names, n.Skill)
		}
		assert.Contains(t, names, "django")
		assert.Contains(t, names, "airflow")
		assert.NotContains(t, names, "java", "java never co-occurs with python")
	})

	t.Run("related excludes inputs", func(t *testing.T) {
		related := graph.Related([]string{"python"}, 10)
		assert.NotContains(t, related, "python")
	})

	t.Run("unknown skill has no neighbors", func(t *testing.T) {
		assert.Empty(t, graph.Neighbors("cobol"))
	})
}

func TestExpandSkills(t *testing.T) {
	engine, _, _ := newTestEngine(t, WithTermBounds(2, 5))
	ctx := context.Background()

	t.Run("input terms come first", func(t *testing.T) {
		expanded, err := engine.ExpandSkills(ctx, []string{"python"}, 0, 0)
		require.NoError(t, err)
		require.NotEmpty(t, expanded)
		assert.Equal(t, "python", expanded[0], "input term must always be included and ranked first")
		assert.LessOrEqual(t, len(expanded), 5)
	})

	t.Run("expansions exist in the vocabulary", func(t *testing.T) {
		vocabulary, err := engine.vocab.Terms(ctx)
		require.NoError(t, err)

		expanded, err := engine.ExpandSkills(ctx, []string{"python"}, 0, 0)
		require.NoError(t, err)
		for _, term := range expanded[1:] {
			assert.True(t, vocabulary[term], "term %q not in corpus vocabulary", term)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		expanded, err := engine.ExpandSkills(ctx, nil, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, expanded)
	})

	t.Run("bounds respected", func(t *testing.T) {
		expanded, err := engine.ExpandSkills(ctx, []string{"python", "django"}, 2, 3)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(expanded), 3)
		assert.GreaterOrEqual(t, len(expanded), 2)
	})
}

func TestDetectDomain(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	t.Run("keyword table answers first", func(t *testing.T) {
		domain, err := engine.DetectDomain(ctx, "aws cloud architect")
		require.NoError(t, err)
		assert.Equal(t, "cloud computing", domain)
	})

	t.Run("empty text", func(t *testing.T) {
		domain, err := engine.DetectDomain(ctx, "  ")
		require.NoError(t, err)
		assert.Equal(t, "", domain)
	})

	t.Run("below threshold yields no domain", func(t *testing.T) {
		// Mock embeddings are effectively random, so an off-vocabulary
		// phrase should not clear the 0.7 centroid threshold.
		domain, err := engine.DetectDomain(ctx, "professional gardener")
		require.NoError(t, err)
		assert.Equal(t, "", domain)
	})
}

func TestClearAllCachesDropsCorpusSnapshots(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	_, err = store.Profiles.PutProfile(ctx, &core.CandidateProfile{
		ID: "p1", Skills: []string{"python", "django"},
	})
	require.NoError(t, err)

	engine := NewEngine(store.Profiles, mock.NewMockEmbedder(64), mock.NewMockSkillExtractor(), cache.NewStore(nil), nil)

	terms, err := engine.vocab.Terms(ctx)
	require.NoError(t, err)
	assert.True(t, terms["python"])
	assert.False(t, terms["golang"])
	require.NoError(t, engine.RebuildGraph(ctx))

	_, err = store.Profiles.PutProfile(ctx, &core.CandidateProfile{
		ID: "p2", Skills: []string{"golang", "gin"},
	})
	require.NoError(t, err)

	// Inside the TTL the stale snapshot keeps serving.
	terms, err = engine.vocab.Terms(ctx)
	require.NoError(t, err)
	assert.False(t, terms["golang"])

	engine.ClearAllCaches()

	terms, err = engine.vocab.Terms(ctx)
	require.NoError(t, err)
	assert.True(t, terms["golang"], "cleared vocabulary must rescan the corpus")

	graph, err := engine.graphSnapshot(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, graph.Neighbors("golang"), "cleared graph must rebuild over the new corpus")
}

func TestSimilarityCaching(t *testing.T) {
	engine, embedder, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := engine.Similarity(ctx, "python", "django")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)

	calls := embedder.CallCount()
	second, err := engine.Similarity(ctx, "django", "python")
	require.NoError(t, err)
	assert.Equal(t, first, second, "pair order must not matter")
	assert.Equal(t, calls, embedder.CallCount(), "swapped pair must hit the cache")
}

func TestDomainSimilarityNeutralWithoutQueryDomain(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	sim, err := engine.DomainSimilarity(ctx, "professional gardener", []string{"python"}, "")
	require.NoError(t, err)
	assert.Equal(t, 0.5, sim)
}
