package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/candidex/ai/mock"
	"github.com/poiesic/candidex/cache"
	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/skills"
	"github.com/poiesic/candidex/storage/badger"
	"github.com/poiesic/candidex/vecindex"
)

type testEnv struct {
	embedder  *mock.MockEmbedder
	extractor *mock.MockSkillExtractor
	caches    *cache.Store
}

// newTestEngine builds an engine over an in-memory store with three indexed
// profiles: p1 (python/django), p2 (python/airflow/spark), p3 (java/spring).
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *testEnv) {
	t.Helper()

	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	profiles := []*core.CandidateProfile{
		{
			ID: "p1", Name: "Ada", Skills: []string{"python", "django"},
			SkillDomains: []string{"Backend"}, Location: "Austin", ExperienceYears: 8,
			RawText: "Backend engineer building APIs with python and django.",
		},
		{
			ID: "p2", Name: "Grace", Skills: []string{"python", "airflow", "spark"},
			SkillDomains: []string{"Data Engineering"}, Location: "Berlin", ExperienceYears: 5,
			RawText: "Data engineer building pipelines with airflow and spark.",
		},
		{
			ID: "p3", Name: "Linus", Skills: []string{"java", "spring"},
			SkillDomains: []string{"Backend"}, Location: "Austin", ExperienceYears: 3,
			RawText: "Backend engineer working with java and spring.",
		},
	}

	// 64 dims keeps random-vector cosines away from decision thresholds.
	embedder := mock.NewMockEmbedder(64)
	index, err := vecindex.NewManager(vecindex.NewConfig(64))
	require.NoError(t, err)

	for _, p := range profiles {
		_, err := store.Profiles.PutProfile(ctx, p)
		require.NoError(t, err)

		text := strings.Join(p.Skills, " ")
		vec, err := embedder.EmbedText(ctx, text)
		require.NoError(t, err)
		require.NoError(t, index.Upsert(p.ID, []core.Chunk{{
			ProfileID: p.ID,
			Type:      core.ChunkTypeSkills,
			Text:      text,
			Embedding: vec,
			Meta:      core.ChunkMeta{Skills: p.Skills},
		}}))
	}

	extractor := mock.NewMockSkillExtractor()
	caches := cache.NewStore(nil)
	skillEngine := skills.NewEngine(store.Profiles, embedder, extractor, caches,
		skills.NewConfig(skills.WithTermBounds(2, 4)))

	engine, err := NewEngine(store.Profiles, index, embedder, skillEngine, caches, NewConfig(), opts...)
	require.NoError(t, err)

	return engine, &testEnv{embedder: embedder, extractor: extractor, caches: caches}
}

func resultIDs(results []core.SearchResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ProfileID
	}
	return ids
}

func TestNewEngine(t *testing.T) {
	engine, _ := newTestEngine(t)

	t.Run("nil profile repository", func(t *testing.T) {
		_, err := NewEngine(nil, engine.index, engine.embedder, engine.skillEngine, engine.caches, nil)
		assert.Equal(t, ErrProfileRepositoryRequired, err)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewEngine(engine.profiles, nil, engine.embedder, engine.skillEngine, engine.caches, nil)
		assert.Equal(t, ErrIndexRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewEngine(engine.profiles, engine.index, nil, engine.skillEngine, engine.caches, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("nil skill engine", func(t *testing.T) {
		_, err := NewEngine(engine.profiles, engine.index, engine.embedder, nil, engine.caches, nil)
		assert.Equal(t, ErrSkillEngineRequired, err)
	})

	t.Run("invalid weights", func(t *testing.T) {
		cfg := NewConfig(WithWeights(ScoreWeights{VectorSimilarity: 0.9}))
		_, err := NewEngine(engine.profiles, engine.index, engine.embedder, engine.skillEngine, engine.caches, cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidWeights)
	})
}

func TestSearch_MandatorySkillPrefilter(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "python", core.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	// Only the two python profiles pass the mandatory-skill prefilter.
	assert.ElementsMatch(t, []string{"p1", "p2"}, resultIDs(resp.Results))
	for _, r := range resp.Results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 100.0)
		assert.Greater(t, r.Similarity, 0.0)
		assert.Contains(t, r.MatchedSkills, "python")
		assert.Equal(t, []core.ChunkType{core.ChunkTypeSkills}, r.ChunkTypes)
	}
}

func TestSearch_EmptyPrefilterIsDropped(t *testing.T) {
	engine, _ := newTestEngine(t)

	// No profile knows haskell; the prefilter matches nothing and must be
	// dropped rather than zeroing out recall.
	resp, err := engine.Search(context.Background(), "haskell", core.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Results)
}

func TestSearch_StructuralFilters(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "python",
		core.SearchFilters{Location: "austin"}, 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "p1", resp.Results[0].ProfileID)
}

func TestSearch_TopKTruncation(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "python", core.SearchFilters{}, 1)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestSearch_PureFilterMode(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp, err := engine.Search(context.Background(), "",
		core.SearchFilters{Location: "austin"}, 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	// Flat maximal score, insertion order.
	assert.Equal(t, []string{"p1", "p3"}, resultIDs(resp.Results))
	for _, r := range resp.Results {
		assert.Equal(t, 100.0, r.Score)
	}
	assert.Empty(t, resp.Degraded)
}

func TestSearch_EmptyQueryWithoutFilters(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Search(context.Background(), "", core.SearchFilters{}, 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearch_RerankDegradesOnFailure(t *testing.T) {
	reranker := mock.NewMockReranker()
	reranker.RerankScoresFunc = func(ctx context.Context, query string, documents []string) ([]float64, error) {
		return nil, errors.New("reranker offline")
	}
	engine, _ := newTestEngine(t, WithReranker(reranker))

	resp, err := engine.Search(context.Background(), "python", core.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Results)
	assert.Contains(t, resp.Degraded, "rerank")
	for _, r := range resp.Results {
		assert.Zero(t, r.RerankScore)
	}
}

func TestSearch_RerankScoresCached(t *testing.T) {
	reranker := mock.NewMockReranker()
	engine, _ := newTestEngine(t, WithReranker(reranker))
	ctx := context.Background()

	resp, err := engine.Search(ctx, "python", core.SearchFilters{}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, 1, reranker.CallCount())

	// Same query again: every candidate score is served from cache.
	_, err = engine.Search(ctx, "python", core.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, reranker.CallCount())
}

func TestSearch_LLMStrategyFailureTolerated(t *testing.T) {
	engine, env := newTestEngine(t)

	// A dead LLM suggestion strategy must not surface as a query failure;
	// the graph and embedding strategies still expand the terms.
	env.extractor.SuggestRelatedFunc = func(ctx context.Context, skills []string, max int) ([]string, error) {
		return nil, errors.New("llm offline")
	}

	resp, err := engine.Search(context.Background(), "python", core.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Results)
}

func TestQueryEmbedding(t *testing.T) {
	engine, env := newTestEngine(t)
	ctx := context.Background()

	t.Run("weights original terms above expansions", func(t *testing.T) {
		vec, err := engine.queryEmbedding(ctx, "python airflow", []string{"python"}, []string{"python", "airflow"})
		require.NoError(t, err)
		require.Len(t, vec, 64)
		assert.True(t, core.IsNormalized(vec))

		pythonVec, err := env.embedder.EmbedText(ctx, "python")
		require.NoError(t, err)
		airflowVec, err := env.embedder.EmbedText(ctx, "airflow")
		require.NoError(t, err)

		// The combined vector leans toward the full-weight original term.
		assert.Greater(t, core.Dot(vec, pythonVec), core.Dot(vec, airflowVec))
	})

	t.Run("falls back to raw query without terms", func(t *testing.T) {
		vec, err := engine.queryEmbedding(ctx, "python developer", nil, nil)
		require.NoError(t, err)
		direct, err := env.embedder.EmbedText(ctx, "python developer")
		require.NoError(t, err)
		assert.Equal(t, direct, vec)
	})
}

func TestAggregateByProfile(t *testing.T) {
	hits := []vecindex.ChunkHit{
		{Entry: vecindex.SlotEntry{ProfileID: "p1", ChunkType: core.ChunkTypeSkills}, Score: 0.9},
		{Entry: vecindex.SlotEntry{ProfileID: "p1", ChunkType: core.ChunkTypeRaw}, Score: 0.5},
		{Entry: vecindex.SlotEntry{ProfileID: "p1", ChunkType: core.ChunkTypeRaw}, Score: 0.4},
		{Entry: vecindex.SlotEntry{ProfileID: "p2", ChunkType: core.ChunkTypeExperience}, Score: 0.7},
	}

	aggregates := aggregateByProfile(hits)
	require.Len(t, aggregates, 2)

	p1 := aggregates["p1"]
	assert.InDelta(t, 0.9, p1.similarity, 1e-9)
	// (1.0*0.9 + 0.6*0.5) / (1.0 + 0.6)
	assert.InDelta(t, 0.75, p1.hierarchical(), 1e-9)
	assert.Equal(t, []core.ChunkType{core.ChunkTypeSkills, core.ChunkTypeRaw}, p1.chunkTypes())

	p2 := aggregates["p2"]
	assert.InDelta(t, 0.7, p2.similarity, 1e-9)
	assert.InDelta(t, 0.7, p2.hierarchical(), 1e-9)
}
