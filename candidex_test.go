package candidex

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/candidex/ai"
	"github.com/poiesic/candidex/ai/mock"
	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/storage"
)

const testDims = 64

func newTestEngine(t *testing.T, dataDir string) (*Engine, *mock.MockProvider) {
	t.Helper()

	provider := mock.NewMockProviderWithServices(
		mock.NewMockEmbedder(testDims),
		mock.NewMockSkillExtractor(),
		mock.NewMockReranker(),
		mock.NewMockExplainer(),
	)

	engine, err := NewEngine(dataDir,
		WithProvider(provider),
		WithAIConfig(ai.NewConfig(ai.WithDimensions(testDims))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	return engine, provider.(*mock.MockProvider)
}

func testProfile(id, name string, skillList []string) *core.CandidateProfile {
	return &core.CandidateProfile{
		ID:      id,
		Name:    name,
		Skills:  skillList,
		RawText: name + " has worked with " + strings.Join(skillList, ", ") + " for several years.",
	}
}

func TestUpsertAndSearch(t *testing.T) {
	engine, _ := newTestEngine(t, "")
	ctx := context.Background()

	require.NoError(t, engine.UpsertProfile(ctx, testProfile("p1", "Ada", []string{"python", "django"})))
	require.NoError(t, engine.UpsertProfile(ctx, testProfile("p2", "Linus", []string{"java", "spring"})))

	resp, err := engine.Search(ctx, "python", core.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "p1", resp.Results[0].ProfileID)
	assert.Greater(t, resp.Results[0].Score, 0.0)

	stats := engine.IndexStats()
	assert.Equal(t, 2, stats.Profiles)
	assert.Equal(t, testDims, stats.Dimensions)
}

func TestUpsertProfile_Validation(t *testing.T) {
	engine, _ := newTestEngine(t, "")
	ctx := context.Background()

	err := engine.UpsertProfile(ctx, &core.CandidateProfile{Name: "No ID"})
	assert.ErrorIs(t, err, core.ErrInvalidProfile)

	err = engine.UpsertProfile(ctx, &core.CandidateProfile{ID: "p1", RawText: "short"})
	assert.ErrorIs(t, err, core.ErrEmptyContent)
}

func TestUpsertProfile_InfersDomains(t *testing.T) {
	engine, _ := newTestEngine(t, "")
	ctx := context.Background()

	require.NoError(t, engine.UpsertProfile(ctx, testProfile("p1", "Ada", []string{"python", "django", "postgresql"})))

	stored, err := engine.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.SkillDomains)

	// Explicit domains are kept as-is.
	profile := testProfile("p2", "Grace", []string{"cobol"})
	profile.SkillDomains = []string{"mainframe"}
	require.NoError(t, engine.UpsertProfile(ctx, profile))

	stored, err = engine.GetProfile(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, []string{"mainframe"}, stored.SkillDomains)
}

func TestDeleteProfile(t *testing.T) {
	engine, _ := newTestEngine(t, "")
	ctx := context.Background()

	require.NoError(t, engine.UpsertProfile(ctx, testProfile("p1", "Ada", []string{"python"})))
	require.NoError(t, engine.DeleteProfile(ctx, "p1"))

	_, err := engine.GetProfile(ctx, "p1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, engine.IndexStats().Profiles)

	assert.ErrorIs(t, engine.DeleteProfile(ctx, "missing"), storage.ErrNotFound)
}

func TestIntegrityReportAndRepair(t *testing.T) {
	engine, _ := newTestEngine(t, "")
	ctx := context.Background()

	require.NoError(t, engine.UpsertProfile(ctx, testProfile("p1", "Ada", []string{"python"})))
	require.NoError(t, engine.UpsertProfile(ctx, testProfile("p2", "Linus", []string{"java"})))

	report, err := engine.IntegrityReport(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	// Removing a profile behind the facade's back leaves an orphan in the
	// index, and an unindexed store write leaves a missing profile.
	require.NoError(t, engine.ProfileRepository().DeleteProfile(ctx, "p1"))
	_, err = engine.ProfileRepository().PutProfile(ctx, testProfile("p3", "Grace", []string{"spark"}))
	require.NoError(t, err)

	report, err = engine.IntegrityReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, report.OrphanVectors)
	assert.Equal(t, []string{"p3"}, report.MissingProfiles)

	summary, err := engine.Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RemovedOrphans)
	assert.Equal(t, 1, summary.Added)

	report, err = engine.IntegrityReport(ctx)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestExplain(t *testing.T) {
	engine, provider := newTestEngine(t, "")
	ctx := context.Background()

	require.NoError(t, engine.UpsertProfile(ctx, testProfile("p1", "Ada", []string{"python"})))

	explanation, err := engine.Explain(ctx, "python backend", "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, explanation)

	provider.GetMockExplainer().ExplainMatchFunc = func(ctx context.Context, query, summary string) (string, error) {
		return "", errors.New("llm down")
	}
	explanation, err = engine.Explain(ctx, "python backend", "p1")
	require.NoError(t, err)
	assert.Equal(t, "explanation not available", explanation)

	_, err = engine.Explain(ctx, "python", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClearCaches(t *testing.T) {
	engine, _ := newTestEngine(t, "")
	ctx := context.Background()

	require.NoError(t, engine.UpsertProfile(ctx, testProfile("p1", "Ada", []string{"python"})))
	_, err := engine.Search(ctx, "python", core.SearchFilters{}, 5)
	require.NoError(t, err)

	// Warm the skill engine's vocabulary snapshot.
	terms, err := engine.SkillEngine().Vocabulary().Terms(ctx)
	require.NoError(t, err)
	assert.True(t, terms["python"])
	assert.False(t, terms["golang"])

	require.NoError(t, engine.UpsertProfile(ctx, testProfile("p2", "Rob", []string{"golang"})))

	cleared := engine.ClearCaches()
	assert.Greater(t, cleared["embeddings"], 0)

	terms, err = engine.SkillEngine().Vocabulary().Terms(ctx)
	require.NoError(t, err)
	assert.True(t, terms["golang"], "cache clear must drop the vocabulary snapshot")
}

func TestReindexLifecycle(t *testing.T) {
	engine, _ := newTestEngine(t, "")
	ctx := context.Background()

	require.NoError(t, engine.UpsertProfile(ctx, testProfile("p1", "Ada", []string{"python"})))

	needs, err := engine.NeedsReindex(ctx)
	require.NoError(t, err)
	assert.True(t, needs, "no version marker yet")

	var progress strings.Builder
	reindexer, err := engine.NewReindexer(nil, &progress)
	require.NoError(t, err)
	defer reindexer.Release()

	summary, err := reindexer.Run(ctx, engine.IndexVersion())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Indexed)

	needs, err = engine.NeedsReindex(ctx)
	require.NoError(t, err)
	assert.False(t, needs)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	engine, err := NewEngine(dir,
		WithProvider(mock.NewMockProviderWithServices(
			mock.NewMockEmbedder(testDims),
			mock.NewMockSkillExtractor(),
			mock.NewMockReranker(),
			mock.NewMockExplainer(),
		)),
		WithAIConfig(ai.NewConfig(ai.WithDimensions(testDims))),
	)
	require.NoError(t, err)
	require.NoError(t, engine.UpsertProfile(ctx, testProfile("p1", "Ada", []string{"python", "django"})))
	require.NoError(t, engine.Close())

	reopened, _ := newTestEngine(t, dir)
	stored, err := reopened.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.Name)

	resp, err := reopened.Search(ctx, "python", core.SearchFilters{}, 5)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "p1", resp.Results[0].ProfileID)
}
