package reindex

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/storage/badger"
	"github.com/poiesic/candidex/vecindex"
)

const testDims = 4

// stubIndexer indexes profiles with a single fixed chunk, failing the ids
// listed in FailFor.
type stubIndexer struct {
	index   *vecindex.Manager
	FailFor map[string]bool

	mu    sync.Mutex
	calls int
}

func (s *stubIndexer) IndexProfile(ctx context.Context, profile *core.CandidateProfile) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.FailFor[profile.ID] {
		return errors.New("embedding provider unavailable")
	}
	return s.index.Upsert(profile.ID, []core.Chunk{{
		ProfileID: profile.ID,
		Type:      core.ChunkTypeSkills,
		Text:      profile.ID + " skills",
		Embedding: []float32{1, 0, 0, 0},
	}})
}

func testConfig() *Config {
	return &Config{
		BatchSize:      3,
		PoolSize:       2,
		ReportInterval: 3,
		MaxRetries:     1,
		RetryDelay:     time.Millisecond,
	}
}

func newTestReindexer(t *testing.T, store *badger.Store) (*Reindexer, *vecindex.Manager, *stubIndexer, *bytes.Buffer) {
	t.Helper()

	index, err := vecindex.NewManager(vecindex.NewConfig(testDims))
	require.NoError(t, err)

	indexer := &stubIndexer{index: index}
	var progress bytes.Buffer
	reindexer, err := NewReindexer(store.Profiles, store.Versions, index, indexer, testConfig(), &progress)
	require.NoError(t, err)
	t.Cleanup(reindexer.Release)

	return reindexer, index, indexer, &progress
}

func testVersion() *core.IndexVersion {
	return &core.IndexVersion{EmbeddingModel: "text-embedding-3-small", Dimensions: testDims}
}

func TestNewReindexer_Validation(t *testing.T) {
	store := newTestStore(t, 0)
	index, err := vecindex.NewManager(vecindex.NewConfig(testDims))
	require.NoError(t, err)
	indexer := &stubIndexer{index: index}

	_, err = NewReindexer(nil, store.Versions, index, indexer, nil, nil)
	assert.Equal(t, ErrProfileRepositoryRequired, err)

	_, err = NewReindexer(store.Profiles, nil, index, indexer, nil, nil)
	assert.Equal(t, ErrVersionRepositoryRequired, err)

	_, err = NewReindexer(store.Profiles, store.Versions, nil, indexer, nil, nil)
	assert.Equal(t, ErrIndexRequired, err)

	_, err = NewReindexer(store.Profiles, store.Versions, index, nil, nil, nil)
	assert.Equal(t, ErrIndexerRequired, err)
}

func TestReindexerRun(t *testing.T) {
	store := newTestStore(t, 7)
	reindexer, index, indexer, progress := newTestReindexer(t, store)
	ctx := context.Background()

	summary, err := reindexer.Run(ctx, testVersion())
	require.NoError(t, err)

	assert.Equal(t, 7, summary.Total)
	assert.Equal(t, 7, summary.Indexed)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 7, indexer.calls)
	assert.Len(t, index.ProfileIDs(), 7)
	assert.Contains(t, progress.String(), "Reindex complete")

	version, err := store.Versions.LoadIndexVersion(ctx)
	require.NoError(t, err)
	require.NotNil(t, version)
	assert.Equal(t, "text-embedding-3-small", version.EmbeddingModel)
	assert.Equal(t, testDims, version.Dimensions)
}

func TestReindexerRun_RecordsFailures(t *testing.T) {
	store := newTestStore(t, 4)
	reindexer, index, indexer, _ := newTestReindexer(t, store)
	indexer.FailFor = map[string]bool{"p02": true}

	summary, err := reindexer.Run(context.Background(), testVersion())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Indexed)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Contains(t, summary.Failures[0], "p02")
	assert.False(t, index.Contains("p02"))
}

func TestReindexerRun_EmptyStore(t *testing.T) {
	store := newTestStore(t, 0)
	reindexer, _, indexer, progress := newTestReindexer(t, store)

	summary, err := reindexer.Run(context.Background(), testVersion())
	require.NoError(t, err)

	assert.Zero(t, summary.Total)
	assert.Zero(t, indexer.calls)
	assert.Contains(t, progress.String(), "No profiles found")

	// The version marker is still written.
	version, err := store.Versions.LoadIndexVersion(context.Background())
	require.NoError(t, err)
	require.NotNil(t, version)
}

func TestNeedsReindex(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	needed, err := NeedsReindex(ctx, store.Versions, "text-embedding-3-small", testDims)
	require.NoError(t, err)
	assert.True(t, needed, "missing marker requires a reindex")

	require.NoError(t, store.Versions.SaveIndexVersion(ctx, testVersion()))

	needed, err = NeedsReindex(ctx, store.Versions, "text-embedding-3-small", testDims)
	require.NoError(t, err)
	assert.False(t, needed)

	needed, err = NeedsReindex(ctx, store.Versions, "text-embedding-3-large", testDims)
	require.NoError(t, err)
	assert.True(t, needed, "model swap requires a reindex")

	needed, err = NeedsReindex(ctx, store.Versions, "text-embedding-3-small", testDims*2)
	require.NoError(t, err)
	assert.True(t, needed, "dimension change requires a reindex")
}
