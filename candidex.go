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


package candidex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/candidex/ai"
	"github.com/poiesic/candidex/ai/openai"
	"github.com/poiesic/candidex/cache"
	"github.com/poiesic/candidex/chunker"
	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/integrity"
	"github.com/poiesic/candidex/reindex"
	"github.com/poiesic/candidex/search"
	"github.com/poiesic/candidex/skills"
	"github.com/poiesic/candidex/storage"
	"github.com/poiesic/candidex/storage/badger"
	"github.com/poiesic/candidex/vecindex"
)

// Engine is the root facade: one profile store, one vector index, and the
// retrieval pipeline wired over them.
type Engine struct {
	store       *badger.Store
	provider    ai.Provider
	embedder    ai.Embedder
	caches      *cache.Store
	chunker     *chunker.Chunker
	index       *vecindex.Manager
	skillEngine *skills.Engine
	searcher    *search.Engine
	checker     *integrity.Checker
	aiConfig    *ai.Config
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig     *ai.Config
	cacheConfig  *cache.Config
	searchConfig *search.Config
	skillConfig  *skills.Config
	provider     ai.Provider
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithCacheConfig sets the cache layer sizing.
func WithCacheConfig(cfg *cache.Config) EngineOption {
	return func(o *engineOptions) {
		o.cacheConfig = cfg
	}
}

// WithSearchConfig sets the query engine configuration.
func WithSearchConfig(cfg *search.Config) EngineOption {
	return func(o *engineOptions) {
		o.searchConfig = cfg
	}
}

// WithSkillConfig sets the skill engine configuration.
func WithSkillConfig(cfg *skills.Config) EngineOption {
	return func(o *engineOptions) {
		o.skillConfig = cfg
	}
}

// WithProvider injects an AI provider, bypassing the OpenAI-compatible
// default. Used by tests and alternative deployments.
func WithProvider(provider ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// NewEngine opens the profile store and vector index under dataDir and
// wires the retrieval pipeline. An empty dataDir runs fully in memory with
// no persistence.
func NewEngine(dataDir string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := options.aiConfig.Validate(); err != nil {
		return nil, err
	}

	var store *badger.Store
	var err error
	indexDir := ""
	if dataDir == "" {
		store, err = badger.NewMemoryStore()
	} else {
		store, err = badger.NewStore(filepath.Join(dataDir, "profiles"))
		indexDir = filepath.Join(dataDir, "index")
	}
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	caches := cache.NewStore(options.cacheConfig)
	embedder := ai.NewCachedEmbedder(provider.Embedder(), caches.Embeddings)

	index, err := vecindex.NewManager(vecindex.NewConfig(options.aiConfig.Dimensions,
		vecindex.WithDir(indexDir)))
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	skillEngine := skills.NewEngine(store.Profiles, embedder, provider.SkillExtractor(),
		caches, options.skillConfig)

	searcher, err := search.NewEngine(store.Profiles, index, embedder, skillEngine,
		caches, options.searchConfig, search.WithReranker(provider.Reranker()))
	if err != nil {
		provider.Close()
		store.Close()
		return nil, err
	}

	e := &Engine{
		store:       store,
		provider:    provider,
		embedder:    embedder,
		caches:      caches,
		chunker:     chunker.New(),
		index:       index,
		skillEngine: skillEngine,
		searcher:    searcher,
		aiConfig:    options.aiConfig,
		logger:      slog.Default(),
	}

	checker, err := integrity.NewChecker(store.Profiles, index, e)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.checker = checker

	return e, nil
}

// Close persists the index and releases every resource.
func (e *Engine) Close() error {
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.index.Persist(); err != nil {
		e.logger.Error("error persisting vector index", "err", err)
		return err
	}
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// Search runs the hybrid query pipeline.
func (e *Engine) Search(ctx context.Context, query string, filters core.SearchFilters, topK int) (*core.SearchResponse, error) {
	return e.searcher.Search(ctx, query, filters, topK)
}

// SearchWithMonitor runs the hybrid query pipeline with per-stage callbacks.
func (e *Engine) SearchWithMonitor(ctx context.Context, query string, filters core.SearchFilters, topK int, monitor search.SearchMonitor) (*core.SearchResponse, error) {
	return e.searcher.SearchWithMonitor(ctx, query, filters, topK, monitor)
}

// UpsertProfile validates, stores and indexes a profile, replacing any
// previous version. Profiles without skill domains get them inferred and
// written back as an enrichment.
func (e *Engine) UpsertProfile(ctx context.Context, profile *core.CandidateProfile) error {
	if err := core.ValidateProfile(profile); err != nil {
		return err
	}

	if len(profile.SkillDomains) == 0 && len(profile.Skills) > 0 {
		profile.SkillDomains = skills.InferDomains(profile.Skills, profile.RawText)
	}

	stored, err := e.store.Profiles.PutProfile(ctx, profile)
	if err != nil {
		return err
	}

	return e.IndexProfile(ctx, stored)
}

// IndexProfile chunks, embeds and indexes one stored profile. It implements
// the indexer contract used by integrity repair and bulk reindexing.
func (e *Engine) IndexProfile(ctx context.Context, profile *core.CandidateProfile) error {
	chunks := chunker.Flatten(e.chunker.Chunk(profile))
	if len(chunks) == 0 {
		return fmt.Errorf("%w: profile %s produced no chunks", core.ErrEmbeddingFailed, profile.ID)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrEmbeddingFailed, err)
	}

	// A zero vector marks a chunk the provider could not embed; the profile
	// stays searchable through the chunks that succeeded.
	indexable := chunks[:0]
	for i, vec := range vectors {
		if core.IsNormalized(vec) {
			chunks[i].Embedding = vec
			indexable = append(indexable, chunks[i])
		} else {
			e.logger.Warn("skipping chunk with failed embedding",
				"profileID", profile.ID, "chunkType", chunks[i].Type.String())
		}
	}
	if len(indexable) == 0 {
		return fmt.Errorf("%w: no chunk of profile %s could be embedded", core.ErrEmbeddingFailed, profile.ID)
	}

	return e.index.Upsert(profile.ID, indexable)
}

// DeleteProfile removes a profile from the store and the index.
// Returns storage.ErrNotFound if the profile does not exist.
func (e *Engine) DeleteProfile(ctx context.Context, id string) error {
	if err := e.store.Profiles.DeleteProfile(ctx, id); err != nil {
		return err
	}
	return e.index.Delete(id)
}

// GetProfile retrieves a stored profile by id.
func (e *Engine) GetProfile(ctx context.Context, id string) (*core.CandidateProfile, error) {
	return e.store.Profiles.GetProfile(ctx, id)
}

// IntegrityReport computes the current drift between store and index.
func (e *Engine) IntegrityReport(ctx context.Context) (*integrity.Report, error) {
	return e.checker.Report(ctx)
}

// Repair fixes drift between store and index with bounded effort.
func (e *Engine) Repair(ctx context.Context) (*integrity.Summary, error) {
	return e.checker.Repair(ctx)
}

// ClearCaches empties every cache layer, drops the skill engine's corpus
// snapshots, and returns per-layer entry counts.
func (e *Engine) ClearCaches() map[string]int {
	e.skillEngine.ClearAllCaches()
	return e.caches.ClearAll()
}

// Explain produces a short human-readable description of why a stored
// profile matches the query. Best effort: provider failures yield a fixed
// fallback text rather than an error.
func (e *Engine) Explain(ctx context.Context, query, profileID string) (string, error) {
	profile, err := e.store.Profiles.GetProfile(ctx, profileID)
	if err != nil {
		return "", err
	}

	explanation, err := e.provider.Explainer().ExplainMatch(ctx, query, search.CandidateSummary(profile))
	if err != nil {
		e.logger.Warn("explanation generation failed", "profileID", profileID, "err", err)
		return "explanation not available", nil
	}
	return explanation, nil
}

// IndexStats returns a snapshot of the vector index state.
func (e *Engine) IndexStats() vecindex.Stats {
	return e.index.Stats()
}

// NeedsReindex reports whether the persisted index version differs from the
// configured embedding model or dimensionality.
func (e *Engine) NeedsReindex(ctx context.Context) (bool, error) {
	return reindex.NeedsReindex(ctx, e.store.Versions, e.aiConfig.EmbeddingModel, e.aiConfig.Dimensions)
}

// NewReindexer builds a bulk reindexer over this engine's store and index.
// The caller owns Release.
func (e *Engine) NewReindexer(cfg *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(e.store.Profiles, e.store.Versions, e.index, e, cfg, progress)
}

// IndexVersion returns the marker a successful reindex run persists.
func (e *Engine) IndexVersion() *core.IndexVersion {
	return &core.IndexVersion{
		EmbeddingModel: e.aiConfig.EmbeddingModel,
		Dimensions:     e.aiConfig.Dimensions,
	}
}

// ProfileRepository exposes the underlying profile store.
func (e *Engine) ProfileRepository() storage.ProfileRepository {
	return e.store.Profiles
}

// SkillEngine exposes the skill extraction and expansion engine.
func (e *Engine) SkillEngine() *skills.Engine {
	return e.skillEngine
}
