package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/candidex/ai"
	"github.com/poiesic/candidex/cache"
	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/skills"
	"github.com/poiesic/candidex/storage"
	"github.com/poiesic/candidex/vecindex"
)

// Engine runs hybrid candidate retrieval over the vector index, blending
// semantic similarity with skill, title and domain alignment signals.
type Engine struct {
	cfg         *Config
	profiles    storage.ProfileRepository
	index       *vecindex.Manager
	embedder    ai.Embedder
	skillEngine *skills.Engine
	reranker    ai.Reranker
	caches      *cache.Store
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// WithReranker enables cross-encoder reranking of candidate summaries.
// Rerank failures degrade the query rather than failing it.
func WithReranker(reranker ai.Reranker) Option {
	return func(e *Engine) {
		e.reranker = reranker
	}
}

// NewEngine creates a new query engine.
func NewEngine(
	profiles storage.ProfileRepository,
	index *vecindex.Manager,
	embedder ai.Embedder,
	skillEngine *skills.Engine,
	caches *cache.Store,
	cfg *Config,
	opts ...Option,
) (*Engine, error) {
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if skillEngine == nil {
		return nil, ErrSkillEngineRequired
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if caches == nil {
		caches = cache.NewStore(nil)
	}

	e := &Engine{
		cfg:         cfg,
		profiles:    profiles,
		index:       index,
		embedder:    embedder,
		skillEngine: skillEngine,
		caches:      caches,
		logger:      slog.Default().With("component", "search"),
	}

	// Apply options
	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Search runs the full query pipeline and returns up to topK profiles
// ranked by blended score. An empty query with structural filters returns
// every filter match at a flat maximal score.
func (e *Engine) Search(ctx context.Context, query string, filters core.SearchFilters, topK int) (*core.SearchResponse, error) {
	return e.SearchWithMonitor(ctx, query, filters, topK, nil)
}

// SearchWithMonitor runs the query pipeline with per-stage monitoring.
// The monitor receives callbacks as each stage completes.
func (e *Engine) SearchWithMonitor(ctx context.Context, query string, filters core.SearchFilters, topK int, monitor SearchMonitor) (*core.SearchResponse, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if topK <= 0 {
		topK = e.cfg.DefaultTopK
	}

	query = strings.TrimSpace(query)
	monitor.Start(query)

	if query == "" {
		if filters.Empty() {
			return nil, ErrEmptyQuery
		}
		return e.filterOnly(ctx, filters, topK, monitor)
	}

	var degraded []string

	// 1. Extract skill terms from the query
	skillTerms, err := e.skillEngine.ExtractSkills(ctx, query)
	if err != nil {
		return nil, err
	}
	monitor.AfterSkillExtraction(skillTerms)

	// 2. Advisory prefilter: the first extracted skill is mandatory, plus
	// any structural filters. An empty match set drops the filter entirely
	// so that vector recall is never zeroed out by a too-strict constraint.
	prefilter := filters
	if len(skillTerms) > 0 {
		prefilter.Skill = skillTerms[0]
	}
	var allowed map[string]bool
	if !prefilter.Empty() {
		ids, err := e.profiles.FilterProfileIDs(ctx, prefilter)
		switch {
		case err != nil:
			e.logger.Warn("prefilter failed, searching unfiltered", "err", err)
			degraded = append(degraded, "prefilter")
		case len(ids) == 0:
			e.logger.Debug("prefilter matched no profiles, dropping it",
				"skill", prefilter.Skill)
		default:
			allowed = ids
		}
	}
	monitor.AfterPrefilter(allowed)

	// 3. Expand the skill list with related terms
	expanded, err := e.skillEngine.ExpandSkills(ctx, skillTerms, 0, 0)
	if err != nil {
		e.logger.Warn("skill expansion failed, using extracted terms", "err", err)
		degraded = append(degraded, "expansion")
		expanded = skillTerms
	}
	monitor.AfterExpansion(expanded)

	// 4. Build the query embedding from the weighted terms
	queryVec, err := e.queryEmbedding(ctx, query, skillTerms, expanded)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// 5. Nearest-neighbor chunk search
	hits, err := e.index.SearchChunks(queryVec, topK*e.cfg.ChunkOverfetch, allowed)
	if err != nil {
		e.logger.Error("error querying vector index", "err", err)
		return nil, err
	}
	monitor.AfterVectorSearch(hits)

	// 6. Aggregate chunk hits per profile
	aggregates := aggregateByProfile(hits)
	if len(aggregates) == 0 {
		monitor.Finish(nil)
		return &core.SearchResponse{Degraded: degraded}, nil
	}

	ids := make([]string, 0, len(aggregates))
	for id := range aggregates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	candidates, err := e.profiles.GetProfiles(ctx, ids...)
	if err != nil {
		e.logger.Error("error retrieving profiles", "profileCount", len(ids), "err", err)
		return nil, err
	}

	// 7. Optional rerank of candidate summaries
	var rerankScores map[string]float64
	if e.reranker != nil {
		rerankScores, err = e.rerankCandidates(ctx, query, candidates)
		if err != nil {
			e.logger.Warn("rerank failed, skipping", "err", err)
			degraded = append(degraded, "rerank")
			rerankScores = nil
		}
	}
	monitor.AfterRerank(rerankScores)

	// 8. Blend signals into final scores
	results := make([]core.SearchResult, 0, len(candidates))
	scoringDegraded := false
	for _, profile := range candidates {
		agg := aggregates[profile.ID]
		if agg == nil {
			continue
		}

		skillScore, err := e.skillEngine.SkillAlignment(ctx, skillTerms, profile.Skills)
		if err != nil {
			e.logger.Warn("skill alignment failed", "profileID", profile.ID, "err", err)
			scoringDegraded = true
			skillScore = 0
		}
		titleScore, err := e.skillEngine.TitleAlignment(ctx, query, profile.Name, profile.Skills)
		if err != nil {
			e.logger.Warn("title alignment failed", "profileID", profile.ID, "err", err)
			scoringDegraded = true
			titleScore = 0
		}
		domainScore, err := e.skillEngine.DomainSimilarity(ctx, query, profile.Skills, profile.RawText)
		if err != nil {
			e.logger.Warn("domain similarity failed", "profileID", profile.ID, "err", err)
			scoringDegraded = true
			domainScore = 0.5
		}

		w := e.cfg.Weights
		blended := w.VectorSimilarity*agg.similarity +
			w.SkillOverlap*skillScore +
			w.TitleAlignment*titleScore +
			w.DomainSimilarity*domainScore +
			w.Hierarchical*agg.hierarchical()

		results = append(results, core.SearchResult{
			ProfileID:         profile.ID,
			Score:             core.ClampScore(100 * blended),
			Similarity:        agg.similarity,
			HierarchicalScore: agg.hierarchical(),
			SkillScore:        skillScore,
			TitleScore:        titleScore,
			DomainScore:       domainScore,
			RerankScore:       rerankScores[profile.ID],
			MatchedSkills:     matchedSkills(expanded, profile.Skills),
			ChunkTypes:        agg.chunkTypes(),
		})
	}
	if scoringDegraded {
		degraded = append(degraded, "scoring")
	}

	// Sort by score descending, profile ID as a deterministic tiebreaker
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ProfileID < results[j].ProfileID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	monitor.Finish(results)

	return &core.SearchResponse{Results: results, Degraded: degraded}, nil
}

// filterOnly handles the pure filter mode: every profile matching the
// structural filters is returned at a flat maximal score, in insertion
// order. No ranking signals run.
func (e *Engine) filterOnly(ctx context.Context, filters core.SearchFilters, topK int, monitor SearchMonitor) (*core.SearchResponse, error) {
	matched, err := e.profiles.FilterProfileIDs(ctx, filters)
	if err != nil {
		return nil, err
	}
	monitor.AfterPrefilter(matched)

	ids, err := e.profiles.ProfileIDs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]core.SearchResult, 0, len(matched))
	for _, id := range ids {
		if !matched[id] {
			continue
		}
		results = append(results, core.SearchResult{
			ProfileID: id,
			Score:     100,
		})
		if len(results) == topK {
			break
		}
	}
	monitor.Finish(results)

	return &core.SearchResponse{Results: results}, nil
}

// queryEmbedding combines per-term embeddings into one unit vector. Terms
// from the original query weigh 1.0, expansion terms ExpansionWeight. An
// empty term list falls back to embedding the raw query text.
func (e *Engine) queryEmbedding(ctx context.Context, query string, original, expanded []string) ([]float32, error) {
	if len(expanded) == 0 {
		return e.embedder.EmbedText(ctx, query)
	}

	originalSet := make(map[string]bool, len(original))
	for _, term := range original {
		originalSet[term] = true
	}

	vectors, err := e.embedder.EmbedTexts(ctx, expanded)
	if err != nil {
		return nil, err
	}

	weights := make([]float64, len(expanded))
	for i, term := range expanded {
		if originalSet[term] {
			weights[i] = 1.0
		} else {
			weights[i] = e.cfg.ExpansionWeight
		}
	}

	combined := core.WeightedAverage(vectors, weights)
	if combined == nil {
		return e.embedder.EmbedText(ctx, query)
	}
	return combined, nil
}

// rerankCandidates scores candidate summaries against the query, reusing
// cached scores and calling the reranker only for the remainder.
func (e *Engine) rerankCandidates(ctx context.Context, query string, candidates []*core.CandidateProfile) (map[string]float64, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	scores := make(map[string]float64, len(candidates))

	var missing []*core.CandidateProfile
	for _, profile := range candidates {
		if cached, ok := e.caches.Rerank.Get(rerankKey(normalized, profile.ID)); ok {
			scores[profile.ID] = cached
		} else {
			missing = append(missing, profile)
		}
	}
	if len(missing) == 0 {
		return scores, nil
	}

	documents := make([]string, len(missing))
	for i, profile := range missing {
		documents[i] = CandidateSummary(profile)
	}

	fresh, err := e.reranker.RerankScores(ctx, query, documents)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(documents) {
		return nil, fmt.Errorf("reranker returned %d scores for %d documents", len(fresh), len(documents))
	}

	for i, profile := range missing {
		scores[profile.ID] = fresh[i]
		e.caches.Rerank.Put(rerankKey(normalized, profile.ID), fresh[i])
	}
	return scores, nil
}

func rerankKey(normalizedQuery, profileID string) core.HashKey {
	return core.HashFromContent("rerank\x00" + normalizedQuery + "\x00" + profileID)
}

// profileAggregate accumulates the best chunk score per section type for
// one profile.
type profileAggregate struct {
	similarity float64
	bestByType map[core.ChunkType]float64
}

// hierarchical is the weighted average of the best chunk score per type,
// over the types that actually matched.
func (a *profileAggregate) hierarchical() float64 {
	var weighted, total float64
	for chunkType, best := range a.bestByType {
		w := chunkTypeWeights[chunkType]
		weighted += w * best
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// chunkTypes lists the matched section types in weight order.
func (a *profileAggregate) chunkTypes() []core.ChunkType {
	var types []core.ChunkType
	for _, chunkType := range core.ChunkTypes {
		if _, ok := a.bestByType[chunkType]; ok {
			types = append(types, chunkType)
		}
	}
	return types
}

// aggregateByProfile folds chunk hits into per-profile aggregates, keeping
// the best score overall and per chunk type.
func aggregateByProfile(hits []vecindex.ChunkHit) map[string]*profileAggregate {
	aggregates := make(map[string]*profileAggregate)
	for _, hit := range hits {
		agg := aggregates[hit.Entry.ProfileID]
		if agg == nil {
			agg = &profileAggregate{bestByType: make(map[core.ChunkType]float64)}
			aggregates[hit.Entry.ProfileID] = agg
		}
		score := float64(hit.Score)
		if score > agg.similarity {
			agg.similarity = score
		}
		if score > agg.bestByType[hit.Entry.ChunkType] {
			agg.bestByType[hit.Entry.ChunkType] = score
		}
	}
	return aggregates
}
