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


package skills

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/candidex/ai"
	"github.com/poiesic/candidex/cache"
	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/storage"
)

// Config holds the skill engine settings.
type Config struct {
	// GraphTTL bounds how long a co-occurrence graph is served before the
	// next full corpus rebuild.
	GraphTTL time.Duration

	// VocabularyTTL bounds how long a corpus vocabulary snapshot is served.
	VocabularyTTL time.Duration

	// MinTerms and MaxTerms bound the size of an expansion result.
	MinTerms int
	MaxTerms int

	// DomainThreshold is the minimum centroid similarity for embedding-based
	// domain detection to accept a domain.
	DomainThreshold float64

	// SemanticFloor is the minimum similarity for an embedding-nearest
	// vocabulary term to qualify as an expansion candidate.
	SemanticFloor float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithGraphTTL sets the co-occurrence graph rebuild interval.
func WithGraphTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.GraphTTL = ttl
	}
}

// WithVocabularyTTL sets the vocabulary rescan interval.
func WithVocabularyTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.VocabularyTTL = ttl
	}
}

// WithTermBounds sets the expansion result size bounds.
func WithTermBounds(minTerms, maxTerms int) ConfigOption {
	return func(c *Config) {
		c.MinTerms = minTerms
		c.MaxTerms = maxTerms
	}
}

// WithDomainThreshold sets the centroid acceptance threshold.
func WithDomainThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		c.DomainThreshold = threshold
	}
}

// DefaultConfig returns the production skill engine settings.
func DefaultConfig() *Config {
	return &Config{
		GraphTTL:        6 * time.Hour,
		VocabularyTTL:   DefaultVocabularyTTL,
		MinTerms:        8,
		MaxTerms:        12,
		DomainThreshold: 0.7,
		SemanticFloor:   0.5,
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

// Engine extracts, expands, and classifies skills against the profile
// corpus. Safe for concurrent use.
type Engine struct {
	cfg       *Config
	profiles  storage.ProfileRepository
	embedder  ai.Embedder
	extractor ai.SkillExtractor
	caches    *cache.Store
	vocab     *Vocabulary
	logger    *slog.Logger

	strategies []ExpansionStrategy

	graphMu      sync.Mutex
	graph        *Graph
	graphBuiltAt time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStrategies replaces the default expansion strategy order.
func WithStrategies(strategies ...ExpansionStrategy) Option {
	return func(e *Engine) {
		e.strategies = strategies
	}
}

// NewEngine creates a skill engine over the given corpus and providers.
func NewEngine(profiles storage.ProfileRepository, embedder ai.Embedder, extractor ai.SkillExtractor, caches *cache.Store, cfg *Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		cfg:       cfg,
		profiles:  profiles,
		embedder:  embedder,
		extractor: extractor,
		caches:    caches,
		vocab:     NewVocabulary(profiles, cfg.VocabularyTTL),
		logger:    slog.Default().With("component", "skills"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.strategies == nil {
		e.strategies = []ExpansionStrategy{
			&graphStrategy{engine: e},
			&embeddingStrategy{engine: e},
			&llmStrategy{engine: e},
		}
	}
	return e
}

// Vocabulary returns the engine's corpus vocabulary.
func (e *Engine) Vocabulary() *Vocabulary {
	return e.vocab
}

// ClearAllCaches drops the vocabulary snapshot and the co-occurrence graph
// so the next operation rescans the corpus instead of waiting out the TTLs.
// The cache.Store layers are owned by the caller and cleared separately.
func (e *Engine) ClearAllCaches() {
	e.vocab.Invalidate()

	e.graphMu.Lock()
	e.graph = nil
	e.graphBuiltAt = time.Time{}
	e.graphMu.Unlock()
}

// queryStopWords are dropped when falling back to literal query terms.
var queryStopWords = map[string]bool{
	"in": true, "with": true, "for": true, "and": true, "or": true,
	"the": true, "a": true, "an": true, "of": true, "to": true,
	"from": true, "by": true,
}

// fallbackSkills derives a single skill phrase from the query by stripping
// stop words, preserving multi-word combinations as one unit.
func fallbackSkills(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(strings.TrimSpace(query))) {
		if !queryStopWords[w] {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil
	}
	return []string{strings.Join(words, " ")}
}

// ExtractSkills extracts skill terms from free query text, preserving
// multi-word terms as single units, and validates them against the corpus
// vocabulary. Results are cached per normalized query. Provider failure
// degrades to a stop-word fallback rather than returning an error.
func (e *Engine) ExtractSkills(ctx context.Context, query string) ([]string, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil, nil
	}

	key := core.HashFromContent("extract\x00" + normalized)
	if cached, ok := e.caches.Extraction.Get(key); ok {
		return append([]string(nil), cached...), nil
	}

	extracted, err := e.extractor.ExtractSkills(ctx, query)
	if err != nil {
		e.logger.Warn("skill extraction failed, using fallback", "err", err)
		return fallbackSkills(query), nil
	}

	vocabulary, vocabErr := e.vocab.Terms(ctx)
	if vocabErr != nil {
		e.logger.Warn("vocabulary scan failed, skipping validation", "err", vocabErr)
	}

	var validated []string
	seen := make(map[string]bool)
	for _, term := range extracted {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if vocabulary != nil {
			if match, ok := validateTerm(term, vocabulary); ok {
				term = match
			}
			// An unmatched term is kept as-is: it may be a skill the
			// corpus has not seen yet.
		}
		if !seen[term] {
			seen[term] = true
			validated = append(validated, term)
		}
	}

	if len(validated) == 0 {
		validated = fallbackSkills(query)
	}
	if len(validated) > 0 {
		e.caches.Extraction.Put(key, append([]string(nil), validated...))
	}
	return validated, nil
}

// RebuildGraph forces a full co-occurrence graph rebuild.
func (e *Engine) RebuildGraph(ctx context.Context) error {
	graph, err := BuildGraph(ctx, e.profiles)
	if err != nil {
		return err
	}

	e.graphMu.Lock()
	e.graph = graph
	e.graphBuiltAt = time.Now()
	e.graphMu.Unlock()

	e.logger.Info("rebuilt skill graph", "skills", graph.Skills(), "edges", graph.Edges())
	return nil
}

// graphSnapshot returns the current graph, rebuilding when stale. The stale
// graph keeps serving if a rebuild fails.
func (e *Engine) graphSnapshot(ctx context.Context) (*Graph, error) {
	e.graphMu.Lock()
	graph := e.graph
	stale := graph == nil || time.Since(e.graphBuiltAt) >= e.cfg.GraphTTL
	e.graphMu.Unlock()

	if !stale {
		return graph, nil
	}
	if err := e.RebuildGraph(ctx); err != nil {
		if graph != nil {
			e.logger.Warn("graph rebuild failed, serving stale graph", "err", err)
			return graph, nil
		}
		return nil, err
	}

	e.graphMu.Lock()
	graph = e.graph
	e.graphMu.Unlock()
	return graph, nil
}

// ExpandSkills grows a skill list with related terms. Strategies run in
// order until MinTerms is reached; every candidate must exist in the corpus
// vocabulary. Input terms are always included and ranked first. Pass zero
// bounds to use the configured defaults.
func (e *Engine) ExpandSkills(ctx context.Context, skillTerms []string, minTerms, maxTerms int) ([]string, error) {
	if minTerms <= 0 {
		minTerms = e.cfg.MinTerms
	}
	if maxTerms <= 0 {
		maxTerms = e.cfg.MaxTerms
	}
	if maxTerms < minTerms {
		maxTerms = minTerms
	}

	inputs := make([]string, 0, len(skillTerms))
	seen := make(map[string]bool)
	for _, s := range skillTerms {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			inputs = append(inputs, s)
		}
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	vocabulary, err := e.vocab.Terms(ctx)
	if err != nil {
		e.logger.Warn("vocabulary scan failed, returning input terms", "err", err)
		return inputs, nil
	}

	key := core.HashFromContent("expand\x00" + strings.Join(inputs, ","))
	if cached, ok := e.caches.Expansion.Get(key); ok {
		// Revalidate against the current vocabulary; terms can disappear
		// as profiles are deleted.
		valid := make([]string, 0, len(cached))
		for _, s := range cached {
			if seen[s] || vocabulary[s] {
				valid = append(valid, s)
			}
		}
		if len(valid) >= minTerms {
			if len(valid) > maxTerms {
				valid = valid[:maxTerms]
			}
			return valid, nil
		}
	}

	result := append([]string(nil), inputs...)
	for _, strategy := range e.strategies {
		if len(result) >= minTerms {
			break
		}
		candidates, err := strategy.Expand(ctx, inputs, maxTerms*2)
		if err != nil {
			e.logger.Warn("expansion strategy failed",
				"strategy", strategy.Name(), "err", err)
			continue
		}
		for _, c := range candidates {
			c = strings.ToLower(strings.TrimSpace(c))
			if c == "" || seen[c] || !vocabulary[c] {
				continue
			}
			seen[c] = true
			result = append(result, c)
			if len(result) >= maxTerms {
				break
			}
		}
	}

	if len(result) > maxTerms {
		result = result[:maxTerms]
	}
	e.caches.Expansion.Put(key, append([]string(nil), result...))
	return result, nil
}

// DetectDomain classifies text into a query-level domain. The keyword table
// answers first; otherwise the nearest domain centroid by embedding
// similarity wins when it clears the acceptance threshold. Returns empty
// when no domain is confident enough.
func (e *Engine) DetectDomain(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if domain := matchQueryDomain(text); domain != "" {
		return domain, nil
	}

	queryVec, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return "", err
	}

	best := ""
	bestSim := float32(-1)
	for _, domain := range queryDomainNames() {
		centroid, err := e.embedder.EmbedText(ctx, domainCentroidText(domain))
		if err != nil {
			return "", err
		}
		if sim := core.Dot(queryVec, centroid); sim > bestSim {
			bestSim = sim
			best = domain
		}
	}

	if float64(bestSim) > e.cfg.DomainThreshold {
		return best, nil
	}
	return "", nil
}

// domainCentroidText builds the representative text a domain centroid is
// embedded from.
func domainCentroidText(domain string) string {
	return domain + " professional with expertise in related technologies"
}

// Similarity computes the cosine similarity between two texts, clamped to
// [0, 1] and cached by content pair.
func (e *Engine) Similarity(ctx context.Context, a, b string) (float64, error) {
	first := strings.ToLower(strings.TrimSpace(a))
	second := strings.ToLower(strings.TrimSpace(b))
	if first > second {
		first, second = second, first
	}

	key := core.HashFromContent("sim\x00" + first + "\x00" + second)
	if cached, ok := e.caches.Similarity.Get(key); ok {
		return cached, nil
	}

	vectors, err := e.embedder.EmbedTexts(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	sim := float64(core.Dot(vectors[0], vectors[1]))
	if sim < 0 {
		sim = 0
	} else if sim > 1 {
		sim = 1
	}

	e.caches.Similarity.Put(key, sim)
	return sim, nil
}

// DomainSimilarity scores how well a profile's domain matches the query's
// domain, in [0, 1]. Neutral 0.5 when the query domain cannot be detected.
func (e *Engine) DomainSimilarity(ctx context.Context, query string, profileSkills []string, profileText string) (float64, error) {
	queryDomain, err := e.DetectDomain(ctx, query)
	if err != nil {
		return 0, err
	}
	if queryDomain == "" {
		return 0.5, nil
	}

	profileDomainText := strings.TrimSpace(strings.Join(profileSkills, " ") + " " + profileText)
	if profileDomainText == "" {
		return 0, nil
	}

	profileDomain, err := e.DetectDomain(ctx, profileDomainText)
	if err != nil {
		return 0, err
	}
	if profileDomain == "" {
		return e.Similarity(ctx, query, profileDomainText)
	}
	if profileDomain == queryDomain {
		return 1.0, nil
	}
	return e.Similarity(ctx, queryDomain, profileDomain)
}

// TitleAlignment scores how well the query's role phrasing matches a
// profile's name and skills, in [0, 1].
func (e *Engine) TitleAlignment(ctx context.Context, query, profileName string, profileSkills []string) (float64, error) {
	profileText := strings.TrimSpace(profileName + " " + strings.Join(profileSkills, " "))
	if profileText == "" {
		return 0, nil
	}
	return e.Similarity(ctx, query, profileText)
}

// SkillAlignment scores the semantic overlap between two skill sets, in [0, 1].
func (e *Engine) SkillAlignment(ctx context.Context, querySkills, profileSkills []string) (float64, error) {
	if len(querySkills) == 0 || len(profileSkills) == 0 {
		return 0, nil
	}
	return e.Similarity(ctx, strings.Join(querySkills, " "), strings.Join(profileSkills, " "))
}
