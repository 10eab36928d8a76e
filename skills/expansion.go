package skills

import (
	"context"
	"sort"
	"strings"

	"github.com/poiesic/candidex/core"
)

// ExpansionStrategy produces related-term candidates for a set of input
// skills. Strategies are tried in order with early exit once enough terms
// are collected; every candidate is still validated against the corpus
// vocabulary by the engine before acceptance.
type ExpansionStrategy interface {
	Name() string
	Expand(ctx context.Context, terms []string, limit int) ([]string, error)
}

// graphStrategy expands via co-occurrence graph neighbors, ranked by total
// edge weight. Cheap: no provider calls.
type graphStrategy struct {
	engine *Engine
}

func (s *graphStrategy) Name() string { return "graph" }

func (s *graphStrategy) Expand(ctx context.Context, terms []string, limit int) ([]string, error) {
	graph, err := s.engine.graphSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return graph.Related(terms, limit), nil
}

// embeddingStrategy expands to the vocabulary terms nearest the input
// skills by embedding similarity.
type embeddingStrategy struct {
	engine *Engine
}

func (s *embeddingStrategy) Name() string { return "embedding" }

func (s *embeddingStrategy) Expand(ctx context.Context, terms []string, limit int) ([]string, error) {
	vocabulary, err := s.engine.vocab.Terms(ctx)
	if err != nil {
		return nil, err
	}
	if len(vocabulary) == 0 {
		return nil, nil
	}

	queryVec, err := s.engine.embedder.EmbedText(ctx, strings.Join(terms, ", "))
	if err != nil {
		return nil, err
	}

	inputs := make(map[string]bool, len(terms))
	for _, t := range terms {
		inputs[t] = true
	}
	candidates := make([]string, 0, len(vocabulary))
	for term := range vocabulary {
		if !inputs[term] {
			candidates = append(candidates, term)
		}
	}
	sort.Strings(candidates)
	if len(candidates) == 0 {
		return nil, nil
	}

	vectors, err := s.engine.embedder.EmbedTexts(ctx, candidates)
	if err != nil {
		return nil, err
	}

	type scored struct {
		term string
		sim  float32
	}
	ranked := make([]scored, 0, len(candidates))
	for i, term := range candidates {
		sim := core.Dot(queryVec, vectors[i])
		if float64(sim) < s.engine.cfg.SemanticFloor {
			continue
		}
		ranked = append(ranked, scored{term: term, sim: sim})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].sim > ranked[j].sim })

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	result := make([]string, 0, len(ranked))
	for _, r := range ranked {
		result = append(result, r.term)
	}
	return result, nil
}

// llmStrategy asks the completion provider for related terms. Last resort:
// slowest and least grounded in the corpus.
type llmStrategy struct {
	engine *Engine
}

func (s *llmStrategy) Name() string { return "llm" }

func (s *llmStrategy) Expand(ctx context.Context, terms []string, limit int) ([]string, error) {
	return s.engine.extractor.SuggestRelated(ctx, terms, limit)
}
