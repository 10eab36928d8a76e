package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// SkillExtractor pulls skill terms out of free-form recruiter queries.
// Implementations must be thread-safe for concurrent use.
type SkillExtractor interface {
	// ExtractSkills analyzes a query and returns the skill and technology
	// terms it mentions, preserving multi-word terms ("machine learning"
	// stays one term). Terms are lowercased, most specific first.
	// Returns an empty slice if no skills are found.
	// Returns an error if extraction fails.
	ExtractSkills(ctx context.Context, query string) ([]string, error)

	// SuggestRelated returns up to max skills related to the given ones
	// (tools, frameworks and adjacent specialties), excluding the inputs.
	SuggestRelated(ctx context.Context, skills []string, max int) ([]string, error)
}

// Reranker scores candidate documents against a query for relevance.
// Implementations must be thread-safe for concurrent use.
type Reranker interface {
	// RerankScores returns one relevance score in [0, 1] per document,
	// in input order. Returns an error if scoring fails; callers are
	// expected to degrade rather than fail the request.
	RerankScores(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Explainer produces short human-readable match explanations.
// Implementations must be thread-safe for concurrent use.
type Explainer interface {
	// ExplainMatch describes in two or three sentences why the candidate
	// summary matches the query.
	ExplainMatch(ctx context.Context, query, candidateSummary string) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages service instances, ensuring
// they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// SkillExtractor returns the skill extraction service.
	// The returned SkillExtractor is safe for concurrent use.
	SkillExtractor() SkillExtractor

	// Reranker returns the relevance scoring service.
	// The returned Reranker is safe for concurrent use.
	Reranker() Reranker

	// Explainer returns the match explanation service.
	// The returned Explainer is safe for concurrent use.
	Explainer() Explainer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
