// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.SkillExtractor,
// ai.Reranker, ai.Explainer and ai.Provider for use in unit tests. The mocks
// allow tests to run without external AI service dependencies and enable
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vec, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder(8)
//	mockEmbedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("provider down")
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns unit-normalized deterministic vectors from a text hash
//   - MockSkillExtractor: Splits the query into lowercase terms, dropping stop words
//   - MockReranker: Scores by word overlap between query and document
//   - MockExplainer: Returns a fixed template string
//   - MockProvider: Aggregates all of the above
package mock
