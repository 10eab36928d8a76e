package mock

import (
	"context"
	"strings"
	"sync"
)

// MockReranker is a test double for ai.Reranker.
// Safe for concurrent use.
type MockReranker struct {
	// RerankScoresFunc is called by RerankScores if set.
	// If nil, scores are computed from word overlap.
	RerankScoresFunc func(ctx context.Context, query string, documents []string) ([]float64, error)

	mu        sync.Mutex
	callCount int
}

// NewMockReranker creates a mock reranker with overlap-based default scoring.
// Note: Returns concrete type to allow test assertions.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// RerankScores scores each document by the fraction of query words it contains.
func (m *MockReranker) RerankScores(ctx context.Context, query string, documents []string) ([]float64, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.RerankScoresFunc != nil {
		return m.RerankScoresFunc(ctx, query, documents)
	}

	queryWords := strings.Fields(strings.ToLower(query))
	scores := make([]float64, len(documents))
	for i, doc := range documents {
		if len(queryWords) == 0 {
			continue
		}
		lower := strings.ToLower(doc)
		hits := 0
		for _, w := range queryWords {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		scores[i] = float64(hits) / float64(len(queryWords))
	}
	return scores, nil
}

// CallCount returns the number of times RerankScores was called.
func (m *MockReranker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *MockReranker) Reset() {
	m.mu.Lock()
	m.callCount = 0
	m.mu.Unlock()
	m.RerankScoresFunc = nil
}

// MockExplainer is a test double for ai.Explainer.
// Safe for concurrent use.
type MockExplainer struct {
	// ExplainMatchFunc is called by ExplainMatch if set.
	ExplainMatchFunc func(ctx context.Context, query, candidateSummary string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockExplainer creates a mock explainer returning a fixed template.
// Note: Returns concrete type to allow test assertions.
func NewMockExplainer() *MockExplainer {
	return &MockExplainer{}
}

// ExplainMatch returns a fixed explanation referencing the query.
func (m *MockExplainer) ExplainMatch(ctx context.Context, query, candidateSummary string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExplainMatchFunc != nil {
		return m.ExplainMatchFunc(ctx, query, candidateSummary)
	}
	return "Strong match for: " + query, nil
}

// CallCount returns the number of times ExplainMatch was called.
func (m *MockExplainer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom function.
func (m *MockExplainer) Reset() {
	m.mu.Lock()
	m.callCount = 0
	m.mu.Unlock()
	m.ExplainMatchFunc = nil
}
