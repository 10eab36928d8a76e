package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields and is safe for
// concurrent use.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	dims      int
	mu        sync.Mutex
	callCount int
	textCount int
}

// NewMockEmbedder creates a mock embedder producing vectors of the given
// dimensionality. Note: Returns concrete type to allow test assertions.
func NewMockEmbedder(dims int) *MockEmbedder {
	return &MockEmbedder{dims: dims}
}

// EmbedText generates a deterministic unit vector based on the text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.count(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}

	return DeterministicVector(text, m.dims), nil
}

// EmbedTexts generates deterministic unit vectors for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.count(len(texts))

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = DeterministicVector(text, m.dims)
	}
	return vecs, nil
}

func (m *MockEmbedder) count(texts int) {
	m.mu.Lock()
	m.callCount++
	m.textCount += texts
	m.mu.Unlock()
}

// CallCount returns the number of times any embed method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// TextCount returns the total number of texts the provider was asked to
// embed, across all calls. Cache-hit tests assert on this.
func (m *MockEmbedder) TextCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.textCount
}

// Reset clears counters and custom functions.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	m.callCount = 0
	m.textCount = 0
	m.mu.Unlock()
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// DeterministicVector creates a unit-normalized embedding vector from text.
// It uses an FNV hash so the same text always produces the same vector, and
// different texts almost always differ.
func DeterministicVector(text string, dims int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dims)
	for i := 0; i < dims; i++ {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%2000)/1000.0 - 1.0
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
