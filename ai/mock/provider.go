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


package mock

import "github.com/poiesic/candidex/ai"

// DefaultDims is the vector dimensionality used by NewMockProvider.
const DefaultDims = 8

// MockProvider is a test double for ai.Provider.
// It aggregates mock service instances.
type MockProvider struct {
	embedder  *MockEmbedder
	extractor *MockSkillExtractor
	reranker  *MockReranker
	explainer *MockExplainer
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use the GetMock* accessors for concrete types in test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder:  NewMockEmbedder(DefaultDims),
		extractor: NewMockSkillExtractor(),
		reranker:  NewMockReranker(),
		explainer: NewMockExplainer(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, extractor *MockSkillExtractor, reranker *MockReranker, explainer *MockExplainer) ai.Provider {
	return &MockProvider{
		embedder:  embedder,
		extractor: extractor,
		reranker:  reranker,
		explainer: explainer,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// SkillExtractor returns the mock skill extractor.
func (p *MockProvider) SkillExtractor() ai.SkillExtractor {
	return p.extractor
}

// Reranker returns the mock reranker.
func (p *MockProvider) Reranker() ai.Reranker {
	return p.reranker
}

// Explainer returns the mock explainer.
func (p *MockProvider) Explainer() ai.Explainer {
	return p.explainer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockExtractor returns the underlying mock extractor for test assertions.
func (p *MockProvider) GetMockExtractor() *MockSkillExtractor {
	return p.extractor
}

// GetMockReranker returns the underlying mock reranker for test assertions.
func (p *MockProvider) GetMockReranker() *MockReranker {
	return p.reranker
}

// GetMockExplainer returns the underlying mock explainer for test assertions.
func (p *MockProvider) GetMockExplainer() *MockExplainer {
	return p.explainer
}
