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


// Package ai provides abstractions for the AI services used in Candidex.
//
// This package defines interfaces for text embeddings, skill extraction,
// relevance reranking and match explanations. It follows the dependency
// inversion principle: the retrieval pipeline depends on these abstractions
// rather than on a concrete provider, so providers can be swapped without
// touching the pipeline.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.Provider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockSkillExtractor)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public methods (CallCount, WithXFunc, Reset, etc.).
//
//	mockEmbed := mock.NewMockEmbedder()  // returns *mock.MockEmbedder
//	mockEmbed.WithEmbedTextFunc(...)     // needs concrete type
//	count := mockEmbed.CallCount()       // test assertion
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithDimensions(768))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "senior go developer")
//	skills, err := provider.SkillExtractor().ExtractSkills(ctx, "python dev with aws and airflow")
package ai
