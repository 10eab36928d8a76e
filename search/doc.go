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


// Package search provides hybrid candidate retrieval over the vector index.
//
// The Engine type implements a multi-stage query pipeline that combines:
//   - Skill extraction and expansion from free-form query text
//   - Advisory structural prefiltering against the profile store
//   - Approximate nearest-neighbor chunk search over weighted term embeddings
//   - Optional cross-encoder reranking of candidate summaries
//   - Hierarchical aggregation of chunk scores by section type
//
// Per-profile signals are blended into a single score using configurable
// weights. Provider failures along the way degrade individual stages rather
// than failing the query; the response names every stage that was skipped.
package search
