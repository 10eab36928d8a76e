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


// Package vecindex provides the chunk-level vector index behind candidate
// retrieval.
//
// A Manager owns one active index structure plus a side table mapping index
// slots to profile ids, chunk types and chunk metadata. Small corpora use an
// exact flat index; once the live vector count crosses the upgrade threshold
// the manager rebuilds into an HNSW graph off to the side and swaps it in.
// Deletions tombstone side-table entries; Compact reclaims them by
// rebuilding with fresh slot numbering.
//
// All vectors are expected to be unit-normalized, so inner product equals
// cosine similarity.
package vecindex
