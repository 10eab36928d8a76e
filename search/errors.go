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


package search

import "errors"

var (
	// ErrProfileRepositoryRequired is returned when a profile repository is not provided.
	ErrProfileRepositoryRequired = errors.New("profile repository required")

	// ErrIndexRequired is returned when a vector index manager is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrSkillEngineRequired is returned when a skill engine is not provided.
	ErrSkillEngineRequired = errors.New("skill engine required")

	// ErrInvalidWeights is returned when the score weights do not form a
	// valid convex combination.
	ErrInvalidWeights = errors.New("invalid score weights")

	// ErrEmptyQuery is returned when neither query text nor filters are given.
	ErrEmptyQuery = errors.New("empty query")
)
