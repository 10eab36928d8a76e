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


package core

import "errors"

// Domain errors
var (
	// ErrInvalidProfile indicates a CandidateProfile failed validation.
	ErrInvalidProfile = errors.New("invalid candidate profile")

	// ErrEmptyProfileID indicates the profile ID field is empty.
	ErrEmptyProfileID = errors.New("profile id cannot be empty")

	// ErrEmptyContent indicates a profile has no indexable text.
	ErrEmptyContent = errors.New("profile content cannot be empty")

	// ErrInvalidChunkType indicates an unrecognized ChunkType value.
	ErrInvalidChunkType = errors.New("invalid chunk type")

	// ErrEmbeddingFailed indicates the embedding provider returned an error
	// or a malformed vector.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrProviderUnavailable indicates an AI provider could not be reached.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrDimensionMismatch indicates a vector's dimensionality does not
	// match the index configuration.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCorruptState indicates persisted index state could not be decoded.
	ErrCorruptState = errors.New("corrupt index state")
)
