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

import (
	"fmt"
	"strings"
)

// MinIndexableTextLen is the minimum raw-text length required for a profile
// with no structured fields to produce any chunks.
const MinIndexableTextLen = 10

// ValidateProfile validates a CandidateProfile according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - at least one of Skills, Companies, Certifications, Education or a
//     RawText of MinIndexableTextLen+ characters must be present
//
// NOT validated (populated by the pipeline):
//   - SkillDomains (inferred during indexing when absent)
func ValidateProfile(profile *CandidateProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}

	if strings.TrimSpace(profile.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyProfileID)
	}

	if !HasIndexableContent(profile) {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, ErrEmptyContent)
	}

	return nil
}

// HasIndexableContent reports whether the profile carries enough material
// for the chunker to produce at least one chunk.
func HasIndexableContent(profile *CandidateProfile) bool {
	if len(profile.Skills) > 0 || len(profile.Companies) > 0 ||
		len(profile.Certifications) > 0 || len(profile.Education) > 0 {
		return true
	}
	return len(strings.TrimSpace(profile.RawText)) >= MinIndexableTextLen
}

// ValidateChunkType validates that a ChunkType has a recognized value.
func ValidateChunkType(t ChunkType) error {
	if t < ChunkTypeSkills || t > ChunkTypeRaw {
		return fmt.Errorf("%w: value %d", ErrInvalidChunkType, t)
	}
	return nil
}
