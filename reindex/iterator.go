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


package reindex

import (
	"context"

	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/storage"
)

const (
	// DefaultBatchSize is the default number of profiles per batch
	DefaultBatchSize = 25
)

// ProfileIterator walks the profile store in insertion order, handing out
// bounded batches.
type ProfileIterator struct {
	repo      storage.ProfileRepository
	batchSize int
}

// NewProfileIterator creates a new profile iterator.
// batchSize: number of profiles in each batch (must be > 0)
func NewProfileIterator(repo storage.ProfileRepository, batchSize int) *ProfileIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ProfileIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all profiles, calling fn for each batch.
// Iteration stops on the first error from fn. Context cancellation is
// checked between batches.
func (it *ProfileIterator) ForEach(ctx context.Context, fn func([]*core.CandidateProfile) error) error {
	batch := make([]*core.CandidateProfile, 0, it.batchSize)

	err := it.repo.ScanProfiles(ctx, func(profile *core.CandidateProfile) (bool, error) {
		batch = append(batch, profile)
		if len(batch) < it.batchSize {
			return true, nil
		}

		if err := fn(batch); err != nil {
			return false, err
		}
		// fn may retain the slice; start a fresh one
		batch = make([]*core.CandidateProfile, 0, it.batchSize)

		if err := ctx.Err(); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}
