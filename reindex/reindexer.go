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
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/storage"
	"github.com/poiesic/candidex/vecindex"
)

// ProfileIndexer turns one stored profile into indexed chunks. The engine
// facade implements this with its chunk-embed-upsert path.
type ProfileIndexer interface {
	IndexProfile(ctx context.Context, profile *core.CandidateProfile) error
}

// Config holds configuration for the reindexing operation.
type Config struct {
	// BatchSize is the number of profiles to process in each batch
	BatchSize int

	// PoolSize is the number of concurrent workers within a batch.
	// Default is runtime.NumCPU() / 2, with a minimum of 1.
	PoolSize int

	// ReportInterval is how often to report progress (number of profiles)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return &Config{
		BatchSize:      DefaultBatchSize,
		PoolSize:       poolSize,
		ReportInterval: 25,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Summary is the outcome of one reindexing run.
type Summary struct {
	Total    int
	Indexed  int
	Failed   int
	Failures []string
	Elapsed  time.Duration
}

// Reindexer rebuilds the vector index from every stored profile.
type Reindexer struct {
	profiles storage.ProfileRepository
	versions storage.VersionRepository
	index    *vecindex.Manager
	indexer  ProfileIndexer
	config   *Config
	progress io.Writer
	pool     *ants.Pool
	iterator *ProfileIterator
	logger   *slog.Logger
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(
	profiles storage.ProfileRepository,
	versions storage.VersionRepository,
	index *vecindex.Manager,
	indexer ProfileIndexer,
	config *Config,
	progress io.Writer,
) (*Reindexer, error) {
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}
	if versions == nil {
		return nil, ErrVersionRepositoryRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	poolSize := config.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &Reindexer{
		profiles: profiles,
		versions: versions,
		index:    index,
		indexer:  indexer,
		config:   config,
		progress: progress,
		pool:     pool,
		iterator: NewProfileIterator(profiles, config.BatchSize),
		logger:   slog.Default().With("component", "reindex"),
	}, nil
}

// Release frees the worker pool. The reindexer must not be used afterwards.
func (r *Reindexer) Release() {
	r.pool.Release()
}

// Run rebuilds the index from every stored profile and persists the given
// version marker on success. Per-profile failures are recorded in the
// summary, not escalated; cancellation is honored between batches.
func (r *Reindexer) Run(ctx context.Context, version *core.IndexVersion) (*Summary, error) {
	total, err := r.profiles.CountProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count profiles: %w", err)
	}

	summary := &Summary{Total: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No profiles found in store (0 profiles)\n")
		if err := r.versions.SaveIndexVersion(ctx, version); err != nil {
			return summary, err
		}
		return summary, nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d profiles (batch size: %d, workers: %d)\n",
		total, r.config.BatchSize, r.config.PoolSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(batch []*core.CandidateProfile) error {
		if err := r.processBatch(ctx, batch, summary); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(batch)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return summary, err
	}

	tracker.Finish()
	summary.Elapsed = tracker.Elapsed()

	if err := r.index.Persist(); err != nil {
		return summary, fmt.Errorf("failed to persist index: %w", err)
	}
	if err := r.versions.SaveIndexVersion(ctx, version); err != nil {
		return summary, fmt.Errorf("failed to save index version: %w", err)
	}

	fmt.Fprintf(r.progress, "Reindex complete. Indexed %d of %d profiles in %v (%.1f profiles/sec)\n",
		summary.Indexed, total, summary.Elapsed.Round(time.Second),
		float64(summary.Indexed)/summary.Elapsed.Seconds())
	if summary.Failed > 0 {
		fmt.Fprintf(r.progress, "%d profiles failed; run repair to retry them\n", summary.Failed)
	}

	return summary, nil
}

// processBatch indexes one batch through the worker pool, retrying each
// profile with exponential backoff.
func (r *Reindexer) processBatch(ctx context.Context, batch []*core.CandidateProfile, summary *Summary) error {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, profile := range batch {
		profile := profile
		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()

			err := RetryWithBackoff(ctx, func() error {
				return r.indexer.IndexProfile(ctx, profile)
			}, r.config.MaxRetries, r.config.RetryDelay)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("failed to index profile",
					"profileID", profile.ID, "err", err)
				summary.Failed++
				summary.Failures = append(summary.Failures, fmt.Sprintf("%s: %v", profile.ID, err))
				return
			}
			summary.Indexed++
		})
		if err != nil {
			wg.Done()
			return err
		}
	}

	wg.Wait()
	return nil
}

// NeedsReindex reports whether the persisted version marker differs from the
// given embedding model and dimensionality. A missing marker on a non-empty
// corpus counts as needing a reindex.
func NeedsReindex(ctx context.Context, versions storage.VersionRepository, model string, dimensions int) (bool, error) {
	version, err := versions.LoadIndexVersion(ctx)
	if err != nil {
		return false, err
	}
	if version == nil {
		return true, nil
	}
	return version.EmbeddingModel != model || version.Dimensions != dimensions, nil
}
