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


package integrity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/storage"
	"github.com/poiesic/candidex/vecindex"
)

var (
	// ErrProfileRepositoryRequired is returned when a profile repository is not provided.
	ErrProfileRepositoryRequired = errors.New("profile repository required")

	// ErrIndexRequired is returned when a vector index manager is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrIndexerRequired is returned when a profile indexer is not provided.
	ErrIndexerRequired = errors.New("profile indexer required")
)

// DefaultStopAfter is the run length of consecutive already-indexed records
// that ends a repair scan.
const DefaultStopAfter = 5

// ProfileIndexer turns one stored profile into indexed chunks. The engine
// facade implements this with its chunk-embed-upsert path.
type ProfileIndexer interface {
	IndexProfile(ctx context.Context, profile *core.CandidateProfile) error
}

// Report is a point-in-time drift snapshot.
type Report struct {
	// OrphanVectors lists profile ids present in the index but absent from
	// the store.
	OrphanVectors []string

	// MissingProfiles lists stored profile ids with no indexed chunks, in
	// insertion order.
	MissingProfiles []string

	StoredProfiles  int
	IndexedProfiles int
}

// Clean reports whether store and index are in sync.
func (r *Report) Clean() bool {
	return len(r.OrphanVectors) == 0 && len(r.MissingProfiles) == 0
}

// Summary is the outcome of one repair invocation.
type Summary struct {
	Checked         int
	Added           int
	RemovedOrphans  int
	SkippedExisting int

	// StoppedEarly is set when the scan ended on a run of consecutive
	// already-indexed records rather than on corpus exhaustion.
	StoppedEarly bool

	// Errors records per-profile indexing failures; they do not abort the
	// repair.
	Errors []string
}

// Checker compares the profile store against the vector index and repairs
// the differences it finds.
type Checker struct {
	profiles  storage.ProfileRepository
	index     *vecindex.Manager
	indexer   ProfileIndexer
	stopAfter int
	logger    *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithStopAfter sets the consecutive already-indexed run length that ends a
// repair scan. Values below one fall back to the default.
func WithStopAfter(n int) Option {
	return func(c *Checker) {
		if n >= 1 {
			c.stopAfter = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewChecker creates a new integrity checker.
func NewChecker(profiles storage.ProfileRepository, index *vecindex.Manager, indexer ProfileIndexer, opts ...Option) (*Checker, error) {
	if profiles == nil {
		return nil, ErrProfileRepositoryRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	c := &Checker{
		profiles:  profiles,
		index:     index,
		indexer:   indexer,
		stopAfter: DefaultStopAfter,
		logger:    slog.Default().With("component", "integrity"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Report computes the current drift between store and index.
func (c *Checker) Report(ctx context.Context) (*Report, error) {
	storedIDs, err := c.profiles.ProfileIDs(ctx)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]bool, len(storedIDs))
	for _, id := range storedIDs {
		stored[id] = true
	}

	indexedIDs := c.index.ProfileIDs()
	indexed := make(map[string]bool, len(indexedIDs))
	report := &Report{
		StoredProfiles:  len(storedIDs),
		IndexedProfiles: len(indexedIDs),
	}

	for _, id := range indexedIDs {
		indexed[id] = true
		if !stored[id] {
			report.OrphanVectors = append(report.OrphanVectors, id)
		}
	}
	sort.Strings(report.OrphanVectors)

	for _, id := range storedIDs {
		if !indexed[id] {
			report.MissingProfiles = append(report.MissingProfiles, id)
		}
	}
	return report, nil
}

// Repair removes orphan vectors, re-indexes missing profiles in insertion
// order, and persists the index. The scan stops after stopAfter consecutive
// already-indexed records; a single invocation is bounded-effort, not
// exhaustive.
func (c *Checker) Repair(ctx context.Context) (*Summary, error) {
	report, err := c.Report(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}

	for _, id := range report.OrphanVectors {
		if err := c.index.Delete(id); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("remove orphan %s: %v", id, err))
			continue
		}
		summary.RemovedOrphans++
	}
	if summary.RemovedOrphans > 0 {
		if _, err := c.index.Compact(); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("compact: %v", err))
		}
	}

	consecutive := 0
	err = c.profiles.ScanProfiles(ctx, func(profile *core.CandidateProfile) (bool, error) {
		summary.Checked++

		if c.index.Contains(profile.ID) {
			summary.SkippedExisting++
			consecutive++
			if consecutive >= c.stopAfter {
				summary.StoppedEarly = true
				return false, nil
			}
			return true, nil
		}

		consecutive = 0
		if err := c.indexer.IndexProfile(ctx, profile); err != nil {
			c.logger.Warn("failed to index profile during repair",
				"profileID", profile.ID, "err", err)
			summary.Errors = append(summary.Errors, fmt.Sprintf("index %s: %v", profile.ID, err))
			return true, nil
		}
		summary.Added++
		return true, nil
	})
	if err != nil {
		return summary, err
	}

	if err := c.index.Persist(); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("persist: %v", err))
	}

	c.logger.Info("repair finished",
		"checked", summary.Checked,
		"added", summary.Added,
		"removedOrphans", summary.RemovedOrphans,
		"skippedExisting", summary.SkippedExisting,
		"stoppedEarly", summary.StoppedEarly,
		"errors", len(summary.Errors))
	return summary, nil
}
