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


package vecindex

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/poiesic/candidex/core"
)

// SlotEntry maps an index slot back to its profile chunk.
type SlotEntry struct {
	ProfileID  string
	ChunkType  core.ChunkType
	ChunkIndex int
	ChunkKey   core.HashKey
	Meta       core.ChunkMeta
	Tombstoned bool
}

// ChunkHit is a chunk-level search result.
type ChunkHit struct {
	Entry SlotEntry
	Score float32
}

// ProfileMatch is a profile-level search result, deduplicated by external
// id keeping the maximum chunk similarity.
type ProfileMatch struct {
	ProfileID string
	Score     float32
}

// Stats is a snapshot of the manager's state.
type Stats struct {
	Kind       string
	LiveChunks int
	Tombstones int
	Profiles   int
	Dimensions int
}

// Config holds the index manager settings.
type Config struct {
	// Dimensions is the vector dimensionality every chunk must match.
	Dimensions int

	// UpgradeThreshold is the live vector count at which the flat index is
	// rebuilt into an HNSW graph.
	UpgradeThreshold int

	// Oversample multiplies k when fetching chunk candidates, so that
	// tombstones, filters and per-profile duplicates still leave enough
	// distinct results.
	Oversample int

	// HNSW holds the graph construction knobs.
	HNSW HNSWConfig

	// Dir is the persistence directory. Empty disables persistence.
	Dir string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithUpgradeThreshold sets the flat-to-HNSW upgrade point.
func WithUpgradeThreshold(n int) ConfigOption {
	return func(c *Config) {
		c.UpgradeThreshold = n
	}
}

// WithOversample sets the candidate oversampling factor.
func WithOversample(n int) ConfigOption {
	return func(c *Config) {
		c.Oversample = n
	}
}

// WithHNSW sets the graph construction knobs.
func WithHNSW(cfg HNSWConfig) ConfigOption {
	return func(c *Config) {
		c.HNSW = cfg
	}
}

// WithDir sets the persistence directory.
func WithDir(dir string) ConfigOption {
	return func(c *Config) {
		c.Dir = dir
	}
}

// DefaultConfig returns the production index settings for the given
// dimensionality.
func DefaultConfig(dimensions int) *Config {
	return &Config{
		Dimensions:       dimensions,
		UpgradeThreshold: 1000,
		Oversample:       3,
		HNSW:             DefaultHNSWConfig(),
	}
}

// NewConfig creates a Config with default values and applies the provided options.
func NewConfig(dimensions int, opts ...ConfigOption) *Config {
	cfg := DefaultConfig(dimensions)
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Manager owns the active index structure and its side table. All methods
// are safe for concurrent use: reads share a lock, writes are exclusive,
// and structure rebuilds happen off to the side before being swapped in.
type Manager struct {
	mu        sync.RWMutex
	cfg       *Config
	idx       index
	flat      *flatIndex // non-nil while idx is the flat index
	sideTable []SlotEntry
	vectors   [][]float32
	byProfile map[string][]int
	live      int
	logger    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager and, when the config names a persistence
// directory, loads previously persisted state. Unreadable state logs a
// warning and starts fresh; a dimensionality mismatch with the config does
// the same. Startup never fails for bad persisted state.
func NewManager(cfg *Config, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("vecindex: config is required")
	}
	if cfg.Dimensions <= 0 {
		return nil, errors.New("vecindex: Dimensions must be positive")
	}
	if cfg.UpgradeThreshold <= 0 {
		return nil, errors.New("vecindex: UpgradeThreshold must be positive")
	}
	if cfg.Oversample <= 0 {
		return nil, errors.New("vecindex: Oversample must be positive")
	}

	flat := newFlatIndex()
	m := &Manager{
		cfg:       cfg,
		idx:       flat,
		flat:      flat,
		byProfile: make(map[string][]int),
		logger:    slog.Default().With("component", "vecindex"),
	}
	for _, opt := range opts {
		opt(m)
	}

	if cfg.Dir != "" {
		if err := m.load(); err != nil {
			switch {
			case errors.Is(err, core.ErrDimensionMismatch):
				m.logger.Warn("persisted index has wrong dimensionality, starting empty", "err", err)
			case errors.Is(err, core.ErrCorruptState):
				m.logger.Warn("persisted index is unreadable, starting fresh", "err", err)
			default:
				m.logger.Warn("could not load persisted index, starting fresh", "err", err)
			}
			m.reset()
		}
	}

	return m, nil
}

// reset drops all in-memory state.
func (m *Manager) reset() {
	flat := newFlatIndex()
	m.idx = flat
	m.flat = flat
	m.sideTable = nil
	m.vectors = nil
	m.byProfile = make(map[string][]int)
	m.live = 0
}

// Upsert replaces all indexed chunks of a profile with the given ones.
// Re-adding a profile never duplicates it. Chunks must carry embeddings of
// the configured dimensionality.
func (m *Manager) Upsert(profileID string, chunks []core.Chunk) error {
	for _, ch := range chunks {
		if len(ch.Embedding) != m.cfg.Dimensions {
			return fmt.Errorf("%w: chunk %q has %d dims, index has %d",
				core.ErrDimensionMismatch, ch.Type, len(ch.Embedding), m.cfg.Dimensions)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.upsertLocked(profileID, chunks)
	m.maybeUpgradeLocked()
	return m.persistLocked()
}

// UpsertBatch indexes several profiles under one lock and persists once.
// Used by bulk pipelines.
func (m *Manager) UpsertBatch(batch map[string][]core.Chunk) error {
	for id, chunks := range batch {
		for _, ch := range chunks {
			if len(ch.Embedding) != m.cfg.Dimensions {
				return fmt.Errorf("%w: profile %s chunk %q has %d dims, index has %d",
					core.ErrDimensionMismatch, id, ch.Type, len(ch.Embedding), m.cfg.Dimensions)
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, chunks := range batch {
		m.upsertLocked(id, chunks)
	}
	m.maybeUpgradeLocked()
	return m.persistLocked()
}

func (m *Manager) upsertLocked(profileID string, chunks []core.Chunk) {
	m.removeProfileLocked(profileID)

	slots := make([]int, 0, len(chunks))
	for _, ch := range chunks {
		slot := len(m.sideTable)
		m.sideTable = append(m.sideTable, SlotEntry{
			ProfileID:  profileID,
			ChunkType:  ch.Type,
			ChunkIndex: ch.Index,
			ChunkKey:   ch.Key(),
			Meta:       ch.Meta,
		})
		m.vectors = append(m.vectors, ch.Embedding)
		m.idx.Add(slot, ch.Embedding)
		slots = append(slots, slot)
		m.live++
	}
	if len(slots) > 0 {
		m.byProfile[profileID] = slots
	}
}

// Delete tombstones all chunks of a profile. Deleting an absent profile is
// a no-op. Physical reclamation happens in Compact.
func (m *Manager) Delete(profileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.removeProfileLocked(profileID) {
		return nil
	}
	return m.persistLocked()
}

// removeProfileLocked tombstones a profile's slots. Reports whether any
// slot was live.
func (m *Manager) removeProfileLocked(profileID string) bool {
	slots, ok := m.byProfile[profileID]
	if !ok {
		return false
	}
	removed := false
	for _, slot := range slots {
		if m.sideTable[slot].Tombstoned {
			continue
		}
		m.sideTable[slot].Tombstoned = true
		m.live--
		removed = true
		if m.flat != nil {
			m.flat.Remove(slot)
		}
	}
	delete(m.byProfile, profileID)
	return removed
}

// maybeUpgradeLocked rebuilds the flat index into an HNSW graph once the
// live count crosses the upgrade threshold. The graph is built off to the
// side and swapped in.
func (m *Manager) maybeUpgradeLocked() {
	if m.flat == nil || m.live < m.cfg.UpgradeThreshold {
		return
	}

	m.logger.Info("upgrading index structure",
		"live", m.live, "threshold", m.cfg.UpgradeThreshold)

	h := newHNSWIndex(m.cfg.HNSW)
	for slot, entry := range m.sideTable {
		if entry.Tombstoned {
			continue
		}
		h.Add(slot, m.vectors[slot])
	}
	m.idx = h
	m.flat = nil
}

// SearchChunks returns chunk-level hits for query, oversampled to
// Oversample*k, excluding tombstones. When allowed is non-nil only chunks
// of the allowed profiles are returned.
func (m *Manager) SearchChunks(query []float32, k int, allowed map[string]bool) ([]ChunkHit, error) {
	if len(query) != m.cfg.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d",
			core.ErrDimensionMismatch, len(query), m.cfg.Dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.live == 0 {
		return nil, nil
	}

	fetch := k * m.cfg.Oversample
	// The HNSW graph still contains tombstoned slots; fetch extra so
	// filtering cannot starve the result set.
	if m.flat == nil {
		fetch += len(m.sideTable) - m.live
	}

	hits := make([]ChunkHit, 0, k*m.cfg.Oversample)
	for _, s := range m.idx.Search(query, fetch) {
		entry := m.sideTable[s.Slot]
		if entry.Tombstoned {
			continue
		}
		if allowed != nil && !allowed[entry.ProfileID] {
			continue
		}
		hits = append(hits, ChunkHit{Entry: entry, Score: s.Score})
		if len(hits) >= k*m.cfg.Oversample {
			break
		}
	}
	return hits, nil
}

// Search returns up to k profiles by best chunk similarity, deduplicated
// by profile id keeping the maximum score.
func (m *Manager) Search(query []float32, k int, allowed map[string]bool) ([]ProfileMatch, error) {
	hits, err := m.SearchChunks(query, k, allowed)
	if err != nil {
		return nil, err
	}

	best := make(map[string]float32)
	order := make([]string, 0, len(hits))
	for _, h := range hits {
		score, seen := best[h.Entry.ProfileID]
		if !seen {
			order = append(order, h.Entry.ProfileID)
		}
		if !seen || h.Score > score {
			best[h.Entry.ProfileID] = h.Score
		}
	}

	matches := make([]ProfileMatch, 0, len(order))
	for _, id := range order {
		matches = append(matches, ProfileMatch{ProfileID: id, Score: best[id]})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Compact rebuilds the index without tombstoned slots, renumbering the
// side table. Returns the number of reclaimed slots.
func (m *Manager) Compact() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reclaimed := len(m.sideTable) - m.live
	if reclaimed == 0 {
		return 0, nil
	}

	newTable := make([]SlotEntry, 0, m.live)
	newVectors := make([][]float32, 0, m.live)
	newByProfile := make(map[string][]int, len(m.byProfile))

	for slot, entry := range m.sideTable {
		if entry.Tombstoned {
			continue
		}
		newSlot := len(newTable)
		newTable = append(newTable, entry)
		newVectors = append(newVectors, m.vectors[slot])
		newByProfile[entry.ProfileID] = append(newByProfile[entry.ProfileID], newSlot)
	}

	m.sideTable = newTable
	m.vectors = newVectors
	m.byProfile = newByProfile
	m.rebuildIndexLocked()

	m.logger.Info("compacted index", "reclaimed", reclaimed, "live", m.live)
	return reclaimed, m.persistLocked()
}

// rebuildIndexLocked builds a fresh structure for the current side table,
// choosing flat or HNSW by the live count.
func (m *Manager) rebuildIndexLocked() {
	if len(m.sideTable) >= m.cfg.UpgradeThreshold {
		h := newHNSWIndex(m.cfg.HNSW)
		for slot := range m.sideTable {
			h.Add(slot, m.vectors[slot])
		}
		m.idx = h
		m.flat = nil
	} else {
		flat := newFlatIndex()
		for slot := range m.sideTable {
			flat.Add(slot, m.vectors[slot])
		}
		m.idx = flat
		m.flat = flat
	}
}

// Contains reports whether the profile has live indexed chunks.
func (m *Manager) Contains(profileID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byProfile[profileID]
	return ok
}

// ProfileIDs returns the ids of all profiles with live chunks.
func (m *Manager) ProfileIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.byProfile))
	for id := range m.byProfile {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ProfileChunkTypes returns the chunk types indexed for a profile.
func (m *Manager) ProfileChunkTypes(profileID string) []core.ChunkType {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var types []core.ChunkType
	seen := make(map[core.ChunkType]bool)
	for _, slot := range m.byProfile[profileID] {
		entry := m.sideTable[slot]
		if entry.Tombstoned || seen[entry.ChunkType] {
			continue
		}
		seen[entry.ChunkType] = true
		types = append(types, entry.ChunkType)
	}
	return types
}

// Stats returns a snapshot of the manager's state.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		Kind:       m.idx.Kind(),
		LiveChunks: m.live,
		Tombstones: len(m.sideTable) - m.live,
		Profiles:   len(m.byProfile),
		Dimensions: m.cfg.Dimensions,
	}
}

// Persist writes the current state to the configured directory. A no-op
// without one. Takes the write lock: concurrent persists would otherwise
// interleave writes to the same temp file before the rename.
func (m *Manager) Persist() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistLocked()
}
