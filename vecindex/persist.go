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
	"fmt"
	"os"
	"path/filepath"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/candidex/core"
)

// indexFileName is the persisted state file inside the manager's directory.
const indexFileName = "index.mus"

// indexFileVersion guards against format drift between releases.
const indexFileVersion uint64 = 1

var (
	stringSliceMUS = ord.NewSliceSer[string](ord.String)
	vectorMUS      = ord.NewSliceSer[float32](raw.Float32)
)

// chunkMetaMUS implements MUS encoding for core.ChunkMeta.
type chunkMetaSer struct{}

var chunkMetaMUS = chunkMetaSer{}

func (chunkMetaSer) Size(m core.ChunkMeta) int {
	return ord.String.Size(m.Name) +
		stringSliceMUS.Size(m.Skills) +
		stringSliceMUS.Size(m.SkillDomains) +
		raw.Float64.Size(m.ExperienceYears) +
		ord.String.Size(m.CurrentCompany) +
		stringSliceMUS.Size(m.Companies) +
		stringSliceMUS.Size(m.Certifications) +
		stringSliceMUS.Size(m.Education) +
		ord.String.Size(m.Location)
}

func (chunkMetaSer) Marshal(m core.ChunkMeta, bs []byte) (n int) {
	n += ord.String.Marshal(m.Name, bs[n:])
	n += stringSliceMUS.Marshal(m.Skills, bs[n:])
	n += stringSliceMUS.Marshal(m.SkillDomains, bs[n:])
	n += raw.Float64.Marshal(m.ExperienceYears, bs[n:])
	n += ord.String.Marshal(m.CurrentCompany, bs[n:])
	n += stringSliceMUS.Marshal(m.Companies, bs[n:])
	n += stringSliceMUS.Marshal(m.Certifications, bs[n:])
	n += stringSliceMUS.Marshal(m.Education, bs[n:])
	n += ord.String.Marshal(m.Location, bs[n:])
	return n
}

func (chunkMetaSer) Unmarshal(bs []byte) (m core.ChunkMeta, n int, err error) {
	var c int
	if m.Name, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.Skills, c, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.SkillDomains, c, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.ExperienceYears, c, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.CurrentCompany, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.Companies, c, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.Certifications, c, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.Education, c, err = stringSliceMUS.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	if m.Location, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return m, n + c, err
	}
	n += c
	return m, n, nil
}

// persistedSlot is one live side-table entry with its vector.
type persistedSlot struct {
	Entry  SlotEntry
	Vector []float32
}

// persistedSlotMUS implements MUS encoding for persistedSlot.
type persistedSlotSer struct{}

var persistedSlotMUS = persistedSlotSer{}

func (persistedSlotSer) Size(s persistedSlot) int {
	return ord.String.Size(s.Entry.ProfileID) +
		varint.Int.Size(int(s.Entry.ChunkType)) +
		varint.Int.Size(s.Entry.ChunkIndex) +
		varint.Uint64.Size(uint64(s.Entry.ChunkKey)) +
		chunkMetaMUS.Size(s.Entry.Meta) +
		vectorMUS.Size(s.Vector)
}

func (persistedSlotSer) Marshal(s persistedSlot, bs []byte) (n int) {
	n += ord.String.Marshal(s.Entry.ProfileID, bs[n:])
	n += varint.Int.Marshal(int(s.Entry.ChunkType), bs[n:])
	n += varint.Int.Marshal(s.Entry.ChunkIndex, bs[n:])
	n += varint.Uint64.Marshal(uint64(s.Entry.ChunkKey), bs[n:])
	n += chunkMetaMUS.Marshal(s.Entry.Meta, bs[n:])
	n += vectorMUS.Marshal(s.Vector, bs[n:])
	return n
}

func (persistedSlotSer) Unmarshal(bs []byte) (s persistedSlot, n int, err error) {
	var c int
	if s.Entry.ProfileID, c, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return s, n + c, err
	}
	n += c
	var chunkType int
	if chunkType, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return s, n + c, err
	}
	n += c
	s.Entry.ChunkType = core.ChunkType(chunkType)
	if s.Entry.ChunkIndex, c, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return s, n + c, err
	}
	n += c
	var key uint64
	if key, c, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return s, n + c, err
	}
	n += c
	s.Entry.ChunkKey = core.HashKey(key)
	if s.Entry.Meta, c, err = chunkMetaMUS.Unmarshal(bs[n:]); err != nil {
		return s, n + c, err
	}
	n += c
	if s.Vector, c, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return s, n + c, err
	}
	n += c
	return s, n, nil
}

// persistLocked writes all live slots to disk via a temp-file rename, so a
// crash mid-write never corrupts the previous state. Caller must hold at
// least a read lock. A no-op without a configured directory.
func (m *Manager) persistLocked() error {
	if m.cfg.Dir == "" {
		return nil
	}

	slots := make([]persistedSlot, 0, m.live)
	for slot, entry := range m.sideTable {
		if entry.Tombstoned {
			continue
		}
		slots = append(slots, persistedSlot{Entry: entry, Vector: m.vectors[slot]})
	}

	size := varint.Uint64.Size(indexFileVersion) +
		varint.Int.Size(m.cfg.Dimensions) +
		varint.Int.Size(len(slots))
	for _, s := range slots {
		size += persistedSlotMUS.Size(s)
	}

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(indexFileVersion, buf)
	n += varint.Int.Marshal(m.cfg.Dimensions, buf[n:])
	n += varint.Int.Marshal(len(slots), buf[n:])
	for _, s := range slots {
		n += persistedSlotMUS.Marshal(s, buf[n:])
	}

	if err := os.MkdirAll(m.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("vecindex: create dir: %w", err)
	}

	path := filepath.Join(m.cfg.Dir, indexFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("vecindex: write state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("vecindex: replace state: %w", err)
	}

	m.logger.Debug("persisted index", "slots", len(slots), "bytes", len(buf))
	return nil
}

// load reads persisted state and rebuilds the in-memory structures.
// Returns core.ErrDimensionMismatch when the file was written for a
// different dimensionality and core.ErrCorruptState when it cannot be
// decoded. A missing file is not an error.
func (m *Manager) load() error {
	path := filepath.Join(m.cfg.Dir, indexFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrCorruptState, err)
	}

	n := 0
	version, c, err := varint.Uint64.Unmarshal(data[n:])
	if err != nil {
		return fmt.Errorf("%w: version: %w", core.ErrCorruptState, err)
	}
	n += c
	if version != indexFileVersion {
		return fmt.Errorf("%w: unsupported version %d", core.ErrCorruptState, version)
	}

	dims, c, err := varint.Int.Unmarshal(data[n:])
	if err != nil {
		return fmt.Errorf("%w: dimensions: %w", core.ErrCorruptState, err)
	}
	n += c
	if dims != m.cfg.Dimensions {
		return fmt.Errorf("%w: persisted %d, configured %d",
			core.ErrDimensionMismatch, dims, m.cfg.Dimensions)
	}

	count, c, err := varint.Int.Unmarshal(data[n:])
	if err != nil || count < 0 {
		return fmt.Errorf("%w: slot count", core.ErrCorruptState)
	}
	n += c

	for i := 0; i < count; i++ {
		s, c, err := persistedSlotMUS.Unmarshal(data[n:])
		if err != nil {
			return fmt.Errorf("%w: slot %d: %w", core.ErrCorruptState, i, err)
		}
		n += c
		if len(s.Vector) != m.cfg.Dimensions {
			return fmt.Errorf("%w: slot %d has %d dims", core.ErrDimensionMismatch, i, len(s.Vector))
		}

		slot := len(m.sideTable)
		m.sideTable = append(m.sideTable, s.Entry)
		m.vectors = append(m.vectors, s.Vector)
		m.byProfile[s.Entry.ProfileID] = append(m.byProfile[s.Entry.ProfileID], slot)
		m.live++
	}

	m.rebuildIndexLocked()
	m.logger.Info("loaded persisted index",
		"slots", m.live, "profiles", len(m.byProfile), "kind", m.idx.Kind())
	return nil
}
