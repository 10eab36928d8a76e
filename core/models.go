package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// HashKey is a content-derived key used for cache lookups and chunk identity.
type HashKey uint64

// HashFromContent generates a deterministic key from text content using BLAKE2b hashing.
// This ensures that identical content produces identical keys.
func HashFromContent(text string) HashKey {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return HashKey(binary.LittleEndian.Uint64(sum))
}

// ChunkType identifies the semantic section of a profile a chunk was derived from.
type ChunkType int

const (
	// ChunkTypeSkills covers the skill and skill-domain summary.
	ChunkTypeSkills ChunkType = iota + 1
	// ChunkTypeExperience covers companies, tenure and experience text.
	ChunkTypeExperience
	// ChunkTypeProjects covers extracted project descriptions.
	ChunkTypeProjects
	// ChunkTypeCertifications covers certifications and education.
	ChunkTypeCertifications
	// ChunkTypeRaw covers raw-text fallback chunks.
	ChunkTypeRaw
)

// ChunkTypes lists all chunk types in descending aggregation-weight order.
var ChunkTypes = []ChunkType{
	ChunkTypeSkills,
	ChunkTypeExperience,
	ChunkTypeProjects,
	ChunkTypeCertifications,
	ChunkTypeRaw,
}

func (t ChunkType) String() string {
	switch t {
	case ChunkTypeSkills:
		return "skills"
	case ChunkTypeExperience:
		return "experience"
	case ChunkTypeProjects:
		return "projects"
	case ChunkTypeCertifications:
		return "certifications"
	case ChunkTypeRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// ParseChunkType maps a canonical name back to its ChunkType.
// Returns zero for unknown names.
func ParseChunkType(name string) ChunkType {
	switch name {
	case "skills":
		return ChunkTypeSkills
	case "experience":
		return ChunkTypeExperience
	case "projects":
		return ChunkTypeProjects
	case "certifications":
		return ChunkTypeCertifications
	case "raw":
		return ChunkTypeRaw
	default:
		return 0
	}
}

// CandidateProfile is a candidate record owned by the profile store.
// The retrieval core reads it during indexing and may write back inferred
// SkillDomains as an enrichment.
type CandidateProfile struct {
	ID              string
	Name            string
	Email           string
	Skills          []string
	SkillDomains    []string
	ExperienceYears float64
	CurrentCompany  string
	Companies       []string
	Clients         []string
	Certifications  []string
	Education       []string
	Location        string
	RawText         string
	InsertedAt      time.Time // When the profile was first stored
	UpdatedAt       time.Time // When the profile was last replaced
}

// ChunkMeta carries the profile fields relevant to a chunk's type.
// Fields not applicable to the chunk type are left zero; filters read
// these instead of re-fetching the profile.
type ChunkMeta struct {
	Name            string
	Skills          []string
	SkillDomains    []string
	ExperienceYears float64
	CurrentCompany  string
	Companies       []string
	Certifications  []string
	Education       []string
	Location        string
}

// Chunk is a typed span of profile-derived text embedded independently.
type Chunk struct {
	ProfileID string
	Type      ChunkType
	Index     int       // position within the profile's chunks of this type
	Text      string
	Embedding []float32 // unit-normalized, populated by the embedding stage
	Meta      ChunkMeta
}

// Key returns the chunk's content-derived identity, stable across reindexing.
func (c *Chunk) Key() HashKey {
	return HashFromContent(c.ProfileID + "\x00" + c.Type.String() + "\x00" + c.Text)
}

// IndexVersion records the embedding model and dimensionality the vector
// index was last built with. A change in either invalidates the index and
// requires a full reindex.
type IndexVersion struct {
	EmbeddingModel string
	Dimensions     int
	UpdatedAt      time.Time
}

// SearchFilters are structural constraints applied ahead of vector search.
// A zero value means the field is unconstrained.
type SearchFilters struct {
	// Skill, when set, requires a case-insensitive substring match against
	// the profile's skills or skill domains.
	Skill              string
	Location           string
	Domain             string
	MinExperienceYears float64
}

// Empty reports whether no constraint is set.
func (f SearchFilters) Empty() bool {
	return f.Skill == "" && f.Location == "" && f.Domain == "" && f.MinExperienceYears == 0
}

// SimilarityMatch is a raw nearest-neighbor hit from the vector index.
type SimilarityMatch struct {
	ChunkKey HashKey
	Score    float32 // cosine similarity
}

// SearchResult is a ranked profile hit with its score breakdown.
type SearchResult struct {
	ProfileID         string
	Score             float64 // final weighted score, bounded to [0, 100]
	Similarity        float64 // best raw cosine similarity across the profile's chunks
	HierarchicalScore float64 // chunk-type weighted aggregate
	SkillScore        float64 // overlap between query skills and profile skills
	TitleScore        float64 // title/role alignment with the query
	DomainScore       float64 // semantic domain similarity
	RerankScore       float64 // informational, not part of Score
	MatchedSkills     []string
	ChunkTypes        []ChunkType // chunk types that contributed matches
}

// SearchResponse is the outcome of one query, including degradation flags.
type SearchResponse struct {
	Results []SearchResult
	// Degraded names pipeline stages skipped because a provider failed
	// (e.g. "expansion", "rerank"). Empty on a clean run.
	Degraded []string
}

// ClampScore bounds a final score to the [0, 100] range.
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
