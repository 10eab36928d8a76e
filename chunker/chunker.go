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


package chunker

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/candidex/core"
)

const (
	// DefaultMaxChunkWords bounds a raw-text chunk's word count.
	DefaultMaxChunkWords = 512

	// overlapSentences is how many trailing sentences carry into the next
	// raw chunk for context preservation.
	overlapSentences = 2

	maxExperienceSentences = 5
	maxProjects            = 10
	minProjectLen          = 10
)

// Chunker splits candidate profiles into typed chunks.
type Chunker struct {
	maxChunkWords int
	logger        *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxChunkWords sets the raw-text chunk size in words.
func WithMaxChunkWords(n int) Option {
	return func(c *Chunker) {
		c.maxChunkWords = n
	}
}

// WithLogger sets the chunker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		c.logger = logger
	}
}

// New creates a Chunker with default settings.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxChunkWords: DefaultMaxChunkWords,
		logger:        slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk decomposes a profile into typed chunks. Every returned chunk has
// non-empty text; chunk types with no source material are absent from the
// result.
func (c *Chunker) Chunk(profile *core.CandidateProfile) map[core.ChunkType][]core.Chunk {
	chunks := make(map[core.ChunkType][]core.Chunk)

	if sk, ok := c.skillsChunk(profile); ok {
		chunks[core.ChunkTypeSkills] = []core.Chunk{sk}
	}
	if exp, ok := c.experienceChunk(profile); ok {
		chunks[core.ChunkTypeExperience] = []core.Chunk{exp}
	}
	if projects := c.projectChunks(profile); len(projects) > 0 {
		chunks[core.ChunkTypeProjects] = projects
	}
	if certs, ok := c.certificationsChunk(profile); ok {
		chunks[core.ChunkTypeCertifications] = []core.Chunk{certs}
	}
	if raw := c.rawChunks(profile); len(raw) > 0 {
		chunks[core.ChunkTypeRaw] = raw
	}

	total := 0
	for _, list := range chunks {
		total += len(list)
	}
	c.logger.Debug("chunked profile",
		"profile", profile.ID,
		"total", total,
		"skills", len(chunks[core.ChunkTypeSkills]),
		"experience", len(chunks[core.ChunkTypeExperience]),
		"projects", len(chunks[core.ChunkTypeProjects]),
		"certifications", len(chunks[core.ChunkTypeCertifications]),
		"raw", len(chunks[core.ChunkTypeRaw]))

	return chunks
}

// Flatten returns all chunks of a profile in deterministic type order.
func Flatten(chunks map[core.ChunkType][]core.Chunk) []core.Chunk {
	var out []core.Chunk
	for _, t := range core.ChunkTypes {
		out = append(out, chunks[t]...)
	}
	return out
}

func (c *Chunker) skillsChunk(profile *core.CandidateProfile) (core.Chunk, bool) {
	parts := make([]string, 0, len(profile.Skills)+len(profile.SkillDomains))
	for _, s := range profile.Skills {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	for _, d := range profile.SkillDomains {
		if d = strings.TrimSpace(d); d != "" {
			parts = append(parts, "Domain: "+d)
		}
	}
	if len(parts) == 0 {
		return core.Chunk{}, false
	}

	return core.Chunk{
		ProfileID: profile.ID,
		Type:      core.ChunkTypeSkills,
		Index:     0,
		Text:      "Skills: " + strings.Join(parts, ", "),
		Meta: core.ChunkMeta{
			Skills:       profile.Skills,
			SkillDomains: profile.SkillDomains,
		},
	}, true
}

func (c *Chunker) experienceChunk(profile *core.CandidateProfile) (core.Chunk, bool) {
	var parts []string

	if profile.CurrentCompany != "" {
		parts = append(parts, "Current Company: "+profile.CurrentCompany)
	}
	if companies := joinNonEmpty(profile.Companies); companies != "" {
		parts = append(parts, "Previous Companies: "+companies)
	}
	if profile.ExperienceYears > 0 {
		parts = append(parts, fmt.Sprintf("Experience: %g years", profile.ExperienceYears))
	}
	parts = append(parts, extractExperienceSentences(profile.RawText)...)

	if len(parts) == 0 {
		return core.Chunk{}, false
	}

	return core.Chunk{
		ProfileID: profile.ID,
		Type:      core.ChunkTypeExperience,
		Index:     0,
		Text:      strings.Join(parts, " | "),
		Meta: core.ChunkMeta{
			ExperienceYears: profile.ExperienceYears,
			Companies:       profile.Companies,
			CurrentCompany:  profile.CurrentCompany,
		},
	}, true
}

func (c *Chunker) projectChunks(profile *core.CandidateProfile) []core.Chunk {
	var chunks []core.Chunk

	for idx, text := range extractProjects(profile.RawText) {
		chunks = append(chunks, core.Chunk{
			ProfileID: profile.ID,
			Type:      core.ChunkTypeProjects,
			Index:     idx,
			Text:      "Project: " + text,
		})
	}

	// Fall back to a clients summary when no project text was found.
	if len(chunks) == 0 {
		if clients := joinNonEmpty(profile.Clients); clients != "" {
			chunks = append(chunks, core.Chunk{
				ProfileID: profile.ID,
				Type:      core.ChunkTypeProjects,
				Index:     0,
				Text:      "Projects/Clients: " + clients,
			})
		}
	}

	return chunks
}

func (c *Chunker) certificationsChunk(profile *core.CandidateProfile) (core.Chunk, bool) {
	var parts []string

	if certs := joinNonEmpty(profile.Certifications); certs != "" {
		parts = append(parts, "Certifications: "+certs)
	}
	if len(profile.Education) > 0 {
		edu := make([]string, 0, len(profile.Education))
		for _, e := range profile.Education {
			if e = strings.TrimSpace(e); e != "" {
				edu = append(edu, e)
			}
		}
		if len(edu) > 0 {
			parts = append(parts, "Education: "+strings.Join(edu, " | "))
		}
	}

	if len(parts) == 0 {
		return core.Chunk{}, false
	}

	return core.Chunk{
		ProfileID: profile.ID,
		Type:      core.ChunkTypeCertifications,
		Index:     0,
		Text:      strings.Join(parts, " | "),
		Meta: core.ChunkMeta{
			Certifications: profile.Certifications,
			Education:      profile.Education,
		},
	}, true
}

// rawChunks groups sentences greedily up to maxChunkWords, carrying the
// last two sentences into the next chunk as overlap.
func (c *Chunker) rawChunks(profile *core.CandidateProfile) []core.Chunk {
	text := strings.TrimSpace(profile.RawText)
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)

	var chunks []core.Chunk
	var current []string
	currentWords := 0

	appendChunk := func() {
		chunks = append(chunks, core.Chunk{
			ProfileID: profile.ID,
			Type:      core.ChunkTypeRaw,
			Index:     len(chunks),
			Text:      strings.Join(current, " "),
		})
	}

	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		words := len(strings.Fields(sentence))

		if currentWords+words > c.maxChunkWords && len(current) > 0 {
			appendChunk()

			overlap := current
			if len(overlap) > overlapSentences {
				overlap = overlap[len(overlap)-overlapSentences:]
			}
			current = append(append([]string{}, overlap...), sentence)
			currentWords = 0
			for _, s := range current {
				currentWords += len(strings.Fields(s))
			}
		} else {
			current = append(current, sentence)
			currentWords += words
		}
	}

	if len(current) > 0 {
		appendChunk()
	}

	return chunks
}

func joinNonEmpty(items []string) string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			kept = append(kept, it)
		}
	}
	return strings.Join(kept, ", ")
}
