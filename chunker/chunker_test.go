package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/candidex/core"
)

func fullProfile() *core.CandidateProfile {
	return &core.CandidateProfile{
		ID:              "cand-100",
		Name:            "Alex Osei",
		Skills:          []string{"Go", "Kubernetes", "PostgreSQL"},
		SkillDomains:    []string{"Backend", "DevOps"},
		ExperienceYears: 8,
		CurrentCompany:  "Acme Corp",
		Companies:       []string{"Initech", "Globex"},
		Clients:         []string{"RetailCo"},
		Certifications:  []string{"CKA"},
		Education:       []string{"BSc Computer Science"},
		RawText: "Worked at Initech for 5 years of experience building payment services. " +
			"Developed a real-time fraud detection pipeline in Go. " +
			"Responsible for the on-call rotation. " +
			"Enjoys hiking on weekends.",
	}
}

func TestChunk_FullProfile(t *testing.T) {
	c := New()
	chunks := c.Chunk(fullProfile())

	t.Run("skills chunk combines skills and domains", func(t *testing.T) {
		require.Len(t, chunks[core.ChunkTypeSkills], 1)
		sk := chunks[core.ChunkTypeSkills][0]
		assert.True(t, strings.HasPrefix(sk.Text, "Skills: "))
		assert.Contains(t, sk.Text, "Go")
		assert.Contains(t, sk.Text, "Domain: Backend")
		assert.Equal(t, []string{"Go", "Kubernetes", "PostgreSQL"}, sk.Meta.Skills)
	})

	t.Run("experience chunk includes companies, years and matched sentences", func(t *testing.T) {
		require.Len(t, chunks[core.ChunkTypeExperience], 1)
		exp := chunks[core.ChunkTypeExperience][0]
		assert.Contains(t, exp.Text, "Current Company: Acme Corp")
		assert.Contains(t, exp.Text, "Previous Companies: Initech, Globex")
		assert.Contains(t, exp.Text, "Experience: 8 years")
		assert.Contains(t, exp.Text, "Worked at Initech")
		assert.NotContains(t, exp.Text, "hiking")
		assert.Equal(t, float64(8), exp.Meta.ExperienceYears)
	})

	t.Run("project chunks extracted from raw text", func(t *testing.T) {
		require.NotEmpty(t, chunks[core.ChunkTypeProjects])
		first := chunks[core.ChunkTypeProjects][0]
		assert.True(t, strings.HasPrefix(first.Text, "Project: "))
		assert.Contains(t, first.Text, "fraud detection")
	})

	t.Run("certifications chunk merges certs and education", func(t *testing.T) {
		require.Len(t, chunks[core.ChunkTypeCertifications], 1)
		cert := chunks[core.ChunkTypeCertifications][0]
		assert.Contains(t, cert.Text, "Certifications: CKA")
		assert.Contains(t, cert.Text, "Education: BSc Computer Science")
	})

	t.Run("raw chunks cover the raw text", func(t *testing.T) {
		require.NotEmpty(t, chunks[core.ChunkTypeRaw])
		assert.Contains(t, chunks[core.ChunkTypeRaw][0].Text, "payment services")
	})

	t.Run("no chunk has empty text", func(t *testing.T) {
		for typ, list := range chunks {
			for _, ch := range list {
				assert.NotEmpty(t, strings.TrimSpace(ch.Text), "chunk type %v", typ)
				assert.Equal(t, "cand-100", ch.ProfileID)
				assert.Equal(t, typ, ch.Type)
			}
		}
	})
}

func TestChunk_RawTextOnlyProfileIsSearchable(t *testing.T) {
	c := New()
	profile := &core.CandidateProfile{
		ID:      "cand-raw",
		RawText: "Ten seasons leading embedded firmware teams across automotive programs.",
	}

	chunks := c.Chunk(profile)

	assert.Empty(t, chunks[core.ChunkTypeSkills])
	assert.Empty(t, chunks[core.ChunkTypeCertifications])
	require.NotEmpty(t, chunks[core.ChunkTypeRaw], "raw fallback must keep the profile searchable")
}

func TestChunk_EmptyProfileYieldsNothing(t *testing.T) {
	c := New()
	chunks := c.Chunk(&core.CandidateProfile{ID: "cand-empty"})

	for typ, list := range chunks {
		assert.Empty(t, list, "chunk type %v", typ)
	}
}

func TestChunk_ClientsFallbackForProjects(t *testing.T) {
	c := New()
	profile := &core.CandidateProfile{
		ID:      "cand-clients",
		Clients: []string{"BankCo", "InsureCo"},
	}

	chunks := c.Chunk(profile)

	require.Len(t, chunks[core.ChunkTypeProjects], 1)
	assert.Equal(t, "Projects/Clients: BankCo, InsureCo", chunks[core.ChunkTypeProjects][0].Text)
}

func TestRawChunks_SplitWithOverlap(t *testing.T) {
	c := New(WithMaxChunkWords(12))

	sentences := []string{
		"First sentence about golang microservices here",
		"Second sentence covering kafka streaming topics",
		"Third sentence mentioning terraform cloud modules",
		"Fourth sentence describing react frontend work",
	}
	profile := &core.CandidateProfile{
		ID:      "cand-long",
		RawText: strings.Join(sentences, ". ") + ".",
	}

	chunks := c.Chunk(profile)[core.ChunkTypeRaw]
	require.Greater(t, len(chunks), 1, "long text should split into multiple chunks")

	// Overlap: the second chunk repeats trailing sentences of the first.
	firstWords := strings.Fields(chunks[0].Text)
	lastOfFirst := firstWords[len(firstWords)-1]
	assert.Contains(t, chunks[1].Text, lastOfFirst)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
	}
}

func TestExtractProjects_DedupAndLimit(t *testing.T) {
	text := "Developed a customer portal in React. Built a customer portal in React. " +
		"Implemented billing reconciliation jobs. Designed api gateway routing layers."
	projects := extractProjects(text)

	require.NotEmpty(t, projects)
	assert.LessOrEqual(t, len(projects), maxProjects)

	seen := map[string]bool{}
	for _, p := range projects {
		lower := strings.ToLower(p)
		assert.False(t, seen[lower], "duplicate project %q", p)
		seen[lower] = true
	}
}

func TestExtractExperienceSentences_Limit(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		b.WriteString("Responsible for service number ")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString(". ")
	}

	got := extractExperienceSentences(b.String())
	assert.Len(t, got, maxExperienceSentences)
}

func TestFlatten_DeterministicOrder(t *testing.T) {
	c := New()
	chunks := c.Chunk(fullProfile())

	flat := Flatten(chunks)
	require.NotEmpty(t, flat)

	// types must appear in declared order
	lastRank := -1
	rank := map[core.ChunkType]int{}
	for i, typ := range core.ChunkTypes {
		rank[typ] = i
	}
	for _, ch := range flat {
		r := rank[ch.Type]
		assert.GreaterOrEqual(t, r, lastRank)
		lastRank = r
	}
}
