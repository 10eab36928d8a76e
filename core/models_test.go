package core

import (
	"testing"
)

func TestHashFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same key",
			content: "go kubernetes terraform",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "Senior backend engineer with twelve years building distributed systems in Go and Java",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k1 := HashFromContent(tt.content)
			k2 := HashFromContent(tt.content)

			if k1 != k2 {
				t.Errorf("HashFromContent() produced different keys for same content: %d vs %d", k1, k2)
			}
		})
	}
}

func TestHashFromContent_Different(t *testing.T) {
	k1 := HashFromContent("content1")
	k2 := HashFromContent("content2")

	if k1 == k2 {
		t.Errorf("HashFromContent() produced same key for different content")
	}
}

func TestChunk_Key(t *testing.T) {
	a := Chunk{ProfileID: "p1", Type: ChunkTypeSkills, Text: "Skills: Go, Rust"}
	b := Chunk{ProfileID: "p1", Type: ChunkTypeSkills, Text: "Skills: Go, Rust"}

	if a.Key() != b.Key() {
		t.Errorf("Chunk.Key() not stable for identical chunks")
	}

	c := Chunk{ProfileID: "p2", Type: ChunkTypeSkills, Text: "Skills: Go, Rust"}
	if a.Key() == c.Key() {
		t.Errorf("Chunk.Key() collided across profiles")
	}

	d := Chunk{ProfileID: "p1", Type: ChunkTypeRaw, Text: "Skills: Go, Rust"}
	if a.Key() == d.Key() {
		t.Errorf("Chunk.Key() collided across chunk types")
	}
}

func TestChunkType_String(t *testing.T) {
	tests := []struct {
		typ  ChunkType
		want string
	}{
		{ChunkTypeSkills, "skills"},
		{ChunkTypeExperience, "experience"},
		{ChunkTypeProjects, "projects"},
		{ChunkTypeCertifications, "certifications"},
		{ChunkTypeRaw, "raw"},
		{ChunkType(0), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.want {
				t.Errorf("ChunkType.String() = %v, want %v", got, tt.want)
			}
			if tt.want != "unknown" && ParseChunkType(tt.want) != tt.typ {
				t.Errorf("ParseChunkType(%q) did not round-trip", tt.want)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "negative clamps to zero", in: -4.2, want: 0},
		{name: "in range unchanged", in: 57.3, want: 57.3},
		{name: "over 100 clamps", in: 104.9, want: 100},
		{name: "boundary zero", in: 0, want: 0},
		{name: "boundary hundred", in: 100, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampScore(tt.in); got != tt.want {
				t.Errorf("ClampScore(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSearchFilters_Empty(t *testing.T) {
	if !(SearchFilters{}).Empty() {
		t.Errorf("zero SearchFilters should be empty")
	}
	if (SearchFilters{Location: "Berlin"}).Empty() {
		t.Errorf("filters with location should not be empty")
	}
	if (SearchFilters{MinExperienceYears: 3}).Empty() {
		t.Errorf("filters with experience floor should not be empty")
	}
	if (SearchFilters{Skill: "python"}).Empty() {
		t.Errorf("filters with skill should not be empty")
	}
}
