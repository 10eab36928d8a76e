package core

import (
	"errors"
	"testing"
)

func TestValidateProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile *CandidateProfile
		wantErr error
	}{
		{
			name: "valid profile with skills",
			profile: &CandidateProfile{
				ID:     "cand-001",
				Name:   "Priya Raman",
				Skills: []string{"Go", "Kubernetes"},
			},
			wantErr: nil,
		},
		{
			name: "valid profile with raw text only",
			profile: &CandidateProfile{
				ID:      "cand-002",
				RawText: "Backend engineer with ten years of experience.",
			},
			wantErr: nil,
		},
		{
			name: "valid profile with education only",
			profile: &CandidateProfile{
				ID:        "cand-003",
				Education: []string{"BSc Computer Science"},
			},
			wantErr: nil,
		},
		{
			name:    "nil profile",
			profile: nil,
			wantErr: ErrInvalidProfile,
		},
		{
			name: "empty id",
			profile: &CandidateProfile{
				ID:     "",
				Skills: []string{"Go"},
			},
			wantErr: ErrEmptyProfileID,
		},
		{
			name: "whitespace id",
			profile: &CandidateProfile{
				ID:     "   ",
				Skills: []string{"Go"},
			},
			wantErr: ErrEmptyProfileID,
		},
		{
			name: "no indexable content",
			profile: &CandidateProfile{
				ID: "cand-004",
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "raw text too short",
			profile: &CandidateProfile{
				ID:      "cand-005",
				RawText: "too short",
			},
			wantErr: ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfile(tt.profile)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateProfile() unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateProfile() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != ErrInvalidProfile && !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("ValidateProfile() error = %v, should wrap ErrInvalidProfile", err)
			}
		})
	}
}

func TestValidateChunkType(t *testing.T) {
	for _, typ := range ChunkTypes {
		if err := ValidateChunkType(typ); err != nil {
			t.Errorf("ValidateChunkType(%v) unexpected error: %v", typ, err)
		}
	}

	if err := ValidateChunkType(ChunkType(0)); !errors.Is(err, ErrInvalidChunkType) {
		t.Errorf("ValidateChunkType(0) error = %v, want ErrInvalidChunkType", err)
	}
	if err := ValidateChunkType(ChunkType(99)); !errors.Is(err, ErrInvalidChunkType) {
		t.Errorf("ValidateChunkType(99) error = %v, want ErrInvalidChunkType", err)
	}
}
