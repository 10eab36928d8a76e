package storage

import (
	"context"

	"github.com/poiesic/candidex/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ProfileRepository provides operations for managing candidate profiles.
type ProfileRepository interface {
	Repository
	// PutProfile stores a profile under its external ID, replacing any
	// existing record. Sets InsertedAt on first insert and UpdatedAt on
	// every write. Insertion order is preserved across replacements.
	// Returns the profile with timestamps populated.
	PutProfile(ctx context.Context, profile *core.CandidateProfile) (*core.CandidateProfile, error)

	// GetProfile retrieves a single profile by ID.
	// Returns ErrNotFound if the profile doesn't exist.
	GetProfile(ctx context.Context, id string) (*core.CandidateProfile, error)

	// GetProfiles retrieves multiple profiles by their IDs.
	// Returns only the profiles that exist (no error for missing profiles).
	GetProfiles(ctx context.Context, ids ...string) ([]*core.CandidateProfile, error)

	// DeleteProfile removes a profile by ID.
	// Returns ErrNotFound if the profile doesn't exist.
	DeleteProfile(ctx context.Context, id string) error

	// HasProfile reports whether a profile exists.
	HasProfile(ctx context.Context, id string) (bool, error)

	// CountProfiles returns the number of stored profiles.
	CountProfiles(ctx context.Context) (int, error)

	// ProfileIDs returns all profile IDs in insertion order.
	ProfileIDs(ctx context.Context) ([]string, error)

	// ScanProfiles visits every profile in insertion order. The callback
	// returns false to stop the scan early.
	ScanProfiles(ctx context.Context, fn func(profile *core.CandidateProfile) (bool, error)) error

	// FilterProfileIDs returns the IDs of profiles satisfying the given
	// structural filters. An empty filter set matches every profile.
	FilterProfileIDs(ctx context.Context, filters core.SearchFilters) (map[string]bool, error)

	// DistinctSkills returns the sorted union of all profile skills.
	DistinctSkills(ctx context.Context) ([]string, error)

	// DistinctSkillDomains returns the sorted union of all profile skill domains.
	DistinctSkillDomains(ctx context.Context) ([]string, error)
}

// VersionRepository persists the index version marker used to detect when
// the vector index was built with a different embedding model.
type VersionRepository interface {
	Repository
	// SaveIndexVersion persists the index version marker.
	SaveIndexVersion(ctx context.Context, version *core.IndexVersion) error

	// LoadIndexVersion retrieves the index version marker.
	// Returns nil, nil if no marker has been written yet.
	LoadIndexVersion(ctx context.Context) (*core.IndexVersion, error)
}
