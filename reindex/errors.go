package reindex

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrProfileRepositoryRequired is returned when a profile repository is not provided.
	ErrProfileRepositoryRequired = errors.New("profile repository required")

	// ErrVersionRepositoryRequired is returned when a version repository is not provided.
	ErrVersionRepositoryRequired = errors.New("version repository required")

	// ErrIndexRequired is returned when a vector index manager is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrIndexerRequired is returned when a profile indexer is not provided.
	ErrIndexerRequired = errors.New("profile indexer required")
)
