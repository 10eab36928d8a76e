// Package reindex rebuilds the vector index from the profile store, used
// after an embedding-model swap or a corpus migration.
//
// Profiles are processed in bounded batches with a worker pool, retry logic
// with exponential backoff, progress tracking, and cooperative cancellation
// between batches. A version marker persisted alongside the index records
// which embedding model and dimensionality it was built with; NeedsReindex
// compares it against the configured values.
package reindex
