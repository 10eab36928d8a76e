// Package integrity detects and fixes drift between the profile store and
// the vector index.
//
// A Report lists orphan vectors (indexed but no longer stored) and profiles
// missing from the index. Repair removes orphans, re-indexes missing
// profiles in insertion order, and deliberately stops after a run of
// consecutive already-indexed records so that a single invocation stays
// cheap on large corpora; repeated invocations make forward progress.
package integrity
