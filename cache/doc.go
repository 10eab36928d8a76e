// Package cache provides bounded TTL caches for expensive pipeline stages
// (embeddings, similarity scores, skill extraction, query expansion) and a
// Store that groups them behind a single lifecycle.
//
// Eviction is deterministic: when a cache is full, the entry with the oldest
// store time is removed. Expired entries count as misses and are dropped on
// access.
package cache
