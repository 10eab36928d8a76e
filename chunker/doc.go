// Package chunker decomposes candidate profiles into typed text chunks for
// multi-vector embedding.
//
// Each profile yields up to five chunk kinds: a skills summary, an
// experience summary, extracted project descriptions, a certifications and
// education summary, and overlapping raw-text segments. The raw segments
// act as a fallback so a profile with no structured fields is still
// searchable.
package chunker
