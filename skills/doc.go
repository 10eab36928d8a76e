// Package skills implements skill extraction, expansion, and domain
// classification over the profile corpus.
//
// Extraction is LLM-backed and validated against the corpus vocabulary (all
// skills and skill domains seen across stored profiles). Expansion merges
// three strategies in order: co-occurrence graph neighbors, embedding-nearest
// vocabulary terms, and LLM-suggested related terms, stopping early once
// enough terms are collected. Domain classification uses a keyword table
// first and falls back to nearest-domain-centroid by embedding similarity.
package skills
