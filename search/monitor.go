package search

import (
	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/vecindex"
)

// SearchMonitor provides hooks to observe the query pipeline.
// Implement this interface to track intermediate stages during a search.
type SearchMonitor interface {
	Start(query string)
	AfterSkillExtraction(skills []string)
	AfterPrefilter(allowed map[string]bool)
	AfterExpansion(terms []string)
	AfterVectorSearch(hits []vecindex.ChunkHit)
	AfterRerank(scores map[string]float64)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterSkillExtraction(_ []string)         {}
func (n *noopMonitor) AfterPrefilter(_ map[string]bool)        {}
func (n *noopMonitor) AfterExpansion(_ []string)               {}
func (n *noopMonitor) AfterVectorSearch(_ []vecindex.ChunkHit) {}
func (n *noopMonitor) AfterRerank(_ map[string]float64)        {}
func (n *noopMonitor) Finish(_ []core.SearchResult)            {}
