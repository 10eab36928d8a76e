package skills

import (
	"context"
	"sort"
	"strings"

	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/storage"
)

// Neighbor is one co-occurrence edge from a skill.
type Neighbor struct {
	Skill  string
	Weight int
}

// Graph is a symmetric skill co-occurrence graph built from a full corpus
// scan. Two skills are connected when they appear on the same profile; the
// edge weight counts how many profiles carry both. A Graph is immutable
// once built and replaced wholesale on rebuild.
type Graph struct {
	adj map[string]map[string]int
}

// BuildGraph scans every profile and computes co-occurrence weights between
// its skills and skill domains.
func BuildGraph(ctx context.Context, profiles storage.ProfileRepository) (*Graph, error) {
	adj := make(map[string]map[string]int)

	err := profiles.ScanProfiles(ctx, func(profile *core.CandidateProfile) (bool, error) {
		terms := make(map[string]bool)
		for _, s := range profile.Skills {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				terms[s] = true
			}
		}
		for _, d := range profile.SkillDomains {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
				terms[d] = true
			}
		}

		list := make([]string, 0, len(terms))
		for t := range terms {
			list = append(list, t)
		}
		for i, a := range list {
			if adj[a] == nil {
				adj[a] = make(map[string]int)
			}
			for _, b := range list[i+1:] {
				if adj[b] == nil {
					adj[b] = make(map[string]int)
				}
				adj[a][b]++
				adj[b][a]++
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return &Graph{adj: adj}, nil
}

// Skills returns the number of distinct skills in the graph.
func (g *Graph) Skills() int {
	return len(g.adj)
}

// Edges returns the number of distinct co-occurrence edges.
func (g *Graph) Edges() int {
	total := 0
	for _, neighbors := range g.adj {
		total += len(neighbors)
	}
	return total / 2
}

// Neighbors returns the co-occurring skills of a term, heaviest edges
// first. Ties break alphabetically for determinism.
func (g *Graph) Neighbors(skill string) []Neighbor {
	skill = strings.ToLower(strings.TrimSpace(skill))
	edges := g.adj[skill]
	if len(edges) == 0 {
		return nil
	}

	neighbors := make([]Neighbor, 0, len(edges))
	for s, w := range edges {
		neighbors = append(neighbors, Neighbor{Skill: s, Weight: w})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Weight != neighbors[j].Weight {
			return neighbors[i].Weight > neighbors[j].Weight
		}
		return neighbors[i].Skill < neighbors[j].Skill
	})
	return neighbors
}

// Related aggregates neighbor weights across several input skills and
// returns candidates ranked by total weight, excluding the inputs.
func (g *Graph) Related(skills []string, limit int) []string {
	inputs := make(map[string]bool, len(skills))
	for _, s := range skills {
		inputs[strings.ToLower(strings.TrimSpace(s))] = true
	}

	scores := make(map[string]int)
	for input := range inputs {
		for s, w := range g.adj[input] {
			if !inputs[s] {
				scores[s] += w
			}
		}
	}

	ranked := make([]Neighbor, 0, len(scores))
	for s, w := range scores {
		ranked = append(ranked, Neighbor{Skill: s, Weight: w})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Weight != ranked[j].Weight {
			return ranked[i].Weight > ranked[j].Weight
		}
		return ranked[i].Skill < ranked[j].Skill
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	related := make([]string, 0, len(ranked))
	for _, n := range ranked {
		related = append(related, n.Skill)
	}
	return related
}
