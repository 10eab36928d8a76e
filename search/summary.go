package search

import (
	"fmt"
	"strings"

	"github.com/poiesic/candidex/core"
)

// maxSummaryRawText bounds how much raw profile text a candidate summary
// carries into reranking and explanation prompts.
const maxSummaryRawText = 600

// CandidateSummary renders a profile as a short document for rerankers and
// match explanations.
func CandidateSummary(profile *core.CandidateProfile) string {
	var b strings.Builder

	if profile.Name != "" {
		fmt.Fprintf(&b, "%s. ", profile.Name)
	}
	if len(profile.Skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s. ", strings.Join(profile.Skills, ", "))
	}
	if len(profile.SkillDomains) > 0 {
		fmt.Fprintf(&b, "Domains: %s. ", strings.Join(profile.SkillDomains, ", "))
	}
	if profile.ExperienceYears > 0 {
		fmt.Fprintf(&b, "%.1f years of experience. ", profile.ExperienceYears)
	}
	if profile.CurrentCompany != "" {
		fmt.Fprintf(&b, "Currently at %s. ", profile.CurrentCompany)
	}
	if profile.Location != "" {
		fmt.Fprintf(&b, "Location: %s. ", profile.Location)
	}

	raw := strings.TrimSpace(profile.RawText)
	if raw != "" {
		if runes := []rune(raw); len(runes) > maxSummaryRawText {
			raw = string(runes[:maxSummaryRawText])
		}
		b.WriteString(raw)
	}

	return strings.TrimSpace(b.String())
}

// matchedSkills returns the query terms that appear among the profile's
// skills, by case-insensitive substring match in either direction.
func matchedSkills(terms []string, profileSkills []string) []string {
	if len(terms) == 0 || len(profileSkills) == 0 {
		return nil
	}

	lowered := make([]string, len(profileSkills))
	for i, s := range profileSkills {
		lowered[i] = strings.ToLower(strings.TrimSpace(s))
	}

	var matched []string
	seen := make(map[string]bool)
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || seen[term] {
			continue
		}
		for _, skill := range lowered {
			if skill == "" {
				continue
			}
			if strings.Contains(skill, term) || strings.Contains(term, skill) {
				seen[term] = true
				matched = append(matched, term)
				break
			}
		}
	}
	return matched
}
