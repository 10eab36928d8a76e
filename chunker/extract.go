package chunker

import (
	"regexp"
	"strings"
)

var sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)

// experiencePatterns flag sentences describing work history or tenure.
var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\d+\s+years?\s+(?:of\s+)?experience`),
	regexp.MustCompile(`(?i)worked\s+(?:at|with|for)`),
	regexp.MustCompile(`(?i)experience\s+in`),
	regexp.MustCompile(`(?i)responsible\s+for`),
	regexp.MustCompile(`(?i)managed\s+`),
	regexp.MustCompile(`(?i)led\s+`),
}

// projectPatterns capture the project description following an indicator verb.
var projectPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)project[:\s]+([^.!?]+)`),
	regexp.MustCompile(`(?i)developed\s+([^.!?]+)`),
	regexp.MustCompile(`(?i)built\s+([^.!?]+)`),
	regexp.MustCompile(`(?i)implemented\s+([^.!?]+)`),
	regexp.MustCompile(`(?i)designed\s+([^.!?]+)`),
}

func splitSentences(text string) []string {
	return sentenceSplitRe.Split(text, -1)
}

// extractExperienceSentences returns up to five sentences from text that
// match an experience indicator.
func extractExperienceSentences(text string) []string {
	if text == "" {
		return nil
	}

	var out []string
	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		for _, pat := range experiencePatterns {
			if pat.MatchString(sentence) {
				out = append(out, sentence)
				break
			}
		}
		if len(out) >= maxExperienceSentences {
			break
		}
	}
	return out
}

// extractProjects returns up to ten deduplicated project descriptions
// matched by the indicator patterns. Matches shorter than minProjectLen
// characters are dropped as noise.
func extractProjects(text string) []string {
	if text == "" {
		return nil
	}

	var projects []string
	for _, pat := range projectPatterns {
		for _, match := range pat.FindAllStringSubmatch(text, -1) {
			candidate := match[0]
			if len(match) > 1 {
				candidate = match[1]
			}
			candidate = strings.TrimSpace(candidate)
			if len(candidate) > minProjectLen {
				projects = append(projects, candidate)
			}
		}
	}

	// Deduplicate case-insensitively, preserving order.
	seen := make(map[string]bool, len(projects))
	unique := projects[:0]
	for _, p := range projects {
		lower := strings.ToLower(p)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		unique = append(unique, p)
		if len(unique) >= maxProjects {
			break
		}
	}
	return unique
}
