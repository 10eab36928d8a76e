package mock

import (
	"context"
	"strings"
	"sync"
)

// queryStopWords are dropped by the default extraction behavior.
var queryStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "developer": true, "engineer": true,
	"experience": true, "expert": true, "in": true, "junior": true,
	"knows": true, "lead": true, "looking": true, "need": true, "of": true,
	"or": true, "senior": true, "someone": true, "the": true, "who": true,
	"with": true, "years": true,
}

// MockSkillExtractor is a test double for ai.SkillExtractor.
// It allows custom behavior injection via function fields and is safe for
// concurrent use.
type MockSkillExtractor struct {
	// ExtractSkillsFunc is called by ExtractSkills if set.
	// If nil, uses default word splitting with stop-word removal.
	ExtractSkillsFunc func(ctx context.Context, query string) ([]string, error)

	// SuggestRelatedFunc is called by SuggestRelated if set.
	// If nil, the Related map is consulted.
	SuggestRelatedFunc func(ctx context.Context, skills []string, max int) ([]string, error)

	// Related maps a skill to suggestions returned by the default
	// SuggestRelated behavior.
	Related map[string][]string

	mu        sync.Mutex
	callCount int
}

// NewMockSkillExtractor creates a mock skill extractor with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockSkillExtractor() *MockSkillExtractor {
	return &MockSkillExtractor{}
}

// ExtractSkills splits the query into lowercase terms, dropping stop words
// and punctuation.
func (m *MockSkillExtractor) ExtractSkills(ctx context.Context, query string) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractSkillsFunc != nil {
		return m.ExtractSkillsFunc(ctx, query)
	}

	words := strings.Fields(strings.ToLower(query))
	skills := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'()[]{}")
		if w == "" || queryStopWords[w] {
			continue
		}
		skills = append(skills, w)
	}
	return skills, nil
}

// SuggestRelated returns suggestions from the Related map for each input
// skill, up to max.
func (m *MockSkillExtractor) SuggestRelated(ctx context.Context, skills []string, max int) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.SuggestRelatedFunc != nil {
		return m.SuggestRelatedFunc(ctx, skills, max)
	}

	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		seen[s] = true
	}
	var out []string
	for _, s := range skills {
		for _, r := range m.Related[s] {
			if seen[r] || len(out) >= max {
				continue
			}
			seen[r] = true
			out = append(out, r)
		}
	}
	return out, nil
}

// CallCount returns the number of times any method was called.
func (m *MockSkillExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockSkillExtractor) Reset() {
	m.mu.Lock()
	m.callCount = 0
	m.mu.Unlock()
	m.ExtractSkillsFunc = nil
	m.SuggestRelatedFunc = nil
}
