package skills

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/candidex/storage"
)

// DefaultVocabularyTTL bounds how long a corpus vocabulary snapshot is
// served before the next rescan.
const DefaultVocabularyTTL = time.Hour

// Vocabulary is a TTL-cached snapshot of every skill and skill domain seen
// across the profile corpus. Extraction and expansion validate candidate
// terms against it so the pipeline never surfaces terms no profile carries.
type Vocabulary struct {
	profiles storage.ProfileRepository
	ttl      time.Duration

	mu        sync.Mutex
	terms     map[string]bool
	fetchedAt time.Time
}

// NewVocabulary creates a vocabulary over the given profile repository.
func NewVocabulary(profiles storage.ProfileRepository, ttl time.Duration) *Vocabulary {
	if ttl <= 0 {
		ttl = DefaultVocabularyTTL
	}
	return &Vocabulary{
		profiles: profiles,
		ttl:      ttl,
	}
}

// Terms returns the current vocabulary, rescanning the corpus when the
// snapshot is stale. Terms are lowercased.
func (v *Vocabulary) Terms(ctx context.Context) (map[string]bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.terms != nil && time.Since(v.fetchedAt) < v.ttl {
		return v.terms, nil
	}

	skills, err := v.profiles.DistinctSkills(ctx)
	if err != nil {
		return nil, err
	}
	domains, err := v.profiles.DistinctSkillDomains(ctx)
	if err != nil {
		return nil, err
	}

	terms := make(map[string]bool, len(skills)+len(domains))
	for _, s := range skills {
		terms[s] = true
	}
	for _, d := range domains {
		terms[d] = true
	}

	v.terms = terms
	v.fetchedAt = time.Now()
	return terms, nil
}

// Invalidate drops the cached snapshot so the next Terms call rescans.
func (v *Vocabulary) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.terms = nil
}

// Validate maps a candidate term onto the vocabulary. Exact matches win;
// otherwise a fuzzy pass accepts substring containment in either direction
// and shared words for multi-word terms. Returns the matched vocabulary
// term and whether a match was found.
func (v *Vocabulary) Validate(ctx context.Context, term string) (string, bool, error) {
	terms, err := v.Terms(ctx)
	if err != nil {
		return "", false, err
	}
	match, ok := validateTerm(term, terms)
	return match, ok, nil
}

// minFuzzyLen guards substring matching against trivially short terms.
const minFuzzyLen = 3

func validateTerm(term string, vocabulary map[string]bool) (string, bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return "", false
	}
	if vocabulary[term] {
		return term, true
	}
	if len(term) < minFuzzyLen {
		return "", false
	}

	// Prefer the shortest containing/contained vocabulary term; a tighter
	// match carries less unrelated text.
	best := ""
	for candidate := range vocabulary {
		if len(candidate) < minFuzzyLen {
			continue
		}
		if strings.Contains(candidate, term) || strings.Contains(term, candidate) {
			if best == "" || len(candidate) < len(best) {
				best = candidate
			}
		}
	}
	if best != "" {
		return best, true
	}

	// Multi-word terms also match on a shared significant word, so
	// "python developer" validates against a corpus that only has "python".
	words := strings.Fields(term)
	if len(words) < 2 {
		return "", false
	}
	for _, w := range words {
		if len(w) >= minFuzzyLen && vocabulary[w] {
			return w, true
		}
	}
	return "", false
}
