package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/candidex/core"
)

func TestCandidateSummary(t *testing.T) {
	profile := &core.CandidateProfile{
		Name:            "Ada",
		Skills:          []string{"python", "django"},
		SkillDomains:    []string{"Backend"},
		ExperienceYears: 8,
		CurrentCompany:  "Initech",
		Location:        "Austin",
		RawText:         "Builds APIs.",
	}

	summary := CandidateSummary(profile)
	assert.Contains(t, summary, "Ada")
	assert.Contains(t, summary, "python, django")
	assert.Contains(t, summary, "Backend")
	assert.Contains(t, summary, "8.0 years")
	assert.Contains(t, summary, "Initech")
	assert.Contains(t, summary, "Builds APIs.")
}

func TestCandidateSummaryTruncatesRawText(t *testing.T) {
	profile := &core.CandidateProfile{
		RawText: strings.Repeat("x", 2*maxSummaryRawText),
	}
	assert.Len(t, CandidateSummary(profile), maxSummaryRawText)
}

func TestMatchedSkills(t *testing.T) {
	skills := []string{"Python", "Apache Airflow", "Go"}

	assert.Equal(t, []string{"python", "airflow"},
		matchedSkills([]string{"python", "airflow", "rust"}, skills))
	assert.Nil(t, matchedSkills(nil, skills))
	assert.Nil(t, matchedSkills([]string{"python"}, nil))

	// Substring matching works in both directions.
	assert.Equal(t, []string{"apache airflow pipelines"},
		matchedSkills([]string{"apache airflow pipelines"}, skills))
}
