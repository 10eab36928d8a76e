package skills

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTerm(t *testing.T) {
	vocabulary := map[string]bool{
		"python":     true,
		"go":         true,
		"databricks": true,
		"java":       true,
	}

	t.Run("exact match", func(t *testing.T) {
		match, ok := validateTerm("Python", vocabulary)
		assert.True(t, ok)
		assert.Equal(t, "python", match)
	})

	t.Run("substring match maps to vocabulary term", func(t *testing.T) {
		match, ok := validateTerm("databrick", vocabulary)
		assert.True(t, ok)
		assert.Equal(t, "databricks", match)
	})

	t.Run("multi-word term matches shared word", func(t *testing.T) {
		match, ok := validateTerm("python developer", vocabulary)
		assert.True(t, ok)
		assert.Equal(t, "python", match)
	})

	t.Run("no match", func(t *testing.T) {
		_, ok := validateTerm("haskell", vocabulary)
		assert.False(t, ok)
	})

	t.Run("short terms need exact match", func(t *testing.T) {
		match, ok := validateTerm("go", vocabulary)
		assert.True(t, ok)
		assert.Equal(t, "go", match)

		// "ja" is too short for fuzzy matching against "java"
		_, ok = validateTerm("ja", vocabulary)
		assert.False(t, ok)
	})

	t.Run("empty term", func(t *testing.T) {
		_, ok := validateTerm("   ", vocabulary)
		assert.False(t, ok)
	})
}
