package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestEngineFlagDefaults(t *testing.T) {
	flags := engineFlags()

	findString := func(name string) *cli.StringFlag {
		for _, flag := range flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
				return f
			}
		}
		return nil
	}

	t.Run("db has a default path", func(t *testing.T) {
		f := findString("db")
		require.NotNil(t, f)
		assert.Equal(t, "./candidex_db", f.Value)
	})

	t.Run("embedding-host has default value", func(t *testing.T) {
		f := findString("embedding-host")
		require.NotNil(t, f)
		assert.Equal(t, "http://localhost:11434/v1", f.Value)
	})

	t.Run("llm-host defaults to empty", func(t *testing.T) {
		f := findString("llm-host")
		require.NotNil(t, f)
		assert.Empty(t, f.Value, "empty value falls back to embedding-host")
	})

	t.Run("dimensions has default value", func(t *testing.T) {
		var dims *cli.IntFlag
		for _, flag := range flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "dimensions" {
				dims = f
				break
			}
		}
		require.NotNil(t, dims)
		assert.Equal(t, 768, dims.Value)
	})
}

func TestSearchCommandRequiresQueryOrFilter(t *testing.T) {
	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "search",
				Action: searchCommand,
				Flags:  engineFlags(),
			},
		},
	}

	err := app.Run([]string{"candidex", "search"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query or at least one filter")
}

func TestDecodeProfiles(t *testing.T) {
	t.Run("single object", func(t *testing.T) {
		input := `{"ID": "p1", "Name": "Ada", "Skills": ["python"]}`
		profiles, err := decodeProfiles(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "p1", profiles[0].ID)
		assert.Equal(t, []string{"python"}, profiles[0].Skills)
	})

	t.Run("array", func(t *testing.T) {
		input := `[{"ID": "p1"}, {"ID": "p2"}]`
		profiles, err := decodeProfiles(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, profiles, 2)
		assert.Equal(t, "p2", profiles[1].ID)
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := decodeProfiles(strings.NewReader("not json"))
		assert.Error(t, err)
	})
}
