// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/candidex"
	"github.com/poiesic/candidex/ai"
	"github.com/poiesic/candidex/core"
	"github.com/poiesic/candidex/reindex"
)

func main() {
	app := &cli.App{
		Name:  "candidex",
		Usage: "Hybrid semantic search over candidate profiles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search candidate profiles",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:  "location",
						Usage: "Filter by location substring",
					},
					&cli.StringFlag{
						Name:  "domain",
						Usage: "Filter by skill domain",
					},
					&cli.Float64Flag{
						Name:  "min-years",
						Usage: "Filter by minimum years of experience",
					},
					&cli.StringFlag{
						Name:  "skill",
						Usage: "Filter by skill or skill domain substring",
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   10,
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Generate a match explanation for each result",
					},
				),
			},
			{
				Name:   "upsert",
				Usage:  "Store and index profiles from a JSON file or stdin",
				Action: upsertCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Path to a JSON profile or array of profiles (default: stdin)",
					},
				),
			},
			{
				Name:      "get",
				Usage:     "Print a stored profile as JSON",
				ArgsUsage: "<profile-id>",
				Action:    getCommand,
				Flags:     engineFlags(),
			},
			{
				Name:      "delete",
				Usage:     "Remove a profile from the store and the index",
				ArgsUsage: "<profile-id>",
				Action:    deleteCommand,
				Flags:     engineFlags(),
			},
			{
				Name:   "integrity",
				Usage:  "Report drift between the profile store and the vector index",
				Action: integrityCommand,
				Flags:  engineFlags(),
			},
			{
				Name:   "repair",
				Usage:  "Remove orphan vectors and index missing profiles",
				Action: repairCommand,
				Flags:  engineFlags(),
			},
			{
				Name:   "clear-caches",
				Usage:  "Empty every cache layer",
				Action: clearCachesCommand,
				Flags:  engineFlags(),
			},
			{
				Name:   "stats",
				Usage:  "Print vector index statistics",
				Action: statsCommand,
				Flags:  engineFlags(),
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the vector index for every stored profile",
				Action: reindexCommand,
				Flags: append(engineFlags(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Reindex even when the version marker matches",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of profiles to process in each batch",
						Value: reindex.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding workers (0 = auto)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N profiles",
						Value: 25,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embeddings",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// engineFlags returns the flags every engine-backed command shares.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to the data directory",
			Value:   "./candidex_db",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "llm-host",
			Usage: "Completion service host URL (defaults to embedding-host)",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "llm-model",
			Usage: "Completion model name",
			Value: "qwen2.5:3b",
		},
		&cli.IntFlag{
			Name:  "dimensions",
			Usage: "Embedding vector dimensionality",
			Value: 768,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Timeout for a single provider call",
			Value: ai.DefaultTimeout,
		},
	}
}

func openEngine(c *cli.Context) (*candidex.Engine, error) {
	llmHost := c.String("llm-host")
	if llmHost == "" {
		llmHost = c.String("embedding-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithLLMHost(llmHost),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithLLMModel(c.String("llm-model")),
		ai.WithDimensions(c.Int("dimensions")),
		ai.WithTimeout(c.Duration("timeout")),
	)

	engine, err := candidex.NewEngine(c.String("db"), candidex.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	filters := core.SearchFilters{
		Skill:              c.String("skill"),
		Location:           c.String("location"),
		Domain:             c.String("domain"),
		MinExperienceYears: c.Float64("min-years"),
	}
	if query == "" && filters.Empty() {
		return fmt.Errorf("a query or at least one filter is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	resp, err := engine.Search(ctx, query, filters, c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(resp.Degraded) > 0 {
		fmt.Fprintf(os.Stderr, "degraded stages: %s\n", strings.Join(resp.Degraded, ", "))
	}
	fmt.Printf("Found %d candidates\n", len(resp.Results))
	for i, result := range resp.Results {
		name := result.ProfileID
		if profile, err := engine.GetProfile(ctx, result.ProfileID); err == nil && profile.Name != "" {
			name = profile.Name
		}
		fmt.Printf("%d: %s (%s) [%.1f]\n", i+1, name, result.ProfileID, result.Score)
		if len(result.MatchedSkills) > 0 {
			fmt.Printf("   matched: %s\n", strings.Join(result.MatchedSkills, ", "))
		}
		if c.Bool("explain") {
			explanation, err := engine.Explain(ctx, query, result.ProfileID)
			if err != nil {
				return err
			}
			fmt.Printf("   %s\n", explanation)
		}
	}
	return nil
}

func upsertCommand(c *cli.Context) error {
	var input io.Reader = os.Stdin
	if path := c.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open profile file: %w", err)
		}
		defer f.Close()
		input = f
	}

	profiles, err := decodeProfiles(input)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		return fmt.Errorf("no profiles to upsert")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	for _, profile := range profiles {
		if err := engine.UpsertProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to upsert profile %s: %w", profile.ID, err)
		}
	}

	fmt.Printf("Upserted %d profiles\n", len(profiles))
	return nil
}

// decodeProfiles accepts either a single JSON profile object or an array.
func decodeProfiles(r io.Reader) ([]*core.CandidateProfile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile input: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var profiles []*core.CandidateProfile
		if err := json.Unmarshal(data, &profiles); err != nil {
			return nil, fmt.Errorf("failed to parse profile array: %w", err)
		}
		return profiles, nil
	}

	var profile core.CandidateProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return []*core.CandidateProfile{&profile}, nil
}

func getCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("profile id is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	profile, err := engine.GetProfile(context.Background(), id)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(profile)
}

func deleteCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("profile id is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.DeleteProfile(context.Background(), id); err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", id, err)
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}

func integrityCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	report, err := engine.IntegrityReport(context.Background())
	if err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}

	fmt.Printf("Stored profiles:  %d\n", report.StoredProfiles)
	fmt.Printf("Indexed profiles: %d\n", report.IndexedProfiles)
	if report.Clean() {
		fmt.Println("Store and index are consistent")
		return nil
	}
	if len(report.OrphanVectors) > 0 {
		fmt.Printf("Orphan vectors:   %s\n", strings.Join(report.OrphanVectors, ", "))
	}
	if len(report.MissingProfiles) > 0 {
		fmt.Printf("Missing profiles: %s\n", strings.Join(report.MissingProfiles, ", "))
	}
	return nil
}

func repairCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	summary, err := engine.Repair(context.Background())
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}

	fmt.Printf("Checked:         %d\n", summary.Checked)
	fmt.Printf("Added:           %d\n", summary.Added)
	fmt.Printf("Removed orphans: %d\n", summary.RemovedOrphans)
	fmt.Printf("Skipped:         %d\n", summary.SkippedExisting)
	if summary.StoppedEarly {
		fmt.Println("Stopped early: consecutive profiles already indexed")
	}
	for _, failure := range summary.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", failure)
	}
	return nil
}

func clearCachesCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	cleared := engine.ClearCaches()
	layers := make([]string, 0, len(cleared))
	for layer := range cleared {
		layers = append(layers, layer)
	}
	sort.Strings(layers)
	for _, layer := range layers {
		fmt.Printf("%s: %d entries cleared\n", layer, cleared[layer])
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats := engine.IndexStats()
	fmt.Printf("Index kind:  %s\n", stats.Kind)
	fmt.Printf("Profiles:    %d\n", stats.Profiles)
	fmt.Printf("Live chunks: %d\n", stats.LiveChunks)
	fmt.Printf("Tombstones:  %d\n", stats.Tombstones)
	fmt.Printf("Dimensions:  %d\n", stats.Dimensions)
	return nil
}

func reindexCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := context.Background()
	if !c.Bool("force") {
		needs, err := engine.NeedsReindex(ctx)
		if err != nil {
			return err
		}
		if !needs {
			fmt.Println("Index version matches the configured model; use --force to reindex anyway")
			return nil
		}
	}

	cfg := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		PoolSize:       c.Int("pool-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reindexer, err := engine.NewReindexer(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer reindexer.Release()

	summary, err := reindexer.Run(ctx, engine.IndexVersion())
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	if summary.Failed > 0 {
		for _, failure := range summary.Failures {
			fmt.Fprintf(os.Stderr, "error: %s\n", failure)
		}
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
