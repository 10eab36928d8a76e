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
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"github.com/poiesic/candidex"
	"github.com/poiesic/candidex/core"
)

var samples = []*core.CandidateProfile{
	{
		ID:              "sample-001",
		Name:            "Ada Moreno",
		Skills:          []string{"python", "django", "postgresql", "redis", "aws"},
		ExperienceYears: 8,
		CurrentCompany:  "Initech",
		Location:        "Austin, TX",
		RawText:         "Backend engineer with eight years building Django services on AWS. Led the migration of a monolith to event-driven workers backed by Redis streams.",
	},
	{
		ID:              "sample-002",
		Name:            "Grace Okafor",
		Skills:          []string{"python", "airflow", "spark", "snowflake", "dbt"},
		ExperienceYears: 5,
		CurrentCompany:  "Hooli",
		Location:        "Berlin",
		RawText:         "Data engineer focused on batch pipelines. Runs a 400-DAG Airflow deployment and owns the Spark-to-Snowflake ingestion layer.",
	},
	{
		ID:              "sample-003",
		Name:            "Linus Berg",
		Skills:          []string{"java", "spring boot", "kafka", "kubernetes"},
		ExperienceYears: 11,
		CurrentCompany:  "Vandelay Industries",
		Location:        "Stockholm",
		RawText:         "Staff engineer on a high-throughput order platform. Designed the Kafka event backbone and the Kubernetes rollout tooling around it.",
	},
	{
		ID:              "sample-004",
		Name:            "Priya Raman",
		Skills:          []string{"react", "typescript", "node.js", "graphql"},
		ExperienceYears: 6,
		CurrentCompany:  "Pied Piper",
		Location:        "Bangalore",
		RawText:         "Full-stack developer shipping a React and GraphQL product surface. Maintains the shared TypeScript component library used by four teams.",
	},
	{
		ID:              "sample-005",
		Name:            "Tomas Villanueva",
		Skills:          []string{"go", "terraform", "prometheus", "docker", "aws"},
		ExperienceYears: 9,
		CurrentCompany:  "Globex",
		Location:        "Madrid",
		RawText:         "Site reliability engineer. Wrote the in-house Terraform module registry and the Prometheus alerting pipeline for a 300-service fleet.",
	},
	{
		ID:              "sample-006",
		Name:            "Mei-Ling Chu",
		Skills:          []string{"pytorch", "python", "mlflow", "pandas"},
		ExperienceYears: 4,
		CurrentCompany:  "Stark Labs",
		Location:        "Taipei",
		RawText:         "Machine learning engineer training ranking models in PyTorch. Built the MLflow experiment tracking setup and the feature backfill jobs.",
	},
	{
		ID:              "sample-007",
		Name:            "Omar Haddad",
		Skills:          []string{"c#", ".net", "azure", "sql server"},
		ExperienceYears: 13,
		CurrentCompany:  "Wayne Enterprises",
		Location:        "Dubai",
		Certifications:  []string{"Azure Solutions Architect Expert"},
		RawText:         "Principal engineer on a .NET line-of-business suite. Moved twelve services from on-prem SQL Server to Azure managed instances.",
	},
	{
		ID:              "sample-008",
		Name:            "Sofia Lindqvist",
		Skills:          []string{"python", "fastapi", "celery", "postgresql"},
		ExperienceYears: 3,
		CurrentCompany:  "Acme Corp",
		Location:        "Helsinki",
		RawText:         "Backend developer on a FastAPI booking platform. Owns the Celery task layer and the nightly reconciliation jobs.",
	},
}

var seedFileName = flag.String("src", "", "file of JSON profiles, one per line")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// profilesFromFile returns an iterator over newline-delimited JSON profiles.
func profilesFromFile(filename string) (iter.Seq2[*core.CandidateProfile, error], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(*core.CandidateProfile, error) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var profile core.CandidateProfile
			if err := json.Unmarshal(line, &profile); err != nil {
				if !yield(nil, fmt.Errorf("malformed profile line: %w", err)) {
					return
				}
				continue
			}
			if !yield(&profile, nil) {
				return
			}
		}
	}, nil
}

// profilesFromSlice returns an iterator over the built-in samples.
func profilesFromSlice(profiles []*core.CandidateProfile) iter.Seq2[*core.CandidateProfile, error] {
	return func(yield func(*core.CandidateProfile, error) bool) {
		for _, profile := range profiles {
			if !yield(profile, nil) {
				return
			}
		}
	}
}

func main() {
	engine, err := candidex.NewEngine("./candidex_db")
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ctx := context.Background()

	var source iter.Seq2[*core.CandidateProfile, error]
	if seedFileName != nil && *seedFileName != "" {
		source, err = profilesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = profilesFromSlice(samples)
	}

	seeded := 0
	for profile, err := range source {
		if err != nil {
			slog.Warn("skipping profile", "err", err)
			continue
		}
		if err := engine.UpsertProfile(ctx, profile); err != nil {
			panic(err)
		}
		seeded++
	}
	fmt.Printf("Seeded %d profiles\n", seeded)
}
