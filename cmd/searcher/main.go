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
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/candidex"
	"github.com/poiesic/candidex/core"
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	engine, err := candidex.NewEngine("./candidex_db")
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	query := "senior python developer with aws experience"
	if len(os.Args) > 1 {
		query = strings.Join(os.Args[1:], " ")
	}

	ctx := context.Background()
	resp, err := engine.Search(ctx, query, core.SearchFilters{}, 5)
	if err != nil {
		panic(err)
	}

	if len(resp.Degraded) > 0 {
		fmt.Printf("degraded stages: %s\n", strings.Join(resp.Degraded, ", "))
	}
	fmt.Printf("Found %d candidates\n", len(resp.Results))
	for i, hit := range resp.Results {
		fmt.Printf("%d: %s [%.1f] similarity=%.3f skills=%.2f\n",
			i, hit.ProfileID, hit.Score, hit.Similarity, hit.SkillScore)
		if len(hit.MatchedSkills) > 0 {
			fmt.Printf("   matched: %s\n", strings.Join(hit.MatchedSkills, ", "))
		}
	}
}
