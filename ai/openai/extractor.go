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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/candidex/ai"
	"github.com/poiesic/candidex/core"
)

// SkillExtractor implements ai.SkillExtractor using OpenAI-compatible chat APIs.
type SkillExtractor struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// skillList is an internal type used for JSON unmarshaling of extraction responses.
type skillList struct {
	Skills []string `json:"skills"`
}

// relatedList is an internal type used for JSON unmarshaling of suggestion responses.
type relatedList struct {
	Related []string `json:"related"`
}

// newSkillExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSkillExtractor(config *ai.Config) (*SkillExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.LLMHost),
		openai.WithToken("none"),
		openai.WithModel(config.LLMModel),
	)
	if err != nil {
		return nil, err
	}

	return &SkillExtractor{
		client:  client,
		timeout: config.Timeout,
		logger:  slog.Default().With("component", "openai-skill-extractor"),
	}, nil
}

// NewSkillExtractor creates a new skill extractor using the provided configuration.
//
// Returns ai.SkillExtractor interface to enforce abstraction.
func NewSkillExtractor(config *ai.Config) (ai.SkillExtractor, error) {
	return newSkillExtractor(config)
}

// ExtractSkills pulls skill terms out of a recruiter query using the LLM.
// Multi-word terms are preserved; results are lowercased and deduplicated.
func (e *SkillExtractor) ExtractSkills(ctx context.Context, query string) ([]string, error) {
	system := fmt.Sprintf(skillExtractionPrompt, skillExtractionSchema)

	var result skillList
	if err := e.generateJSON(ctx, system, query, &result); err != nil {
		return nil, err
	}

	return normalizeTerms(result.Skills), nil
}

// SuggestRelated asks the LLM for up to max skills adjacent to the given ones.
func (e *SkillExtractor) SuggestRelated(ctx context.Context, skills []string, max int) ([]string, error) {
	if len(skills) == 0 || max <= 0 {
		return nil, nil
	}
	system := fmt.Sprintf(relatedSkillsPrompt, max, relatedSkillsSchema)

	var result relatedList
	if err := e.generateJSON(ctx, system, strings.Join(skills, ", "), &result); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		seen[strings.ToLower(strings.TrimSpace(s))] = true
	}
	out := make([]string, 0, max)
	for _, s := range normalizeTerms(result.Related) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) >= max {
			break
		}
	}
	return out, nil
}

// generateJSON runs a JSON-mode completion and unmarshals the response into
// out, retrying up to 3 times on malformed JSON.
func (e *SkillExtractor) generateJSON(ctx context.Context, system, user string, out any) error {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		// Each attempt gets its own deadline.
		callCtx, cancel := callContext(ctx, e.timeout)
		response, err := e.client.GenerateContent(callCtx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		cancel()
		if err != nil {
			e.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return fmt.Errorf("%w: %w", core.ErrProviderUnavailable, err)
		}

		if len(response.Choices) < 1 {
			e.logger.Debug("no choices returned from model")
			return fmt.Errorf("%w: no choices", core.ErrProviderUnavailable)
		}

		responseText := stripCodeFences(response.Choices[0].Content)

		if err := json.Unmarshal([]byte(responseText), out); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extractor response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}
		return nil
	}

	e.logger.Error("failed to parse extractor response after retries", "err", lastErr)
	return fmt.Errorf("%w: %w", core.ErrProviderUnavailable, lastErr)
}

// stripCodeFences removes markdown code fences some models wrap around JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// normalizeTerms lowercases, trims and deduplicates terms, preserving order.
func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
