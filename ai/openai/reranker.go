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

// Reranker implements ai.Reranker using OpenAI-compatible chat APIs.
// It scores all documents in a single completion call.
type Reranker struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// scoreList is an internal type used for JSON unmarshaling of rerank responses.
type scoreList struct {
	Scores []float64 `json:"scores"`
}

// newReranker is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newReranker(config *ai.Config) (*Reranker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.LLMHost),
		openai.WithToken("none"),
		openai.WithModel(config.LLMModel),
	)
	if err != nil {
		return nil, err
	}

	return &Reranker{
		client:  client,
		timeout: config.Timeout,
		logger:  slog.Default().With("component", "openai-reranker"),
	}, nil
}

// NewReranker creates a new reranker using the provided configuration.
//
// Returns ai.Reranker interface to enforce abstraction.
func NewReranker(config *ai.Config) (ai.Reranker, error) {
	return newReranker(config)
}

// RerankScores returns one relevance score in [0, 1] per document, in input order.
func (r *Reranker) RerankScores(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Query: %s\n\nCandidates:\n", query)
	for i, doc := range documents {
		fmt.Fprintf(&user, "%d. %s\n", i+1, doc)
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(fmt.Sprintf(rerankPrompt, rerankSchema))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user.String())},
		},
	}

	ctx, cancel := callContext(ctx, r.timeout)
	defer cancel()

	response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		r.logger.Error("rerank call failed", "docs", len(documents), "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrProviderUnavailable, err)
	}
	if len(response.Choices) < 1 {
		return nil, fmt.Errorf("%w: no choices", core.ErrProviderUnavailable)
	}

	var result scoreList
	responseText := stripCodeFences(response.Choices[0].Content)
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		r.logger.Warn("error parsing rerank response", "response", responseText, "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrProviderUnavailable, err)
	}

	if len(result.Scores) != len(documents) {
		r.logger.Warn("rerank score count mismatch",
			"got", len(result.Scores), "want", len(documents))
		return nil, fmt.Errorf("%w: score count mismatch", core.ErrProviderUnavailable)
	}

	for i, s := range result.Scores {
		if s < 0 {
			result.Scores[i] = 0
		} else if s > 1 {
			result.Scores[i] = 1
		}
	}
	return result.Scores, nil
}
