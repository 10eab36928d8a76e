package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/candidex/ai"
	"github.com/poiesic/candidex/core"
)

// Explainer implements ai.Explainer using OpenAI-compatible chat APIs.
type Explainer struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

func newExplainer(config *ai.Config) (*Explainer, error) {
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

	return &Explainer{
		client:  client,
		timeout: config.Timeout,
		logger:  slog.Default().With("component", "openai-explainer"),
	}, nil
}

// NewExplainer creates a new match explainer using the provided configuration.
//
// Returns ai.Explainer interface to enforce abstraction.
func NewExplainer(config *ai.Config) (ai.Explainer, error) {
	return newExplainer(config)
}

// ExplainMatch describes why the candidate summary matches the query.
func (e *Explainer) ExplainMatch(ctx context.Context, query, candidateSummary string) (string, error) {
	user := fmt.Sprintf("Query: %s\n\nCandidate summary:\n%s", query, candidateSummary)

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(explanationPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(user)},
		},
	}

	ctx, cancel := callContext(ctx, e.timeout)
	defer cancel()

	response, err := e.client.GenerateContent(ctx, content, llms.WithTemperature(0.3))
	if err != nil {
		e.logger.Error("explanation call failed", "err", err)
		return "", fmt.Errorf("%w: %w", core.ErrProviderUnavailable, err)
	}
	if len(response.Choices) < 1 {
		return "", fmt.Errorf("%w: no choices", core.ErrProviderUnavailable)
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
