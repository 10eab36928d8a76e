package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/candidex/ai"
	"github.com/poiesic/candidex/core"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder embeddings.Embedder
	dims     int
	timeout  time.Duration
	logger   *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for embeddings
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	// Wrap in langchaingo embedder
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		dims:     config.Dimensions,
		timeout:  config.Timeout,
		logger:   slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil, fmt.Errorf("%w: empty response", core.ErrEmbeddingFailed)
	}
	return vecs[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
// Every returned vector is checked against the configured dimensionality.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	ctx, cancel := callContext(ctx, e.timeout)
	defer cancel()

	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrProviderUnavailable, err)
	}

	for i, v := range vecs {
		if len(v) != e.dims {
			e.logger.Error("embedding has wrong dimensionality",
				"index", i, "got", len(v), "want", e.dims)
			return nil, fmt.Errorf("%w: got %d, want %d", core.ErrDimensionMismatch, len(v), e.dims)
		}
	}

	return vecs, nil
}
