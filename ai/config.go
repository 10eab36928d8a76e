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


package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// LLMHost is the base URL for the completion service API used by
	// skill extraction, reranking and explanations.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	LLMHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// LLMModel is the model identifier to use for completions.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	LLMModel string

	// Dimensions is the embedding vector dimensionality for the deployment.
	// Every index and persisted vector is bound to this value.
	Dimensions int

	// Timeout bounds every provider call. A hung provider then surfaces as
	// a deadline error the pipeline can degrade on, instead of stalling the
	// query. Zero disables the bound.
	Timeout time.Duration
}

// DefaultTimeout is the default bound on a single provider call. Local
// models can take tens of seconds on a cold start, so it is generous.
const DefaultTimeout = 60 * time.Second

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithLLMHost sets the completion service host URL.
func WithLLMHost(host string) ConfigOption {
	return func(c *Config) {
		c.LLMHost = host
	}
}

// WithHost sets both embedding and completion hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.LLMHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithLLMModel sets the completion model identifier.
func WithLLMModel(model string) ConfigOption {
	return func(c *Config) {
		c.LLMModel = model
	}
}

// WithDimensions sets the embedding vector dimensionality.
func WithDimensions(dims int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = dims
	}
}

// WithTimeout sets the per-call provider timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, embedding and completion use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:  defaultHost,
		LLMHost:        defaultHost,
		EmbeddingModel: "embeddinggemma",
		LLMModel:       "qwen2.5:3b",
		Dimensions:     768,
		Timeout:        DefaultTimeout,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithEmbeddingModel("text-embedding-3-small"),
//       WithDimensions(1536),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	// Ensure EmbeddingHost ends with /v1 for OpenAI-compatible APIs
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	// Ensure LLMHost ends with /v1 for OpenAI-compatible APIs
	if c.LLMHost != "" && !strings.HasSuffix(c.LLMHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.LLMHost = strings.TrimSuffix(c.LLMHost, "/")
		c.LLMHost = c.LLMHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.LLMHost == "" {
		return errors.New("ai config: LLMHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.LLMModel == "" {
		return errors.New("ai config: LLMModel is required")
	}
	if c.Dimensions <= 0 {
		return errors.New("ai config: Dimensions must be positive")
	}
	return nil
}
