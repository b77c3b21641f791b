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

// Backend names the wire protocol spoken by the AI services.
type Backend string

const (
	// BackendOllama speaks the Ollama /api/embeddings and /api/generate endpoints.
	BackendOllama Backend = "ollama"
	// BackendOpenAI speaks the OpenAI-compatible /v1 endpoints.
	BackendOpenAI Backend = "openai"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Backend selects the provider implementation.
	// Default: ollama
	Backend Backend

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/api" for Ollama
	EmbeddingHost string

	// GenerationHost is the base URL for the answer generation service API.
	// Example: "http://localhost:11434/api" for Ollama
	GenerationHost string

	// APIKey authenticates against OpenAI-compatible services.
	// Local services accept any value.
	APIKey string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "nomic-embed-text", "text-embedding-3-small"
	EmbeddingModel string

	// GenerationModel is the model identifier used to write answers.
	// Example: "mixtral", "gpt-4o-mini"
	GenerationModel string

	// EmbedTimeout bounds a single embedding request.
	EmbedTimeout time.Duration

	// GenerateTimeout bounds a single generation request.
	GenerateTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend selects the provider backend.
func WithBackend(backend Backend) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGenerationHost sets the generation service host URL.
func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

// WithHost sets both embedding and generation hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
	}
}

// WithAPIKey sets the API key for OpenAI-compatible services.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGenerationModel sets the generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithTimeouts sets the per-request embedding and generation timeouts.
func WithTimeouts(embed, generate time.Duration) ConfigOption {
	return func(c *Config) {
		c.EmbedTimeout = embed
		c.GenerateTimeout = generate
	}
}

// DefaultConfig returns a Config for a local Ollama server.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/api"
	return &Config{
		Backend:         BackendOllama,
		EmbeddingHost:   defaultHost,
		GenerationHost:  defaultHost,
		EmbeddingModel:  "nomic-embed-text",
		GenerationModel: "mixtral",
		EmbedTimeout:    30 * time.Second,
		GenerateTimeout: 60 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://gpu-box:11434"),
//	    WithGenerationModel("llama3"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Hosts get the API path suffix of the selected backend: /api for Ollama,
// /v1 for OpenAI-compatible services.
func (c *Config) Normalize() {
	if c.Backend == "" {
		c.Backend = BackendOllama
	}
	suffix := "/api"
	if c.Backend == BackendOpenAI {
		suffix = "/v1"
	}
	c.EmbeddingHost = withSuffix(c.EmbeddingHost, suffix)
	c.GenerationHost = withSuffix(c.GenerationHost, suffix)
}

func withSuffix(host, suffix string) string {
	if host == "" {
		return host
	}
	host = strings.TrimSuffix(host, "/")
	if strings.HasSuffix(host, suffix) {
		return host
	}
	return host + suffix
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Backend != BackendOllama && c.Backend != BackendOpenAI {
		return errors.New("ai config: Backend must be ollama or openai")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.GenerationHost == "" {
		return errors.New("ai config: GenerationHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.EmbedTimeout <= 0 || c.GenerateTimeout <= 0 {
		return errors.New("ai config: timeouts must be positive")
	}
	return nil
}
