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

package ollama

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/heritage-archive/hrag/ai"
)

// Provider owns an Ollama embedder and generator.
type Provider struct {
	embedder  *Embedder
	generator *Generator
	logger    *slog.Logger
}

// Option configures a Provider.
type Option func(*options) error

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets the HTTP client shared by both services.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("http client is required")
		}
		o.httpClient = c
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger is required")
		}
		o.logger = logger
		return nil
	}
}

// NewProvider validates config and creates the Ollama services.
func NewProvider(config *ai.Config, opts ...Option) (ai.AIProvider, error) {
	return newProvider(config, opts...)
}

func newProvider(config *ai.Config, opts ...Option) (*Provider, error) {
	if config == nil {
		return nil, errors.New("ai config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendOllama {
		return nil, errors.New("ollama provider requires the ollama backend")
	}

	o := options{httpClient: &http.Client{}, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	logger := o.logger.With("component", "ollama-provider")

	return &Provider{
		embedder: &Embedder{
			client: &client{http: o.httpClient, timeout: config.EmbedTimeout, logger: logger},
			url:    config.EmbeddingHost + "/embeddings",
			model:  config.EmbeddingModel,
		},
		generator: &Generator{
			client: &client{http: o.httpClient, timeout: config.GenerateTimeout, logger: logger},
			url:    config.GenerationHost + "/generate",
			model:  config.GenerationModel,
		},
		logger: logger,
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close releases idle connections.
func (p *Provider) Close() error {
	p.logger.Debug("closing ollama provider")
	p.embedder.client.http.CloseIdleConnections()
	return nil
}
