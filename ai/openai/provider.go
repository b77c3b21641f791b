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
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/heritage-archive/hrag/ai"
)

// noToken is sent to local OpenAI-compatible services that don't require authentication.
const noToken = "none"

// Provider implements ai.AIProvider using OpenAI-compatible services.
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

func (o options) token(config *ai.Config) string {
	if config.APIKey == "" {
		return noToken
	}
	return config.APIKey
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

func withTimeout(d time.Duration) func(context.Context) (context.Context, context.CancelFunc) {
	return func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, d)
	}
}

// NewProvider creates a new OpenAI provider with the given configuration.
func NewProvider(config *ai.Config, opts ...Option) (ai.AIProvider, error) {
	if config == nil {
		return nil, errors.New("ai config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Backend != ai.BackendOpenAI {
		return nil, errors.New("openai provider requires the openai backend")
	}

	o := options{httpClient: &http.Client{}, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	embedder, err := newEmbedder(config, o)
	if err != nil {
		return nil, err
	}
	generator, err := newGenerator(config, o)
	if err != nil {
		return nil, err
	}

	return &Provider{
		embedder:  embedder,
		generator: generator,
		logger:    o.logger.With("component", "openai-provider"),
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

// Close closes the provider and releases resources.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
