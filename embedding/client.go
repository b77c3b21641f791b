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

package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/heritage-archive/hrag/ai"
	"github.com/heritage-archive/hrag/core"
	"github.com/heritage-archive/hrag/retry"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"
)

// DefaultWorkers is the default size of the batch worker pool.
const DefaultWorkers = 4

// Cache stores query embeddings by text and model.
type Cache interface {
	GetEmbedding(text, model string) ([]float32, bool)
	SetEmbedding(text, model string, vector []float32) error
}

// Client embeds text with retries, an optional cache and a bounded pool.
type Client struct {
	embedder   ai.Embedder
	cache      Cache
	policy     retry.Policy
	workers    int
	dimensions int
	limiter    *rate.Limiter
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithCache enables the query embedding cache.
func WithCache(cache Cache) Option {
	return func(c *Client) error {
		c.cache = cache
		return nil
	}
}

// WithRetry sets the attempt count and base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) error {
		if maxAttempts <= 0 {
			return retry.ErrInvalidMaxAttempts
		}
		c.policy.MaxAttempts = maxAttempts
		c.policy.BaseDelay = baseDelay
		return nil
	}
}

// WithWorkers sets the batch worker pool size.
func WithWorkers(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return ErrInvalidWorkers
		}
		c.workers = n
		return nil
	}
}

// WithDimensions rejects vectors whose length differs from n. Zero disables the check.
func WithDimensions(n int) Option {
	return func(c *Client) error {
		c.dimensions = n
		return nil
	}
}

// WithRateLimit caps outbound embedding requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) error {
		if perSecond <= 0 {
			c.limiter = nil
			return nil
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// antsLogger routes pool diagnostics to slog.
type antsLogger struct {
	logger *slog.Logger
}

func (l antsLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// NewClient creates a Client. Call Close to release its worker pool.
func NewClient(embedder ai.Embedder, opts ...Option) (*Client, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	c := &Client{
		embedder: embedder,
		policy:   retry.DefaultPolicy(),
		workers:  DefaultWorkers,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "embedding", "model", embedder.Model())
	c.policy.Retryable = ai.IsTransient
	c.policy.Logger = c.logger

	pool, err := ants.NewPool(c.workers,
		ants.WithLogger(antsLogger{logger: c.logger}),
		ants.WithPanicHandler(func(p any) {
			c.logger.Error("embedding task panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, err
	}
	c.pool = pool
	return c, nil
}

// Model returns the embedding model name.
func (c *Client) Model() string {
	return c.embedder.Model()
}

// WithoutCache returns a view of the client that bypasses the cache.
// The view shares the worker pool; close only the original.
func (c *Client) WithoutCache() *Client {
	cp := *c
	cp.cache = nil
	return &cp
}

// EmbedOne embeds a single text, consulting the cache first when one is set.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vector, _, err := c.EmbedCached(ctx, text)
	return vector, err
}

// EmbedCached is EmbedOne that also reports whether the vector was served
// from the cache. A cache write failure is logged and does not fail the call.
func (c *Client) EmbedCached(ctx context.Context, text string) ([]float32, bool, error) {
	model := c.embedder.Model()
	if c.cache != nil {
		if vector, ok := c.cache.GetEmbedding(text, model); ok {
			c.logger.Debug("embedding cache hit", "length", len(text))
			return vector, true, nil
		}
	}

	vector, err := c.embed(ctx, text)
	if err != nil {
		return nil, false, err
	}

	if c.cache != nil {
		if err := c.cache.SetEmbedding(text, model, vector); err != nil {
			c.logger.Warn("failed to cache embedding", "err", err)
		}
	}
	return vector, false, nil
}

// EmbedMany embeds texts concurrently on the worker pool, bypassing the cache.
// The results are index-aligned with texts: a failed item leaves a nil
// vector and its error at the same index, and never affects other items.
func (c *Client) EmbedMany(ctx context.Context, texts []string) ([][]float32, []error) {
	vectors := make([][]float32, len(texts))
	errs := make([]error, len(texts))

	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("embedding task panicked: %v", r)
				}
			}()
			vectors[i], errs[i] = c.embed(ctx, text)
		}
		if err := c.pool.Submit(task); err != nil {
			errs[i] = fmt.Errorf("%w: %w", ErrClientClosed, err)
			wg.Done()
		}
	}
	wg.Wait()

	return vectors, errs
}

// embed calls the embedder under the retry policy.
func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ai.PermanentError("embed", ai.ErrEmptyText)
	}

	var vector []float32
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return ai.PermanentError("embed", err)
			}
		}
		v, err := c.embedder.EmbedText(ctx, text)
		if err != nil {
			return err
		}
		if err := core.ValidateDimensions(v, c.dimensions); err != nil {
			return ai.PermanentError("embed", err)
		}
		vector = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// Close releases the worker pool.
func (c *Client) Close() error {
	c.pool.Release()
	return nil
}
