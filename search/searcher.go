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

package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heritage-archive/hrag/ai"
	"github.com/heritage-archive/hrag/core"
	"github.com/heritage-archive/hrag/embedding"
	"github.com/heritage-archive/hrag/vectorstore"
)

// DefaultLimit is the number of results returned when Options.Limit is not positive.
const DefaultLimit = 5

// ResultCache stores search results keyed by query and limit.
type ResultCache interface {
	GetSearchResults(query string, limit int) ([]core.SearchResult, bool)
	SetSearchResults(query string, limit int, results []core.SearchResult) error
}

// Options controls a single query.
type Options struct {
	Limit          int  // number of results, DefaultLimit when <= 0
	UseCache       bool // consult and fill the embedding and result caches
	GenerateAnswer bool // ask the generator for an answer when results exist
}

// DefaultOptions returns the options used by the command line query.
func DefaultOptions() Options {
	return Options{Limit: DefaultLimit, UseCache: true, GenerateAnswer: true}
}

// Searcher runs the query pipeline: embed, search, format and generate.
type Searcher struct {
	store     vectorstore.Store
	embedder  *embedding.Client
	generator ai.Generator
	results   ResultCache
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithGenerator sets the generator used to answer queries.
// Without one, queries asking for an answer fail with ErrGeneratorRequired.
func WithGenerator(generator ai.Generator) Option {
	return func(s *Searcher) error {
		s.generator = generator
		return nil
	}
}

// WithResultCache sets the cache used for search results.
func WithResultCache(cache ResultCache) Option {
	return func(s *Searcher) error {
		s.results = cache
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store vectorstore.Store, embedder *embedding.Client, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:    store,
		embedder: embedder,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "search")

	return s, nil
}

// Query answers a question over the corpus.
func (s *Searcher) Query(ctx context.Context, query string, opts Options) (*core.QueryContext, error) {
	return s.QueryWithMonitor(ctx, query, opts, nil)
}

// QueryWithMonitor answers a question over the corpus with monitoring.
// The monitor receives callbacks at each stage of the query.
func (s *Searcher) QueryWithMonitor(ctx context.Context, query string, opts Options, monitor Monitor) (*core.QueryContext, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, core.ErrEmptyQuery
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.GenerateAnswer && s.generator == nil {
		return nil, ErrGeneratorRequired
	}

	monitor.Start(query)
	qc := &core.QueryContext{Query: query}

	// 1. Embed the query
	embedder := s.embedder
	if !opts.UseCache {
		embedder = embedder.WithoutCache()
	}
	vector, cached, err := embedder.EmbedCached(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	monitor.AfterEmbedding(cached)

	// 2. Retrieve matching chunks
	results, cached, err := s.search(ctx, query, vector, opts)
	if err != nil {
		return nil, err
	}
	qc.Results = results
	monitor.AfterSearch(results, cached)

	// 3. Ground an answer on the retrieved context
	if opts.GenerateAnswer && len(results) > 0 {
		monitor.BeforeGeneration(s.generator.Model())
		answer, err := s.generator.Generate(ctx, SystemPrompt, BuildPrompt(query, FormatContext(results)))
		if err != nil {
			s.logger.Error("error generating answer", "model", s.generator.Model(), "err", err)
			return nil, fmt.Errorf("generating answer: %w", err)
		}
		qc.Answer = &answer
	}

	monitor.Finish(qc)
	return qc, nil
}

func (s *Searcher) search(ctx context.Context, query string, vector []float32, opts Options) ([]core.SearchResult, bool, error) {
	useCache := opts.UseCache && s.results != nil
	if useCache {
		if results, ok := s.results.GetSearchResults(query, opts.Limit); ok {
			s.logger.Debug("search cache hit", "limit", opts.Limit, "results", len(results))
			return results, true, nil
		}
	}

	results, err := s.store.Search(ctx, vector, opts.Limit)
	if err != nil {
		s.logger.Error("error searching vector store", "limit", opts.Limit, "err", err)
		return nil, false, fmt.Errorf("searching: %w", err)
	}

	if useCache {
		if err := s.results.SetSearchResults(query, opts.Limit, results); err != nil {
			s.logger.Warn("failed to cache search results", "err", err)
		}
	}
	return results, false, nil
}
