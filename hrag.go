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

// Package hrag wires the heritage retrieval pipeline together.
//
// Open builds every service from a config.Config: the AI provider, the
// vector store, the optional query cache and the embedding client. The
// returned System hands out ingestion pipelines and searchers and owns the
// lifetime of everything it opened.
package hrag

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/heritage-archive/hrag/ai"
	"github.com/heritage-archive/hrag/ai/ollama"
	"github.com/heritage-archive/hrag/ai/openai"
	"github.com/heritage-archive/hrag/cache"
	"github.com/heritage-archive/hrag/cache/badger"
	"github.com/heritage-archive/hrag/chunker"
	"github.com/heritage-archive/hrag/config"
	"github.com/heritage-archive/hrag/core"
	"github.com/heritage-archive/hrag/embedding"
	"github.com/heritage-archive/hrag/ingestion"
	"github.com/heritage-archive/hrag/search"
	"github.com/heritage-archive/hrag/vectorstore"
	"github.com/heritage-archive/hrag/vectorstore/qdrant"
)

// ErrConfigRequired is returned when Open is called without a configuration.
var ErrConfigRequired = errors.New("configuration required")

type System struct {
	cfg        *config.Config
	provider   ai.AIProvider
	store      vectorstore.Store
	cacheStore cache.Store
	queryCache *cache.QueryCache
	cacheErr   error // why an enabled cache is not active
	embedder   *embedding.Client
	root       *slog.Logger // unscoped, handed to the components
	logger     *slog.Logger
}

// Option configures a System.
type Option func(*options)

type options struct {
	provider ai.AIProvider
	store    vectorstore.Store
	logger   *slog.Logger
}

// WithProvider uses provider instead of the one selected by AI_BACKEND.
// The System takes ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithVectorStore uses store instead of the Qdrant collection from the configuration.
func WithVectorStore(store vectorstore.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open builds the services described by cfg.
// A cache that cannot be opened is logged and disabled; it never fails Open.
func Open(cfg *config.Config, opts ...Option) (*System, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Apply options
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	s := &System{
		cfg:      cfg,
		provider: o.provider,
		store:    o.store,
		root:     o.logger,
		logger:   o.logger.With("component", "hrag"),
	}

	if s.provider == nil {
		provider, err := newProvider(cfg, o.logger)
		if err != nil {
			return nil, err
		}
		s.provider = provider
	}

	if s.store == nil {
		store, err := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection,
			qdrant.WithVectorSize(cfg.QdrantVectorSize),
			qdrant.WithDistance(cfg.Distance()),
			qdrant.WithAPIKey(cfg.QdrantAPIKey),
			qdrant.WithRetry(cfg.MaxRetries, cfg.RetryDelay),
			qdrant.WithLogger(o.logger),
		)
		if err != nil {
			s.provider.Close()
			return nil, err
		}
		s.store = store
	}

	if cfg.EnableCache {
		s.openCache(o.logger)
	}

	embedOpts := []embedding.Option{
		embedding.WithRetry(cfg.MaxRetries, cfg.RetryDelay),
		embedding.WithWorkers(cfg.EmbedWorkers),
		embedding.WithDimensions(cfg.QdrantVectorSize),
		embedding.WithRateLimit(cfg.EmbedRateLimit),
		embedding.WithLogger(o.logger),
	}
	if s.queryCache != nil {
		embedOpts = append(embedOpts, embedding.WithCache(s.queryCache))
	}
	embedder, err := embedding.NewClient(s.provider.Embedder(), embedOpts...)
	if err != nil {
		s.closeServices()
		return nil, err
	}
	s.embedder = embedder

	return s, nil
}

func newProvider(cfg *config.Config, logger *slog.Logger) (ai.AIProvider, error) {
	aiCfg := cfg.AIConfig()
	switch aiCfg.Backend {
	case ai.BackendOpenAI:
		return openai.NewProvider(aiCfg, openai.WithLogger(logger))
	default:
		return ollama.NewProvider(aiCfg, ollama.WithLogger(logger))
	}
}

func (s *System) openCache(logger *slog.Logger) {
	var (
		store cache.Store
		err   error
	)
	switch s.cfg.CacheBackend {
	case config.CacheBackendBadger:
		var bs *badger.Store
		bs, err = badger.Open(s.cfg.CacheDir, badger.WithTTL(s.cfg.CacheTTL.Duration()), badger.WithLogger(logger))
		if err == nil {
			store = bs
		}
	default:
		var fs *cache.FileStore
		fs, err = cache.Open(s.cfg.CacheFile, cache.WithTTL(s.cfg.CacheTTL.Duration()), cache.WithLogger(logger))
		if fs != nil {
			store = fs
		}
	}

	if err != nil {
		s.logger.Warn("query cache degraded", "backend", s.cfg.CacheBackend, "err", err)
	}
	if store == nil {
		s.cacheErr = err
		return
	}
	qc, qerr := cache.NewQueryCache(store)
	if qerr != nil {
		s.logger.Warn("query cache disabled", "err", qerr)
		store.Close()
		s.cacheErr = qerr
		return
	}
	s.cacheStore = store
	s.queryCache = qc
}

// Config returns the configuration the System was opened with.
func (s *System) Config() *config.Config {
	return s.cfg
}

// Provider returns the AI provider.
func (s *System) Provider() ai.AIProvider {
	return s.provider
}

// VectorStore returns the vector store.
func (s *System) VectorStore() vectorstore.Store {
	return s.store
}

// Embedder returns the shared embedding client.
func (s *System) Embedder() *embedding.Client {
	return s.embedder
}

// CacheEnabled reports whether a query cache is active.
func (s *System) CacheEnabled() bool {
	return s.queryCache != nil
}

// CacheError returns why the query cache is not active although caching is
// enabled, or nil.
func (s *System) CacheError() error {
	return s.cacheErr
}

// CacheStats returns the query cache statistics. The second value is false
// when caching is disabled.
func (s *System) CacheStats() (cache.Stats, bool) {
	if s.queryCache == nil {
		return cache.Stats{}, false
	}
	return s.queryCache.Stats(), true
}

// ClearCache removes every query cache entry. It is a no-op when caching is disabled.
func (s *System) ClearCache() error {
	if s.queryCache == nil {
		return nil
	}
	return s.queryCache.Clear()
}

// NewIngestionPipeline creates an ingestion pipeline using the configured
// batch size, chunking and document extension. opts are applied last.
func (s *System) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	c, err := chunker.New(chunker.WithMaxSize(s.cfg.ChunkMaxSize), chunker.WithOverlap(s.cfg.ChunkOverlap))
	if err != nil {
		return nil, err
	}
	base := []ingestion.Option{
		ingestion.WithBatchSize(s.cfg.BatchSize),
		ingestion.WithChunker(c),
		ingestion.WithExtension(s.cfg.DocExt),
		ingestion.WithLogger(s.root),
	}
	return ingestion.NewPipeline(s.store, s.embedder, append(base, opts...)...)
}

// NewSearcher creates a searcher answering with the provider's generator.
func (s *System) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithGenerator(s.provider.Generator()),
		search.WithLogger(s.root),
	}
	if s.queryCache != nil {
		base = append(base, search.WithResultCache(s.queryCache))
	}
	return search.NewSearcher(s.store, s.embedder, append(base, opts...)...)
}

// Close releases the embedding pool, the AI provider and the cache.
func (s *System) Close() error {
	var errs []error
	if s.embedder != nil {
		if err := s.embedder.Close(); err != nil {
			s.logger.Error("error closing embedding client", "err", err)
			errs = append(errs, err)
		}
	}
	errs = append(errs, s.closeServices())
	return errors.Join(errs...)
}

func (s *System) closeServices() error {
	var errs []error
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if s.cacheStore != nil {
		if err := s.cacheStore.Close(); err != nil {
			s.logger.Error("error closing query cache", "err", err)
			errs = append(errs, fmt.Errorf("%w: %w", core.ErrCacheIO, err))
		}
	}
	return errors.Join(errs...)
}
