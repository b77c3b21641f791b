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

package cache

import (
	"slices"

	"github.com/heritage-archive/hrag/core"
)

// QueryCache stores query embeddings and search results in a Store.
type QueryCache struct {
	store Store
}

// NewQueryCache wraps store with typed helpers.
func NewQueryCache(store Store) (*QueryCache, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &QueryCache{store: store}, nil
}

// GetEmbedding returns the cached embedding of text under model.
func (c *QueryCache) GetEmbedding(text, model string) ([]float32, bool) {
	entry, ok := c.store.Get(EmbeddingKey(text, model), KindEmbedding)
	if !ok || len(entry.Embedding) == 0 {
		return nil, false
	}
	return slices.Clone(entry.Embedding), true
}

// SetEmbedding caches the embedding of text under model.
func (c *QueryCache) SetEmbedding(text, model string, vector []float32) error {
	return c.store.Set(EmbeddingKey(text, model), Entry{
		Kind:      KindEmbedding,
		Query:     text,
		Model:     model,
		Embedding: slices.Clone(vector),
	})
}

// GetSearchResults returns the cached results of query at limit.
// A cached empty result set is a hit.
func (c *QueryCache) GetSearchResults(query string, limit int) ([]core.SearchResult, bool) {
	entry, ok := c.store.Get(SearchKey(query, limit), KindSearchResults)
	if !ok {
		return nil, false
	}
	results := slices.Clone(entry.Results)
	if results == nil {
		results = []core.SearchResult{}
	}
	return results, true
}

// SetSearchResults caches the results of query at limit.
func (c *QueryCache) SetSearchResults(query string, limit int, results []core.SearchResult) error {
	return c.store.Set(SearchKey(query, limit), Entry{
		Kind:    KindSearchResults,
		Query:   query,
		Limit:   limit,
		Results: slices.Clone(results),
	})
}

// Stats reports the underlying store's statistics.
func (c *QueryCache) Stats() Stats {
	return c.store.Stats()
}

// Clear empties the underlying store.
func (c *QueryCache) Clear() error {
	return c.store.Clear()
}

// Close closes the underlying store.
func (c *QueryCache) Close() error {
	return c.store.Close()
}
