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

package vectorstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/heritage-archive/hrag/core"
)

// Memory is an in-process Store that scores records by cosine similarity
// with a linear scan. It suits tests and small corpora.
type Memory struct {
	mu         sync.RWMutex
	dimensions int
	created    bool
	ids        []string
	records    map[string]core.Record
	upserts    [][]core.Record
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store for vectors of the given size.
func NewMemory(dimensions int) *Memory {
	return &Memory{dimensions: dimensions, records: make(map[string]core.Record)}
}

// EnsureCollection marks the collection as created.
func (m *Memory) EnsureCollection(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.created {
		return false, nil
	}
	m.created = true
	return true, nil
}

// Upsert validates and stores records, preserving first-insertion order.
func (m *Memory) Upsert(ctx context.Context, records []core.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.created {
		return ErrNoCollection
	}
	for i := range records {
		if err := core.ValidateRecord(&records[i], m.dimensions); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	for _, r := range records {
		if _, exists := m.records[r.ID]; !exists {
			m.ids = append(m.ids, r.ID)
		}
		r.Vector = core.NormalizeVector(r.Vector)
		m.records[r.ID] = r
	}
	m.upserts = append(m.upserts, slices.Clone(records))
	return nil
}

// Search scores every record against vector.
func (m *Memory) Search(ctx context.Context, vector []float32, limit int) ([]core.SearchResult, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.created {
		return nil, ErrNoCollection
	}

	query := core.NormalizeVector(vector)
	results := make([]core.SearchResult, 0, len(m.ids))
	for _, id := range m.ids {
		r := m.records[id]
		results = append(results, core.SearchResult{
			Payload: r.Payload,
			Score:   dotProduct(query, r.Vector),
		})
	}

	slices.SortStableFunc(results, func(a, b core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Upserts returns the record batches in the order they were written.
func (m *Memory) Upserts() [][]core.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.upserts)
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
