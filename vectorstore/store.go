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

// Package vectorstore defines the vector index contract used by ingestion
// and retrieval, plus an in-memory implementation.
//
// The production implementation lives in vectorstore/qdrant.
package vectorstore

import (
	"context"

	"github.com/heritage-archive/hrag/core"
)

// Distance names the similarity metric of a collection.
type Distance string

const (
	Cosine    Distance = "Cosine"
	Dot       Distance = "Dot"
	Euclidean Distance = "Euclid"
)

// Store is a collection of embedded chunks.
type Store interface {
	// EnsureCollection creates the collection when it does not exist.
	// It reports whether a collection was created.
	EnsureCollection(ctx context.Context) (bool, error)

	// Upsert writes records. Writing the same IDs again overwrites them.
	Upsert(ctx context.Context, records []core.Record) error

	// Search returns up to limit records nearest to vector, best first.
	Search(ctx context.Context, vector []float32, limit int) ([]core.SearchResult, error)
}
