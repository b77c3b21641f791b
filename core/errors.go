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

package core

import "errors"

// Pipeline errors
var (
	// ErrCacheIO indicates the persisted cache could not be read or written.
	// Callers degrade to an empty or memory-only cache; it is never fatal.
	ErrCacheIO = errors.New("cache i/o failure")

	// ErrChunkingDegenerate indicates a document produced no chunks.
	ErrChunkingDegenerate = errors.New("document produced no chunks")

	// ErrPartialEmbedding indicates one or more chunks of a batch failed to embed.
	ErrPartialEmbedding = errors.New("partial embedding failure")

	// ErrEmptyQuery indicates a query with no text.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyID indicates a Record has no identifier.
	ErrEmptyID = errors.New("record id cannot be empty")

	// ErrEmptyVector indicates a Record has no vector.
	ErrEmptyVector = errors.New("record vector cannot be empty")

	// ErrDimensionMismatch indicates a vector has the wrong number of dimensions.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyContent indicates the chunk text is empty.
	ErrEmptyContent = errors.New("content cannot be empty")
)
