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

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Failures are reported as *ServiceError so callers can decide
	// whether to retry.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// Model returns the embedding model identifier. Cached embeddings are
	// keyed by it.
	Model() string
}

// Generator writes an answer from a system instruction and a prompt.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns the model's complete, non-streamed response.
	Generate(ctx context.Context, system, prompt string) (string, error)

	// Model returns the generation model identifier.
	Model() string
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the answer generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
