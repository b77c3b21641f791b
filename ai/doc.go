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

// Package ai provides abstractions for the AI services behind the pipeline.
//
// The package defines two collaborator interfaces, Embedder and Generator,
// plus AIProvider which creates and owns both. Service failures are reported
// as *ServiceError, classified as transient or permanent so the embedding
// client can decide what to retry.
//
// # Implementation Packages
//
//   - ai/ollama: Ollama HTTP API (/api/embeddings, /api/generate)
//   - ai/openai: OpenAI-compatible APIs through langchaingo
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors return interface types; mock constructors return
// concrete types so tests can inspect call counts and inject behavior.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := ollama.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "Carthage")
//	answer, err := provider.Generator().Generate(ctx, system, prompt)
package ai
