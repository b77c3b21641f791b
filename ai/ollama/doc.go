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

// Package ollama implements the ai interfaces against the Ollama HTTP API.
//
// Embeddings use POST {host}/embeddings with {model, prompt}; answers use
// POST {host}/generate with stream disabled. Hosts are expected to carry the
// /api suffix, which ai.Config.Normalize adds.
package ollama
