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

// Package search answers questions over the ingested heritage corpus.
//
// A query is embedded, matched against the vector store, formatted into a
// numbered citation context and, optionally, handed to the generation
// service together with a fixed historian instruction. Embeddings and
// search results are served from the query cache when one is configured.
package search
