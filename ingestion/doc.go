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

// Package ingestion provides pipeline orchestration for loading documents
// into the vector store.
//
// The Pipeline type manages the ingestion workflow for each document:
//   - Reading the file and its optional front matter
//   - Splitting the body into chunks
//   - Embedding all chunks concurrently
//   - Writing the embedded chunks to the vector store in fixed-size batches
//
// A chunk that fails to embed is logged and skipped. A batch that cannot be
// written fails its document. Directory runs isolate documents from each
// other and summarize the outcome in a Report.
package ingestion
