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

// Package cache provides a TTL-bounded cache for query embeddings and
// search results, keyed by a hash of the cached content.
//
// Two Store implementations exist: FileStore persists the whole mapping as
// a JSON document on every mutation, and cache/badger keeps entries in a
// BadgerDB directory with native per-entry TTL. QueryCache layers typed
// helpers over either one.
package cache
