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

package search

import "github.com/heritage-archive/hrag/core"

// Monitor provides hooks to observe the query process.
// Implement this interface to report intermediate steps of a query.
type Monitor interface {
	Start(query string)
	AfterEmbedding(cached bool)
	AfterSearch(results []core.SearchResult, cached bool)
	BeforeGeneration(model string)
	Finish(qc *core.QueryContext)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterEmbedding(_ bool)                     {}
func (n *noopMonitor) AfterSearch(_ []core.SearchResult, _ bool) {}
func (n *noopMonitor) BeforeGeneration(_ string)                 {}
func (n *noopMonitor) Finish(_ *core.QueryContext)               {}
