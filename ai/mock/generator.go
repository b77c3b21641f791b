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

package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/heritage-archive/hrag/ai"
)

// GenerateCall records the arguments of one Generate call.
type GenerateCall struct {
	System string
	Prompt string
}

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, the first line of the prompt is returned.
	GenerateFunc func(ctx context.Context, system, prompt string) (string, error)

	// ModelName is returned by Model.
	ModelName string

	mu    sync.Mutex
	calls []GenerateCall
}

var _ ai.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock generator with default echo behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{ModelName: "mock-gen"}
}

// WithGenerateFunc sets custom behavior and returns the mock for chaining.
func (m *MockGenerator) WithGenerateFunc(fn func(ctx context.Context, system, prompt string) (string, error)) *MockGenerator {
	m.GenerateFunc = fn
	return m
}

// Generate records the call and returns the configured answer.
func (m *MockGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GenerateCall{System: system, Prompt: prompt})
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, system, prompt)
	}
	first, _, _ := strings.Cut(prompt, "\n")
	return first, nil
}

// Model returns the configured model name.
func (m *MockGenerator) Model() string {
	return m.ModelName
}

// Calls returns the recorded calls.
func (m *MockGenerator) Calls() []GenerateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerateCall(nil), m.calls...)
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
