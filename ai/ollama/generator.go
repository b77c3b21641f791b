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

package ollama

import (
	"context"

	"github.com/heritage-archive/hrag/ai"
)

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generator calls the Ollama generate endpoint with streaming disabled.
type Generator struct {
	client *client
	url    string
	model  string
}

var _ ai.Generator = (*Generator)(nil)

// Generate returns the complete response for prompt under the system instruction.
func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	g.client.logger.Debug("generating answer", "model", g.model, "prompt_length", len(prompt))

	var resp generateResponse
	req := generateRequest{Model: g.model, Prompt: prompt, System: system}
	if err := g.client.post(ctx, "generate", g.url, req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Model returns the generation model name.
func (g *Generator) Model() string {
	return g.model
}
