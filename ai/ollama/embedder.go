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
	"strings"

	"github.com/heritage-archive/hrag/ai"
)

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embedder calls the Ollama embeddings endpoint.
type Embedder struct {
	client *client
	url    string
	model  string
}

var _ ai.Embedder = (*Embedder)(nil)

// EmbedText embeds a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ai.PermanentError("embed", ai.ErrEmptyText)
	}
	e.client.logger.Debug("generating embedding", "length", len(text))

	var resp embedResponse
	if err := e.client.post(ctx, "embed", e.url, embedRequest{Model: e.model, Prompt: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, ai.PermanentError("embed", ai.ErrEmptyResponse)
	}

	vector := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	return e.model
}
