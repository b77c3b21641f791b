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

package openai

import (
	"context"
	"log/slog"

	"github.com/heritage-archive/hrag/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator with langchaingo chat completions.
type Generator struct {
	client  llms.Model
	model   string
	timeout func(context.Context) (context.Context, context.CancelFunc)
	logger  *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

func newGenerator(config *ai.Config, o options) (*Generator, error) {
	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(o.token(config)),
		openai.WithModel(config.GenerationModel),
		openai.WithHTTPClient(o.httpClient),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client:  client,
		model:   config.GenerationModel,
		timeout: withTimeout(config.GenerateTimeout),
		logger:  o.logger.With("component", "openai-generator"),
	}, nil
}

// Generate sends the system instruction and prompt as a two-message chat.
func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	ctx, cancel := g.timeout(ctx)
	defer cancel()

	g.logger.Debug("generating answer", "model", g.model, "prompt_length", len(prompt))
	response, err := g.client.GenerateContent(ctx, content)
	if err != nil {
		return "", classify("generate", err)
	}
	if len(response.Choices) == 0 {
		return "", ai.PermanentError("generate", ai.ErrEmptyResponse)
	}
	return response.Choices[0].Content, nil
}

// Model returns the generation model name.
func (g *Generator) Model() string {
	return g.model
}
