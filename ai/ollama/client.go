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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/heritage-archive/hrag/ai"
)

const maxErrorBody = 512

// client posts JSON to an Ollama endpoint and decodes the JSON reply.
type client struct {
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func (c *client) post(ctx context.Context, op, url string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(in)
	if err != nil {
		return ai.PermanentError(op, fmt.Errorf("encoding request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ai.PermanentError(op, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ai.TransportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("service returned error status", "op", op, "status", resp.StatusCode)
		return ai.StatusError(op, resp.StatusCode, string(bytes.TrimSpace(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ai.PermanentError(op, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
