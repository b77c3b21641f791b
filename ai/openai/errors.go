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
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/heritage-archive/hrag/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const statusMarker = "status code: "

// classify converts a langchaingo failure into an *ai.ServiceError.
// langchaingo reports HTTP failures as text, so the status code is recovered
// from the message when present.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return ai.PermanentError(op, err)
	}

	if malformedResponse(err) {
		return ai.PermanentError(op, err)
	}

	if code := statusCode(err.Error()); code != 0 {
		return &ai.ServiceError{Op: op, StatusCode: code, Transient: ai.TransientStatus(code), Err: err}
	}

	var lerr *llms.Error
	if errors.As(openai.MapError(err), &lerr) {
		switch lerr.Code {
		case llms.ErrCodeRateLimit, llms.ErrCodeProviderUnavailable, llms.ErrCodeTimeout:
			return &ai.ServiceError{Op: op, Transient: true, Err: err}
		case llms.ErrCodeAuthentication, llms.ErrCodeInvalidRequest, llms.ErrCodeResourceNotFound,
			llms.ErrCodeTokenLimit, llms.ErrCodeContentFilter, llms.ErrCodeQuotaExceeded:
			return ai.PermanentError(op, err)
		}
	}
	return ai.TransportError(op, err)
}

// malformedResponse reports whether err comes from decoding a response body.
func malformedResponse(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func statusCode(msg string) int {
	i := strings.Index(msg, statusMarker)
	if i < 0 {
		return 0
	}
	var code int
	if _, err := fmt.Sscanf(msg[i+len(statusMarker):], "%d", &code); err != nil {
		return 0
	}
	return code
}
