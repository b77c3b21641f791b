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

package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransientService matches service failures that may succeed when retried.
	ErrTransientService = errors.New("transient service failure")

	// ErrPermanentService matches service failures that will not succeed when retried.
	ErrPermanentService = errors.New("permanent service failure")

	// ErrEmptyText is returned when asked to embed empty or blank text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyResponse is returned when a service answers without a payload.
	ErrEmptyResponse = errors.New("service returned an empty response")
)

// ServiceError describes a failed call to an external AI service.
type ServiceError struct {
	Op         string // "embed" or "generate"
	StatusCode int    // HTTP status, 0 for transport failures
	Transient  bool
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is matches ErrTransientService or ErrPermanentService by classification.
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrTransientService:
		return e.Transient
	case ErrPermanentService:
		return !e.Transient
	}
	return false
}

// TransientStatus reports whether an HTTP status is worth retrying.
func TransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// StatusError builds the error for a non-success HTTP response.
func StatusError(op string, code int, body string) *ServiceError {
	return &ServiceError{
		Op:         op,
		StatusCode: code,
		Transient:  TransientStatus(code),
		Err:        fmt.Errorf("unexpected response: %s", body),
	}
}

// TransportError builds the error for a request that got no response.
// Cancellation by the caller is permanent; everything else, including a
// per-request timeout, is transient.
func TransportError(op string, err error) *ServiceError {
	return &ServiceError{
		Op:        op,
		Transient: !errors.Is(err, context.Canceled),
		Err:       err,
	}
}

// PermanentError wraps err as a non-retryable service failure.
func PermanentError(op string, err error) *ServiceError {
	return &ServiceError{Op: op, Err: err}
}

// IsTransient reports whether err is a retryable service failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientService)
}
