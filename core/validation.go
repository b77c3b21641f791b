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

package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidateRecord validates a Record before it is written to the vector store.
//
// Validation rules:
//   - ID must be a UUID (the vector store rejects other string IDs)
//   - Vector must not be empty
//   - Vector length must equal dimensions when dimensions > 0
//   - Payload text must not be empty
func ValidateRecord(record *Record, dimensions int) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyID)
	}
	if _, err := uuid.Parse(record.ID); err != nil {
		return fmt.Errorf("%w: id %q is not a uuid: %w", ErrInvalidRecord, record.ID, err)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyVector)
	}

	if err := ValidateDimensions(record.Vector, dimensions); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if record.Payload.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyContent)
	}

	return nil
}

// ValidateDimensions checks a vector against an expected dimension.
// A non-positive expected dimension disables the check.
func ValidateDimensions(vector []float32, dimensions int) error {
	if dimensions > 0 && len(vector) != dimensions {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dimensions, len(vector))
	}
	return nil
}
