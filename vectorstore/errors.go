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

package vectorstore

import "errors"

var (
	ErrCollectionRequired = errors.New("collection name is required")
	ErrInvalidVectorSize  = errors.New("vector size must be positive")
	ErrInvalidDistance    = errors.New("distance must be Cosine, Dot or Euclid")
	ErrInvalidLimit       = errors.New("search limit must be positive")
	ErrNoCollection       = errors.New("collection does not exist")
)

// ParseDistance validates a distance name.
func ParseDistance(s string) (Distance, error) {
	switch d := Distance(s); d {
	case Cosine, Dot, Euclidean:
		return d, nil
	}
	return "", ErrInvalidDistance
}
