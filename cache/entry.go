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

package cache

import (
	"encoding/hex"
	"math"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/heritage-archive/hrag/core"
)

// DefaultTTL is the lifetime of a cache entry when none is configured.
const DefaultTTL = time.Hour

// Kind distinguishes the two kinds of cached values.
type Kind string

const (
	KindEmbedding     Kind = "embedding"
	KindSearchResults Kind = "search_results"
)

// Entry is a single cached value. Entries are immutable once written and are
// superseded by a later Set on the same key.
type Entry struct {
	Kind      Kind                `json:"kind"`
	Query     string              `json:"query"`
	Model     string              `json:"model,omitempty"`
	Limit     int                 `json:"limit,omitempty"`
	Embedding []float32           `json:"embedding,omitempty"`
	Results   []core.SearchResult `json:"results,omitempty"`
	// Timestamp is the creation time in fractional Unix seconds.
	Timestamp float64 `json:"timestamp"`
}

// CreatedAt returns the entry's creation time.
func (e Entry) CreatedAt() time.Time {
	return time.UnixMicro(int64(math.Round(e.Timestamp * 1e6)))
}

// Expired reports whether the entry is older than ttl at now.
// An entry exactly ttl old is still live.
func (e Entry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt()) > ttl
}

// timestamp encodes t with microsecond precision.
func timestamp(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// Stats summarizes the contents of a Store.
type Stats struct {
	Total    int           `json:"total_entries"`
	Active   int           `json:"active_entries"`
	Expired  int           `json:"expired_entries"`
	Location string        `json:"cache_file"`
	TTL      time.Duration `json:"ttl"`
}

// Store is a TTL-bounded key/value store of cache entries.
// Implementations must be safe for concurrent use within one process.
type Store interface {
	// Get returns the live entry stored under key when its kind matches.
	Get(key string, kind Kind) (Entry, bool)
	// Set stores entry under key, stamping its timestamp when unset.
	Set(key string, entry Entry) error
	// Clear removes every entry.
	Clear() error
	// Stats reports entry counts.
	Stats() Stats
	// Close releases the store.
	Close() error
}

// Key derives a cache key: hex-encoded 256-bit BLAKE2b of text + ":" + discriminator.
func Key(text, discriminator string) string {
	h, _ := blake2b.New(32, nil)
	h.Write([]byte(text + ":" + discriminator))
	return hex.EncodeToString(h.Sum(nil))
}

// EmbeddingKey is the key of the embedding of text under model.
func EmbeddingKey(text, model string) string {
	return Key(text, model)
}

// SearchKey is the key of the search results for query at limit.
func SearchKey(query string, limit int) string {
	return Key("search:"+query+":"+strconv.Itoa(limit), "")
}
