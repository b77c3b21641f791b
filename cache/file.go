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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/heritage-archive/hrag/core"
)

// FileStore is a Store persisted as a single JSON document.
// The in-memory map is authoritative; every mutation rewrites the file.
type FileStore struct {
	mu      sync.Mutex
	path    string
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	entries map[string]Entry
}

var _ Store = (*FileStore)(nil)

// Option configures a FileStore.
type Option func(*FileStore) error

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *FileStore) error {
		if ttl <= 0 {
			return ErrInvalidTTL
		}
		s.ttl = ttl
		return nil
	}
}

// WithClock replaces the wall clock used for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) error {
		if now == nil {
			return ErrClockRequired
		}
		s.now = now
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *FileStore) error {
		if logger == nil {
			return ErrLoggerRequired
		}
		s.logger = logger
		return nil
	}
}

// Open loads the cache file at path.
//
// A missing file is an empty cache. A file that cannot be read or decoded
// also yields an empty, usable store; in that case the returned error wraps
// core.ErrCacheIO and callers may log it and continue with the store.
// Expired entries are dropped on load, and the file is rewritten only when
// something was dropped.
func Open(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, ErrPathRequired
	}
	s := &FileStore{
		path:    path,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.Default(),
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "cache", "path", path)

	if err := s.load(); err != nil {
		return s, err
	}

	if removed := s.dropExpired(); removed > 0 {
		s.logger.Debug("dropped expired entries on load", "count", removed)
		if err := s.save(); err != nil {
			return s, err
		}
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: reading %s: %w", core.ErrCacheIO, s.path, err)
	}
	if len(data) == 0 {
		return nil
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", core.ErrCacheIO, s.path, err)
	}
	if entries != nil {
		s.entries = entries
	}
	return nil
}

// save writes the full mapping to disk. Callers hold s.mu.
func (s *FileStore) save() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %w", core.ErrCacheIO, dir, err)
		}
	}
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding cache: %w", core.ErrCacheIO, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %w", core.ErrCacheIO, s.path, err)
	}
	return nil
}

// dropExpired removes expired entries and returns how many were removed.
func (s *FileStore) dropExpired() int {
	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if entry.Expired(now, s.ttl) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Get returns the live entry under key. An expired entry is removed.
func (s *FileStore) Get(key string, kind Kind) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	if entry.Expired(s.now(), s.ttl) {
		delete(s.entries, key)
		if err := s.save(); err != nil {
			s.logger.Warn("failed to persist expired entry removal", "err", err)
		}
		return Entry{}, false
	}
	if entry.Kind != kind {
		return Entry{}, false
	}
	return entry, true
}

// Set stores entry under key. The in-memory state reflects the write even
// when persisting fails.
func (s *FileStore) Set(key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Timestamp == 0 {
		entry.Timestamp = timestamp(s.now())
	}
	s.entries[key] = entry
	return s.save()
}

// Clear removes every entry and persists the empty mapping.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
	return s.save()
}

// Stats counts live and expired entries without removing anything.
func (s *FileStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stats := Stats{Total: len(s.entries), Location: s.path, TTL: s.ttl}
	for _, entry := range s.entries {
		if entry.Expired(now, s.ttl) {
			stats.Expired++
		}
	}
	stats.Active = stats.Total - stats.Expired
	return stats
}

// Close is a no-op; every mutation is already on disk.
func (s *FileStore) Close() error {
	return nil
}
