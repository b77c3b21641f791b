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

// Package badger implements cache.Store on top of BadgerDB.
//
// Entries are serialized with MUS (see EntryMUS).
//
// Entries are written with Badger's native TTL, so expired values vanish
// without a load-time sweep. Entry timestamps are still checked on read so
// an injected clock governs expiry the same way it does for the file store.
package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/heritage-archive/hrag/cache"
	"github.com/heritage-archive/hrag/core"
)

const (
	keyPrefix      = "cache:"
	memoryLocation = ":memory:"
)

// Store is a cache.Store backed by a BadgerDB directory.
type Store struct {
	db       *badger.DB
	location string
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	mu       sync.Mutex
}

var _ cache.Store = (*Store)(nil)

type settings struct {
	inMemory bool
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*settings) error

// InMemory keeps the database in memory; the directory argument is ignored.
func InMemory() Option {
	return func(s *settings) error {
		s.inMemory = true
		return nil
	}
}

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) error {
		if ttl <= 0 {
			return cache.ErrInvalidTTL
		}
		s.ttl = ttl
		return nil
	}
}

// WithClock replaces the clock used for timestamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *settings) error {
		if now == nil {
			return cache.ErrClockRequired
		}
		s.now = now
		return nil
	}
}

// WithLogger sets the logger used by the store and by Badger itself.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) error {
		if logger == nil {
			return cache.ErrLoggerRequired
		}
		s.logger = logger
		return nil
	}
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens or creates a cache database in dir.
func Open(dir string, opts ...Option) (*Store, error) {
	s := settings{
		ttl:    cache.DefaultTTL,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return nil, err
		}
	}

	var bopts badger.Options
	location := dir
	if s.inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
		location = memoryLocation
	} else {
		if dir == "" {
			return nil, cache.ErrPathRequired
		}
		if err := ensureDir(dir); err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrCacheIO, err)
		}
		bopts = badger.DefaultOptions(dir)
	}

	logger := s.logger.With("component", "cache", "backend", "badger", "path", location)
	bopts.Logger = &badgerLoggerAdapter{logger: logger}
	bopts.Compression = options.None

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("%w: opening badger at %s: %w", core.ErrCacheIO, location, err)
	}

	return &Store{
		db:       db,
		location: location,
		ttl:      s.ttl,
		now:      s.now,
		logger:   logger,
	}, nil
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		return os.MkdirAll(dir, 0o755)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func storageKey(key string) []byte {
	return []byte(keyPrefix + key)
}

// Get returns the live entry under key when its kind matches.
func (s *Store) Get(key string, kind cache.Kind) (cache.Entry, bool) {
	var entry cache.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storageKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			entry, err = UnmarshalEntry(val)
			return err
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.logger.Warn("cache read failed", "err", err)
		}
		return cache.Entry{}, false
	}

	if entry.Expired(s.now(), s.ttl) {
		if err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(storageKey(key))
		}); err != nil {
			s.logger.Warn("failed to remove expired entry", "err", err)
		}
		return cache.Entry{}, false
	}
	if entry.Kind != kind {
		return cache.Entry{}, false
	}
	return entry, true
}

// Set stores entry with the store's TTL.
func (s *Store) Set(key string, entry cache.Entry) error {
	if entry.Timestamp == 0 {
		entry.Timestamp = float64(s.now().UnixMicro()) / 1e6
	}
	data := MarshalEntry(entry)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(storageKey(key), data).WithTTL(s.ttl))
	})
	if err != nil {
		return fmt.Errorf("%w: writing entry: %w", core.ErrCacheIO, err)
	}
	return nil
}

// Clear removes every cache entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.DropPrefix([]byte(keyPrefix)); err != nil {
		return fmt.Errorf("%w: clearing cache: %w", core.ErrCacheIO, err)
	}
	return nil
}

// Stats counts entries still visible in the database. Values Badger has
// already expired are not visible, so Expired only counts entries whose
// timestamp has passed under the store's clock but whose TTL has not yet
// elapsed in Badger.
func (s *Store) Stats() cache.Stats {
	stats := cache.Stats{Location: s.location, TTL: s.ttl}
	now := s.now()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry cache.Entry
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = UnmarshalEntry(val)
				return err
			}); err != nil {
				return err
			}
			stats.Total++
			if entry.Expired(now, s.ttl) {
				stats.Expired++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("cache stats failed", "err", err)
	}
	stats.Active = stats.Total - stats.Expired
	return stats
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}
