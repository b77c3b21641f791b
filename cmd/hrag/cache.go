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

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/heritage-archive/hrag"
	"github.com/heritage-archive/hrag/cache"
	"github.com/urfave/cli/v2"
)

func cacheStatsCommand(c *cli.Context) error {
	return withSystem(nil, func(sys *hrag.System) error {
		printCacheStats(c.App.Writer, sys)
		return nil
	})
}

func cacheClearCommand(c *cli.Context) error {
	return withSystem(nil, func(sys *hrag.System) error {
		return clearCache(c.App.Writer, sys)
	})
}

func printCacheStats(w io.Writer, sys *hrag.System) {
	stats, ok := sys.CacheStats()
	if !ok {
		printCacheInactive(w, sys)
		return
	}
	writeStats(w, stats)
}

func printCacheInactive(w io.Writer, sys *hrag.System) {
	if err := sys.CacheError(); err != nil {
		fmt.Fprintf(w, "Cache is unavailable: %v\n", err)
		return
	}
	fmt.Fprintln(w, "Cache is disabled (ENABLE_CACHE=false)")
}

func writeStats(w io.Writer, stats cache.Stats) {
	fmt.Fprintln(w, "Cache statistics:")
	fmt.Fprintf(w, "  Total entries:   %d\n", stats.Total)
	fmt.Fprintf(w, "  Active entries:  %d\n", stats.Active)
	fmt.Fprintf(w, "  Expired entries: %d\n", stats.Expired)
	fmt.Fprintf(w, "  Location:        %s\n", stats.Location)
	fmt.Fprintf(w, "  TTL:             %ds\n", int64(stats.TTL/time.Second))
}

func clearCache(w io.Writer, sys *hrag.System) error {
	if !sys.CacheEnabled() {
		printCacheInactive(w, sys)
		return nil
	}
	if err := sys.ClearCache(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	fmt.Fprintln(w, "Cache cleared")
	return nil
}
