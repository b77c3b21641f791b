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
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/heritage-archive/hrag"
	"github.com/heritage-archive/hrag/config"
	"github.com/urfave/cli/v2"
)

// openSystem builds the services for a command. Tests replace it.
var openSystem = func(cfg *config.Config) (*hrag.System, error) {
	return hrag.Open(cfg)
}

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "hrag",
		Usage:     "Retrieval-augmented question answering over Tunisian heritage documents",
		Reader:    in,
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Set logging level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Chunk, embed and store every document of a directory",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory of documents (default from DATA_DIR)",
					},
					&cli.StringFlag{
						Name:  "ext",
						Usage: "Document file extension (default from DOC_EXT)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records written per upsert (default from BATCH_SIZE)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent embedding requests (default from EMBED_WORKERS)",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Search the corpus and answer a question",
				ArgsUsage: "[QUERY]",
				Action:    queryCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Usage:   "Number of search results",
						Value:   5,
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Bypass the query cache",
					},
					&cli.BoolFlag{
						Name:  "search-only",
						Usage: "Only search, do not generate an answer",
					},
					&cli.BoolFlag{
						Name:    "interactive",
						Aliases: []string{"i"},
						Usage:   "Read queries from standard input until quit",
					},
					&cli.BoolFlag{
						Name:  "cache-stats",
						Usage: "Show cache statistics and exit",
					},
					&cli.BoolFlag{
						Name:  "clear-cache",
						Usage: "Clear the cache and exit",
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Inspect or reset the query cache",
				Subcommands: []*cli.Command{
					{
						Name:   "stats",
						Usage:  "Show cache statistics",
						Action: cacheStatsCommand,
					},
					{
						Name:   "clear",
						Usage:  "Remove every cache entry",
						Action: cacheClearCommand,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// withSystem loads the configuration, lets adjust override it, and runs fn
// with an opened System that is closed afterwards.
func withSystem(adjust func(*config.Config), fn func(*hrag.System) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if adjust != nil {
		adjust(cfg)
	}

	sys, err := openSystem(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sys.Close(); err != nil {
			slog.Error("error closing services", "err", err)
		}
	}()
	return fn(sys)
}
