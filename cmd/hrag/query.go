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
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/heritage-archive/hrag"
	"github.com/heritage-archive/hrag/core"
	"github.com/heritage-archive/hrag/search"
	"github.com/urfave/cli/v2"
)

var quitWords = map[string]bool{"quit": true, "exit": true, "q": true}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()
	out := c.App.Writer

	opts := search.Options{
		Limit:          c.Int("limit"),
		UseCache:       !c.Bool("no-cache"),
		GenerateAnswer: !c.Bool("search-only"),
	}
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	interactive := c.Bool("interactive")

	if !c.Bool("cache-stats") && !c.Bool("clear-cache") && !interactive && query == "" {
		return cli.ShowSubcommandHelp(c)
	}

	return withSystem(nil, func(sys *hrag.System) error {
		if c.Bool("cache-stats") {
			printCacheStats(out, sys)
			return nil
		}
		if c.Bool("clear-cache") {
			return clearCache(out, sys)
		}

		searcher, err := sys.NewSearcher()
		if err != nil {
			return err
		}
		monitor := &printMonitor{w: out}

		if interactive {
			return interactiveLoop(ctx, c.App.Reader, out, searcher, opts, monitor)
		}
		if _, err := searcher.QueryWithMonitor(ctx, query, opts, monitor); err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
		}
		return nil
	})
}

// interactiveLoop answers one query per input line until a quit word or EOF.
// Errors are printed and the loop continues.
func interactiveLoop(ctx context.Context, in io.Reader, out io.Writer, searcher *search.Searcher, opts search.Options, monitor search.Monitor) error {
	fmt.Fprintln(out, "Interactive query mode (type 'quit' to exit)")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Query: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if quitWords[strings.ToLower(line)] {
			return nil
		}
		if line == "" {
			continue
		}
		if _, err := searcher.QueryWithMonitor(ctx, line, opts, monitor); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		fmt.Fprintln(out)
	}
}

// printMonitor reports query progress on a writer.
type printMonitor struct {
	w io.Writer
}

var _ search.Monitor = (*printMonitor)(nil)

func (m *printMonitor) Start(query string) {
	fmt.Fprintf(m.w, "\nQuery: %s\n%s\n", query, strings.Repeat("=", 60))
}

func (m *printMonitor) AfterEmbedding(cached bool) {
	if cached {
		fmt.Fprintln(m.w, "Embedding served from cache")
		return
	}
	fmt.Fprintln(m.w, "Embedding generated")
}

func (m *printMonitor) AfterSearch(results []core.SearchResult, cached bool) {
	source := "vector store"
	if cached {
		source = "cache"
	}
	fmt.Fprintf(m.w, "\nFound %d results (%s):\n", len(results), source)
	for i, r := range results {
		title := r.Payload.Title
		if title == "" {
			title = "Unknown"
		}
		fmt.Fprintf(m.w, "  %d. %s (score: %.3f)\n", i+1, title, r.Score)
	}
}

func (m *printMonitor) BeforeGeneration(model string) {
	fmt.Fprintf(m.w, "\nGenerating answer with %s...\n", model)
}

func (m *printMonitor) Finish(qc *core.QueryContext) {
	if !qc.HasAnswer() {
		return
	}
	rule := strings.Repeat("-", 60)
	fmt.Fprintf(m.w, "\nAnswer:\n%s\n%s\n%s\n", rule, *qc.Answer, rule)
}
