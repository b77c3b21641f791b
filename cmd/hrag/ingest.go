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
	"context"
	"fmt"

	"github.com/heritage-archive/hrag"
	"github.com/heritage-archive/hrag/config"
	"github.com/heritage-archive/hrag/ingestion"
	"github.com/urfave/cli/v2"
)

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()
	out := c.App.Writer

	adjust := func(cfg *config.Config) {
		if c.IsSet("dir") {
			cfg.DataDir = c.String("dir")
		}
		if c.IsSet("ext") {
			cfg.DocExt = c.String("ext")
		}
		if c.IsSet("batch-size") {
			cfg.BatchSize = c.Int("batch-size")
		}
		if c.IsSet("workers") {
			cfg.EmbedWorkers = c.Int("workers")
		}
	}

	return withSystem(adjust, func(sys *hrag.System) error {
		cfg := sys.Config()
		pipeline, err := sys.NewIngestionPipeline(ingestion.WithProgress(c.App.ErrWriter))
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Ingesting %s (*%s) into %s\n", cfg.DataDir, cfg.DocExt, cfg.QdrantCollection)
		report, err := pipeline.IngestDirectory(ctx, cfg.DataDir)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		report.Print(out)
		return nil
	})
}
