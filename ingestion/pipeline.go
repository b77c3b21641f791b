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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heritage-archive/hrag/chunker"
	"github.com/heritage-archive/hrag/core"
	"github.com/heritage-archive/hrag/document"
	"github.com/heritage-archive/hrag/vectorstore"
)

const (
	// DefaultBatchSize is the number of records written per upsert.
	DefaultBatchSize = 10
	// DefaultExtension selects the documents of a directory.
	DefaultExtension = ".md"
)

// BatchEmbedder embeds many texts at once. Results are index-aligned with
// the input; a failed item has a nil vector and a non-nil error.
type BatchEmbedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, []error)
}

// Pipeline orchestrates chunking, embedding and storage of documents.
type Pipeline struct {
	store     vectorstore.Store
	embedder  BatchEmbedder
	chunker   *chunker.Chunker
	batchSize int
	extension string
	progress  io.Writer
	newID     func() string
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets how many records are written per upsert.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *chunker.Chunker) Option {
	return func(p *Pipeline) error {
		if c == nil {
			return ErrChunkerRequired
		}
		p.chunker = c
		return nil
	}
}

// WithExtension sets the file extension IngestDirectory selects.
func WithExtension(ext string) Option {
	return func(p *Pipeline) error {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		p.extension = ext
		return nil
	}
}

// WithProgress writes per-file progress of directory runs to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store vectorstore.Store, embedder BatchEmbedder, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	defaultChunker, err := chunker.New()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:     store,
		embedder:  embedder,
		chunker:   defaultChunker,
		batchSize: DefaultBatchSize,
		extension: DefaultExtension,
		newID:     uuid.NewString,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// EnsureCollection creates the target collection if it does not exist.
func (p *Pipeline) EnsureCollection(ctx context.Context) error {
	created, err := p.store.EnsureCollection(ctx)
	if err != nil {
		return fmt.Errorf("ensuring collection: %w", err)
	}
	if created {
		p.logger.Info("collection created")
	}
	return nil
}

// DocumentResult describes the outcome of ingesting one document.
type DocumentResult struct {
	Path         string
	Chunks       int // chunks produced by the chunker
	Written      int // records written to the vector store
	FailedChunks int // chunks dropped because embedding failed
}

// IngestDocument chunks, embeds and stores the document at path.
//
// Chunks that fail to embed are skipped and counted in FailedChunks. The
// document fails when it yields no chunks, when no chunk could be embedded,
// or when a batch cannot be written; batches written before a failing one
// stay in the store.
func (p *Pipeline) IngestDocument(ctx context.Context, path string) (DocumentResult, error) {
	result := DocumentResult{Path: path}
	logger := p.logger.With("file", filepath.Base(path))

	doc, err := document.Load(path)
	if err != nil {
		return result, err
	}

	chunks := p.chunker.Chunk(path, doc.Body, doc.Metadata)
	result.Chunks = len(chunks)
	if len(chunks) == 0 {
		return result, fmt.Errorf("%s: %w", path, core.ErrChunkingDegenerate)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, errs := p.embedder.EmbedMany(ctx, texts)

	records := make([]core.Record, 0, len(chunks))
	var embedErrs []error
	for i, c := range chunks {
		if errs[i] != nil || vectors[i] == nil {
			err := errs[i]
			if err == nil {
				err = errors.New("no embedding returned")
			}
			logger.Warn("failed to embed chunk", "chunk", c.Index, "err", err)
			embedErrs = append(embedErrs, fmt.Errorf("chunk %d: %w", c.Index, err))
			continue
		}
		records = append(records, core.Record{
			ID:      p.newID(),
			Vector:  vectors[i],
			Payload: core.PayloadFromChunk(c),
		})
	}
	result.FailedChunks = len(embedErrs)

	if len(records) == 0 {
		return result, fmt.Errorf("%s: %w: %w", path, core.ErrPartialEmbedding, errors.Join(embedErrs...))
	}

	for start := 0; start < len(records); start += p.batchSize {
		end := min(start+p.batchSize, len(records))
		if err := p.store.Upsert(ctx, records[start:end]); err != nil {
			return result, fmt.Errorf("%s: writing records %d-%d: %w", path, start, end-1, err)
		}
		result.Written += end - start
	}

	logger.Info("document ingested", "chunks", result.Chunks, "written", result.Written, "failed_chunks", result.FailedChunks)
	return result, nil
}

// IngestDirectory ingests every matching file in dir, in name order.
// A failing document is recorded in the report and does not stop the run.
// Failing to ensure the collection aborts the run.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string) (*Report, error) {
	start := time.Now()
	report := &Report{Dir: dir}

	if err := p.EnsureCollection(ctx); err != nil {
		return nil, err
	}

	paths, err := p.listDocuments(dir)
	if err != nil {
		return nil, err
	}
	report.Files = len(paths)
	if len(paths) == 0 {
		p.logger.Warn("no documents found", "dir", dir, "extension", p.extension)
		report.Elapsed = time.Since(start)
		return report, nil
	}

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, len(paths), 1, "files")
		tracker.Start()
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}

		res, err := p.IngestDocument(ctx, path)
		report.Chunks += res.Written
		report.FailedChunks += res.FailedChunks
		if err != nil {
			p.logger.Error("document failed", "file", path, "err", err)
			report.Failed = append(report.Failed, FileFailure{Path: path, Err: err})
		} else {
			report.Succeeded++
		}
		if tracker != nil {
			tracker.Increment(1)
		}
	}
	if tracker != nil {
		tracker.Finish()
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

// listDocuments returns the regular files of dir with the configured extension.
func (p *Pipeline) listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if p.extension != "" && !strings.EqualFold(filepath.Ext(e.Name()), p.extension) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
