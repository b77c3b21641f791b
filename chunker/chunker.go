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

// Package chunker splits document bodies into bounded, paragraph-aligned
// chunks. Splitting is a pure function of the text and parameters.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/heritage-archive/hrag/core"
)

const (
	// DefaultMaxSize is the maximum chunk length in characters.
	DefaultMaxSize = 600
	// DefaultOverlap disables overlap.
	DefaultOverlap = 0

	separator    = "\n\n"
	separatorLen = 2
)

// Split divides text into chunks of at most maxSize characters.
//
// Paragraphs are separated by blank lines and are never split: a paragraph
// longer than maxSize becomes a chunk on its own. When overlap is positive
// and the last paragraph of a flushed chunk is at most overlap characters
// long, it is repeated at the start of the next chunk, provided the result
// still fits. An oversized chunk never seeds the next one.
func Split(text string, maxSize, overlap int) []string {
	paragraphs := paragraphs(text)
	if len(paragraphs) == 0 {
		return []string{}
	}

	var (
		chunks []string
		buf    []string
		size   int
	)
	flush := func() {
		if len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, separator))
		}
	}

	for _, p := range paragraphs {
		n := utf8.RuneCountInString(p)
		if len(buf) == 0 {
			buf, size = []string{p}, n
			continue
		}
		if size+separatorLen+n <= maxSize {
			buf = append(buf, p)
			size += separatorLen + n
			continue
		}

		last := buf[len(buf)-1]
		lastLen := utf8.RuneCountInString(last)
		oversized := len(buf) == 1 && size > maxSize
		flush()

		if overlap > 0 && !oversized && lastLen <= overlap && lastLen+separatorLen+n <= maxSize {
			buf, size = []string{last, p}, lastLen+separatorLen+n
		} else {
			buf, size = []string{p}, n
		}
	}
	flush()
	return chunks
}

// paragraphs returns the trimmed, non-empty blank-line separated paragraphs of text.
func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, separator) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Chunker turns documents into indexed chunks.
type Chunker struct {
	maxSize int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithMaxSize sets the maximum chunk length.
func WithMaxSize(n int) Option {
	return func(c *Chunker) error {
		if n <= 0 {
			return ErrInvalidMaxSize
		}
		c.maxSize = n
		return nil
	}
}

// WithOverlap sets the overlap threshold. Zero disables overlap.
func WithOverlap(n int) Option {
	return func(c *Chunker) error {
		if n < 0 {
			return ErrInvalidOverlap
		}
		c.overlap = n
		return nil
	}
}

// New creates a Chunker with the default limits and applies opts.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{maxSize: DefaultMaxSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.overlap >= c.maxSize {
		return nil, ErrInvalidOverlap
	}
	return c, nil
}

// MaxSize returns the configured maximum chunk length.
func (c *Chunker) MaxSize() int {
	return c.maxSize
}

// Split splits text with the chunker's limits.
func (c *Chunker) Split(text string) []string {
	return Split(text, c.maxSize, c.overlap)
}

// Chunk splits body and stamps each piece with its index, source and metadata.
func (c *Chunker) Chunk(source string, body string, meta core.Metadata) []core.Chunk {
	texts := c.Split(body)
	chunks := make([]core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = core.Chunk{
			SourceDocument: source,
			Index:          i,
			Text:           text,
			Metadata:       meta,
		}
	}
	return chunks
}
