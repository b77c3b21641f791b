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

package core

import "path/filepath"

// DefaultSource is the source label used when a document does not declare one.
const DefaultSource = "simulated"

// Metadata describes where a chunk came from.
// Values are read from a document's front matter; missing fields are
// filled with document-derived defaults by the ingestion pipeline.
type Metadata struct {
	Source string `yaml:"source" json:"source"`
	Title  string `yaml:"title" json:"title"`
	Region string `yaml:"region" json:"region,omitempty"`
	Date   string `yaml:"date" json:"date,omitempty"`
	Lang   string `yaml:"lang" json:"lang,omitempty"`
}

// Chunk is a bounded, context-preserving segment of a document.
// Chunks are produced by the chunker and never mutated afterwards.
type Chunk struct {
	SourceDocument string // Path of the document the chunk was cut from
	Index          int    // Position of the chunk within its document
	Text           string
	Metadata       Metadata
}

// Payload is the data stored next to a vector in the vector store.
type Payload struct {
	Source     string `json:"source"`
	Title      string `json:"title"`
	Region     string `json:"region,omitempty"`
	Date       string `json:"date,omitempty"`
	Lang       string `json:"lang,omitempty"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
	File       string `json:"file"`
}

// PayloadFromChunk builds the vector-store payload for a chunk.
func PayloadFromChunk(c Chunk) Payload {
	return Payload{
		Source:     c.Metadata.Source,
		Title:      c.Metadata.Title,
		Region:     c.Metadata.Region,
		Date:       c.Metadata.Date,
		Lang:       c.Metadata.Lang,
		ChunkIndex: c.Index,
		Text:       c.Text,
		File:       filepath.Base(c.SourceDocument),
	}
}

// Record is an embedded chunk ready to be written to the vector store.
// Records are written once; re-ingesting a document creates new IDs.
type Record struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// SearchResult is a single hit returned by a vector search.
type SearchResult struct {
	Payload Payload `json:"payload"`
	Score   float32 `json:"score"`
}

// QueryContext collects everything produced while answering one query.
type QueryContext struct {
	Query   string
	Results []SearchResult
	Answer  *string // nil when no answer was generated
}

// HasAnswer reports whether an answer was generated for the query.
func (qc *QueryContext) HasAnswer() bool {
	return qc != nil && qc.Answer != nil
}
