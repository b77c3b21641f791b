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

package search

import (
	"fmt"
	"strings"

	"github.com/heritage-archive/hrag/core"
)

// SystemPrompt is the instruction sent with every generation request.
const SystemPrompt = "You are a historian assistant for Tunisian heritage. " +
	"Use provided context verbatim when citing. " +
	"Answer in Arabic or French. Include brief citations with source labels [#]."

const unknownLabel = "Unknown"

// FormatContext renders results as numbered citation blocks separated by a
// blank line. Labels start at 1 and follow result order.
func FormatContext(results []core.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[#%d | %s | %s | score: %.3f]\n%s",
			i+1, orUnknown(r.Payload.Title), orUnknown(r.Payload.File), r.Score, r.Payload.Text)
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt assembles the generation prompt for a question and its context.
func BuildPrompt(query, context string) string {
	return "Question: " + query + "\n\n" +
		"Context (citations):\n" + context + "\n\n" +
		"Write a concise answer, include citation snippets with source labels [#]."
}

func orUnknown(s string) string {
	if s == "" {
		return unknownLabel
	}
	return s
}
