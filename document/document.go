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

// Package document reads source documents and their optional front matter.
//
// A document may begin with a block delimited by "---" lines holding
// source, title, region, date and lang. The block is parsed as YAML; when
// that fails, plain "key: value" lines are accepted with surrounding quotes
// removed.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/heritage-archive/hrag/core"
	"gopkg.in/yaml.v3"
)

const marker = "---"

// Document is a parsed source file.
type Document struct {
	Path     string
	Metadata core.Metadata
	Body     string
}

// Load reads and parses the document at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading document %s: %w", path, err)
	}
	return Parse(path, string(data)), nil
}

// Parse splits content into metadata and body and fills metadata defaults.
// Content without a complete front-matter block is all body.
func Parse(path, content string) Document {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var meta core.Metadata
	body := content
	if block, rest, ok := splitFrontMatter(content); ok {
		meta = parseFrontMatter(block)
		body = strings.TrimSpace(rest)
	}

	if meta.Source == "" {
		meta.Source = core.DefaultSource
	}
	if meta.Title == "" {
		meta.Title = filepath.Base(path)
	}
	return Document{Path: path, Metadata: meta, Body: body}
}

// splitFrontMatter returns the front-matter block and the remaining content.
func splitFrontMatter(content string) (string, string, bool) {
	first, rest, found := strings.Cut(content, "\n")
	if !found || strings.TrimSpace(first) != marker {
		return "", "", false
	}
	lines := strings.SplitAfter(rest, "\n")
	offset := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == marker {
			return rest[:offset], rest[offset+len(line):], true
		}
		offset += len(line)
	}
	return "", "", false
}

func parseFrontMatter(block string) core.Metadata {
	var meta core.Metadata
	if err := yaml.Unmarshal([]byte(block), &meta); err == nil {
		return meta
	}
	return parseLines(block)
}

// parseLines reads "key: value" lines, ignoring unknown keys.
func parseLines(block string) core.Metadata {
	var meta core.Metadata
	for _, line := range strings.Split(block, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = unquote(strings.TrimSpace(value))
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "source":
			meta.Source = value
		case "title":
			meta.Title = value
		case "region":
			meta.Region = value
		case "date":
			meta.Date = value
		case "lang":
			meta.Lang = value
		}
	}
	return meta
}

func unquote(s string) string {
	s = strings.Trim(s, `"`)
	return strings.Trim(s, `'`)
}
