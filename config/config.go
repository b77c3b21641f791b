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

// Package config loads pipeline settings from the environment.
//
// Values come from process environment variables, optionally seeded from a
// .env file in the working directory. Every setting has a default suitable
// for a local Ollama and Qdrant deployment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/heritage-archive/hrag/ai"
	"github.com/heritage-archive/hrag/vectorstore"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Cache backends.
const (
	CacheBackendFile   = "file"
	CacheBackendBadger = "badger"
)

// TTL is a duration read either as a Go duration ("90m") or as integer seconds ("3600").
type TTL time.Duration

// Decode implements envconfig.Decoder.
func (t *TTL) Decode(value string) error {
	value = strings.TrimSpace(value)
	if secs, err := strconv.Atoi(value); err == nil {
		*t = TTL(time.Duration(secs) * time.Second)
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid ttl %q: %w", value, err)
	}
	*t = TTL(d)
	return nil
}

// Duration returns the TTL as a time.Duration.
func (t TTL) Duration() time.Duration {
	return time.Duration(t)
}

type Config struct {
	// AI services
	AIBackend       string        `envconfig:"AI_BACKEND" default:"ollama"`
	OllamaURL       string        `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	OpenAIBaseURL   string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com"`
	OpenAIAPIKey    string        `envconfig:"OPENAI_API_KEY"`
	EmbedModel      string        `envconfig:"EMBED_MODEL" default:"nomic-embed-text"`
	GenModel        string        `envconfig:"GEN_MODEL" default:"mixtral"`
	EmbedTimeout    time.Duration `envconfig:"EMBED_TIMEOUT" default:"30s"`
	GenerateTimeout time.Duration `envconfig:"GENERATE_TIMEOUT" default:"60s"`

	// Vector store
	QdrantURL        string `envconfig:"QDRANT_URL" default:"http://localhost:6333"`
	QdrantAPIKey     string `envconfig:"QDRANT_API_KEY"`
	QdrantCollection string `envconfig:"QDRANT_COLLECTION" default:"heritage_transcripts"`
	QdrantVectorSize int    `envconfig:"QDRANT_VECTOR_SIZE" default:"768"`
	QdrantDistance   string `envconfig:"QDRANT_DISTANCE" default:"Cosine"`

	// Ingestion
	BatchSize      int           `envconfig:"BATCH_SIZE" default:"10"`
	EmbedWorkers   int           `envconfig:"EMBED_WORKERS" default:"4"`
	MaxRetries     int           `envconfig:"MAX_RETRIES" default:"3"`
	RetryDelay     time.Duration `envconfig:"RETRY_DELAY" default:"500ms"`
	EmbedRateLimit float64       `envconfig:"EMBED_RATE_LIMIT" default:"0"`
	ChunkMaxSize   int           `envconfig:"CHUNK_MAX_SIZE" default:"600"`
	ChunkOverlap   int           `envconfig:"CHUNK_OVERLAP" default:"0"`
	DataDir        string        `envconfig:"DATA_DIR" default:"data/transcripts"`
	DocExt         string        `envconfig:"DOC_EXT" default:".md"`

	// Query cache
	EnableCache  bool   `envconfig:"ENABLE_CACHE" default:"true"`
	CacheBackend string `envconfig:"CACHE_BACKEND" default:"file"`
	CacheFile    string `envconfig:"CACHE_FILE" default:".cache/query_cache.json"`
	CacheDir     string `envconfig:"CACHE_DIR" default:".cache/badger"`
	CacheTTL     TTL    `envconfig:"CACHE_TTL" default:"1h"`
}

// Load reads the configuration from the environment.
// A .env file in the working directory is loaded first when present; it
// never overrides variables already set in the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	backend := ai.Backend(c.AIBackend)
	check(backend == ai.BackendOllama || backend == ai.BackendOpenAI, "AI_BACKEND must be ollama or openai, got %q", c.AIBackend)
	check(c.EmbedModel != "", "EMBED_MODEL is required")
	check(c.GenModel != "", "GEN_MODEL is required")
	check(c.QdrantURL != "", "QDRANT_URL is required")
	check(c.QdrantCollection != "", "QDRANT_COLLECTION is required")
	check(c.QdrantVectorSize > 0, "QDRANT_VECTOR_SIZE must be positive, got %d", c.QdrantVectorSize)
	_, err := vectorstore.ParseDistance(c.QdrantDistance)
	check(err == nil, "QDRANT_DISTANCE must be Cosine, Dot or Euclid, got %q", c.QdrantDistance)
	check(c.BatchSize > 0, "BATCH_SIZE must be positive, got %d", c.BatchSize)
	check(c.EmbedWorkers > 0, "EMBED_WORKERS must be positive, got %d", c.EmbedWorkers)
	check(c.MaxRetries > 0, "MAX_RETRIES must be positive, got %d", c.MaxRetries)
	check(c.RetryDelay >= 0, "RETRY_DELAY must not be negative")
	check(c.EmbedRateLimit >= 0, "EMBED_RATE_LIMIT must not be negative")
	check(c.ChunkMaxSize > 0, "CHUNK_MAX_SIZE must be positive, got %d", c.ChunkMaxSize)
	check(c.ChunkOverlap >= 0 && c.ChunkOverlap < c.ChunkMaxSize,
		"CHUNK_OVERLAP must be in [0, CHUNK_MAX_SIZE), got %d", c.ChunkOverlap)
	check(c.CacheBackend == CacheBackendFile || c.CacheBackend == CacheBackendBadger,
		"CACHE_BACKEND must be file or badger, got %q", c.CacheBackend)
	check(c.CacheTTL > 0, "CACHE_TTL must be positive")

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// AIConfig returns the AI service configuration for the selected backend.
func (c *Config) AIConfig() *ai.Config {
	host := c.OllamaURL
	if ai.Backend(c.AIBackend) == ai.BackendOpenAI {
		host = c.OpenAIBaseURL
	}
	cfg := ai.NewConfig(
		ai.WithBackend(ai.Backend(c.AIBackend)),
		ai.WithHost(host),
		ai.WithAPIKey(c.OpenAIAPIKey),
		ai.WithEmbeddingModel(c.EmbedModel),
		ai.WithGenerationModel(c.GenModel),
		ai.WithTimeouts(c.EmbedTimeout, c.GenerateTimeout),
	)
	cfg.Normalize()
	return cfg
}

// Distance returns the parsed vector distance. Call Validate first.
func (c *Config) Distance() vectorstore.Distance {
	d, _ := vectorstore.ParseDistance(c.QdrantDistance)
	return d
}
