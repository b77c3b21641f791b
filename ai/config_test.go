package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, BackendOllama, cfg.Backend)
	assert.Equal(t, "http://localhost:11434/api", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/api", cfg.GenerationHost)
	assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
	assert.Equal(t, "mixtral", cfg.GenerationModel)
	assert.Equal(t, 30*time.Second, cfg.EmbedTimeout)
	assert.Equal(t, 60*time.Second, cfg.GenerateTimeout)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://gpu:11434/api"))

		assert.Equal(t, "http://gpu:11434/api", cfg.EmbeddingHost)
		assert.Equal(t, "http://gpu:11434/api", cfg.GenerationHost)
	})

	t.Run("with separate hosts and models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:11434"),
			WithGenerationHost("http://gen:11434"),
			WithEmbeddingModel("bge-m3"),
			WithGenerationModel("llama3"),
			WithAPIKey("secret"),
			WithTimeouts(time.Second, 2*time.Second),
		)

		assert.Equal(t, "http://embed:11434", cfg.EmbeddingHost)
		assert.Equal(t, "http://gen:11434", cfg.GenerationHost)
		assert.Equal(t, "bge-m3", cfg.EmbeddingModel)
		assert.Equal(t, "llama3", cfg.GenerationModel)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.Equal(t, time.Second, cfg.EmbedTimeout)
		assert.Equal(t, 2*time.Second, cfg.GenerateTimeout)
	})
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		host    string
		want    string
	}{
		{"ollama adds api", BackendOllama, "http://localhost:11434", "http://localhost:11434/api"},
		{"ollama trailing slash", BackendOllama, "http://localhost:11434/", "http://localhost:11434/api"},
		{"ollama already suffixed", BackendOllama, "http://localhost:11434/api", "http://localhost:11434/api"},
		{"openai adds v1", BackendOpenAI, "http://localhost:8000", "http://localhost:8000/v1"},
		{"openai already suffixed", BackendOpenAI, "https://api.openai.com/v1/", "https://api.openai.com/v1"},
		{"empty host untouched", BackendOllama, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithBackend(tt.backend), WithHost(tt.host))
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.GenerationHost)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	t.Run("empty backend defaults to ollama", func(t *testing.T) {
		cfg := NewConfig(WithBackend(""))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, BackendOllama, cfg.Backend)
	})

	invalid := map[string]ConfigOption{
		"unknown backend":  WithBackend("bedrock"),
		"no host":          WithHost(""),
		"no embed model":   WithEmbeddingModel(""),
		"no gen model":     WithGenerationModel(""),
		"zero timeout":     WithTimeouts(0, time.Second),
		"negative timeout": WithTimeouts(time.Second, -1),
	}
	for name, opt := range invalid {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, NewConfig(opt).Validate())
		})
	}
}
