package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heritage-archive/hrag"
	"github.com/heritage-archive/hrag/ai/mock"
	"github.com/heritage-archive/hrag/config"
	"github.com/heritage-archive/hrag/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// useTestSystem points the commands at a mock provider and an in-memory store.
func useTestSystem(t *testing.T) (*vectorstore.Memory, *mock.MockProvider) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("QDRANT_VECTOR_SIZE", "8")
	t.Setenv("CACHE_FILE", filepath.Join(dir, "cache", "query_cache.json"))

	store := vectorstore.NewMemory(8)
	_, err := store.EnsureCollection(context.Background())
	require.NoError(t, err)
	provider := mock.NewMockProvider().(*mock.MockProvider)
	previous := openSystem
	openSystem = func(cfg *config.Config) (*hrag.System, error) {
		return hrag.Open(cfg, hrag.WithProvider(provider), hrag.WithVectorStore(store))
	}
	t.Cleanup(func() { openSystem = previous })
	return store, provider
}

func run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(strings.NewReader(input), &out)
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	err := app.Run(append([]string{"hrag"}, args...))
	return out.String(), err
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "carthage.md"),
		[]byte("---\ntitle: Carthage\n---\nThe Punic ports of Carthage."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dougga.md"),
		[]byte("---\ntitle: Dougga\n---\nThe Roman theatre of Dougga."), 0o644))
	return dir
}

func TestSetupLogger(t *testing.T) {
	useTestSystem(t)

	_, err := run(t, "", "--log-level", "verbose", "cache", "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")

	_, err = run(t, "", "--log-level", "DEBUG", "cache", "stats")
	assert.NoError(t, err)
}

func TestIngestCommand(t *testing.T) {
	store, _ := useTestSystem(t)
	dir := writeCorpus(t)

	out, err := run(t, "", "ingest", "--dir", dir, "--batch-size", "1", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Ingestion summary for "+dir)
	assert.Contains(t, out, "2 (2 succeeded, 0 failed)")
	assert.Equal(t, 2, store.Len())
	assert.Len(t, store.Upserts(), 2, "batch size 1 writes one record per upsert")
}

func TestIngestCommand_MissingDirectory(t *testing.T) {
	useTestSystem(t)

	_, err := run(t, "", "ingest", "--dir", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestQueryCommand(t *testing.T) {
	_, provider := useTestSystem(t)
	dir := writeCorpus(t)
	_, err := run(t, "", "ingest", "--dir", dir)
	require.NoError(t, err)

	out, err := run(t, "", "query", "-l", "1", "The Roman theatre of Dougga.")
	require.NoError(t, err)
	assert.Contains(t, out, "Query: The Roman theatre of Dougga.")
	assert.Contains(t, out, "Found 1 results (vector store)")
	assert.Contains(t, out, "1. Dougga (score: 1.000)")
	assert.Contains(t, out, "Generating answer with mock-gen")
	assert.Contains(t, out, "Answer:")
	assert.Equal(t, 1, provider.GetMockGenerator().CallCount())

	out, err = run(t, "", "query", "--search-only", "-l", "1", "The Roman theatre of Dougga.")
	require.NoError(t, err)
	assert.Contains(t, out, "Embedding served from cache")
	assert.Contains(t, out, "Found 1 results (cache)")
	assert.NotContains(t, out, "Answer:")
	assert.Equal(t, 1, provider.GetMockGenerator().CallCount())
}

func TestQueryCommand_Failure(t *testing.T) {
	_, provider := useTestSystem(t)
	provider.GetMockEmbedder().WithEmbedTextFunc(func(_ context.Context, _ string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	})

	_, err := run(t, "", "query", "--no-cache", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service down")
}

func TestQueryCommand_Interactive(t *testing.T) {
	_, provider := useTestSystem(t)
	provider.GetMockEmbedder().WithEmbedTextFunc(func(_ context.Context, text string) ([]float32, error) {
		if text == "broken" {
			return nil, errors.New("bad request")
		}
		return mock.DeterministicVector(text, 8), nil
	})

	out, err := run(t, "first question\n\nbroken\nsecond question\nQUIT\nnever asked\n",
		"query", "-i", "--search-only")
	require.NoError(t, err)
	assert.Contains(t, out, "Query: first question")
	assert.Contains(t, out, "Error: ")
	assert.Contains(t, out, "Query: second question")
	assert.NotContains(t, out, "never asked")
}

func TestQueryCommand_NoQueryShowsHelp(t *testing.T) {
	useTestSystem(t)
	openSystem = func(*config.Config) (*hrag.System, error) {
		return nil, errors.New("must not open services")
	}

	out, err := run(t, "", "query")
	require.NoError(t, err)
	assert.Contains(t, out, "hrag query")
}

func TestCacheCommands(t *testing.T) {
	useTestSystem(t)

	_, err := run(t, "", "query", "--search-only", "Kairouan")
	require.NoError(t, err)

	out, err := run(t, "", "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total entries:   2")
	assert.Contains(t, out, "TTL:             3600s")

	out, err = run(t, "", "query", "--cache-stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Active entries:  2")

	out, err = run(t, "", "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared")

	out, err = run(t, "", "query", "--clear-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared")

	out, err = run(t, "", "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total entries:   0")
}

func TestCacheCommands_Disabled(t *testing.T) {
	useTestSystem(t)
	t.Setenv("ENABLE_CACHE", "false")

	out, err := run(t, "", "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache is disabled")
}

func TestCacheCommands_BackendUnavailable(t *testing.T) {
	useTestSystem(t)
	notDir := filepath.Join(t.TempDir(), "badger")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0o644))
	t.Setenv("CACHE_BACKEND", "badger")
	t.Setenv("CACHE_DIR", notDir)

	out, err := run(t, "", "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache is unavailable")
	assert.Contains(t, out, "not a directory")
	assert.NotContains(t, out, "ENABLE_CACHE=false")

	out, err = run(t, "", "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cache is unavailable")
}
