package cache

import (
	"testing"
	"time"

	"github.com/heritage-archive/hrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Len(t, Key("a", "b"), 64)
	assert.Equal(t, Key("tunis", "m"), EmbeddingKey("tunis", "m"))
	assert.NotEqual(t, EmbeddingKey("tunis", "m1"), EmbeddingKey("tunis", "m2"))
	assert.NotEqual(t, SearchKey("tunis", 5), SearchKey("tunis", 10))
	assert.Equal(t, Key("search:tunis:5", ""), SearchKey("tunis", 5))
}

func TestQueryCache_Embedding(t *testing.T) {
	clock := newClock()
	store, _ := openTestStore(t, clock, WithTTL(time.Hour))
	qc, err := NewQueryCache(store)
	require.NoError(t, err)

	_, ok := qc.GetEmbedding("Bardo", "nomic-embed-text")
	assert.False(t, ok)

	require.NoError(t, qc.SetEmbedding("Bardo", "nomic-embed-text", []float32{0.5, 0.5}))
	vec, ok := qc.GetEmbedding("Bardo", "nomic-embed-text")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, 0.5}, vec)

	_, ok = qc.GetEmbedding("Bardo", "other-model")
	assert.False(t, ok)

	clock.Advance(time.Hour + time.Second)
	_, ok = qc.GetEmbedding("Bardo", "nomic-embed-text")
	assert.False(t, ok)
}

func TestQueryCache_SearchResults(t *testing.T) {
	store, _ := openTestStore(t, newClock())
	qc, err := NewQueryCache(store)
	require.NoError(t, err)

	results := []core.SearchResult{
		{Score: 0.91, Payload: core.Payload{Title: "Kairouan", Text: "Great Mosque", File: "kairouan.md"}},
	}
	require.NoError(t, qc.SetSearchResults("mosque", 5, results))

	got, ok := qc.GetSearchResults("mosque", 5)
	require.True(t, ok)
	assert.Equal(t, results, got)

	_, ok = qc.GetSearchResults("mosque", 3)
	assert.False(t, ok)

	require.NoError(t, qc.SetSearchResults("nothing", 5, nil))
	got, ok = qc.GetSearchResults("nothing", 5)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestNewQueryCache_RequiresStore(t *testing.T) {
	_, err := NewQueryCache(nil)
	assert.ErrorIs(t, err, ErrStoreRequired)
}
