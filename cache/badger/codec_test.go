package badger

import (
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/heritage-archive/hrag/cache"
	"github.com/heritage-archive/hrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry cache.Entry
	}{
		{"empty entry", cache.Entry{}},
		{"embedding", cache.Entry{
			Kind:      cache.KindEmbedding,
			Query:     "Zaghouan aqueduct",
			Model:     "nomic-embed-text",
			Embedding: []float32{0.25, -0.5, 1, 3.14159},
			Timestamp: 1760870400.123456,
		}},
		{"search results", cache.Entry{
			Kind:  cache.KindSearchResults,
			Query: "Roman mosaics of El Jem",
			Limit: 5,
			Results: []core.SearchResult{
				{Payload: core.Payload{
					Source:     "Bardo archive",
					Title:      "Mosaics of Thysdrus",
					Region:     "Mahdia",
					Date:       "1903",
					Lang:       "fr",
					ChunkIndex: 7,
					Text:       "Les mosaïques de Thysdrus...",
					File:       "el_jem.md",
				}, Score: 0.91},
				{Payload: core.Payload{Title: "Untitled", File: "b.txt"}, Score: 0.4},
			},
			Timestamp: 1760870400,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalEntry(tt.entry)
			require.NotEmpty(t, data)
			assert.Len(t, data, EntryMUS.Size(tt.entry))

			decoded, err := UnmarshalEntry(data)
			require.NoError(t, err)
			assert.Equal(t, tt.entry, decoded)
		})
	}
}

func TestUnmarshalEntry_Invalid(t *testing.T) {
	valid := MarshalEntry(cache.Entry{Kind: cache.KindEmbedding, Query: "q", Embedding: []float32{1, 2}})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"truncated", valid[:len(valid)-1]},
		{"trailing bytes", append(append([]byte{}, valid...), 0)},
		{"oversized slice length", []byte{0, 0, 0, 0, 0xff, 0xff, 0x03}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalEntry(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestStore_CorruptValueIsMiss(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storageKey("k"), []byte(`{"kind":"embedding"}`))
	}))

	_, ok := store.Get("k", cache.KindEmbedding)
	assert.False(t, ok)
}
