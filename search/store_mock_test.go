package search

import (
	"context"
	"testing"

	"github.com/heritage-archive/hrag/ai/mock"
	"github.com/heritage-archive/hrag/core"
	"github.com/heritage-archive/hrag/embedding"
	"github.com/heritage-archive/hrag/vectorstore"
	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	testifymock.Mock
}

var _ vectorstore.Store = (*mockStore)(nil)

func (m *mockStore) EnsureCollection(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Upsert(ctx context.Context, records []core.Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *mockStore) Search(ctx context.Context, vector []float32, limit int) ([]core.SearchResult, error) {
	args := m.Called(ctx, vector, limit)
	results, _ := args.Get(0).([]core.SearchResult)
	return results, args.Error(1)
}

func TestQuery_ResultCacheSkipsStore(t *testing.T) {
	f := newFixture(t)
	hits := []core.SearchResult{{Payload: core.Payload{Title: "Chemtou", Text: "Numidian marble."}, Score: 0.7}}

	store := &mockStore{}
	store.On("Search", testifymock.Anything, testifymock.Anything, 3).Return(hits, nil).Once()

	client, err := embedding.NewClient(f.embedder, embedding.WithCache(f.cache))
	require.NoError(t, err)
	defer client.Close()
	searcher, err := NewSearcher(store, client, WithResultCache(f.cache), WithGenerator(mock.NewMockGenerator()))
	require.NoError(t, err)

	opts := Options{Limit: 3, UseCache: true}
	for range 3 {
		qc, err := searcher.Query(context.Background(), "marble quarries", opts)
		require.NoError(t, err)
		assert.Equal(t, hits, qc.Results)
	}
	store.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "Search", 1)
}

func TestQuery_NoCacheAlwaysSearches(t *testing.T) {
	f := newFixture(t)
	store := &mockStore{}
	store.On("Search", testifymock.Anything, testifymock.Anything, DefaultLimit).Return([]core.SearchResult{}, nil)

	client, err := embedding.NewClient(f.embedder, embedding.WithCache(f.cache))
	require.NoError(t, err)
	defer client.Close()
	searcher, err := NewSearcher(store, client, WithResultCache(f.cache))
	require.NoError(t, err)

	for range 2 {
		_, err := searcher.Query(context.Background(), "El Jem", Options{})
		require.NoError(t, err)
	}
	store.AssertNumberOfCalls(t, "Search", 2)
}
