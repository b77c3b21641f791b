package embedding

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/heritage-archive/hrag/ai"
	"github.com/heritage-archive/hrag/ai/mock"
	"github.com/heritage-archive/hrag/cache"
	"github.com/heritage-archive/hrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, embedder ai.Embedder, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRetry(3, time.Millisecond)}, opts...)
	c, err := NewClient(embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newQueryCache(t *testing.T) *cache.QueryCache {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)
	qc, err := cache.NewQueryCache(store)
	require.NoError(t, err)
	return qc
}

func TestEmbedOne_CacheHitSkipsService(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	c := newTestClient(t, embedder, WithCache(newQueryCache(t)))

	first, err := c.EmbedOne(context.Background(), "Roman mosaics of Bardo")
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.CallCount())

	second, err := c.EmbedOne(context.Background(), "Roman mosaics of Bardo")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, embedder.CallCount(), "second call must be served from cache")

	_, err = c.WithoutCache().EmbedOne(context.Background(), "Roman mosaics of Bardo")
	require.NoError(t, err)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestEmbedCached_ReportsHit(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	c := newTestClient(t, embedder, WithCache(newQueryCache(t)))

	_, hit, err := c.EmbedCached(context.Background(), "Dougga theatre")
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = c.EmbedCached(context.Background(), "Dougga theatre")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, embedder.CallCount())

	_, hit, err = c.WithoutCache().EmbedCached(context.Background(), "Dougga theatre")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, embedder.CallCount())
}

func TestEmbedOne_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		if calls.Add(1) < 3 {
			return nil, ai.StatusError("embed", 503, "loading model")
		}
		return []float32{1, 0}, nil
	})
	c := newTestClient(t, embedder)

	vec, err := c.EmbedOne(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbedOne_PermanentNotRetried(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		calls.Add(1)
		return nil, ai.StatusError("embed", 400, "bad input")
	})
	c := newTestClient(t, embedder)

	_, err := c.EmbedOne(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrPermanentService)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedOne_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		calls.Add(1)
		return nil, ai.StatusError("embed", 429, "slow down")
	})
	c := newTestClient(t, embedder)

	_, err := c.EmbedOne(context.Background(), "text")
	var se *ai.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 429, se.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbedOne_Validation(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	c := newTestClient(t, embedder, WithDimensions(768))

	_, err := c.EmbedOne(context.Background(), "   ")
	assert.ErrorIs(t, err, ai.ErrEmptyText)

	_, err = c.EmbedOne(context.Background(), "text")
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	assert.False(t, ai.IsTransient(err))
	assert.Equal(t, 1, embedder.CallCount())
}

func TestEmbedMany_OrderAndIsolation(t *testing.T) {
	const failAt = 3
	embedder := mock.NewMockEmbedder().WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
		var i int
		_, _ = fmt.Sscanf(text, "chunk-%d", &i)
		// Later items finish first.
		time.Sleep(time.Duration(10-i) * time.Millisecond)
		if i == failAt {
			return nil, ai.StatusError("embed", 400, "rejected")
		}
		return []float32{float32(i)}, nil
	})
	c := newTestClient(t, embedder, WithWorkers(4))

	texts := make([]string, 8)
	for i := range texts {
		texts[i] = fmt.Sprintf("chunk-%d", i)
	}

	vectors, errs := c.EmbedMany(context.Background(), texts)
	require.Len(t, vectors, len(texts))
	require.Len(t, errs, len(texts))

	for i := range texts {
		if i == failAt {
			assert.Nil(t, vectors[i])
			assert.Error(t, errs[i])
			continue
		}
		assert.NoError(t, errs[i], "item %d", i)
		assert.Equal(t, []float32{float32(i)}, vectors[i], "item %d out of order", i)
	}
}

func TestEmbedMany_BypassesCache(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	qc := newQueryCache(t)
	c := newTestClient(t, embedder, WithCache(qc))

	_, errs := c.EmbedMany(context.Background(), []string{"a", "b"})
	assert.NoError(t, errors.Join(errs...))
	assert.Equal(t, 0, qc.Stats().Total)
}

func TestEmbedMany_Empty(t *testing.T) {
	c := newTestClient(t, mock.NewMockEmbedder())
	vectors, errs := c.EmbedMany(context.Background(), nil)
	assert.Empty(t, vectors)
	assert.Empty(t, errs)
}

func TestEmbedMany_AfterClose(t *testing.T) {
	c, err := NewClient(mock.NewMockEmbedder())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	vectors, errs := c.EmbedMany(context.Background(), []string{"x"})
	assert.Nil(t, vectors[0])
	assert.ErrorIs(t, errs[0], ErrClientClosed)
}

func TestEmbedOne_RateLimit(t *testing.T) {
	c := newTestClient(t, mock.NewMockEmbedder(), WithRateLimit(1000))
	for i := 0; i < 5; i++ {
		_, err := c.EmbedOne(context.Background(), strings.Repeat("x", i+1))
		require.NoError(t, err)
	}
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewClient(mock.NewMockEmbedder(), WithWorkers(0))
	assert.ErrorIs(t, err, ErrInvalidWorkers)

	c, err := NewClient(mock.NewMockEmbedder())
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "mock-embed", c.Model())
}
