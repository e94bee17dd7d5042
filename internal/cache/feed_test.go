package cache

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapKV() *mapKV {
	return &mapKV{data: make(map[string][]byte)}
}

func (m *mapKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (m *mapKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapKV) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(string(m.data[key]), 10, 64)
	n++
	m.data[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

type page struct {
	IDs []string `json:"ids"`
}

func TestFeedCacheRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	fc := NewFeedCache(newMapKV(), time.Minute)

	key, ok := fc.Key(ctx, "p1")
	require.True(t, ok)

	var got page
	assert.False(t, fc.Get(ctx, key, &got))

	fc.Put(ctx, key, page{IDs: []string{"a", "b"}})
	require.True(t, fc.Get(ctx, key, &got))
	assert.Equal(t, []string{"a", "b"}, got.IDs)

	fc.Invalidate(ctx)
	fresh, ok := fc.Key(ctx, "p1")
	require.True(t, ok)
	assert.NotEqual(t, key, fresh)
	assert.False(t, fc.Get(ctx, fresh, &page{}))
}

func TestFeedCachePutUnderRetiredKeyStaysHidden(t *testing.T) {
	ctx := context.Background()
	fc := NewFeedCache(newMapKV(), time.Minute)

	key, ok := fc.Key(ctx, "p1")
	require.True(t, ok)
	fc.Invalidate(ctx)
	fc.Put(ctx, key, page{IDs: []string{"stale"}})

	fresh, ok := fc.Key(ctx, "p1")
	require.True(t, ok)
	assert.False(t, fc.Get(ctx, fresh, &page{}))
}

func TestFeedCacheCorruptVersionIsUnusable(t *testing.T) {
	kv := newMapKV()
	kv.data[feedVersionKey] = []byte("garbage")
	fc := NewFeedCache(kv, time.Minute)

	_, ok := fc.Key(context.Background(), "p1")
	assert.False(t, ok)
}

func TestNilFeedCache(t *testing.T) {
	var fc *FeedCache
	ctx := context.Background()

	_, ok := fc.Key(ctx, "p1")
	assert.False(t, ok)
	fc.Put(ctx, "feed:v0:p1", page{})
	fc.Invalidate(ctx)
	assert.False(t, fc.Get(ctx, "feed:v0:p1", &page{}))
}
