package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"
)

const feedVersionKey = "feed:version"

// FeedCache stores rendered public feed pages. Every key embeds the current
// version counter, so Invalidate drops all pages at once by bumping it.
// A nil *FeedCache is a valid, always-missing cache.
type FeedCache struct {
	kv  KV
	ttl time.Duration
}

func NewFeedCache(kv KV, ttl time.Duration) *FeedCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &FeedCache{kv: kv, ttl: ttl}
}

func (f *FeedCache) version(ctx context.Context) (string, error) {
	data, err := f.kv.Get(ctx, feedVersionKey)
	if errors.Is(err, ErrMiss) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	if _, err := strconv.ParseInt(string(data), 10, 64); err != nil {
		return "", fmt.Errorf("corrupt feed version %q", data)
	}
	return string(data), nil
}

// Key resolves the cache key for page under the current version. Resolve it
// before reading the source of truth and pass the same key to Get and Put, so
// a page built before an Invalidate can only land under the retired version.
// ok is false when the cache is unusable.
func (f *FeedCache) Key(ctx context.Context, page string) (key string, ok bool) {
	if f == nil {
		return "", false
	}
	v, err := f.version(ctx)
	if err != nil {
		log.Printf("Warning: feed cache version lookup failed: %v", err)
		return "", false
	}
	return "feed:v" + v + ":" + page, true
}

// Get decodes the entry stored under key into dest and reports whether it was found.
func (f *FeedCache) Get(ctx context.Context, key string, dest any) bool {
	if f == nil || key == "" {
		return false
	}
	data, err := f.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			log.Printf("Warning: feed cache get failed: %v", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("Warning: feed cache entry %s is corrupt: %v", key, err)
		return false
	}
	return true
}

func (f *FeedCache) Put(ctx context.Context, key string, value any) {
	if f == nil || key == "" {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("Warning: feed cache encode failed: %v", err)
		return
	}
	if err := f.kv.Set(ctx, key, data, f.ttl); err != nil {
		log.Printf("Warning: feed cache set failed: %v", err)
	}
}

// Invalidate makes every cached page unreachable.
func (f *FeedCache) Invalidate(ctx context.Context) {
	if f == nil {
		return
	}
	if _, err := f.kv.Incr(ctx, feedVersionKey); err != nil {
		log.Printf("Warning: feed cache invalidate failed: %v", err)
	}
}
