package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 10000

// Cached memoises an Embedder in an LRU keyed by content hash. Repeated
// chunks, such as re-ingested papers, skip the provider call.
type Cached struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCached wraps inner with a cache of up to size vectors.
func NewCached(inner Embedder, size int) *Cached {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		// Only fails for non-positive sizes.
		cache, _ = lru.New[string, []float32](defaultCacheSize)
	}
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := ComputeHash(c.inner.Name() + "\x00" + text)
	if vec, ok := c.cache.Get(key); ok {
		return copyVector(vec), nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, copyVector(vec))
	return vec, nil
}

// Len returns the number of cached vectors.
func (c *Cached) Len() int { return c.cache.Len() }

// ComputeHash is the hex SHA-256 of text.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
