package embedding

import (
	"context"
	"sync"
)

// cachingEmbedder memoizes vectors by content hash, so unchanged notes are
// never re-embedded within a run.
type cachingEmbedder struct {
	inner Embedder
	key   func(text string) string

	mu      sync.RWMutex
	vectors map[string][]float32
}

// WithCache wraps an Embedder with a content-hash cache. key derives the
// cache key from the text.
func WithCache(inner Embedder, key func(text string) string) Embedder {
	return &cachingEmbedder{
		inner:   inner,
		key:     key,
		vectors: make(map[string][]float32),
	}
}

func (c *cachingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	k := c.key(text)

	c.mu.RLock()
	vec, ok := c.vectors[k]
	c.mu.RUnlock()
	if ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.vectors[k] = vec
	c.mu.Unlock()
	return vec, nil
}
