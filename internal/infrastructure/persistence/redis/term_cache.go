package redis

import (
	"context"
	"errors"
	"time"
)

// TermBacking exposes Cache as shared second-level storage for the term
// resolver, so several processes reuse one fetch of the term list.
type TermBacking struct {
	cache *Cache
}

// NewTermBacking creates a backing over cache.
func NewTermBacking(cache *Cache) *TermBacking {
	return &TermBacking{cache: cache}
}

// Load decodes the cached value of name into dst. found is false on a miss.
func (b *TermBacking) Load(ctx context.Context, name string, dst any) (bool, error) {
	err := b.cache.Get(ctx, TermKey(name), dst)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Store saves v under name for ttl.
func (b *TermBacking) Store(ctx context.Context, name string, v any, ttl time.Duration) error {
	return b.cache.Set(ctx, TermKey(name), v, ttl)
}

// Invalidate drops the cached value of name.
func (b *TermBacking) Invalidate(ctx context.Context, name string) error {
	return b.cache.Delete(ctx, TermKey(name))
}
