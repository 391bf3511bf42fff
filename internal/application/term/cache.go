package term

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/uwcourse/course-watch/pkg/timeutil"
)

// Backing is optional shared storage consulted before the loader.
// Implemented by the Redis term cache.
type Backing interface {
	Load(ctx context.Context, name string, dst any) (bool, error)
	Store(ctx context.Context, name string, v any, ttl time.Duration) error
	Invalidate(ctx context.Context, name string) error
}

// Loader fetches a fresh value.
type Loader[T any] func(ctx context.Context) (T, error)

// envelope is what the backing stores, so the fetch time travels with the value.
type envelope[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// CacheConfig configures one cached operation.
type CacheConfig struct {
	// Name identifies the cache in logs and in the backing store.
	Name string

	TTL     time.Duration
	Clock   timeutil.Clock
	Backing Backing
	Logger  *slog.Logger
}

// Cache holds one value together with the time it was fetched.
// Get serves the value while it is younger than the TTL and reloads it otherwise.
type Cache[T any] struct {
	name    string
	ttl     time.Duration
	clock   timeutil.Clock
	backing Backing
	loader  Loader[T]
	logger  *slog.Logger

	mu        sync.Mutex
	value     T
	fetchedAt time.Time
	valid     bool
}

// NewCache creates a cache over loader.
func NewCache[T any](config CacheConfig, loader Loader[T]) *Cache[T] {
	if config.Clock == nil {
		config.Clock = timeutil.SystemClock{}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Cache[T]{
		name:    config.Name,
		ttl:     config.TTL,
		clock:   config.Clock,
		backing: config.Backing,
		loader:  loader,
		logger:  config.Logger,
	}
}

func (c *Cache[T]) fresh(fetchedAt time.Time) bool {
	return c.clock.Now().Sub(fetchedAt) < c.ttl
}

// Get returns the cached value, refreshing it when stale.
// A failed load leaves the previous state untouched.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.fresh(c.fetchedAt) {
		return c.value, nil
	}

	if c.backing != nil {
		var env envelope[T]
		found, err := c.backing.Load(ctx, c.name, &env)
		if err != nil {
			c.logger.Warn("term cache backing read failed", "cache", c.name, "error", err)
		} else if found && c.fresh(env.FetchedAt) {
			c.set(env.Value, env.FetchedAt)
			return env.Value, nil
		}
	}

	value, err := c.loader(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	now := c.clock.Now()
	c.set(value, now)

	if c.backing != nil {
		env := envelope[T]{Value: value, FetchedAt: now}
		if err := c.backing.Store(ctx, c.name, env, c.ttl); err != nil {
			c.logger.Warn("term cache backing write failed", "cache", c.name, "error", err)
		}
	}
	return value, nil
}

func (c *Cache[T]) set(value T, at time.Time) {
	c.value = value
	c.fetchedAt = at
	c.valid = true
}

// Invalidate forgets the cached value locally and in the backing.
func (c *Cache[T]) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	c.value = zero
	c.valid = false
	if c.backing != nil {
		if err := c.backing.Invalidate(ctx, c.name); err != nil {
			c.logger.Warn("term cache backing invalidate failed", "cache", c.name, "error", err)
		}
	}
}
