package cache

import (
	"context"
	"sync"
	"time"
)

// Loader produces a fresh value, typically by fetching from object storage.
type Loader[T any] func(ctx context.Context) (T, error)

// Metrics is the subset of metric recording the memoizer needs.
type Metrics interface {
	RecordCacheHit(loader string)
	RecordCacheMiss(loader string)
}

// Memo caches a single loader result for a TTL window. The mutex is held
// across the refill, so concurrent callers after expiry trigger exactly one
// underlying fetch and all observe the same value.
type Memo[T any] struct {
	name string
	ttl  time.Duration
	load Loader[T]

	mu        sync.Mutex
	value     T
	fetchedAt time.Time
	valid     bool

	now     func() time.Time
	metrics Metrics
}

func NewMemo[T any](name string, ttl time.Duration, load Loader[T], metrics Metrics) *Memo[T] {
	return &Memo[T]{
		name:    name,
		ttl:     ttl,
		load:    load,
		now:     time.Now,
		metrics: metrics,
	}
}

// Get returns the cached value while the window is fresh, otherwise refills.
// A loader error is not cached; the next caller retries.
func (c *Memo[T]) Get(ctx context.Context) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.now().Sub(c.fetchedAt) < c.ttl {
		if c.metrics != nil {
			c.metrics.RecordCacheHit(c.name)
		}
		return c.value, nil
	}

	if c.metrics != nil {
		c.metrics.RecordCacheMiss(c.name)
	}
	v, err := c.load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.value = v
	c.fetchedAt = c.now()
	c.valid = true
	return v, nil
}
