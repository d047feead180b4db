package cache

import (
	"context"
	"sync"
	"time"
)

// TTLMemo memoizes the result (value or error) of producer for up to ttl,
// recomputing on the first call after expiry.
//
// The lock is held across the producer call itself, which turns concurrent
// misses into a single call (the first caller through computes the value;
// the rest block on the mutex and then observe the fresh entry). This is
// deliberately simple rather than a full singleflight: misses are rare
// (TTL is 60s) and producers here are a handful of archive metadata
// queries, not a hot path.
type TTLMemo[T any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	producer func(context.Context) (T, error)
	value    T
	err      error
	at       time.Time
	has      bool
}

// NewTTLMemo creates a memoized wrapper around producer with the given TTL.
func NewTTLMemo[T any](ttl time.Duration, producer func(context.Context) (T, error)) *TTLMemo[T] {
	return &TTLMemo[T]{ttl: ttl, producer: producer}
}

// Get returns the memoized value, recomputing via producer if this is the
// first call or the cached entry (value or error) is older than the TTL.
func (m *TTLMemo[T]) Get(ctx context.Context) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.has && time.Since(m.at) <= m.ttl {
		return m.value, m.err
	}

	m.value, m.err = m.producer(ctx)
	m.at = time.Now()
	m.has = true
	return m.value, m.err
}

// Invalidate forces the next Get to recompute regardless of TTL.
func (m *TTLMemo[T]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.has = false
}
