package flight

import (
	"context"
	"sync"
)

// KeyedProducer computes the value for one key of a Map.
type KeyedProducer[K comparable, T any] func(ctx context.Context, key K) (T, error)

// Map holds one Cache per key, created on first use.
type Map[K comparable, T any] struct {
	produce KeyedProducer[K, T]

	mu     sync.Mutex
	caches map[K]*Cache[T]
}

// NewMap returns a Map backed by produce.
func NewMap[K comparable, T any](produce KeyedProducer[K, T]) *Map[K, T] {
	return &Map[K, T]{
		produce: produce,
		caches:  make(map[K]*Cache[T]),
	}
}

// Get returns the memoized value for key, producing it if needed.
func (m *Map[K, T]) Get(ctx context.Context, key K) (T, error) {
	return m.cache(key).Get(ctx)
}

// cache returns the Cache for key, creating it if needed.
func (m *Map[K, T]) cache(key K) *Cache[T] {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.caches[key]
	if !ok {
		c = New(func(ctx context.Context) (T, error) {
			return m.produce(ctx, key)
		})
		m.caches[key] = c
	}
	return c
}
