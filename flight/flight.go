// Package flight provides a memoizing single-flight gate over a producer.
//
// A Cache runs its producer at most once at a time. Callers that arrive while
// a call is in flight wait for that call and share its result or error. A
// successful result is kept forever; an error is handed to every waiter and
// the cache resets, so the next Get tries again.
//
//	keys := flight.New(func(ctx context.Context) ([]string, error) {
//	    return fetchKeys(ctx, "octocat")
//	})
//
//	got, err := keys.Get(ctx) // fetches
//	got, err = keys.Get(ctx)  // memoized
package flight

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Producer computes the value a Cache memoizes.
type Producer[T any] func(ctx context.Context) (T, error)

// Cache memoizes the first successful result of a Producer.
type Cache[T any] struct {
	produce Producer[T]
	group   singleflight.Group

	mu     sync.Mutex
	loaded bool
	value  T
}

// New returns a Cache backed by produce.
func New[T any](produce Producer[T]) *Cache[T] {
	return &Cache[T]{produce: produce}
}

// Get returns the memoized value, running the producer if nothing is stored
// and no call is in flight.
//
// The producer runs with a context detached from the caller's cancellation,
// so one waiter giving up does not fail the others. A canceled caller gets
// ctx.Err() while the shared call carries on.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	if v, ok := c.cached(); ok {
		return v, nil
	}

	ch := c.group.DoChan("", func() (any, error) {
		// A previous flight may have finished between cached() and DoChan.
		if v, ok := c.cached(); ok {
			return v, nil
		}

		v, err := c.produce(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.value = v
		c.loaded = true
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

// Loaded reports whether a value has been memoized.
func (c *Cache[T]) Loaded() bool {
	_, ok := c.cached()
	return ok
}

// Peek returns the memoized value without running the producer.
func (c *Cache[T]) Peek() (T, bool) {
	return c.cached()
}

func (c *Cache[T]) cached() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.loaded
}
