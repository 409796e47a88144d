// Package query fetches list results keyed by filter state. Identical
// concurrent requests share one call, results are cached per key until the
// cache is invalidated, and View tracks what a screen is currently showing.
package query

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Veraticus/tcg-ledger/internal/filter"
	"golang.org/x/sync/singleflight"
)

// Fetcher performs the network call for one state.
type Fetcher[T any] func(ctx context.Context, s filter.State) (T, error)

// KeyFunc derives the cache key of a state.
type KeyFunc func(filter.State) string

// Option configures an Executor.
type Option func(*options)

type options struct {
	key KeyFunc
}

// WithKey overrides the cache key. The default is the full encoded state.
func WithKey(fn KeyFunc) Option {
	return func(o *options) {
		o.key = fn
	}
}

// FilterKey keys on the constraints only, ignoring paging and sort.
func FilterKey(s filter.State) string {
	return s.FilterOnly().Key()
}

// Executor caches results per key and coalesces concurrent fetches.
// It is safe for concurrent use.
type Executor[T any] struct {
	fetch   Fetcher[T]
	cache   map[string]T
	key     KeyFunc
	name    string
	group   singleflight.Group
	gen     uint64
	mu      sync.Mutex
	waiters atomic.Int64
}

// NewExecutor creates an executor named after the resource it serves.
func NewExecutor[T any](name string, fetch Fetcher[T], opts ...Option) *Executor[T] {
	o := options{key: filter.State.Key}
	for _, opt := range opts {
		opt(&o)
	}
	return &Executor[T]{
		name:  name,
		fetch: fetch,
		key:   o.key,
		cache: make(map[string]T),
	}
}

// Name returns the resource name.
func (e *Executor[T]) Name() string {
	return e.name
}

// Fetch returns the cached result for s or loads it. Concurrent callers for
// the same key share one call. Errors are never cached.
//
// If ctx is done first, Fetch returns ctx.Err() but the shared call keeps
// running for the other waiters and still fills the cache.
func (e *Executor[T]) Fetch(ctx context.Context, s filter.State) (T, error) {
	key := e.key(s)

	e.mu.Lock()
	if v, ok := e.cache[key]; ok {
		e.mu.Unlock()
		slog.Debug("Query cache hit", "resource", e.name, "key", key)
		return v, nil
	}
	gen := e.gen
	e.mu.Unlock()

	return e.load(ctx, s, key, gen)
}

// Refetch loads s from the network even if a cached result exists.
func (e *Executor[T]) Refetch(ctx context.Context, s filter.State) (T, error) {
	key := e.key(s)

	e.mu.Lock()
	gen := e.gen
	e.mu.Unlock()

	return e.load(ctx, s, key, gen)
}

// Peek returns the cached result for s without fetching.
func (e *Executor[T]) Peek(s filter.State) (T, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.cache[e.key(s)]
	return v, ok
}

// Invalidate drops every cached result. Calls already in flight still
// complete for their waiters but their results are not stored.
func (e *Executor[T]) Invalidate() {
	e.mu.Lock()
	e.gen++
	n := len(e.cache)
	clear(e.cache)
	e.mu.Unlock()

	slog.Debug("Query cache invalidated", "resource", e.name, "entries", n)
}

func (e *Executor[T]) load(ctx context.Context, s filter.State, key string, gen uint64) (T, error) {
	// Scoping the flight to the generation keeps callers that arrive after an
	// invalidation from joining a call that may predate the change.
	flight := strconv.FormatUint(gen, 10) + ":" + key

	ch := e.group.DoChan(flight, func() (any, error) {
		slog.Debug("Query fetch", "resource", e.name, "key", key)

		v, err := e.fetch(context.WithoutCancel(ctx), s)
		if err != nil {
			return v, err
		}

		e.mu.Lock()
		if e.gen == gen {
			e.cache[key] = v
		}
		e.mu.Unlock()
		return v, nil
	})

	e.waiters.Add(1)
	defer e.waiters.Add(-1)

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, nil
		}
		return v, nil
	}
}
