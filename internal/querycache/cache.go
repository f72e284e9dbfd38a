// Package querycache is a keyed cache for remote reads.
//
// Each key holds the last fetched value plus its lifecycle status. A read on
// a fresh entry is served from memory; otherwise it joins the single
// in-flight fetch for the key or starts one. Invalidate marks the entry
// stale so the next read refetches, and detaches any fetch already in
// flight: callers arriving after Invalidate never share a result that was
// requested before it.
package querycache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a cache entry.
type Status int

const (
	// StatusIdle means nothing has been fetched yet.
	StatusIdle Status = iota
	// StatusLoading means a fetch is in flight.
	StatusLoading
	// StatusSuccess means the last fetch succeeded.
	StatusSuccess
	// StatusError means the last fetch failed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// FetchFunc loads the value for a key.
type FetchFunc[V any] func(ctx context.Context) (V, error)

// Entry is a point-in-time view of a key.
type Entry[V any] struct {
	Status    Status
	Value     V
	HasValue  bool
	Err       error
	UpdatedAt time.Time
	// Stale is set when a value is held but the next Fetch will refetch it.
	Stale bool
}

// Stats counts cache activity.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Fetches uint64
}

type entry[V any] struct {
	value     V
	hasValue  bool
	valueGen  uint64
	updatedAt time.Time

	err error

	generation uint64
	// inflight counts running fetches by the generation they started in.
	inflight map[uint64]int
}

// Cache is safe for concurrent use.
type Cache[V any] struct {
	staleTime time.Duration
	clone     func(V) V
	now       func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry[V]
	stats   Stats
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithStaleTime makes values stale d after they were fetched.
// Zero keeps values fresh until invalidated.
func WithStaleTime[V any](d time.Duration) Option[V] {
	return func(c *Cache[V]) {
		c.staleTime = d
	}
}

// WithClone copies values on their way out so callers cannot mutate the cache.
func WithClone[V any](clone func(V) V) Option[V] {
	return func(c *Cache[V]) {
		c.clone = clone
	}
}

// WithClock replaces time.Now.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		c.now = now
	}
}

// New creates an empty Cache.
func New[V any](opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		now:     time.Now,
		entries: make(map[string]*entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the value for key, calling fn only when the entry is not fresh
// and no fetch for key is already in flight.
//
// fn runs detached from ctx cancellation. If ctx ends first Fetch returns
// ctx.Err(); the fetch keeps going and its result is still stored.
func (c *Cache[V]) Fetch(ctx context.Context, key string, fn FetchFunc[V]) (V, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if c.freshLocked(e) {
		v := e.value
		c.stats.Hits++
		c.mu.Unlock()
		return c.out(v), nil
	}
	c.stats.Misses++
	c.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.run(detached, key, fn)
	})

	select {
	case res := <-ch:
		v, _ := res.Val.(V)
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return c.out(v), nil
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (c *Cache[V]) run(ctx context.Context, key string, fn FetchFunc[V]) (V, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	gen := e.generation
	e.inflight[gen]++
	c.stats.Fetches++
	c.mu.Unlock()

	v, err := fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	e.inflight[gen]--
	if e.inflight[gen] == 0 {
		delete(e.inflight, gen)
	}
	switch {
	case err != nil:
		if gen == e.generation {
			e.err = err
		}
	case !e.hasValue || gen >= e.valueGen:
		e.value = v
		e.hasValue = true
		e.valueGen = gen
		e.updatedAt = c.now()
		if gen == e.generation {
			e.err = nil
		}
	}

	return v, err
}

// Invalidate marks key stale. The next Fetch issues a new request even if
// one started before Invalidate is still in flight. The cached value stays
// readable through Peek.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.generation++
		e.err = nil
	}
	c.group.Forget(key)
}

// Peek returns the cached value for key without fetching.
// The value may be stale; ok is false if nothing was ever fetched.
func (c *Cache[V]) Peek(key string) (v V, ok bool) {
	c.mu.Lock()
	e, found := c.entries[key]
	if !found || !e.hasValue {
		c.mu.Unlock()
		return v, false
	}
	v = e.value
	c.mu.Unlock()
	return c.out(v), true
}

// Entry returns the current view of key.
func (c *Cache[V]) Entry(key string) Entry[V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry[V]{Status: StatusIdle}
	}

	out := Entry[V]{
		Status:    c.statusLocked(e),
		HasValue:  e.hasValue,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     e.hasValue && !c.freshLocked(e),
	}
	if e.hasValue {
		out.Value = c.out(e.value)
	}
	return out
}

// Stats returns a copy of the activity counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache[V]) entryLocked(key string) *entry[V] {
	e, ok := c.entries[key]
	if !ok {
		e = &entry[V]{inflight: make(map[uint64]int)}
		c.entries[key] = e
	}
	return e
}

func (c *Cache[V]) freshLocked(e *entry[V]) bool {
	if !e.hasValue || e.valueGen != e.generation {
		return false
	}
	if c.staleTime > 0 && c.now().Sub(e.updatedAt) >= c.staleTime {
		return false
	}
	return true
}

func (c *Cache[V]) statusLocked(e *entry[V]) Status {
	switch {
	case e.inflight[e.generation] > 0:
		return StatusLoading
	case e.err != nil:
		return StatusError
	case e.hasValue:
		return StatusSuccess
	default:
		return StatusIdle
	}
}

func (c *Cache[V]) out(v V) V {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}
