package apiclient

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Default freshness and eviction windows.
const (
	DefaultStaleTTL = 5 * time.Minute
	DefaultGCTTL    = 30 * time.Minute
)

// Key identifies a query by an ordered tuple, e.g. Key{"products"}.
type Key []string

func (k Key) String() string {
	return strings.Join(k, "/")
}

type entry struct {
	data       any
	err        error
	fetchedAt  time.Time
	staleAt    time.Time
	lastAccess time.Time
}

// Cache stores query results keyed by query identity. Entries are served
// without a request while fresh, refetched once stale, and evicted after the
// gc window of idleness. Concurrent loads of one key are deduplicated.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	staleTTL time.Duration
	gcTTL    time.Duration
	group    singleflight.Group
	now      func() time.Time
}

// NewCache constructs a Cache. Non-positive windows fall back to the
// defaults.
func NewCache(staleTTL, gcTTL time.Duration) *Cache {
	if staleTTL <= 0 {
		staleTTL = DefaultStaleTTL
	}
	if gcTTL <= 0 {
		gcTTL = DefaultGCTTL
	}
	return &Cache{
		entries:  make(map[string]*entry),
		staleTTL: staleTTL,
		gcTTL:    gcTTL,
		now:      time.Now,
	}
}

// StartSweeper evicts idle entries on a ticker until ctx is cancelled.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

// Invalidate drops one entry.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	delete(c.entries, key.String())
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) sweep() {
	cutoff := c.now().Add(-c.gcTTL)
	c.mu.Lock()
	for k, e := range c.entries {
		if e.lastAccess.Before(cutoff) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) lookupFresh(key string) (any, bool) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.err != nil || !now.Before(e.staleAt) {
		return nil, false
	}
	e.lastAccess = now
	return e.data, true
}

func (c *Cache) store(key string, data any, err error) {
	now := c.now()
	e := &entry{data: data, err: err, fetchedAt: now, lastAccess: now}
	if err == nil {
		e.staleAt = now.Add(c.staleTTL)
	} else {
		// Failed loads are recorded but never considered fresh, so the next
		// read retries.
		e.staleAt = now
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Fetch returns the cached value for key while it is fresh, otherwise runs
// loader and caches the result. Concurrent fetches for one key share a
// single loader call.
func Fetch[T any](ctx context.Context, c *Cache, key Key, loader func(context.Context) (T, error)) (T, error) {
	var zero T
	k := key.String()
	if data, ok := c.lookupFresh(k); ok {
		if typed, ok := data.(T); ok {
			return typed, nil
		}
	}

	resultChan := c.group.DoChan(k, func() (any, error) {
		if data, ok := c.lookupFresh(k); ok {
			return data, nil
		}
		value, err := loader(ctx)
		c.store(k, value, err)
		if err != nil {
			return zero, err
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("apiclient: cache entry for %q holds %T", k, res.Val)
		}
		return typed, nil
	}
}

// PatchAppend optimistically appends item to a cached list entry. Callers
// use it after a successful create; mutations never invalidate the cache on
// their own.
func PatchAppend[T any](c *Cache, key Key, item T) {
	patchList(c, key, func(list []T) []T {
		return append(list, item)
	})
}

// PatchReplace swaps the first element matching match for item.
func PatchReplace[T any](c *Cache, key Key, match func(T) bool, item T) {
	patchList(c, key, func(list []T) []T {
		for i := range list {
			if match(list[i]) {
				list[i] = item
				break
			}
		}
		return list
	})
}

// PatchRemove filters out every element matching match.
func PatchRemove[T any](c *Cache, key Key, match func(T) bool) {
	patchList(c, key, func(list []T) []T {
		out := list[:0]
		for _, v := range list {
			if !match(v) {
				out = append(out, v)
			}
		}
		return out
	})
}

// patchList rewrites a cached []T entry in place, preserving its freshness
// window. Missing or errored entries are left alone.
func patchList[T any](c *Cache, key Key, fn func([]T) []T) {
	k := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok || e.err != nil {
		return
	}
	list, ok := e.data.([]T)
	if !ok {
		return
	}
	copied := append([]T(nil), list...)
	e.data = fn(copied)
	e.lastAccess = c.now()
}
