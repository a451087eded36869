package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the authoritative value for a key.
type FetchFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	value interface{}
	ok    bool
	stale bool
	gen   uint64 // bumped on every invalidation
}

// Cache keys remote query results by semantic identity. Invalidation only
// marks entries stale; the next Get refetches. Staleness is monotonic: a
// key invalidated while a fetch is in flight stays stale until a fetch
// started after that invalidation completes.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	group   singleflight.Group
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: map[Key]*entry{}}
}

// Get returns the cached value for key, or runs fetch to load it.
// Concurrent Gets for the same key share one in-flight fetch.
func (c *Cache) Get(ctx context.Context, key Key, fetch FetchFunc) (interface{}, error) {
	c.mu.Lock()
	e := c.ensure(key)
	if e.ok && !e.stale {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		c.mu.Lock()
		e := c.ensure(key)
		if e.ok && !e.stale {
			v := e.value
			c.mu.Unlock()
			return v, nil
		}
		gen := e.gen
		c.mu.Unlock()

		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		e = c.ensure(key)
		e.value = v
		e.ok = true
		// an invalidation that raced this fetch keeps the entry stale
		if e.gen == gen {
			e.stale = false
		}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

// Invalidate marks the given keys stale.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		e, ok := c.entries[k]
		if !ok {
			continue
		}
		e.stale = true
		e.gen++
	}
}

// InvalidateKind marks every key of the given kind stale, regardless of
// scope parameters.
func (c *Cache) InvalidateKind(kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if k.Kind == kind {
			e.stale = true
			e.gen++
		}
	}
}

func (c *Cache) ensure(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}
