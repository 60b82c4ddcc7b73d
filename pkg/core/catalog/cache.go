package catalog

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Source produces a complete catalog snapshot.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// Cache holds one catalog snapshot for the lifetime of the process.
// There is no TTL: the snapshot is replaced only after Invalidate and a successful reload.
// Failed loads are never cached.
type Cache struct {
	src   Source
	group singleflight.Group

	mu         sync.RWMutex
	snapshot   *Catalog
	generation uint64
}

// NewCache wraps src.
func NewCache(src Source) *Cache {
	return &Cache{src: src}
}

// Get returns the cached snapshot, loading it on first use. Concurrent callers share a
// single in-flight load. The load is detached from the caller's cancellation;
// the HTTP client timeout still bounds it.
func (c *Cache) Get(ctx context.Context) (*Catalog, error) {
	c.mu.RLock()
	snap, gen := c.snapshot, c.generation
	c.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	v, err, _ := c.group.Do("catalog", func() (interface{}, error) {
		cat, err := c.src.Load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		// an Invalidate during the load means this result is already stale
		if c.generation == gen {
			c.snapshot = cat
		}
		c.mu.Unlock()
		return cat, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

// Peek returns the current snapshot without loading.
func (c *Cache) Peek() (*Catalog, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, c.snapshot != nil
}

// Invalidate drops the snapshot; the next Get refetches the source.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.generation++
	c.mu.Unlock()
	c.group.Forget("catalog")
}
