package permission

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryKey struct {
	gen    int64
	userID int64
}

// MemoryCache process-local LRU with TTL
type MemoryCache struct {
	lru *expirable.LRU[memoryKey, *Permissions]
	gen atomic.Int64
}

// NewMemoryCache size <= 0 means unbounded; ttl <= 0 means no expiry
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size < 0 {
		size = 0
	}
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryCache{
		lru: expirable.NewLRU[memoryKey, *Permissions](size, nil, ttl),
	}
}

var _ Cache = (*MemoryCache)(nil)

func (c *MemoryCache) Generation(context.Context) (int64, error) {
	return c.gen.Load(), nil
}

func (c *MemoryCache) Get(_ context.Context, gen int64, userID int64) (*Permissions, error) {
	p, ok := c.lru.Get(memoryKey{gen: gen, userID: userID})
	if !ok {
		return nil, ErrCacheMiss
	}
	return p, nil
}

func (c *MemoryCache) Set(_ context.Context, gen int64, userID int64, p *Permissions) error {
	if gen != c.gen.Load() {
		return nil
	}
	c.lru.Add(memoryKey{gen: gen, userID: userID}, p)
	return nil
}

func (c *MemoryCache) Clear(context.Context) error {
	c.gen.Add(1)
	c.lru.Purge()
	return nil
}

// Len number of live entries
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}
