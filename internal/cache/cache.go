// Package cache is a small in-process TTL cache for computed reports.
package cache

import (
	"sync"
	"time"
)

type Observer interface {
	CacheHit()
	CacheMiss()
}

type entry[T any] struct {
	val T
	exp time.Time
}

type Cache[T any] struct {
	mu  sync.RWMutex
	m   map[string]entry[T]
	ttl time.Duration
	obs Observer
	now func() time.Time
}

func New[T any](ttl time.Duration, obs Observer) *Cache[T] {
	return &Cache[T]{m: make(map[string]entry[T]), ttl: ttl, obs: obs, now: time.Now}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.exp) {
		if c.obs != nil {
			c.obs.CacheMiss()
		}
		return zero, false
	}
	if c.obs != nil {
		c.obs.CacheHit()
	}
	return e.val, true
}

func (c *Cache[T]) Set(key string, v T) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.m[key] = entry[T]{val: v, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Purge drops expired entries and returns how many were removed.
func (c *Cache[T]) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.m {
		if now.After(e.exp) {
			delete(c.m, k)
			n++
		}
	}
	return n
}
