package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache implements Cache with in-process storage. Expired items are dropped lazily.
type MemoryCache[T any] struct {
	items map[string]Item[T]
	mu    sync.RWMutex
	now   func() time.Time
}

func NewMemoryCache[T any]() *MemoryCache[T] {
	return &MemoryCache[T]{
		items: make(map[string]Item[T]),
		now:   time.Now,
	}
}

func (c *MemoryCache[T]) Set(_ context.Context, key string, value T, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}

	var exp *time.Time
	if ttl > 0 {
		expTime := c.now().Add(ttl)
		exp = &expTime
	}

	c.mu.Lock()
	c.items[key] = Item[T]{Value: value, Expiration: exp}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache[T]) Get(_ context.Context, key string) (T, error) {
	item, ok := c.lookup(key)
	if !ok {
		var zero T
		return zero, ErrKeyNotFound
	}
	return item.Value, nil
}

func (c *MemoryCache[T]) Has(_ context.Context, key string) (bool, error) {
	_, ok := c.lookup(key)
	return ok, nil
}

func (c *MemoryCache[T]) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache[T]) GetMultiple(_ context.Context, keys []string) (map[string]T, error) {
	result := make(map[string]T, len(keys))
	for _, key := range keys {
		if item, ok := c.lookup(key); ok {
			result[key] = item.Value
		}
	}
	return result, nil
}

func (c *MemoryCache[T]) Close() error {
	return nil
}

func (c *MemoryCache[T]) lookup(key string) (Item[T], bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()
	if !exists {
		return Item[T]{}, false
	}

	if item.Expiration != nil && c.now().After(*item.Expiration) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return Item[T]{}, false
	}
	return item, true
}
