package cache

import (
	"context"
	"errors"
	"time"
)

// Item represents a cache item with its value and metadata
type Item[T any] struct {
	Value      T
	Expiration *time.Time
}

// Cache is a typed key/value store with per-key expiry.
type Cache[T any] interface {
	// Set stores a value. A zero ttl never expires.
	Set(ctx context.Context, key string, value T, ttl time.Duration) error

	// Get returns ErrKeyNotFound for missing or expired keys.
	Get(ctx context.Context, key string) (T, error)

	Has(ctx context.Context, key string) (bool, error)

	Delete(ctx context.Context, key string) error

	// GetMultiple skips keys that are missing.
	GetMultiple(ctx context.Context, keys []string) (map[string]T, error)

	Close() error
}

var (
	ErrKeyNotFound = errors.New("key not found in cache")
	ErrInvalidKey  = errors.New("invalid key")
)
