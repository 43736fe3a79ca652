package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache[string]()

	require.NoError(t, c.Set(ctx, "a", "table-1", 0))
	value, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "table-1", value)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.ErrorIs(t, c.Set(ctx, "", "x", 0), ErrInvalidKey)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache[int]()
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 7, time.Second))
	has, _ := c.Has(ctx, "k")
	assert.True(t, has)

	now = now.Add(2 * time.Second)
	has, _ = c.Has(ctx, "k")
	assert.False(t, has)
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryCacheGetMultipleAndDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache[int]()
	require.NoError(t, c.Set(ctx, "a", 1, 0))
	require.NoError(t, c.Set(ctx, "b", 2, 0))
	require.NoError(t, c.Delete(ctx, "b"))

	got, err := c.GetMultiple(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, got)
}
