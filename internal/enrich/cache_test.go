package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheHitAndMiss(t *testing.T) {
	c := newTTLCache[string](time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", "v")
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := newTTLCache[int](time.Minute)
	now := time.Unix(0, 0)
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheLazySweep(t *testing.T) {
	c := newTTLCache[int](time.Minute)
	now := time.Unix(0, 0)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(2 * time.Minute)
	c.Set("c", 3)

	// The expired entries were swept by the write.
	assert.Equal(t, 1, c.Len())
}
