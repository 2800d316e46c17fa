package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string](4, time.Minute)

	_, hit := c.Get(Key("a"))
	assert.False(t, hit)

	c.Set(Key("a"), "value")
	got, hit := c.Get(Key("a"))
	assert.True(t, hit)
	assert.Equal(t, "value", got)
}

func TestCacheExpiry(t *testing.T) {
	c := New[int](4, 10*time.Millisecond)

	c.Set("k", 1)
	time.Sleep(30 * time.Millisecond)
	_, hit := c.Get("k")
	assert.False(t, hit)
}

func TestCacheCapacity(t *testing.T) {
	c := New[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	hits := 0
	for _, k := range []string{"a", "b", "c"} {
		if _, hit := c.Get(k); hit {
			hits++
		}
	}
	assert.Equal(t, 2, hits)
}

func TestKeyStable(t *testing.T) {
	assert.Equal(t, Key("probe", "https://x"), Key("probe", "https://x"))
	assert.NotEqual(t, Key("probe", "https://x"), Key("probe", "https://y"))
}
