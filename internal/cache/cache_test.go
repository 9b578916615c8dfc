package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", time.Minute)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestGetMissing(t *testing.T) {
	c := NewTTLCache()

	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", -time.Second)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestGetDelConsumesOnce(t *testing.T) {
	c := NewTTLCache()
	c.Set("state", "slack", time.Minute)

	got, ok := c.GetDel("state")
	assert.True(t, ok)
	assert.Equal(t, "slack", got)

	_, ok = c.GetDel("state")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	c := NewTTLCache()
	c.Set("k", "v", time.Minute)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}
