package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", time.Second)
	val, ok := c.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "value1", val)
}

func TestExpiration(t *testing.T) {
	c := New[string]()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("key1", "value1", 100*time.Millisecond)

	now = now.Add(150 * time.Millisecond)
	_, ok := c.Get("key1")
	assert.False(t, ok, "expected expired key to be missing")
}

func TestDelete(t *testing.T) {
	c := New[int]()
	c.Set("key1", 1, time.Second)
	c.Delete("key1")
	_, ok := c.Get("key1")
	assert.False(t, ok)
}

func TestSetEvictsExpired(t *testing.T) {
	c := New[string]()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("user:1", "alice", time.Second)
	c.Set("user:2", "bob", time.Hour)
	now = now.Add(30 * time.Second)
	c.Set("user:3", "carol", time.Second)
	assert.Len(t, c.items, 3, "no sweep before sweepEvery elapses")

	now = now.Add(sweepEvery)
	c.Set("user:4", "dave", time.Hour)
	assert.Len(t, c.items, 2)
	_, ok := c.Get("user:2")
	assert.True(t, ok)
	_, ok = c.Get("user:4")
	assert.True(t, ok)
}

func TestGetOrLoad(t *testing.T) {
	c := New[string]()
	loads := 0
	load := func() (string, error) { loads++; return "alice", nil }

	v, err := c.GetOrLoad("user:1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
	_, err = c.GetOrLoad("user:1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)

	_, err = c.GetOrLoad("user:2", time.Minute, func() (string, error) { return "", errors.New("gone") })
	assert.Error(t, err)
	_, ok := c.Get("user:2")
	assert.False(t, ok, "errors are not cached")
}
