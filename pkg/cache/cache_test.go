package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	c := New(100 * time.Millisecond)
	defer c.Stop()

	t.Run("MissOnEmptyCache", func(t *testing.T) {
		_, found := c.Get("module=account&action=balance")
		assert.False(t, found)
	})

	t.Run("HitWithinTTL", func(t *testing.T) {
		payload := json.RawMessage(`{"status":"1","result":"42"}`)
		c.Set("module=account&action=balance", payload)

		got, found := c.Get("module=account&action=balance")
		assert.True(t, found)
		assert.JSONEq(t, string(payload), string(got))
	})

	t.Run("MissAfterExpiry", func(t *testing.T) {
		c.Set("module=stats&action=ethprice", json.RawMessage(`{"result":"1800"}`))

		time.Sleep(150 * time.Millisecond)

		_, found := c.Get("module=stats&action=ethprice")
		assert.False(t, found)
	})

	t.Run("SetOverwritesPriorEntry", func(t *testing.T) {
		c.Set("key", json.RawMessage(`{"result":"old"}`))
		c.Set("key", json.RawMessage(`{"result":"new"}`))

		got, found := c.Get("key")
		assert.True(t, found)
		assert.JSONEq(t, `{"result":"new"}`, string(got))
	})

	t.Run("DeleteAndClear", func(t *testing.T) {
		c.Clear()
		c.Set("a", json.RawMessage(`1`))
		c.Set("b", json.RawMessage(`2`))
		assert.Equal(t, 2, c.Size())

		c.Delete("a")
		assert.Equal(t, 1, c.Size())

		c.Clear()
		assert.Equal(t, 0, c.Size())
	})
}

func TestCacheCleanupRemovesExpiredEntries(t *testing.T) {
	c := New(50 * time.Millisecond)
	defer c.Stop()

	c.Set("stale", json.RawMessage(`{}`))
	assert.Equal(t, 1, c.Size())

	// Cleanup ticks at TTL intervals; give it two periods to run.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 0, c.Size())
}
