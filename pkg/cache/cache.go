package cache

import (
	"encoding/json"
	"sync"
	"time"
)

// Entry represents a cached upstream payload with its timestamp
type Entry struct {
	Payload  json.RawMessage
	StoredAt time.Time
}

// Cache provides thread-safe caching of opaque response payloads with TTL support
type Cache struct {
	data   map[string]*Entry
	mutex  sync.RWMutex
	ttl    time.Duration
	stopCh chan struct{}
	once   sync.Once
}

// New creates a new Cache instance with the specified TTL
func New(ttl time.Duration) *Cache {
	c := &Cache{
		data:   make(map[string]*Entry),
		ttl:    ttl,
		stopCh: make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves a payload from the cache if it exists and hasn't expired
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.data[key]
	if !exists {
		return nil, false
	}

	if time.Since(entry.StoredAt) >= c.ttl {
		return nil, false
	}

	return entry.Payload, true
}

// Set stores a payload in the cache, overwriting any prior entry for the key
func (c *Cache) Set(key string, payload json.RawMessage) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = &Entry{
		Payload:  payload,
		StoredAt: time.Now(),
	}
}

// Delete removes a key from the cache
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
}

// Clear removes all entries from the cache
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]*Entry)
}

// Size returns the number of entries in the cache
func (c *Cache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.data)
}

// cleanup runs periodically to remove expired entries
func (c *Cache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

// removeExpired removes all expired entries from the cache
func (c *Cache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.Sub(entry.StoredAt) >= c.ttl {
			delete(c.data, key)
		}
	}
}

// Stop stops the cleanup goroutine
func (c *Cache) Stop() {
	c.once.Do(func() {
		close(c.stopCh)
	})
}
