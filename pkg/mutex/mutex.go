package mutex

import (
	"sync"
	"sync/atomic"
	"time"
)

// RequestMutex provides per-key mutex locking so that concurrent requests
// for the same cache key collapse into a single upstream fetch.
type RequestMutex struct {
	mutexes    map[string]*mutexEntry
	mapMutex   sync.RWMutex
	cleanupTTL time.Duration
	stopCh     chan struct{}
	stopped    bool
	stopMutex  sync.Mutex
}

// mutexEntry holds a mutex and its last access time for cleanup. lastAccess
// is unix nanos, stored atomically because readers touch it under RLock.
type mutexEntry struct {
	mutex      *sync.Mutex
	lastAccess atomic.Int64
}

func (e *mutexEntry) touch() {
	e.lastAccess.Store(time.Now().UnixNano())
}

// New creates a new RequestMutex instance with automatic cleanup
func New(cleanupTTL time.Duration) *RequestMutex {
	rm := &RequestMutex{
		mutexes:    make(map[string]*mutexEntry),
		cleanupTTL: cleanupTTL,
		stopCh:     make(chan struct{}),
	}

	go rm.cleanup()

	return rm
}

// GetMutex returns a mutex for the given key, creating one if it doesn't exist
func (rm *RequestMutex) GetMutex(key string) *sync.Mutex {
	rm.mapMutex.RLock()
	entry, exists := rm.mutexes[key]
	if exists {
		entry.touch()
		rm.mapMutex.RUnlock()
		return entry.mutex
	}
	rm.mapMutex.RUnlock()

	rm.mapMutex.Lock()
	defer rm.mapMutex.Unlock()

	// Double-check in case another goroutine created it
	if entry, exists := rm.mutexes[key]; exists {
		entry.touch()
		return entry.mutex
	}

	newEntry := &mutexEntry{
		mutex: &sync.Mutex{},
	}
	newEntry.touch()
	rm.mutexes[key] = newEntry

	return newEntry.mutex
}

// Size returns the number of mutexes currently stored
func (rm *RequestMutex) Size() int {
	rm.mapMutex.RLock()
	defer rm.mapMutex.RUnlock()
	return len(rm.mutexes)
}

// cleanup runs periodically to remove unused mutexes to prevent memory leaks
func (rm *RequestMutex) cleanup() {
	ticker := time.NewTicker(rm.cleanupTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rm.removeUnused()
		case <-rm.stopCh:
			return
		}
	}
}

// removeUnused removes mutexes that haven't been accessed recently
func (rm *RequestMutex) removeUnused() {
	rm.mapMutex.Lock()
	defer rm.mapMutex.Unlock()

	now := time.Now().UnixNano()
	for key, entry := range rm.mutexes {
		if now-entry.lastAccess.Load() > rm.cleanupTTL.Nanoseconds() {
			// Only remove mutexes that are not currently held
			if entry.mutex.TryLock() {
				entry.mutex.Unlock()
				delete(rm.mutexes, key)
			}
		}
	}
}

// Stop stops the cleanup goroutine
func (rm *RequestMutex) Stop() {
	rm.stopMutex.Lock()
	defer rm.stopMutex.Unlock()

	if !rm.stopped {
		rm.stopped = true
		close(rm.stopCh)
	}
}
