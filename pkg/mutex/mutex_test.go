package mutex

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMutexReturnsSameMutexForSameKey(t *testing.T) {
	rm := New(time.Minute)
	defer rm.Stop()

	first := rm.GetMutex("key-a")
	second := rm.GetMutex("key-a")
	other := rm.GetMutex("key-b")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, rm.Size())
}

func TestGetMutexConcurrentAccessSameKey(t *testing.T) {
	rm := New(time.Minute)
	defer rm.Stop()

	// Hammer one key from many goroutines; the race detector verifies the
	// last-access bookkeeping on the read path.
	var wg sync.WaitGroup
	results := make([]*sync.Mutex, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			var m *sync.Mutex
			for j := 0; j < 100; j++ {
				m = rm.GetMutex("shared-key")
			}
			results[idx] = m
		}(i)
	}
	wg.Wait()

	for _, m := range results {
		require.Same(t, results[0], m)
	}
	assert.Equal(t, 1, rm.Size())
}

func TestCleanupRemovesIdleMutexes(t *testing.T) {
	rm := New(20 * time.Millisecond)
	defer rm.Stop()

	rm.GetMutex("idle-key")
	require.Equal(t, 1, rm.Size())

	assert.Eventually(t, func() bool {
		return rm.Size() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestCleanupSkipsHeldMutexes(t *testing.T) {
	rm := New(20 * time.Millisecond)
	defer rm.Stop()

	held := rm.GetMutex("held-key")
	held.Lock()
	defer held.Unlock()

	time.Sleep(60 * time.Millisecond)
	rm.removeUnused()

	assert.Equal(t, 1, rm.Size())
}
