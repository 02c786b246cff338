package rategate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateFirstCallPassesImmediately(t *testing.T) {
	g := New(100 * time.Millisecond)

	start := time.Now()
	err := g.Wait(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestGateEnforcesSpacingBetweenSequentialCalls(t *testing.T) {
	g := New(60 * time.Millisecond)

	var timestamps []time.Time
	for i := 0; i < 4; i++ {
		require.NoError(t, g.Wait(context.Background()))
		timestamps = append(timestamps, time.Now())
	}

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		assert.GreaterOrEqual(t, gap, 55*time.Millisecond,
			"calls %d and %d were %v apart", i-1, i, gap)
	}
}

func TestGateSerializesConcurrentCallersInArrivalOrder(t *testing.T) {
	g := New(50 * time.Millisecond)

	// Burn the free first slot so every worker below has to queue.
	require.NoError(t, g.Wait(context.Background()))

	var mu sync.Mutex
	var releases []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, g.Wait(context.Background()))
			mu.Lock()
			releases = append(releases, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, releases, 5)
	for i := 1; i < len(releases); i++ {
		gap := releases[i].Sub(releases[i-1])
		assert.GreaterOrEqual(t, gap, 40*time.Millisecond,
			"releases %d and %d were %v apart", i-1, i, gap)
	}
}

func TestGateWaitHonorsContextCancellation(t *testing.T) {
	g := New(200 * time.Millisecond)
	require.NoError(t, g.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
