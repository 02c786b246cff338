package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	collector := NewCollector()

	t.Run("InitialState", func(t *testing.T) {
		m := collector.GetMetrics()
		assert.Equal(t, int64(0), m.TotalRequests)
		assert.Equal(t, int64(0), m.CacheHits)
		assert.Equal(t, int64(0), m.UpstreamCalls)
		assert.Equal(t, int64(0), m.SyncRuns)
	})

	t.Run("RecordRequestLifecycle", func(t *testing.T) {
		collector.RecordRequest()
		m := collector.GetMetrics()
		assert.Equal(t, int64(1), m.TotalRequests)
		assert.Equal(t, int64(1), m.ActiveRequests)

		duration := 100 * time.Millisecond
		collector.RecordRequestComplete(duration, true)

		m = collector.GetMetrics()
		assert.Equal(t, int64(1), m.SuccessfulRequests)
		assert.Equal(t, int64(0), m.ActiveRequests)
		assert.Equal(t, duration, m.AverageResponseTime)
		assert.Equal(t, duration, m.MinResponseTime)
		assert.Equal(t, duration, m.MaxResponseTime)
	})

	t.Run("CacheMetrics", func(t *testing.T) {
		collector.RecordCacheHit()
		collector.RecordCacheHit()
		collector.RecordCacheMiss()

		m := collector.GetMetrics()
		assert.Equal(t, int64(2), m.CacheHits)
		assert.Equal(t, int64(1), m.CacheMisses)
		assert.InDelta(t, 66.67, collector.GetCacheHitRatio(), 0.1)
	})

	t.Run("UpstreamMetrics", func(t *testing.T) {
		duration := 50 * time.Millisecond
		collector.RecordUpstreamCall(duration, true)
		collector.RecordUpstreamCall(duration*3, false)

		m := collector.GetMetrics()
		assert.Equal(t, int64(2), m.UpstreamCalls)
		assert.Equal(t, int64(1), m.UpstreamFailures)
		assert.Equal(t, duration*2, m.AverageUpstreamTime)
	})

	t.Run("GateWaitMetrics", func(t *testing.T) {
		collector.RecordGateWait(200 * time.Millisecond)
		collector.RecordGateWait(150 * time.Millisecond)

		m := collector.GetMetrics()
		assert.Equal(t, int64(2), m.GateWaits)
		assert.Equal(t, 350*time.Millisecond, m.TotalGateWaitTime)
	})

	t.Run("SyncMetrics", func(t *testing.T) {
		collector.RecordSyncRun(true)
		collector.RecordSyncRun(false)

		m := collector.GetMetrics()
		assert.Equal(t, int64(2), m.SyncRuns)
		assert.Equal(t, int64(1), m.SyncFailures)
	})

	t.Run("Uptime", func(t *testing.T) {
		assert.Greater(t, collector.GetUptime(), time.Duration(0))
	})
}
