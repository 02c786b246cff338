package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds performance metrics for the gateway
type Metrics struct {
	// Request metrics
	TotalRequests      int64 `json:"total_requests"`
	SuccessfulRequests int64 `json:"successful_requests"`
	FailedRequests     int64 `json:"failed_requests"`

	// Response time metrics
	AverageResponseTime time.Duration `json:"average_response_time"`
	MinResponseTime     time.Duration `json:"min_response_time"`
	MaxResponseTime     time.Duration `json:"max_response_time"`

	// Proxy cache metrics
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`

	// Upstream metrics
	UpstreamCalls       int64         `json:"upstream_calls"`
	UpstreamFailures    int64         `json:"upstream_failures"`
	AverageUpstreamTime time.Duration `json:"average_upstream_time"`

	// Rate gate metrics
	GateWaits         int64         `json:"gate_waits"`
	TotalGateWaitTime time.Duration `json:"total_gate_wait_time"`

	// Settings sync metrics
	SyncRuns     int64 `json:"sync_runs"`
	SyncFailures int64 `json:"sync_failures"`

	// Concurrency metrics
	ActiveRequests int64 `json:"active_requests"`

	// Internal fields for calculations
	totalResponseTime time.Duration
	totalUpstreamTime time.Duration
	mutex             sync.RWMutex
}

// Collector provides thread-safe metrics collection
type Collector struct {
	metrics   *Metrics
	startTime time.Time
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		metrics: &Metrics{
			MinResponseTime: time.Duration(^uint64(0) >> 1), // Max duration
		},
		startTime: time.Now(),
	}
}

// RecordRequest records a new request
func (mc *Collector) RecordRequest() {
	atomic.AddInt64(&mc.metrics.TotalRequests, 1)
	atomic.AddInt64(&mc.metrics.ActiveRequests, 1)
}

// RecordRequestComplete records request completion
func (mc *Collector) RecordRequestComplete(duration time.Duration, success bool) {
	atomic.AddInt64(&mc.metrics.ActiveRequests, -1)

	if success {
		atomic.AddInt64(&mc.metrics.SuccessfulRequests, 1)
	} else {
		atomic.AddInt64(&mc.metrics.FailedRequests, 1)
	}

	mc.metrics.mutex.Lock()
	defer mc.metrics.mutex.Unlock()

	mc.metrics.totalResponseTime += duration

	if duration < mc.metrics.MinResponseTime {
		mc.metrics.MinResponseTime = duration
	}
	if duration > mc.metrics.MaxResponseTime {
		mc.metrics.MaxResponseTime = duration
	}

	totalRequests := atomic.LoadInt64(&mc.metrics.TotalRequests)
	if totalRequests > 0 {
		mc.metrics.AverageResponseTime = mc.metrics.totalResponseTime / time.Duration(totalRequests)
	}
}

// RecordCacheHit records a proxy cache hit
func (mc *Collector) RecordCacheHit() {
	atomic.AddInt64(&mc.metrics.CacheHits, 1)
}

// RecordCacheMiss records a proxy cache miss
func (mc *Collector) RecordCacheMiss() {
	atomic.AddInt64(&mc.metrics.CacheMisses, 1)
}

// RecordUpstreamCall records a call to the upstream API
func (mc *Collector) RecordUpstreamCall(duration time.Duration, success bool) {
	atomic.AddInt64(&mc.metrics.UpstreamCalls, 1)

	if !success {
		atomic.AddInt64(&mc.metrics.UpstreamFailures, 1)
	}

	mc.metrics.mutex.Lock()
	defer mc.metrics.mutex.Unlock()

	mc.metrics.totalUpstreamTime += duration

	totalCalls := atomic.LoadInt64(&mc.metrics.UpstreamCalls)
	if totalCalls > 0 {
		mc.metrics.AverageUpstreamTime = mc.metrics.totalUpstreamTime / time.Duration(totalCalls)
	}
}

// RecordGateWait records a rate-gate delay imposed on a caller
func (mc *Collector) RecordGateWait(waited time.Duration) {
	atomic.AddInt64(&mc.metrics.GateWaits, 1)

	mc.metrics.mutex.Lock()
	defer mc.metrics.mutex.Unlock()
	mc.metrics.TotalGateWaitTime += waited
}

// RecordSyncRun records a settings sync run
func (mc *Collector) RecordSyncRun(success bool) {
	atomic.AddInt64(&mc.metrics.SyncRuns, 1)
	if !success {
		atomic.AddInt64(&mc.metrics.SyncFailures, 1)
	}
}

// GetMetrics returns a copy of current metrics
func (mc *Collector) GetMetrics() *Metrics {
	mc.metrics.mutex.RLock()
	defer mc.metrics.mutex.RUnlock()

	return &Metrics{
		TotalRequests:       atomic.LoadInt64(&mc.metrics.TotalRequests),
		SuccessfulRequests:  atomic.LoadInt64(&mc.metrics.SuccessfulRequests),
		FailedRequests:      atomic.LoadInt64(&mc.metrics.FailedRequests),
		AverageResponseTime: mc.metrics.AverageResponseTime,
		MinResponseTime:     mc.metrics.MinResponseTime,
		MaxResponseTime:     mc.metrics.MaxResponseTime,
		CacheHits:           atomic.LoadInt64(&mc.metrics.CacheHits),
		CacheMisses:         atomic.LoadInt64(&mc.metrics.CacheMisses),
		UpstreamCalls:       atomic.LoadInt64(&mc.metrics.UpstreamCalls),
		UpstreamFailures:    atomic.LoadInt64(&mc.metrics.UpstreamFailures),
		AverageUpstreamTime: mc.metrics.AverageUpstreamTime,
		GateWaits:           atomic.LoadInt64(&mc.metrics.GateWaits),
		TotalGateWaitTime:   mc.metrics.TotalGateWaitTime,
		SyncRuns:            atomic.LoadInt64(&mc.metrics.SyncRuns),
		SyncFailures:        atomic.LoadInt64(&mc.metrics.SyncFailures),
		ActiveRequests:      atomic.LoadInt64(&mc.metrics.ActiveRequests),
	}
}

// GetUptime returns the uptime since metrics collection started
func (mc *Collector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// GetCacheHitRatio returns the cache hit ratio as a percentage
func (mc *Collector) GetCacheHitRatio() float64 {
	hits := atomic.LoadInt64(&mc.metrics.CacheHits)
	misses := atomic.LoadInt64(&mc.metrics.CacheMisses)
	total := hits + misses

	if total == 0 {
		return 0.0
	}

	return float64(hits) / float64(total) * 100.0
}

// GetSuccessRate returns the success rate as a percentage
func (mc *Collector) GetSuccessRate() float64 {
	successful := atomic.LoadInt64(&mc.metrics.SuccessfulRequests)
	total := atomic.LoadInt64(&mc.metrics.TotalRequests)

	if total == 0 {
		return 0.0
	}

	return float64(successful) / float64(total) * 100.0
}
