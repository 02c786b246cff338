package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"cryptopath-gateway/internal/config"
	"cryptopath-gateway/internal/models"
	"cryptopath-gateway/pkg/cache"
	"cryptopath-gateway/pkg/logger"
	"cryptopath-gateway/pkg/metrics"
	"cryptopath-gateway/pkg/mutex"
	"cryptopath-gateway/pkg/rategate"

	"go.uber.org/zap"
)

// Executor performs the actual upstream call for a cache miss
type Executor func(ctx context.Context) (json.RawMessage, error)

// GatewayService shields the rate-limited upstream API from redundant and
// bursty traffic: identical queries within the TTL window are served from
// cache, and outbound calls are spaced by a process-global rate gate.
type GatewayService struct {
	upstream     UpstreamClient
	cache        *cache.Cache
	gate         *rategate.Gate
	requestMutex *mutex.RequestMutex
	metrics      *metrics.Collector
}

// NewGatewayService creates a GatewayService with its own cache and gate
func NewGatewayService(upstream UpstreamClient, cfg *config.Config, collector *metrics.Collector) *GatewayService {
	return &GatewayService{
		upstream:     upstream,
		cache:        cache.New(cfg.Cache.TTL),
		gate:         rategate.New(cfg.RateGate.MinInterval),
		requestMutex: mutex.New(cfg.Cache.CleanupInterval),
		metrics:      collector,
	}
}

// CanonicalKey builds a deterministic cache key from query parameters.
// Encode sorts by key, so parameter order on the wire doesn't fragment
// the cache.
func CanonicalKey(params url.Values) string {
	return params.Encode()
}

// Proxy forwards the given query parameters through the gate to the
// configured upstream client.
func (gs *GatewayService) Proxy(ctx context.Context, params url.Values) *models.ProxyResult {
	return gs.FetchThroughGate(ctx, CanonicalKey(params), func(ctx context.Context) (json.RawMessage, error) {
		return gs.upstream.Fetch(ctx, params)
	})
}

// FetchThroughGate serves the request from cache when fresh, otherwise
// waits for the rate gate and invokes the executor. Failures surface as a
// tagged normalized envelope, never as an error crossing the boundary.
// No retry is performed; a single upstream failure is reported once.
func (gs *GatewayService) FetchThroughGate(ctx context.Context, key string, execute Executor) *models.ProxyResult {
	log := logger.GetLogger().WithContext(ctx)

	if payload, found := gs.cache.Get(key); found {
		log.Debug("Proxy cache hit", zap.String("cache_key", key))
		gs.metrics.RecordCacheHit()
		return &models.ProxyResult{Payload: payload, Cached: true}
	}

	gs.metrics.RecordCacheMiss()

	// Collapse concurrent requests for the same key into one upstream call
	keyMutex := gs.requestMutex.GetMutex(key)
	keyMutex.Lock()
	defer keyMutex.Unlock()

	// Another caller may have populated the cache while we waited
	if payload, found := gs.cache.Get(key); found {
		log.Debug("Proxy cache hit after mutex acquisition", zap.String("cache_key", key))
		gs.metrics.RecordCacheHit()
		return &models.ProxyResult{Payload: payload, Cached: true}
	}

	gateStart := time.Now()
	if err := gs.gate.Wait(ctx); err != nil {
		log.Warn("Rate gate wait aborted", zap.Error(err), zap.String("cache_key", key))
		return &models.ProxyResult{Failure: models.NewErrorEnvelope("request cancelled while waiting for rate gate")}
	}
	if waited := time.Since(gateStart); waited > time.Millisecond {
		gs.metrics.RecordGateWait(waited)
	}

	upstreamStart := time.Now()
	payload, err := execute(ctx)
	upstreamDuration := time.Since(upstreamStart)

	gs.metrics.RecordUpstreamCall(upstreamDuration, err == nil)

	if err != nil {
		log.Error("Upstream fetch failed",
			zap.Error(err),
			zap.String("cache_key", key),
			zap.Duration("upstream_duration", upstreamDuration),
		)

		var apiErr *UpstreamAPIError
		if errors.As(err, &apiErr) {
			return &models.ProxyResult{Failure: models.NewErrorEnvelope(apiErr.Text)}
		}
		return &models.ProxyResult{Failure: models.NewErrorEnvelope(err.Error())}
	}

	gs.cache.Set(key, payload)

	log.Debug("Upstream fetch cached",
		zap.String("cache_key", key),
		zap.Duration("upstream_duration", upstreamDuration),
	)

	return &models.ProxyResult{Payload: payload}
}

// CacheStats returns cache statistics for monitoring
func (gs *GatewayService) CacheStats() map[string]interface{} {
	return map[string]interface{}{
		"cache_size":  gs.cache.Size(),
		"mutex_count": gs.requestMutex.Size(),
	}
}

// Stop shuts down the background cleanup goroutines
func (gs *GatewayService) Stop() {
	gs.cache.Stop()
	gs.requestMutex.Stop()
}
