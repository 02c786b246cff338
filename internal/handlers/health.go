package handlers

import (
	"net/http"
	"time"

	"cryptopath-gateway/internal/services"
	"cryptopath-gateway/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check and diagnostics endpoints
type HealthHandler struct {
	health    *services.HealthService
	gateway   *services.GatewayService
	collector *metrics.Collector
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(health *services.HealthService, gateway *services.GatewayService, collector *metrics.Collector) *HealthHandler {
	return &HealthHandler{
		health:    health,
		gateway:   gateway,
		collector: collector,
	}
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    services.HealthStatus            `json:"status"`
	Timestamp time.Time                        `json:"timestamp"`
	Services  map[string]*services.HealthCheck `json:"services"`
	Version   string                           `json:"version,omitempty"`
}

// GetHealth returns the overall health status
func (h *HealthHandler) GetHealth(c *gin.Context) {
	checks := h.health.CheckAll(c.Request.Context())
	overall := services.Overall(checks)

	response := HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  checks,
		Version:   "1.0.0",
	}

	statusCode := http.StatusOK
	if overall == services.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// GetLiveness returns a simple liveness check
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// GetReadiness returns readiness status
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	checks := h.health.CheckAll(c.Request.Context())

	if services.Overall(checks) == services.HealthStatusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not_ready",
			"services":  checks,
			"timestamp": time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// GetDatabaseHealth returns the store checks only
func (h *HealthHandler) GetDatabaseHealth(c *gin.Context) {
	checks := h.health.CheckAll(c.Request.Context())

	stores := make(map[string]*services.HealthCheck)
	for name, check := range checks {
		if name == "mongodb" || name == "redis" {
			stores[name] = check
		}
	}

	statusCode := http.StatusOK
	if services.Overall(stores) == services.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, stores)
}

// GetMetrics returns the collected runtime metrics
func (h *HealthHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics":         h.collector.GetMetrics(),
		"uptime":          h.collector.GetUptime().String(),
		"cache_hit_ratio": h.collector.GetCacheHitRatio(),
		"success_rate":    h.collector.GetSuccessRate(),
	})
}

// GetStatus returns gateway internals for diagnostics
func (h *HealthHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cache":     h.gateway.CacheStats(),
		"uptime":    h.collector.GetUptime().String(),
		"timestamp": time.Now(),
	})
}
