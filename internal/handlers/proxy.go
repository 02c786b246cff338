package handlers

import (
	"net/http"

	"cryptopath-gateway/internal/models"
	"cryptopath-gateway/internal/services"
	"cryptopath-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProxyHandler fronts the rate-limited upstream API
type ProxyHandler struct {
	gateway *services.GatewayService
}

// NewProxyHandler creates a new ProxyHandler instance
func NewProxyHandler(gateway *services.GatewayService) *ProxyHandler {
	return &ProxyHandler{gateway: gateway}
}

// GetProxy handles GET /api/proxy requests. All query parameters are
// forwarded to the upstream; the response body is passed through unchanged
// on success. Failures surface as a 500 carrying the normalized NOTOK
// envelope, matching the upstream's own error shape.
func (h *ProxyHandler) GetProxy(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	params := c.Request.URL.Query()
	if len(params) == 0 {
		log.Warn("Proxy request with no query parameters")
		c.JSON(http.StatusInternalServerError, models.NewErrorEnvelope("missing query parameters"))
		return
	}

	result := h.gateway.Proxy(c.Request.Context(), params)
	if !result.OK() {
		c.JSON(http.StatusInternalServerError, result.Failure)
		return
	}

	if result.Cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}

	log.Debug("Proxy request served",
		zap.Bool("cached", result.Cached),
		zap.Int("payload_bytes", len(result.Payload)),
	)

	c.Data(http.StatusOK, "application/json", result.Payload)
}
