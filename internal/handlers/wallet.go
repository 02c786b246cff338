package handlers

import (
	"net/http"

	"cryptopath-gateway/internal/models"
	"cryptopath-gateway/internal/services"
	"cryptopath-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WalletHandler handles wallet session HTTP requests
type WalletHandler struct {
	reconciler *services.WalletReconciler
	balances   services.BalanceSource
}

// NewWalletHandler creates a new WalletHandler instance
func NewWalletHandler(reconciler *services.WalletReconciler, balances services.BalanceSource) *WalletHandler {
	return &WalletHandler{
		reconciler: reconciler,
		balances:   balances,
	}
}

// Connect handles POST /api/wallet/connect requests. An empty body is
// treated as a plain (non-forced) connect.
func (h *WalletHandler) Connect(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req models.ConnectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			appErr := models.NewAppErrorWithDetails(
				models.ErrorCodeMalformedJSON,
				"Invalid JSON format",
				err.Error(),
			)
			models.HandleError(c, appErr, log)
			return
		}
	}

	session, err := h.reconciler.Connect(c.Request.Context(), req.Force)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Disconnect handles POST /api/wallet/disconnect requests
func (h *WalletHandler) Disconnect(c *gin.Context) {
	h.reconciler.Disconnect(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"state": models.SessionDisconnected,
	})
}

// GetSession handles GET /api/wallet/session requests
func (h *WalletHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.reconciler.Session())
}

// GetBalance handles GET /api/wallet?address= requests
func (h *WalletHandler) GetBalance(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	address := c.Query("address")
	if address == "" {
		appErr := models.NewAppErrorWithDetails(
			models.ErrorCodeInvalidRequest,
			"Address is required",
			"Provide a wallet address in the address query parameter",
		)
		models.HandleError(c, appErr, log)
		return
	}

	balance, err := h.balances.BalanceOf(c.Request.Context(), address)
	if err != nil {
		if appErr, ok := err.(*models.AppError); ok {
			models.HandleError(c, appErr, log)
			return
		}

		log.Error("Balance fetch failed",
			zap.Error(err),
			zap.String("wallet_address", address),
		)
		models.HandleError(c, models.NewUpstreamError("Failed to fetch balance", err), log)
		return
	}

	c.JSON(http.StatusOK, models.BalanceResponse{
		Address: address,
		Balance: balance,
	})
}
