package handlers

import (
	"net/http"

	"cryptopath-gateway/internal/models"
	"cryptopath-gateway/internal/services"
	"cryptopath-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SettingsHandler handles user settings HTTP requests
type SettingsHandler struct {
	settings *services.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler instance
func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// addWalletRequest is the payload for saving a wallet bookmark
type addWalletRequest struct {
	Address string `json:"address" binding:"required"`
}

// saveResponse bundles the settings state with the sync outcome
type saveResponse struct {
	Settings *models.UserSettings `json:"settings"`
	Sync     *models.SyncReport   `json:"sync"`
}

// GetSettings handles GET /api/settings/:userId requests
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	settings, err := h.settings.Load(c.Request.Context(), c.Param("userId"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// GetProfile handles GET /api/settings/:userId/profile requests
func (h *SettingsHandler) GetProfile(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	settings, err := h.settings.Load(c.Request.Context(), c.Param("userId"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, settings.Profile)
}

// UpdateProfile handles PUT /api/settings/:userId/profile requests. Changes
// land in the working copy only; nothing is persisted until SaveProfile.
func (h *SettingsHandler) UpdateProfile(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var profile models.ProfileSettings
	if err := c.ShouldBindJSON(&profile); err != nil {
		appErr := models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON,
			"Invalid JSON format",
			err.Error(),
		)
		models.HandleError(c, appErr, log)
		return
	}

	settings, err := h.settings.UpdateProfile(c.Request.Context(), c.Param("userId"), profile)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// SaveProfile handles POST /api/settings/:userId/profile/save requests.
// The local save is authoritative; remote sync failures are reported in
// the response, not as an error status.
func (h *SettingsHandler) SaveProfile(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())
	userID := c.Param("userId")

	report, err := h.settings.SaveProfile(c.Request.Context(), userID)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	settings, err := h.settings.Load(c.Request.Context(), userID)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, saveResponse{Settings: settings, Sync: report})
}

// AddWallet handles POST /api/settings/:userId/wallets requests
func (h *SettingsHandler) AddWallet(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	var req addWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := models.NewAppErrorWithDetails(
			models.ErrorCodeMalformedJSON,
			"Invalid JSON format",
			err.Error(),
		)
		models.HandleError(c, appErr, log)
		return
	}

	settings, err := h.settings.AddWallet(c.Request.Context(), c.Param("userId"), req.Address)
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// RemoveWallet handles DELETE /api/settings/:userId/wallets/:id requests
func (h *SettingsHandler) RemoveWallet(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	settings, err := h.settings.RemoveWallet(c.Request.Context(), c.Param("userId"), c.Param("id"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// SetDefaultWallet handles POST /api/settings/:userId/wallets/:id/default requests
func (h *SettingsHandler) SetDefaultWallet(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	settings, err := h.settings.SetDefaultWallet(c.Request.Context(), c.Param("userId"), c.Param("id"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// Sync handles POST /api/settings/:userId/sync requests. Partial failure
// still returns 200; the report carries the per-record outcomes.
func (h *SettingsHandler) Sync(c *gin.Context) {
	log := logger.GetLogger().WithContext(c.Request.Context())

	report, err := h.settings.SyncWithRemote(c.Request.Context(), c.Param("userId"))
	if err != nil {
		models.HandleError(c, err, log)
		return
	}

	c.JSON(http.StatusOK, report)
}
