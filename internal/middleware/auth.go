package middleware

import (
	"strings"

	"cryptopath-gateway/internal/models"
	"cryptopath-gateway/internal/services"
	"cryptopath-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware creates a middleware for API key authentication
func AuthMiddleware(authService services.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger().WithContext(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Missing API key in Authorization header",
				zap.String("client_ip", c.ClientIP()),
				zap.String("user_agent", c.Request.UserAgent()),
			)

			appErr := models.NewAppErrorWithDetails(
				models.ErrorCodeMissingAPIKey,
				"API key is required",
				"Provide API key in Authorization header",
			)
			models.HandleError(c, appErr, log)
			c.Abort()
			return
		}

		// Accept both "Bearer <key>" and a bare "<key>"
		apiKey := strings.TrimSpace(authHeader)
		if strings.HasPrefix(strings.ToLower(apiKey), "bearer") {
			if len(apiKey) > 6 {
				apiKey = strings.TrimSpace(apiKey[6:])
			} else {
				apiKey = ""
			}
		}

		if apiKey == "" {
			log.Warn("Empty API key after parsing Authorization header",
				zap.String("client_ip", c.ClientIP()),
			)

			appErr := models.NewAppErrorWithDetails(
				models.ErrorCodeInvalidAPIKey,
				"Invalid API key format",
				"API key cannot be empty",
			)
			models.HandleError(c, appErr, log)
			c.Abort()
			return
		}

		validatedKey, err := authService.ValidateAPIKey(apiKey)
		if err != nil {
			log.Warn("API key validation failed",
				zap.Error(err),
				zap.String("client_ip", c.ClientIP()),
			)

			var appErr *models.AppError
			switch err {
			case services.ErrInvalidAPIKey:
				appErr = models.NewAppError(models.ErrorCodeInvalidAPIKey, "Invalid API key")
			case services.ErrInactiveAPIKey:
				appErr = models.NewAppError(models.ErrorCodeInactiveAPIKey, "API key is inactive")
			case services.ErrDatabaseError:
				appErr = models.NewAppErrorWithCause(models.ErrorCodeStoreError, "Authentication service unavailable", err)
			default:
				appErr = models.NewAppErrorWithCause(models.ErrorCodeInvalidAPIKey, "Authentication failed", err)
			}

			models.HandleError(c, appErr, log)
			c.Abort()
			return
		}

		c.Set("api_key", validatedKey)
		c.Set("api_key_id", validatedKey.ID.Hex())
		c.Set("api_key_name", validatedKey.Name)

		ctx := logger.ContextWithUserID(c.Request.Context(), validatedKey.ID.Hex())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
