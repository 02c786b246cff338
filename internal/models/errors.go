package models

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Authentication errors
	ErrorCodeMissingAPIKey  ErrorCode = "MISSING_API_KEY"
	ErrorCodeInvalidAPIKey  ErrorCode = "INVALID_API_KEY"
	ErrorCodeInactiveAPIKey ErrorCode = "INACTIVE_API_KEY"

	// Rate limiting errors
	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Validation errors
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidAddress ErrorCode = "INVALID_ADDRESS"
	ErrorCodeMalformedJSON  ErrorCode = "MALFORMED_JSON"

	// Upstream errors
	ErrorCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrorCodeUpstreamError       ErrorCode = "UPSTREAM_ERROR"
	ErrorCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"

	// Wallet provider errors
	ErrorCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrorCodeConnectionRejected  ErrorCode = "CONNECTION_REJECTED"

	// Internal errors
	ErrorCodeStoreError    ErrorCode = "STORE_ERROR"
	ErrorCodeCacheError    ErrorCode = "CACHE_ERROR"
	ErrorCodeSyncFailed    ErrorCode = "SYNC_FAILED"
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ErrorResponse represents the standardized error response format
type ErrorResponse struct {
	Error         ErrorDetail `json:"error"`
	Timestamp     time.Time   `json:"timestamp"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// HTTPStatusCode returns the appropriate HTTP status code for each error type
func (e ErrorCode) HTTPStatusCode() int {
	switch e {
	case ErrorCodeMissingAPIKey, ErrorCodeInvalidAPIKey, ErrorCodeInactiveAPIKey:
		return http.StatusUnauthorized
	case ErrorCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrorCodeInvalidRequest, ErrorCodeInvalidAddress, ErrorCodeMalformedJSON:
		return http.StatusBadRequest
	case ErrorCodeConnectionRejected:
		return http.StatusForbidden
	case ErrorCodeUpstreamUnavailable, ErrorCodeUpstreamError, ErrorCodeUpstreamTimeout:
		return http.StatusBadGateway
	case ErrorCodeProviderUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeStoreError, ErrorCodeCacheError, ErrorCodeSyncFailed, ErrorCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// AppError represents an application error with context
type AppError struct {
	Code       ErrorCode
	Message    string
	Details    string
	Cause      error
	Context    map[string]interface{}
	StatusCode int
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: code.HTTPStatusCode(),
		Context:    make(map[string]interface{}),
	}
}

// NewAppErrorWithCause creates a new application error with underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Cause:      cause,
		StatusCode: code.HTTPStatusCode(),
		Context:    make(map[string]interface{}),
	}
}

// NewAppErrorWithDetails creates a new application error with details
func NewAppErrorWithDetails(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: code.HTTPStatusCode(),
		Context:    make(map[string]interface{}),
	}
}

// errorLogger is the logging surface HandleError needs
type errorLogger interface {
	Error(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// HandleError converts an error to the standardized HTTP error response.
// All failures are caught here and surfaced as tagged responses; nothing
// propagates into the render path as an unhandled error.
func HandleError(c *gin.Context, err error, log errorLogger) {
	appErr, ok := err.(*AppError)
	if !ok {
		appErr = NewAppErrorWithCause(ErrorCodeInternalError, "Internal server error", err)
	}

	appErr.WithContext("method", c.Request.Method).
		WithContext("path", c.Request.URL.Path).
		WithContext("client_ip", c.ClientIP())

	if log != nil {
		logFields := []zap.Field{
			zap.String("error_code", string(appErr.Code)),
			zap.String("error_message", appErr.Message),
			zap.Any("error_context", appErr.Context),
		}
		if appErr.Cause != nil {
			logFields = append(logFields, zap.Error(appErr.Cause))
		}

		if appErr.StatusCode >= 500 {
			log.Error("Application error", logFields...)
		} else {
			log.Warn("Client error", logFields...)
		}
	}

	var correlationID string
	if cid := c.GetString("correlation_id"); cid != "" {
		correlationID = cid
	}

	c.JSON(appErr.StatusCode, &ErrorResponse{
		Error: ErrorDetail{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		},
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	})
}

// NewValidationError creates a validation error
func NewValidationError(message, details string) *AppError {
	return NewAppErrorWithDetails(ErrorCodeInvalidRequest, message, details)
}

// NewUpstreamError creates an upstream error
func NewUpstreamError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodeUpstreamUnavailable, message, cause)
}

// NewProviderError creates a wallet-provider error
func NewProviderError(message string) *AppError {
	return NewAppError(ErrorCodeProviderUnavailable, message)
}

// NewStoreError creates a persistent-store error
func NewStoreError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodeStoreError, message, cause)
}
