package services

import (
	"context"
	"encoding/json"
	"net/url"

	"cryptopath-gateway/internal/models"
)

// UpstreamClient performs the actual network call to the rate-limited
// upstream API
type UpstreamClient interface {
	Fetch(ctx context.Context, params url.Values) (json.RawMessage, error)
}

// BalanceSource fetches the native-currency balance for an address,
// returned in human units
type BalanceSource interface {
	BalanceOf(ctx context.Context, address string) (string, error)
}

// AuthServiceInterface defines the interface for authentication services
type AuthServiceInterface interface {
	ValidateAPIKey(key string) (*models.APIKey, error)
}
