package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"cryptopath-gateway/internal/config"
	"cryptopath-gateway/internal/models"
)

// UpstreamAPIError means the upstream returned a well-formed response whose
// payload signals failure (the NOTOK sentinel)
type UpstreamAPIError struct {
	Text string
}

func (e *UpstreamAPIError) Error() string {
	return fmt.Sprintf("upstream reported error: %s", e.Text)
}

// EtherscanClient calls an Etherscan-style HTTP API. It forwards all query
// parameters and injects the configured API key.
type EtherscanClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewEtherscanClient creates an upstream client from configuration
func NewEtherscanClient(cfg *config.UpstreamConfig) *EtherscanClient {
	return &EtherscanClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Fetch implements UpstreamClient. The returned payload is the upstream
// response body unchanged; logical upstream errors come back as
// *UpstreamAPIError.
func (c *EtherscanClient) Fetch(ctx context.Context, params url.Values) (json.RawMessage, error) {
	query := url.Values{}
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	query.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream responded with status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	var envelope models.UpstreamEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}

	if envelope.IsError() {
		return nil, &UpstreamAPIError{Text: envelope.ErrorText()}
	}

	return body, nil
}

// Ping checks upstream reachability without consuming the API budget
func (c *EtherscanClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream unreachable: %w", err)
	}
	resp.Body.Close()

	return nil
}
