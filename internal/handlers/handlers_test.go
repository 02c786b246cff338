package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"cryptopath-gateway/internal/config"
	"cryptopath-gateway/internal/events"
	"cryptopath-gateway/internal/models"
	"cryptopath-gateway/internal/provider"
	"cryptopath-gateway/internal/services"
	"cryptopath-gateway/internal/store"
	"cryptopath-gateway/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const walletAddr = "0x1111111111111111111111111111111111111111"

type fakeUpstream struct {
	payload json.RawMessage
	err     error
}

func (f *fakeUpstream) Fetch(ctx context.Context, params url.Values) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type fakeBalances struct {
	balance string
	err     error
}

func (f *fakeBalances) BalanceOf(ctx context.Context, address string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.balance, nil
}

type testEnv struct {
	engine     *gin.Engine
	provider   *provider.MemoryProvider
	upstream   *fakeUpstream
	balances   *fakeBalances
	reconciler *services.WalletReconciler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := &fakeUpstream{payload: json.RawMessage(`{"status":"1","message":"OK","result":[]}`)}
	cfg := &config.Config{
		Cache: config.CacheConfig{
			TTL:             time.Second,
			CleanupInterval: time.Minute,
		},
		RateGate: config.RateGateConfig{
			MinInterval: time.Millisecond,
		},
	}

	collector := metrics.NewCollector()
	hub := events.NewHub()
	gateway := services.NewGatewayService(upstream, cfg, collector)
	t.Cleanup(gateway.Stop)

	walletProvider := provider.NewMemoryProvider(walletAddr)
	balances := &fakeBalances{balance: "1.0"}
	reconciler := services.NewWalletReconciler(walletProvider, store.NewMemorySessionStore(), balances, hub, 24*time.Hour)
	t.Cleanup(reconciler.Close)

	settings := services.NewSettingsService(store.NewMemorySettingsCache(), store.NewMemorySettingsStore(), collector)

	router := NewRouter(RouterDeps{
		Gateway:    gateway,
		Reconciler: reconciler,
		Balances:   balances,
		Settings:   settings,
		Health:     services.NewHealthService(nil, nil, nil),
		Hub:        hub,
		Metrics:    collector,
	})

	engine := gin.New()
	router.SetupHealthRoutes(engine)
	router.SetupRoutes(engine)

	return &testEnv{
		engine:     engine,
		provider:   walletProvider,
		upstream:   upstream,
		balances:   balances,
		reconciler: reconciler,
	}
}

func (env *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	env.engine.ServeHTTP(recorder, req)
	return recorder
}

func TestProxyPassesThroughUpstreamPayload(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/api/proxy?module=account&action=txlist", nil)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"1","message":"OK","result":[]}`, resp.Body.String())
	assert.Equal(t, "MISS", resp.Header().Get("X-Cache"))

	resp = env.do(http.MethodGet, "/api/proxy?action=txlist&module=account", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "HIT", resp.Header().Get("X-Cache"))
}

func TestProxyFailureReturnsNormalizedEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.err = &services.UpstreamAPIError{Text: "Max rate limit reached"}

	resp := env.do(http.MethodGet, "/api/proxy?module=account", nil)

	require.Equal(t, http.StatusInternalServerError, resp.Code)

	var envelope models.ErrorEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "0", envelope.Status)
	assert.Equal(t, "NOTOK", envelope.Message)
	assert.Equal(t, "Max rate limit reached", envelope.Result)
}

func TestWalletConnectLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/wallet/connect", models.ConnectRequest{})
	require.Equal(t, http.StatusOK, resp.Code)

	var session models.WalletSession
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	assert.Equal(t, models.SessionConnected, session.State)
	assert.Equal(t, walletAddr, session.Account)

	resp = env.do(http.MethodGet, "/api/wallet/session", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	assert.Equal(t, models.SessionConnected, session.State)

	resp = env.do(http.MethodPost, "/api/wallet/disconnect", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(http.MethodGet, "/api/wallet/session", nil)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	assert.Equal(t, models.SessionDisconnected, session.State)
}

func TestWalletConnectRejectionReturns403(t *testing.T) {
	env := newTestEnv(t)
	env.provider.RejectNext()

	resp := env.do(http.MethodPost, "/api/wallet/connect", models.ConnectRequest{})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestWalletBalanceEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.balances.balance = "2.5"

	resp := env.do(http.MethodGet, "/api/wallet?address="+walletAddr, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var balance models.BalanceResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &balance))
	assert.Equal(t, walletAddr, balance.Address)
	assert.Equal(t, "2.5", balance.Balance)
}

func TestWalletBalanceRequiresAddress(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/api/wallet", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSettingsFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/api/settings/u1", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var settings models.UserSettings
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &settings))
	assert.Equal(t, models.DefaultUsername, settings.Profile.Username)

	resp = env.do(http.MethodPut, "/api/settings/u1/profile", models.ProfileSettings{Username: "alice"})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = env.do(http.MethodPost, "/api/settings/u1/profile/save", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var saved saveResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &saved))
	require.NotNil(t, saved.Settings)
	assert.Equal(t, "alice", saved.Settings.Profile.Username)
	require.NotNil(t, saved.Sync)
	assert.Empty(t, saved.Sync.Failures)
}

func TestSettingsWalletEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/settings/u1/wallets", gin.H{"address": walletAddr})
	require.Equal(t, http.StatusOK, resp.Code)

	var settings models.UserSettings
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &settings))
	require.Len(t, settings.Wallets, 1)
	assert.True(t, settings.Wallets[0].IsDefault)

	walletID := settings.Wallets[0].ID

	resp = env.do(http.MethodDelete, "/api/settings/u1/wallets/"+walletID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &settings))
	assert.Empty(t, settings.Wallets)
}

func TestSettingsSyncEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodPost, "/api/settings/u1/sync", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var report models.SyncReport
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &report))
	assert.Empty(t, report.Failures)
}

func TestHealthLiveness(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "cache_hit_ratio")
}
