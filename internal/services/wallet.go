package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"cryptopath-gateway/internal/events"
	"cryptopath-gateway/internal/models"
	"cryptopath-gateway/internal/provider"
	"cryptopath-gateway/internal/store"
	"cryptopath-gateway/pkg/logger"

	"go.uber.org/zap"
)

// WalletReconciler maintains the single authoritative notion of the
// externally connected wallet. The provider is mutable outside this
// component's control; the reconciler reacts to its events, restores the
// session from the persisted record on startup, and expires sessions older
// than the configured TTL.
//
// The persisted record is owned exclusively by the reconciler; no other
// component mutates it.
type WalletReconciler struct {
	mu       sync.Mutex
	provider provider.Provider
	sessions store.SessionStore
	balances BalanceSource
	hub      *events.Hub

	sessionTTL time.Duration

	state       models.SessionState
	account     string
	balance     string
	connectedAt time.Time

	unsubscribe []func()
}

// NewWalletReconciler creates a reconciler and registers provider event
// handlers. Call Restore to pick up a persisted session, and Close to
// detach the handlers.
func NewWalletReconciler(p provider.Provider, sessions store.SessionStore, balances BalanceSource, hub *events.Hub, sessionTTL time.Duration) *WalletReconciler {
	wr := &WalletReconciler{
		provider:   p,
		sessions:   sessions,
		balances:   balances,
		hub:        hub,
		sessionTTL: sessionTTL,
		state:      models.SessionDisconnected,
		balance:    "0",
	}

	if p != nil {
		wr.unsubscribe = append(wr.unsubscribe,
			p.OnAccountsChanged(wr.handleAccountsChanged),
			p.OnChainChanged(wr.handleChainChanged),
		)
	}

	return wr
}

// Restore rebuilds the session from the persisted record, if any. A record
// older than the session TTL is torn down immediately without consulting
// the provider; expiry is a silent transition, not an error.
func (wr *WalletReconciler) Restore(ctx context.Context) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	log := logger.GetLogger().WithContext(ctx)

	record, err := wr.sessions.Load(ctx)
	if err != nil {
		log.Error("Failed to load persisted wallet session", zap.Error(err))
		wr.state = models.SessionDisconnected
		return models.NewStoreError("failed to load persisted session", err)
	}
	if record == nil {
		wr.state = models.SessionDisconnected
		return nil
	}

	wr.state = models.SessionRestoring

	if record.Age(time.Now()) >= wr.sessionTTL {
		log.Info("Persisted wallet session expired, tearing down",
			zap.String("wallet_address", record.WalletAddress),
		)
		wr.state = models.SessionExpired
		wr.teardownLocked(ctx)
		return nil
	}

	if wr.provider == nil {
		wr.state = models.SessionDisconnected
		return nil
	}

	accounts, err := wr.provider.Accounts(ctx)
	if err != nil {
		log.Warn("Provider account query failed during restore", zap.Error(err))
		wr.state = models.SessionDisconnected
		return nil
	}

	if !containsAccount(accounts, record.WalletAddress) {
		log.Info("Persisted wallet no longer authorized by provider",
			zap.String("wallet_address", record.WalletAddress),
		)
		wr.state = models.SessionDisconnected
		return nil
	}

	wr.account = record.WalletAddress
	wr.connectedAt = time.UnixMilli(record.LastConnected)
	wr.state = models.SessionConnected
	wr.refreshBalanceLocked(ctx)

	log.Info("Wallet session restored",
		zap.String("wallet_address", wr.account),
		zap.Time("connected_at", wr.connectedAt),
	)

	return nil
}

// Connect requests account authorization from the provider. force clears
// the cached provider preference first so the user is re-prompted.
func (wr *WalletReconciler) Connect(ctx context.Context, force bool) (*models.WalletSession, error) {
	session, err := wr.connect(ctx, force)
	if err != nil {
		return nil, err
	}

	// Publish outside the mutex; subscribers may call back into Session
	wr.hub.Publish(models.EventWalletConnected, session.Account)

	logger.GetLogger().WithContext(ctx).Info("Wallet connected",
		zap.String("wallet_address", session.Account),
		zap.Bool("force", force),
	)

	return session, nil
}

func (wr *WalletReconciler) connect(ctx context.Context, force bool) (*models.WalletSession, error) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	log := logger.GetLogger().WithContext(ctx)

	if wr.provider == nil {
		return nil, models.NewProviderError("no wallet provider available, please install a wallet")
	}

	if force {
		wr.provider.ClearCachedProvider()
	}

	accounts, err := wr.provider.RequestAccounts(ctx, force)
	if err != nil {
		log.Warn("Wallet connection failed", zap.Error(err), zap.Bool("force", force))

		switch {
		case errors.Is(err, provider.ErrRejected):
			return nil, models.NewAppError(models.ErrorCodeConnectionRejected, "wallet connection request was rejected")
		case errors.Is(err, provider.ErrUnavailable):
			return nil, models.NewProviderError("no wallet provider available, please install a wallet")
		default:
			return nil, models.NewAppErrorWithCause(models.ErrorCodeInternalError, "wallet connection failed", err)
		}
	}

	if len(accounts) == 0 {
		return nil, models.NewAppError(models.ErrorCodeConnectionRejected, "provider returned no authorized accounts")
	}

	now := time.Now()
	wr.account = accounts[0]
	wr.connectedAt = now
	wr.state = models.SessionConnected

	record := &models.SessionRecord{
		WalletAddress: wr.account,
		LastConnected: now.UnixMilli(),
	}
	if err := wr.sessions.Save(ctx, record); err != nil {
		log.Error("Failed to persist wallet session", zap.Error(err))
		return nil, models.NewStoreError("failed to persist wallet session", err)
	}

	wr.refreshBalanceLocked(ctx)

	session := wr.sessionLocked()
	return &session, nil
}

// Disconnect tears the session down: in-memory state, persisted record,
// provider-side cached preference, and the provider's own disconnect hook.
// A global signal is published so other components clear their state too.
func (wr *WalletReconciler) Disconnect(ctx context.Context) {
	wr.mu.Lock()
	account := wr.account
	wr.teardownLocked(ctx)
	wr.mu.Unlock()

	wr.hub.Publish(models.EventWalletDisconnected, account)

	logger.GetLogger().WithContext(ctx).Info("Wallet disconnected",
		zap.String("wallet_address", account),
	)
}

// teardownLocked clears all session state. Must be called with the mutex held.
func (wr *WalletReconciler) teardownLocked(ctx context.Context) {
	wr.account = ""
	wr.balance = "0"
	wr.connectedAt = time.Time{}
	wr.state = models.SessionDisconnected

	if err := wr.sessions.Clear(ctx); err != nil {
		logger.GetLogger().Error("Failed to clear persisted wallet session", zap.Error(err))
	}

	if wr.provider != nil {
		wr.provider.ClearCachedProvider()
		if err := wr.provider.Disconnect(); err != nil {
			logger.GetLogger().Warn("Provider disconnect hook failed", zap.Error(err))
		}
	}
}

// UpdateBalance refreshes the balance for the current account. A fetch
// failure resets the balance to "0": a visibly-zero value is preferred
// over a silently-stale one.
func (wr *WalletReconciler) UpdateBalance(ctx context.Context) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	wr.refreshBalanceLocked(ctx)
}

// refreshBalanceLocked must be called with the mutex held
func (wr *WalletReconciler) refreshBalanceLocked(ctx context.Context) {
	if wr.account == "" {
		return
	}

	balance, err := wr.balances.BalanceOf(ctx, wr.account)
	if err != nil {
		logger.GetLogger().Warn("Balance refresh failed, resetting to zero",
			zap.Error(err),
			zap.String("wallet_address", wr.account),
		)
		wr.balance = "0"
		return
	}

	wr.balance = balance
}

// Session returns a snapshot of the current session
func (wr *WalletReconciler) Session() models.WalletSession {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	return wr.sessionLocked()
}

func (wr *WalletReconciler) sessionLocked() models.WalletSession {
	return models.WalletSession{
		State:       wr.state,
		Account:     wr.account,
		Balance:     wr.balance,
		ConnectedAt: wr.connectedAt,
	}
}

// handleAccountsChanged reacts to the provider's account-change event. An
// empty list is a disconnect; a new head account is an in-place swap with
// a balance refresh.
func (wr *WalletReconciler) handleAccountsChanged(accounts []string) {
	ctx := context.Background()

	if len(accounts) == 0 {
		wr.Disconnect(ctx)
		return
	}

	wr.mu.Lock()
	if accounts[0] == wr.account {
		wr.mu.Unlock()
		return
	}

	wr.account = accounts[0]
	wr.state = models.SessionConnected
	wr.refreshBalanceLocked(ctx)
	account := wr.account
	wr.mu.Unlock()

	wr.hub.Publish(models.EventAccountChanged, account)

	logger.GetLogger().Info("Wallet account swapped",
		zap.String("wallet_address", account),
	)
}

// handleChainChanged publishes a reset signal. Chain-dependent state is not
// incrementally reconciled; clients perform a hard reload instead of
// risking stale cross-chain balances.
func (wr *WalletReconciler) handleChainChanged(chainID string) {
	logger.GetLogger().Info("Chain changed, signalling full reset",
		zap.String("chain_id", chainID),
	)
	wr.hub.Publish(models.EventChainChanged, "")
}

// Close detaches the provider event handlers
func (wr *WalletReconciler) Close() {
	for _, unsub := range wr.unsubscribe {
		unsub()
	}
	wr.unsubscribe = nil
}

func containsAccount(accounts []string, address string) bool {
	for _, account := range accounts {
		if account == address {
			return true
		}
	}
	return false
}
