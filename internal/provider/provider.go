package provider

import (
	"context"
	"errors"
)

// Provider errors surfaced to the reconciler
var (
	// ErrRejected means the wallet owner declined the authorization request
	ErrRejected = errors.New("wallet connection request rejected")
	// ErrUnavailable means no wallet provider is reachable
	ErrUnavailable = errors.New("wallet provider unavailable")
)

// Provider abstracts the external wallet a session is bound to. The real
// provider is mutable outside the gateway's control: its authorized account
// list and active chain can change at any time, announced only via events.
type Provider interface {
	// RequestAccounts asks the provider to authorize the caller and return
	// its account list. force clears any cached provider preference first
	// so the owner is re-prompted.
	RequestAccounts(ctx context.Context, force bool) ([]string, error)

	// Accounts returns the currently authorized accounts without prompting.
	Accounts(ctx context.Context) ([]string, error)

	// OnAccountsChanged registers a handler for account-list changes and
	// returns an unsubscribe function.
	OnAccountsChanged(handler func(accounts []string)) func()

	// OnChainChanged registers a handler for chain switches and returns an
	// unsubscribe function.
	OnChainChanged(handler func(chainID string)) func()

	// ClearCachedProvider drops any remembered provider preference.
	ClearCachedProvider()

	// Disconnect invokes the provider's own disconnect hook, if any.
	Disconnect() error
}
