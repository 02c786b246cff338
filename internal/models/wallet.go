package models

import "time"

// SessionState represents the wallet session state machine
type SessionState string

const (
	SessionDisconnected SessionState = "disconnected"
	SessionRestoring    SessionState = "restoring"
	SessionConnected    SessionState = "connected"
	SessionExpired      SessionState = "expired"
)

// WalletSession is the in-memory view of the currently connected wallet
type WalletSession struct {
	State       SessionState `json:"state"`
	Account     string       `json:"account,omitempty"`
	Balance     string       `json:"balance"`
	ConnectedAt time.Time    `json:"connected_at,omitempty"`
}

// SessionRecord is the persisted session mirror used for restoration across
// restarts. LastConnected is epoch milliseconds.
type SessionRecord struct {
	WalletAddress string `json:"wallet_address"`
	LastConnected int64  `json:"last_connected"`
}

// Age returns how long ago the record was last connected.
func (r *SessionRecord) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(r.LastConnected))
}

// ConnectRequest is the payload for the connect endpoint
type ConnectRequest struct {
	Force bool `json:"force"`
}

// BalanceResponse is returned by the native-balance endpoint
type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// Wallet session event names published on the event hub
const (
	EventWalletConnected    = "wallet.connected"
	EventWalletDisconnected = "wallet.disconnected"
	EventAccountChanged     = "wallet.account_changed"
	EventChainChanged       = "chain.changed"
)

// SessionEvent is broadcast to event-stream subscribers on session changes
type SessionEvent struct {
	Type      string    `json:"type"`
	Account   string    `json:"account,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
