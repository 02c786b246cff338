package store

import (
	"context"

	"cryptopath-gateway/internal/models"
)

// SessionStore persists the wallet session record across restarts.
// Absence is reported as (nil, nil), not an error. The record is owned
// exclusively by the session reconciler.
type SessionStore interface {
	Load(ctx context.Context) (*models.SessionRecord, error)
	Save(ctx context.Context, record *models.SessionRecord) error
	Clear(ctx context.Context) error
}

// SettingsCache is the fast local store for the settings bundle. Writes here
// are instant and offline-capable; the remote store stays the durable source.
type SettingsCache interface {
	Load(ctx context.Context, userID string) (*models.UserSettings, error)
	Save(ctx context.Context, userID string, settings *models.UserSettings) error
	Delete(ctx context.Context, userID string) error
}

// SettingsStore is the durable remote store for profiles and saved wallets
type SettingsStore interface {
	GetProfile(ctx context.Context, userID string) (*models.RemoteProfile, error)
	UpsertProfile(ctx context.Context, profile *models.RemoteProfile) error

	ListWallets(ctx context.Context, userID string) ([]models.RemoteWallet, error)
	InsertWallet(ctx context.Context, wallet models.RemoteWallet) error
	UpdateWalletDefault(ctx context.Context, id string, isDefault bool) error
	DeleteWallet(ctx context.Context, id string) error
}
