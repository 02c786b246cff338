package store

import (
	"context"
	"fmt"
	"sync"

	"cryptopath-gateway/internal/models"

	"github.com/google/uuid"
)

// In-memory implementations used in tests and in deployments without the
// backing services configured.

// MemorySessionStore is an in-memory SessionStore
type MemorySessionStore struct {
	mu     sync.Mutex
	record *models.SessionRecord
}

// NewMemorySessionStore creates an empty MemorySessionStore
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

// Load implements SessionStore
func (s *MemorySessionStore) Load(ctx context.Context) (*models.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return nil, nil
	}
	copied := *s.record
	return &copied, nil
}

// Save implements SessionStore
func (s *MemorySessionStore) Save(ctx context.Context, record *models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	s.record = &copied
	return nil
}

// Clear implements SessionStore
func (s *MemorySessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record = nil
	return nil
}

// MemorySettingsCache is an in-memory SettingsCache
type MemorySettingsCache struct {
	mu      sync.Mutex
	bundles map[string]models.UserSettings
}

// NewMemorySettingsCache creates an empty MemorySettingsCache
func NewMemorySettingsCache() *MemorySettingsCache {
	return &MemorySettingsCache{
		bundles: make(map[string]models.UserSettings),
	}
}

// Load implements SettingsCache
func (c *MemorySettingsCache) Load(ctx context.Context, userID string) (*models.UserSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bundle, exists := c.bundles[userID]
	if !exists {
		return nil, nil
	}

	copied := bundle
	copied.Wallets = append([]models.WalletRecord(nil), bundle.Wallets...)
	return &copied, nil
}

// Save implements SettingsCache
func (c *MemorySettingsCache) Save(ctx context.Context, userID string, settings *models.UserSettings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := *settings
	copied.Wallets = append([]models.WalletRecord(nil), settings.Wallets...)
	c.bundles[userID] = copied
	return nil
}

// Delete implements SettingsCache
func (c *MemorySettingsCache) Delete(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.bundles, userID)
	return nil
}

// MemorySettingsStore is an in-memory SettingsStore. The hook fields let
// tests inject per-operation failures to exercise partial-sync handling.
type MemorySettingsStore struct {
	mu       sync.Mutex
	profiles map[string]models.RemoteProfile
	wallets  map[string]models.RemoteWallet

	InsertHook func(wallet models.RemoteWallet) error
	UpdateHook func(id string, isDefault bool) error
	DeleteHook func(id string) error

	InsertCalls int
	UpdateCalls int
	DeleteCalls int
}

// NewMemorySettingsStore creates an empty MemorySettingsStore
func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{
		profiles: make(map[string]models.RemoteProfile),
		wallets:  make(map[string]models.RemoteWallet),
	}
}

// GetProfile implements SettingsStore
func (s *MemorySettingsStore) GetProfile(ctx context.Context, userID string) (*models.RemoteProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, exists := s.profiles[userID]
	if !exists {
		return nil, nil
	}
	return &profile, nil
}

// UpsertProfile implements SettingsStore
func (s *MemorySettingsStore) UpsertProfile(ctx context.Context, profile *models.RemoteProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.UserID] = *profile
	return nil
}

// ListWallets implements SettingsStore
func (s *MemorySettingsStore) ListWallets(ctx context.Context, userID string) ([]models.RemoteWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var wallets []models.RemoteWallet
	for _, w := range s.wallets {
		if w.UserID == userID {
			wallets = append(wallets, w)
		}
	}
	return wallets, nil
}

// InsertWallet implements SettingsStore
func (s *MemorySettingsStore) InsertWallet(ctx context.Context, wallet models.RemoteWallet) error {
	s.mu.Lock()
	s.InsertCalls++
	hook := s.InsertHook
	s.mu.Unlock()

	if hook != nil {
		if err := hook(wallet); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if wallet.ID == "" {
		wallet.ID = uuid.New().String()
	}
	for _, existing := range s.wallets {
		if existing.UserID == wallet.UserID && existing.WalletAddress == wallet.WalletAddress {
			return fmt.Errorf("wallet %s already exists for user %s", wallet.WalletAddress, wallet.UserID)
		}
	}
	s.wallets[wallet.ID] = wallet
	return nil
}

// UpdateWalletDefault implements SettingsStore
func (s *MemorySettingsStore) UpdateWalletDefault(ctx context.Context, id string, isDefault bool) error {
	s.mu.Lock()
	s.UpdateCalls++
	hook := s.UpdateHook
	s.mu.Unlock()

	if hook != nil {
		if err := hook(id, isDefault); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wallet, exists := s.wallets[id]
	if !exists {
		return fmt.Errorf("wallet %s not found", id)
	}
	wallet.IsDefault = isDefault
	s.wallets[id] = wallet
	return nil
}

// DeleteWallet implements SettingsStore
func (s *MemorySettingsStore) DeleteWallet(ctx context.Context, id string) error {
	s.mu.Lock()
	s.DeleteCalls++
	hook := s.DeleteHook
	s.mu.Unlock()

	if hook != nil {
		if err := hook(id); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.wallets, id)
	return nil
}

// MutationCalls returns the total number of remote mutations attempted
func (s *MemorySettingsStore) MutationCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.InsertCalls + s.UpdateCalls + s.DeleteCalls
}
