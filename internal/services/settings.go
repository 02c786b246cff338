package services

import (
	"context"
	"sync"
	"time"

	"cryptopath-gateway/internal/models"
	"cryptopath-gateway/internal/store"
	"cryptopath-gateway/pkg/logger"
	"cryptopath-gateway/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettingsService coordinates user settings between the fast local cache
// and the durable remote store. The local copy always wins: reads never
// block on the remote, writes land locally first, and the remote is
// reconciled afterwards on a best-effort basis.
//
// Sync is one-directional (local to remote). Concurrent remote edits from
// elsewhere are overwritten on the next sync; that is the accepted model,
// not a conflict to merge.
type SettingsService struct {
	local   store.SettingsCache
	remote  store.SettingsStore
	metrics *metrics.Collector

	mu      sync.Mutex
	pending map[string]*models.UserSettings
}

// NewSettingsService creates a settings coordinator
func NewSettingsService(local store.SettingsCache, remote store.SettingsStore, collector *metrics.Collector) *SettingsService {
	return &SettingsService{
		local:   local,
		remote:  remote,
		metrics: collector,
		pending: make(map[string]*models.UserSettings),
	}
}

// Load returns the user's working settings. The local cache is consulted
// first; on a cold start the remote store backfills it, and a missing user
// gets the defaults.
func (ss *SettingsService) Load(ctx context.Context, userID string) (*models.UserSettings, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.loadLocked(ctx, userID)
}

func (ss *SettingsService) loadLocked(ctx context.Context, userID string) (*models.UserSettings, error) {
	if working, ok := ss.pending[userID]; ok {
		return working, nil
	}

	log := logger.GetLogger().WithContext(ctx)

	settings, err := ss.local.Load(ctx, userID)
	if err != nil {
		log.Warn("Local settings load failed", zap.Error(err), zap.String("user_id", userID))
	}

	if settings == nil {
		settings = ss.backfillFromRemote(ctx, userID)
		if err := ss.local.Save(ctx, userID, settings); err != nil {
			log.Warn("Local settings backfill save failed", zap.Error(err), zap.String("user_id", userID))
		}
	}

	settings.Profile.Normalize()

	working := cloneSettings(settings)
	ss.pending[userID] = working
	return working, nil
}

// backfillFromRemote rebuilds the settings bundle from the remote store.
// Remote failures degrade to the defaults; settings must stay usable
// offline.
func (ss *SettingsService) backfillFromRemote(ctx context.Context, userID string) *models.UserSettings {
	log := logger.GetLogger().WithContext(ctx)

	settings := &models.UserSettings{
		Profile: models.DefaultProfile(),
		Wallets: []models.WalletRecord{},
	}

	profile, err := ss.remote.GetProfile(ctx, userID)
	if err != nil {
		log.Warn("Remote profile fetch failed, using defaults", zap.Error(err), zap.String("user_id", userID))
	} else if profile != nil {
		settings.Profile = models.ProfileSettings{
			Username:        profile.DisplayName,
			ProfileImage:    profile.ProfileImage,
			BackgroundImage: profile.BackgroundImage,
		}
		settings.Profile.Normalize()
	}

	wallets, err := ss.remote.ListWallets(ctx, userID)
	if err != nil {
		log.Warn("Remote wallet list failed, starting empty", zap.Error(err), zap.String("user_id", userID))
		return settings
	}

	for _, w := range wallets {
		settings.Wallets = append(settings.Wallets, models.WalletRecord{
			ID:        w.ID,
			Address:   w.WalletAddress,
			IsDefault: w.IsDefault,
		})
	}

	return settings
}

// UpdateProfile applies profile edits to the working copy only. Nothing is
// persisted until SaveProfile.
func (ss *SettingsService) UpdateProfile(ctx context.Context, userID string, profile models.ProfileSettings) (*models.UserSettings, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	working, err := ss.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Normalize()
	working.Profile = profile
	return working, nil
}

// SaveProfile persists the working copy locally and then reconciles the
// remote store. The local save is authoritative; remote failures come back
// in the report, never as an error.
func (ss *SettingsService) SaveProfile(ctx context.Context, userID string) (*models.SyncReport, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	working, err := ss.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	working.Profile.Normalize()

	if err := ss.local.Save(ctx, userID, working); err != nil {
		return nil, models.NewStoreError("failed to save settings locally", err)
	}

	report := ss.syncLocked(ctx, userID, working)
	return report, nil
}

// HasUnsavedChanges reports whether the working copy diverges from the
// locally saved bundle
func (ss *SettingsService) HasUnsavedChanges(ctx context.Context, userID string) (bool, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	working, ok := ss.pending[userID]
	if !ok {
		return false, nil
	}

	saved, err := ss.local.Load(ctx, userID)
	if err != nil {
		return false, models.NewStoreError("failed to load saved settings", err)
	}
	if saved == nil {
		return true, nil
	}

	if !working.Profile.Equal(saved.Profile) {
		return true, nil
	}
	if len(working.Wallets) != len(saved.Wallets) {
		return true, nil
	}
	savedByID := make(map[string]models.WalletRecord, len(saved.Wallets))
	for _, w := range saved.Wallets {
		savedByID[w.ID] = w
	}
	for _, w := range working.Wallets {
		s, ok := savedByID[w.ID]
		if !ok || s != w {
			return true, nil
		}
	}

	return false, nil
}

// AddWallet saves a wallet bookmark. The first wallet becomes the default.
// The local write is immediate; the remote insert is best-effort.
func (ss *SettingsService) AddWallet(ctx context.Context, userID, address string) (*models.UserSettings, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	working, err := ss.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, w := range working.Wallets {
		if w.Address == address {
			return nil, models.NewValidationError("wallet already saved", address)
		}
	}

	record := models.WalletRecord{
		ID:        uuid.New().String(),
		Address:   address,
		IsDefault: len(working.Wallets) == 0,
	}
	working.Wallets = append(working.Wallets, record)

	if err := ss.local.Save(ctx, userID, working); err != nil {
		return nil, models.NewStoreError("failed to save settings locally", err)
	}

	if err := ss.remote.InsertWallet(ctx, models.RemoteWallet{
		ID:            record.ID,
		UserID:        userID,
		WalletAddress: record.Address,
		IsDefault:     record.IsDefault,
	}); err != nil {
		logger.GetLogger().WithContext(ctx).Warn("Remote wallet insert failed, will reconcile on next sync",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("wallet_address", address),
		)
	}

	return working, nil
}

// RemoveWallet deletes a saved wallet. When the default is removed and
// other wallets remain, the first remaining one is promoted so the
// collection keeps exactly one default.
func (ss *SettingsService) RemoveWallet(ctx context.Context, userID, id string) (*models.UserSettings, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	working, err := ss.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, w := range working.Wallets {
		if w.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, models.NewValidationError("wallet not found", id)
	}

	removed := working.Wallets[idx]
	working.Wallets = append(working.Wallets[:idx], working.Wallets[idx+1:]...)

	var promoted *models.WalletRecord
	if removed.IsDefault && len(working.Wallets) > 0 {
		working.Wallets[0].IsDefault = true
		promoted = &working.Wallets[0]
	}

	if err := ss.local.Save(ctx, userID, working); err != nil {
		return nil, models.NewStoreError("failed to save settings locally", err)
	}

	log := logger.GetLogger().WithContext(ctx)
	if err := ss.remote.DeleteWallet(ctx, removed.ID); err != nil {
		log.Warn("Remote wallet delete failed, will reconcile on next sync",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("wallet_address", removed.Address),
		)
	}
	if promoted != nil {
		if err := ss.remote.UpdateWalletDefault(ctx, promoted.ID, true); err != nil {
			log.Warn("Remote default promotion failed, will reconcile on next sync",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("wallet_address", promoted.Address),
			)
		}
	}

	return working, nil
}

// SetDefaultWallet marks one wallet as default and clears the flag from
// the rest
func (ss *SettingsService) SetDefaultWallet(ctx context.Context, userID, id string) (*models.UserSettings, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	working, err := ss.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range working.Wallets {
		if working.Wallets[i].ID == id {
			found = true
			break
		}
	}
	if !found {
		return nil, models.NewValidationError("wallet not found", id)
	}

	log := logger.GetLogger().WithContext(ctx)
	for i := range working.Wallets {
		isDefault := working.Wallets[i].ID == id
		if working.Wallets[i].IsDefault == isDefault {
			continue
		}
		working.Wallets[i].IsDefault = isDefault

		if err := ss.remote.UpdateWalletDefault(ctx, working.Wallets[i].ID, isDefault); err != nil {
			log.Warn("Remote default update failed, will reconcile on next sync",
				zap.Error(err),
				zap.String("user_id", userID),
				zap.String("wallet_address", working.Wallets[i].Address),
			)
		}
	}

	if err := ss.local.Save(ctx, userID, working); err != nil {
		return nil, models.NewStoreError("failed to save settings locally", err)
	}

	return working, nil
}

// SyncWithRemote pushes the local bundle to the remote store and returns a
// per-operation report
func (ss *SettingsService) SyncWithRemote(ctx context.Context, userID string) (*models.SyncReport, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	working, err := ss.loadLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	return ss.syncLocked(ctx, userID, working), nil
}

// syncLocked reconciles the remote store to match the local bundle. The
// profile is overwritten unconditionally; wallets are diffed by address
// with inserts for missing rows, default-flag updates for drifted rows,
// and deletes for rows absent locally. Each mutation fails independently;
// the run continues past failures and nothing is rolled back.
func (ss *SettingsService) syncLocked(ctx context.Context, userID string, working *models.UserSettings) *models.SyncReport {
	start := time.Now()
	log := logger.GetLogger().WithContext(ctx)
	report := &models.SyncReport{}

	if err := ss.remote.UpsertProfile(ctx, &models.RemoteProfile{
		UserID:          userID,
		DisplayName:     working.Profile.Username,
		ProfileImage:    working.Profile.ProfileImage,
		BackgroundImage: working.Profile.BackgroundImage,
		UpdatedAt:       time.Now().UTC(),
	}); err != nil {
		log.Warn("Profile sync failed", zap.Error(err), zap.String("user_id", userID))
		report.Failures = append(report.Failures, models.SyncFailure{
			Op:    "upsert_profile",
			Error: err.Error(),
		})
	} else {
		report.Updated++
	}

	remoteWallets, err := ss.remote.ListWallets(ctx, userID)
	if err != nil {
		log.Warn("Remote wallet list failed, skipping wallet sync", zap.Error(err), zap.String("user_id", userID))
		report.Failures = append(report.Failures, models.SyncFailure{
			Op:    "list_wallets",
			Error: err.Error(),
		})
		ss.metrics.RecordSyncRun(!report.Failed())
		return report
	}

	remoteByAddress := make(map[string]models.RemoteWallet, len(remoteWallets))
	for _, w := range remoteWallets {
		remoteByAddress[w.WalletAddress] = w
	}
	localByAddress := make(map[string]models.WalletRecord, len(working.Wallets))
	for _, w := range working.Wallets {
		localByAddress[w.Address] = w
	}

	for _, local := range working.Wallets {
		remote, exists := remoteByAddress[local.Address]
		if !exists {
			if err := ss.remote.InsertWallet(ctx, models.RemoteWallet{
				ID:            local.ID,
				UserID:        userID,
				WalletAddress: local.Address,
				IsDefault:     local.IsDefault,
			}); err != nil {
				report.Failures = append(report.Failures, models.SyncFailure{
					Op:      "insert_wallet",
					Address: local.Address,
					Error:   err.Error(),
				})
				continue
			}
			report.Inserted++
			continue
		}

		if remote.IsDefault != local.IsDefault {
			if err := ss.remote.UpdateWalletDefault(ctx, remote.ID, local.IsDefault); err != nil {
				report.Failures = append(report.Failures, models.SyncFailure{
					Op:      "update_wallet",
					Address: local.Address,
					Error:   err.Error(),
				})
				continue
			}
			report.Updated++
		}
	}

	for _, remote := range remoteWallets {
		if _, exists := localByAddress[remote.WalletAddress]; exists {
			continue
		}
		if err := ss.remote.DeleteWallet(ctx, remote.ID); err != nil {
			report.Failures = append(report.Failures, models.SyncFailure{
				Op:      "delete_wallet",
				Address: remote.WalletAddress,
				Error:   err.Error(),
			})
			continue
		}
		report.Deleted++
	}

	ss.metrics.RecordSyncRun(!report.Failed())

	log.Info("Settings sync completed",
		zap.String("user_id", userID),
		zap.Duration("sync_duration", time.Since(start)),
		zap.Int("inserted", report.Inserted),
		zap.Int("updated", report.Updated),
		zap.Int("deleted", report.Deleted),
		zap.Int("failures", len(report.Failures)),
	)

	return report
}

func cloneSettings(s *models.UserSettings) *models.UserSettings {
	clone := &models.UserSettings{
		Profile: s.Profile,
		Wallets: make([]models.WalletRecord, len(s.Wallets)),
	}
	copy(clone.Wallets, s.Wallets)
	return clone
}
