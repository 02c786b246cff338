package services

import (
	"context"
	"errors"
	"testing"

	"cryptopath-gateway/internal/models"
	"cryptopath-gateway/internal/store"
	"cryptopath-gateway/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "user-1"

func newTestSettings(t *testing.T) (*SettingsService, *store.MemorySettingsCache, *store.MemorySettingsStore) {
	t.Helper()
	local := store.NewMemorySettingsCache()
	remote := store.NewMemorySettingsStore()
	return NewSettingsService(local, remote, metrics.NewCollector()), local, remote
}

func TestLoadReturnsDefaultsForNewUser(t *testing.T) {
	ss, _, _ := newTestSettings(t)

	settings, err := ss.Load(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Equal(t, models.DefaultUsername, settings.Profile.Username)
	assert.Empty(t, settings.Wallets)
}

func TestLoadBackfillsFromRemote(t *testing.T) {
	ss, local, remote := newTestSettings(t)

	require.NoError(t, remote.UpsertProfile(context.Background(), &models.RemoteProfile{
		UserID:      testUserID,
		DisplayName: "alice",
	}))
	require.NoError(t, remote.InsertWallet(context.Background(), models.RemoteWallet{
		ID:            "w1",
		UserID:        testUserID,
		WalletAddress: testAddress,
		IsDefault:     true,
	}))

	settings, err := ss.Load(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Equal(t, "alice", settings.Profile.Username)
	require.Len(t, settings.Wallets, 1)
	assert.Equal(t, testAddress, settings.Wallets[0].Address)
	assert.True(t, settings.Wallets[0].IsDefault)

	// Backfill lands in the local cache too
	cached, err := local.Load(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "alice", cached.Profile.Username)
}

func TestEmptyUsernameFallsBackToDefault(t *testing.T) {
	ss, _, _ := newTestSettings(t)

	settings, err := ss.UpdateProfile(context.Background(), testUserID, models.ProfileSettings{Username: ""})
	require.NoError(t, err)

	assert.Equal(t, models.DefaultUsername, settings.Profile.Username)
}

func TestSaveProfileOverwritesRemoteUnconditionally(t *testing.T) {
	ss, _, remote := newTestSettings(t)

	require.NoError(t, remote.UpsertProfile(context.Background(), &models.RemoteProfile{
		UserID:      testUserID,
		DisplayName: "edited elsewhere",
	}))

	_, err := ss.Load(context.Background(), testUserID)
	require.NoError(t, err)

	_, err = ss.UpdateProfile(context.Background(), testUserID, models.ProfileSettings{Username: "local name"})
	require.NoError(t, err)

	report, err := ss.SaveProfile(context.Background(), testUserID)
	require.NoError(t, err)
	assert.False(t, report.Failed())

	profile, err := remote.GetProfile(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "local name", profile.DisplayName)
}

func TestHasUnsavedChanges(t *testing.T) {
	ss, _, _ := newTestSettings(t)

	_, err := ss.Load(context.Background(), testUserID)
	require.NoError(t, err)

	dirty, err := ss.HasUnsavedChanges(context.Background(), testUserID)
	require.NoError(t, err)
	assert.False(t, dirty)

	_, err = ss.UpdateProfile(context.Background(), testUserID, models.ProfileSettings{Username: "changed"})
	require.NoError(t, err)

	dirty, err = ss.HasUnsavedChanges(context.Background(), testUserID)
	require.NoError(t, err)
	assert.True(t, dirty)

	_, err = ss.SaveProfile(context.Background(), testUserID)
	require.NoError(t, err)

	dirty, err = ss.HasUnsavedChanges(context.Background(), testUserID)
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestFirstWalletBecomesDefault(t *testing.T) {
	ss, _, _ := newTestSettings(t)

	settings, err := ss.AddWallet(context.Background(), testUserID, testAddress)
	require.NoError(t, err)
	require.Len(t, settings.Wallets, 1)
	assert.True(t, settings.Wallets[0].IsDefault)

	settings, err = ss.AddWallet(context.Background(), testUserID, otherAddress)
	require.NoError(t, err)
	require.Len(t, settings.Wallets, 2)
	assert.False(t, settings.Wallets[1].IsDefault)
}

func TestAddDuplicateWalletRejected(t *testing.T) {
	ss, _, _ := newTestSettings(t)

	_, err := ss.AddWallet(context.Background(), testUserID, testAddress)
	require.NoError(t, err)

	_, err = ss.AddWallet(context.Background(), testUserID, testAddress)
	require.Error(t, err)
}

func TestRemovingDefaultPromotesNext(t *testing.T) {
	ss, _, _ := newTestSettings(t)

	settings, err := ss.AddWallet(context.Background(), testUserID, testAddress)
	require.NoError(t, err)
	defaultID := settings.Wallets[0].ID

	_, err = ss.AddWallet(context.Background(), testUserID, otherAddress)
	require.NoError(t, err)

	settings, err = ss.RemoveWallet(context.Background(), testUserID, defaultID)
	require.NoError(t, err)

	require.Len(t, settings.Wallets, 1)
	assert.Equal(t, otherAddress, settings.Wallets[0].Address)
	assert.True(t, settings.Wallets[0].IsDefault)
}

func TestSetDefaultWalletKeepsSingleDefault(t *testing.T) {
	ss, _, _ := newTestSettings(t)

	settings, err := ss.AddWallet(context.Background(), testUserID, testAddress)
	require.NoError(t, err)
	_ = settings

	settings, err = ss.AddWallet(context.Background(), testUserID, otherAddress)
	require.NoError(t, err)
	secondID := settings.Wallets[1].ID

	settings, err = ss.SetDefaultWallet(context.Background(), testUserID, secondID)
	require.NoError(t, err)

	defaults := 0
	for _, w := range settings.Wallets {
		if w.IsDefault {
			defaults++
			assert.Equal(t, secondID, w.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestSyncReconcilesRemoteToLocal(t *testing.T) {
	ss, _, remote := newTestSettings(t)

	// Remote starts with one wallet the local bundle doesn't have
	require.NoError(t, remote.InsertWallet(context.Background(), models.RemoteWallet{
		ID:            "orphan",
		UserID:        testUserID,
		WalletAddress: "0x3333333333333333333333333333333333333333",
	}))
	remote.InsertCalls = 0

	_, err := ss.Load(context.Background(), testUserID)
	require.NoError(t, err)

	// The local bundle diverges: drop the orphan, add a new wallet
	ss.pending[testUserID].Wallets = []models.WalletRecord{
		{ID: "w-local", Address: testAddress, IsDefault: true},
	}

	report, err := ss.SyncWithRemote(context.Background(), testUserID)
	require.NoError(t, err)

	assert.False(t, report.Failed())
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.Deleted)

	wallets, err := remote.ListWallets(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, testAddress, wallets[0].WalletAddress)
	assert.True(t, wallets[0].IsDefault)
}

func TestSyncUpdatesDriftedDefaultFlag(t *testing.T) {
	ss, _, remote := newTestSettings(t)

	require.NoError(t, remote.InsertWallet(context.Background(), models.RemoteWallet{
		ID:            "w1",
		UserID:        testUserID,
		WalletAddress: testAddress,
		IsDefault:     false,
	}))
	remote.InsertCalls = 0

	_, err := ss.Load(context.Background(), testUserID)
	require.NoError(t, err)
	ss.pending[testUserID].Wallets[0].IsDefault = true

	report, err := ss.SyncWithRemote(context.Background(), testUserID)
	require.NoError(t, err)
	assert.False(t, report.Failed())

	wallets, err := remote.ListWallets(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.True(t, wallets[0].IsDefault)
}

func TestSyncSecondRunIsIdempotent(t *testing.T) {
	ss, _, remote := newTestSettings(t)

	_, err := ss.AddWallet(context.Background(), testUserID, testAddress)
	require.NoError(t, err)
	_, err = ss.AddWallet(context.Background(), testUserID, otherAddress)
	require.NoError(t, err)

	_, err = ss.SyncWithRemote(context.Background(), testUserID)
	require.NoError(t, err)

	before := remote.MutationCalls()

	report, err := ss.SyncWithRemote(context.Background(), testUserID)
	require.NoError(t, err)

	assert.False(t, report.Failed())
	assert.Zero(t, report.Inserted)
	assert.Zero(t, report.Deleted)
	assert.Equal(t, before, remote.MutationCalls(), "a converged second run performs no wallet mutations")
}

func TestSyncContinuesPastFailures(t *testing.T) {
	ss, _, remote := newTestSettings(t)

	_, err := ss.Load(context.Background(), testUserID)
	require.NoError(t, err)
	ss.pending[testUserID].Wallets = []models.WalletRecord{
		{ID: "w1", Address: testAddress, IsDefault: true},
		{ID: "w2", Address: otherAddress},
	}

	remote.InsertHook = func(wallet models.RemoteWallet) error {
		if wallet.WalletAddress == testAddress {
			return errors.New("insert refused")
		}
		return nil
	}

	report, err := ss.SyncWithRemote(context.Background(), testUserID)
	require.NoError(t, err)

	assert.True(t, report.Failed())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "insert_wallet", report.Failures[0].Op)
	assert.Equal(t, testAddress, report.Failures[0].Address)

	// The other wallet still made it through
	assert.Equal(t, 1, report.Inserted)
	wallets, err := remote.ListWallets(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, otherAddress, wallets[0].WalletAddress)
}
