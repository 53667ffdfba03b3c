package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

func TestWalletStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWalletStore(pool)
	ctx := context.Background()

	wallet := &domain.TrackedWallet{
		Address:   "WalletAddr1111111111111111111111111111111111",
		Label:     "Whale #1",
		Status:    domain.WalletActive,
		Source:    domain.WalletSourceManual,
		TrackedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	err := store.Insert(ctx, wallet)
	require.NoError(t, err)

	retrieved, err := store.Get(ctx, wallet.Address)
	require.NoError(t, err)

	assert.Equal(t, wallet.Address, retrieved.Address)
	assert.Equal(t, wallet.Label, retrieved.Label)
	assert.Equal(t, domain.WalletActive, retrieved.Status)
	assert.Equal(t, domain.WalletSourceManual, retrieved.Source)
	assert.True(t, wallet.TrackedAt.Equal(retrieved.TrackedAt))
}

func TestWalletStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWalletStore(pool)
	ctx := context.Background()

	wallet := &domain.TrackedWallet{
		Address:   "WalletDup1111111111111111111111111111111111",
		Label:     "dup",
		Status:    domain.WalletActive,
		Source:    domain.WalletSourceManual,
		TrackedAt: time.Now().UTC(),
	}

	require.NoError(t, store.Insert(ctx, wallet))
	assert.ErrorIs(t, store.Insert(ctx, wallet), storage.ErrDuplicateKey)
}

func TestWalletStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWalletStore(pool)

	_, err := store.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWalletStore_Delete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWalletStore(pool)
	ctx := context.Background()

	wallet := &domain.TrackedWallet{
		Address:   "WalletDel1111111111111111111111111111111111",
		Label:     "gone",
		Status:    domain.WalletActive,
		Source:    domain.WalletSourceManual,
		TrackedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Insert(ctx, wallet))

	require.NoError(t, store.Delete(ctx, wallet.Address))

	_, err := store.Get(ctx, wallet.Address)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, wallet.Address), storage.ErrNotFound)
}

func TestWalletStore_ActiveMatches(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWalletStore(pool)
	ctx := context.Background()

	wallets := []*domain.TrackedWallet{
		{Address: "ActiveA", Label: "a", Status: domain.WalletActive, Source: domain.WalletSourceManual, TrackedAt: time.Now().UTC()},
		{Address: "ActiveB", Label: "b", Status: domain.WalletActive, Source: domain.WalletSourceDiscovery, TrackedAt: time.Now().UTC()},
		{Address: "PausedC", Label: "c", Status: domain.WalletPaused, Source: domain.WalletSourceManual, TrackedAt: time.Now().UTC()},
	}
	for _, w := range wallets {
		require.NoError(t, store.Insert(ctx, w))
	}

	// PausedC is tracked but inactive; ActiveB is not in the probe set.
	matches, err := store.ActiveMatches(ctx, []string{"ActiveA", "PausedC", "Stranger"})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "ActiveA", matches[0].Address)
}

func TestWalletStore_ActiveMatchesEmptyInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWalletStore(pool)

	matches, err := store.ActiveMatches(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWalletStore_ListOrderedByLabel(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWalletStore(pool)
	ctx := context.Background()

	for _, w := range []*domain.TrackedWallet{
		{Address: "AddrZ", Label: "zeta", Status: domain.WalletActive, Source: domain.WalletSourceManual, TrackedAt: time.Now().UTC()},
		{Address: "AddrA", Label: "alpha", Status: domain.WalletActive, Source: domain.WalletSourceManual, TrackedAt: time.Now().UTC()},
	} {
		require.NoError(t, store.Insert(ctx, w))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Label)
	assert.Equal(t, "zeta", list[1].Label)
}
