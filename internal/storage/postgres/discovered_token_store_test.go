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

func testWinner(address string, gain float64) *domain.DiscoveredToken {
	created := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	return &domain.DiscoveredToken{
		Address:          address,
		Symbol:           "WIN",
		Name:             "Winner",
		Dex:              "pumpswap",
		PeakMarketCap:    gain * 5_000,
		CurrentMarketCap: gain * 5_000,
		LaunchMarketCap:  5_000,
		GainMultiple:     gain,
		PairCreatedAt:    ptr(created),
		DiscoveredAt:     created.Add(time.Hour),
		Status:           domain.DiscoveryPending,
	}
}

func TestDiscoveredTokenStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDiscoveredTokenStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testWinner("WinA", 250)))

	got, err := store.GetByAddress(ctx, "WinA")
	require.NoError(t, err)
	assert.Equal(t, "WIN", got.Symbol)
	assert.Equal(t, domain.DiscoveryPending, got.Status)
	assert.Equal(t, 250.0, got.GainMultiple)
	require.NotNil(t, got.PairCreatedAt)

	_, err = store.GetByAddress(ctx, "Missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDiscoveredTokenStore_UpsertRefreshesMarketData(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDiscoveredTokenStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testWinner("WinB", 300)))

	first, err := store.GetByAddress(ctx, "WinB")
	require.NoError(t, err)
	require.NoError(t, store.MarkDone(ctx, first.ID, 12))

	// Re-sighting with lower current MC must not lower the peak and must not
	// reset the extraction status.
	again := testWinner("WinB", 200)
	require.NoError(t, store.Upsert(ctx, again))

	got, err := store.GetByAddress(ctx, "WinB")
	require.NoError(t, err)
	assert.Equal(t, 200.0, got.GainMultiple)
	assert.Equal(t, 200*5_000.0, got.CurrentMarketCap)
	assert.Equal(t, 300*5_000.0, got.PeakMarketCap)
	assert.Equal(t, domain.DiscoveryDone, got.Status)
	assert.Equal(t, 12, got.EarlyBuyersFound)
}

func TestDiscoveredTokenStore_ListByStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDiscoveredTokenStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testWinner("WinC", 220)))
	require.NoError(t, store.Upsert(ctx, testWinner("WinD", 400)))

	done := testWinner("WinE", 500)
	require.NoError(t, store.Upsert(ctx, done))
	got, err := store.GetByAddress(ctx, "WinE")
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(ctx, got.ID, domain.DiscoveryProcessing))

	pending, err := store.ListByStatus(ctx, domain.DiscoveryPending)
	require.NoError(t, err)

	// Ordered by gain multiple descending.
	require.Len(t, pending, 2)
	assert.Equal(t, "WinD", pending[0].Address)
	assert.Equal(t, "WinC", pending[1].Address)
}

func TestDiscoveredTokenStore_SetStatusNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDiscoveredTokenStore(pool)

	err := store.SetStatus(context.Background(), 9999, domain.DiscoveryError)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
