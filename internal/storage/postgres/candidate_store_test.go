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

func testCandidate(wallet string, count int) *domain.SmartWalletCandidate {
	return &domain.SmartWalletCandidate{
		WalletAddress: wallet,
		TokenCount:    count,
		TokenSymbols:  "AAA, BBB",
		FirstSeen:     time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCandidateStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandidateStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testCandidate("wallet1", 2)))

	got, err := store.Get(ctx, "wallet1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TokenCount)
	assert.Equal(t, "AAA, BBB", got.TokenSymbols)
	assert.False(t, got.IsPromoted)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCandidateStore_UpsertKeepsPromotion(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandidateStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testCandidate("wallet2", 2)))
	require.NoError(t, store.MarkPromoted(ctx, "wallet2"))

	// A later aggregation pass refreshes the counts but must not demote.
	update := testCandidate("wallet2", 5)
	update.TokenSymbols = "AAA, BBB, CCC, DDD, EEE"
	require.NoError(t, store.Upsert(ctx, update))

	got, err := store.Get(ctx, "wallet2")
	require.NoError(t, err)
	assert.Equal(t, 5, got.TokenCount)
	assert.Equal(t, "AAA, BBB, CCC, DDD, EEE", got.TokenSymbols)
	assert.True(t, got.IsPromoted)
}

func TestCandidateStore_ListPromotable(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandidateStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testCandidate("few", 1)))
	require.NoError(t, store.Upsert(ctx, testCandidate("enough", 2)))
	require.NoError(t, store.Upsert(ctx, testCandidate("more", 4)))
	require.NoError(t, store.Upsert(ctx, testCandidate("already", 3)))
	require.NoError(t, store.MarkPromoted(ctx, "already"))

	promotable, err := store.ListPromotable(ctx, 2)
	require.NoError(t, err)

	require.Len(t, promotable, 2)
	assert.Equal(t, "more", promotable[0].WalletAddress)
	assert.Equal(t, "enough", promotable[1].WalletAddress)
}

func TestCandidateStore_MarkPromotedNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandidateStore(pool)

	err := store.MarkPromoted(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
