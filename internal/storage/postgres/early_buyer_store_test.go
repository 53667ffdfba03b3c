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

// insertWinner writes a discovered token and returns its row.
func insertWinner(t *testing.T, store *DiscoveredTokenStore, address string, status domain.DiscoveryStatus) *domain.DiscoveredToken {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, testWinner(address, 250)))
	got, err := store.GetByAddress(ctx, address)
	require.NoError(t, err)

	if status != domain.DiscoveryPending {
		require.NoError(t, store.SetStatus(ctx, got.ID, status))
		got.Status = status
	}
	return got
}

func TestEarlyBuyerStore_InsertAndListByToken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	winners := NewDiscoveredTokenStore(pool)
	store := NewEarlyBuyerStore(pool)
	ctx := context.Background()

	w := insertWinner(t, winners, "TokA", domain.DiscoveryPending)

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	buyers := []*domain.EarlyBuyer{
		{TokenID: w.ID, TokenAddress: w.Address, WalletAddress: "late", EntryTimestamp: ptr(base.Add(time.Minute)), TxSignature: "sig2"},
		{TokenID: w.ID, TokenAddress: w.Address, WalletAddress: "early", EntryTimestamp: ptr(base), TxSignature: "sig1"},
		{TokenID: w.ID, TokenAddress: w.Address, WalletAddress: "notime", TxSignature: "sig3"},
	}
	for _, b := range buyers {
		require.NoError(t, store.Insert(ctx, b))
	}

	list, err := store.ListByToken(ctx, w.Address)
	require.NoError(t, err)

	// Earliest entry first, missing timestamps last.
	require.Len(t, list, 3)
	assert.Equal(t, "early", list[0].WalletAddress)
	assert.Equal(t, "late", list[1].WalletAddress)
	assert.Equal(t, "notime", list[2].WalletAddress)
	assert.Equal(t, 1, list[0].Appearances)
}

func TestEarlyBuyerStore_InsertDuplicatePair(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	winners := NewDiscoveredTokenStore(pool)
	store := NewEarlyBuyerStore(pool)
	ctx := context.Background()

	w := insertWinner(t, winners, "TokB", domain.DiscoveryPending)

	buyer := &domain.EarlyBuyer{TokenID: w.ID, TokenAddress: w.Address, WalletAddress: "wallet1", TxSignature: "sig1"}
	require.NoError(t, store.Insert(ctx, buyer))
	assert.ErrorIs(t, store.Insert(ctx, buyer), storage.ErrDuplicateKey)
}

func TestEarlyBuyerStore_AggregateByWallet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	winners := NewDiscoveredTokenStore(pool)
	store := NewEarlyBuyerStore(pool)
	ctx := context.Background()

	done1 := insertWinner(t, winners, "DoneTok1", domain.DiscoveryDone)
	done2 := insertWinner(t, winners, "DoneTok2", domain.DiscoveryDone)
	pending := insertWinner(t, winners, "PendTok", domain.DiscoveryPending)

	// "repeat" was early into both finished winners plus a pending one that
	// must not count. "solo" was early into one winner only.
	for _, b := range []*domain.EarlyBuyer{
		{TokenID: done1.ID, TokenAddress: done1.Address, WalletAddress: "repeat", TxSignature: "s1"},
		{TokenID: done2.ID, TokenAddress: done2.Address, WalletAddress: "repeat", TxSignature: "s2"},
		{TokenID: pending.ID, TokenAddress: pending.Address, WalletAddress: "repeat", TxSignature: "s3"},
		{TokenID: done1.ID, TokenAddress: done1.Address, WalletAddress: "solo", TxSignature: "s4"},
	} {
		require.NoError(t, store.Insert(ctx, b))
	}

	aggs, err := store.AggregateByWallet(ctx, 2)
	require.NoError(t, err)

	require.Len(t, aggs, 1)
	assert.Equal(t, "repeat", aggs[0].WalletAddress)
	assert.Equal(t, 2, aggs[0].TokenCount)
	assert.Equal(t, "WIN", aggs[0].TokenSymbols)

	aggs, err = store.AggregateByWallet(ctx, 1)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, "repeat", aggs[0].WalletAddress)
	assert.Equal(t, "solo", aggs[1].WalletAddress)
}
