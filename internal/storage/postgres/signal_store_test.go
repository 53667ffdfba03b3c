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

func testToken(address string, createdAt time.Time) *domain.Token {
	return &domain.Token{
		ContractAddress: address,
		Symbol:          "TEST",
		CreatedAt:       createdAt,
		DevAddress:      "DevAddr111",
		Status:          domain.TokenBondingCurve,
	}
}

func testSignal(address string, at time.Time) *domain.Signal {
	return &domain.Signal{
		TokenAddress:     address,
		SmartWalletCount: 3,
		ConfidenceScore:  80,
		Timestamp:        at,
	}
}

func TestSignalStore_InsertTokenWithSignal(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSignalStore(pool)
	tokens := NewTokenStore(pool)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	err := store.InsertTokenWithSignal(ctx, testToken("Mint1", now), testSignal("Mint1", now))
	require.NoError(t, err)

	tok, err := tokens.Get(ctx, "Mint1")
	require.NoError(t, err)
	assert.Equal(t, "TEST", tok.Symbol)
	assert.Equal(t, domain.TokenBondingCurve, tok.Status)

	signals, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "Mint1", signals[0].TokenAddress)
	assert.Equal(t, 3, signals[0].SmartWalletCount)
	assert.Equal(t, 80, signals[0].ConfidenceScore)
	assert.False(t, signals[0].IsExecuted)
}

func TestSignalStore_DuplicateTokenWritesNothing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSignalStore(pool)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertTokenWithSignal(ctx, testToken("Mint2", now), testSignal("Mint2", now)))

	err := store.InsertTokenWithSignal(ctx, testToken("Mint2", now), testSignal("Mint2", now.Add(time.Minute)))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// The rolled-back transaction must not leave a second signal behind.
	signals, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, signals, 1)
}

func TestSignalStore_ListRecentOrderAndLimit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSignalStore(pool)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, addr := range []string{"MintA", "MintB", "MintC"} {
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.InsertTokenWithSignal(ctx, testToken(addr, at), testSignal(addr, at)))
	}

	signals, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, signals, 2)
	assert.Equal(t, "MintC", signals[0].TokenAddress)
	assert.Equal(t, "MintB", signals[1].TokenAddress)
}
