package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// EarlyBuyerStore is an in-memory implementation of storage.EarlyBuyerStore.
// It holds a reference to the discovered-token store to mirror the SQL join
// in AggregateByWallet.
type EarlyBuyerStore struct {
	mu     sync.RWMutex
	nextID int64
	data   []*domain.EarlyBuyer
	tokens *DiscoveredTokenStore
}

// NewEarlyBuyerStore creates a new in-memory early-buyer store.
func NewEarlyBuyerStore(tokens *DiscoveredTokenStore) *EarlyBuyerStore {
	return &EarlyBuyerStore{nextID: 1, tokens: tokens}
}

// Compile-time interface check.
var _ storage.EarlyBuyerStore = (*EarlyBuyerStore)(nil)

// Insert adds a buyer. Returns ErrDuplicateKey if the (token, wallet) pair
// is already recorded.
func (s *EarlyBuyerStore) Insert(_ context.Context, b *domain.EarlyBuyer) error {
	if b == nil || b.TokenAddress == "" || b.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data {
		if existing.TokenAddress == b.TokenAddress && existing.WalletAddress == b.WalletAddress {
			return storage.ErrDuplicateKey
		}
	}

	buyerCopy := *b
	buyerCopy.ID = s.nextID
	s.nextID++
	if buyerCopy.Appearances == 0 {
		buyerCopy.Appearances = 1
	}
	s.data = append(s.data, &buyerCopy)
	return nil
}

// ListByToken retrieves buyers for a token address, earliest entry first.
func (s *EarlyBuyerStore) ListByToken(_ context.Context, tokenAddress string) ([]*domain.EarlyBuyer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EarlyBuyer
	for _, b := range s.data {
		if b.TokenAddress == tokenAddress {
			buyerCopy := *b
			result = append(result, &buyerCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		ti, tj := result[i].EntryTimestamp, result[j].EntryTimestamp
		switch {
		case ti == nil && tj == nil:
			return result[i].ID < result[j].ID
		case ti == nil:
			return false
		case tj == nil:
			return true
		case !ti.Equal(*tj):
			return ti.Before(*tj)
		default:
			return result[i].ID < result[j].ID
		}
	})

	return result, nil
}

// AggregateByWallet groups buyers of winners with status done by wallet,
// keeping wallets that appear in at least minTokens distinct winners.
func (s *EarlyBuyerStore) AggregateByWallet(_ context.Context, minTokens int) ([]*domain.WalletAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		tokens  map[string]bool
		symbols map[string]bool
	}
	byWallet := make(map[string]*agg)

	for _, b := range s.data {
		status, symbol, ok := s.tokens.statusByID(b.TokenID)
		if !ok || status != domain.DiscoveryDone {
			continue
		}

		a, exists := byWallet[b.WalletAddress]
		if !exists {
			a = &agg{tokens: make(map[string]bool), symbols: make(map[string]bool)}
			byWallet[b.WalletAddress] = a
		}
		a.tokens[b.TokenAddress] = true
		if symbol != "" {
			a.symbols[symbol] = true
		}
	}

	var result []*domain.WalletAggregate
	for wallet, a := range byWallet {
		if len(a.tokens) < minTokens {
			continue
		}

		symbols := make([]string, 0, len(a.symbols))
		for sym := range a.symbols {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)

		result = append(result, &domain.WalletAggregate{
			WalletAddress: wallet,
			TokenCount:    len(a.tokens),
			TokenSymbols:  strings.Join(symbols, ", "),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TokenCount != result[j].TokenCount {
			return result[i].TokenCount > result[j].TokenCount
		}
		return result[i].WalletAddress < result[j].WalletAddress
	})

	return result, nil
}
