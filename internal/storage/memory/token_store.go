package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Token // keyed by contract address
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]*domain.Token),
	}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// insert adds a token; used by the in-memory SignalStore.
func (s *TokenStore) insert(t *domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ContractAddress]; exists {
		return storage.ErrDuplicateKey
	}

	tokenCopy := *t
	s.data[t.ContractAddress] = &tokenCopy
	return nil
}

// Get retrieves a token by contract address. Returns ErrNotFound if absent.
func (s *TokenStore) Get(_ context.Context, address string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// Exists reports whether a token row exists for the address.
func (s *TokenStore) Exists(_ context.Context, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[address]
	return exists, nil
}

// ListByStatus retrieves tokens in any of the given statuses.
func (s *TokenStore) ListByStatus(_ context.Context, statuses ...domain.TokenStatus) ([]*domain.Token, error) {
	wanted := make(map[domain.TokenStatus]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Token
	for _, t := range s.data {
		if wanted[t.Status] {
			tokenCopy := *t
			result = append(result, &tokenCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ContractAddress < result[j].ContractAddress
	})

	return result, nil
}

// UpdateMarketCap sets market_cap_at_scan for a token.
func (s *TokenStore) UpdateMarketCap(_ context.Context, address string, marketCap float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[address]
	if !exists {
		return storage.ErrNotFound
	}
	t.MarketCapAtScan = marketCap
	return nil
}

// UpdateStatus sets the lifecycle status for a token.
func (s *TokenStore) UpdateStatus(_ context.Context, address string, status domain.TokenStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[address]
	if !exists {
		return storage.ErrNotFound
	}
	t.Status = status
	return nil
}
