package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// WalletStore is an in-memory implementation of storage.WalletStore.
type WalletStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TrackedWallet // keyed by address
}

// NewWalletStore creates a new in-memory wallet store.
func NewWalletStore() *WalletStore {
	return &WalletStore{
		data: make(map[string]*domain.TrackedWallet),
	}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// Insert adds a wallet. Returns ErrDuplicateKey if the address is tracked.
func (s *WalletStore) Insert(_ context.Context, w *domain.TrackedWallet) error {
	if w == nil || w.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[w.Address]; exists {
		return storage.ErrDuplicateKey
	}

	walletCopy := *w
	s.data[w.Address] = &walletCopy
	return nil
}

// Get retrieves a wallet by address. Returns ErrNotFound if not tracked.
func (s *WalletStore) Get(_ context.Context, address string) (*domain.TrackedWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	walletCopy := *w
	return &walletCopy, nil
}

// Delete removes a wallet. Returns ErrNotFound if not tracked.
func (s *WalletStore) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[address]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, address)
	return nil
}

// List retrieves all wallets ordered by label.
func (s *WalletStore) List(_ context.Context) ([]*domain.TrackedWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TrackedWallet, 0, len(s.data))
	for _, w := range s.data {
		walletCopy := *w
		result = append(result, &walletCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Label < result[j].Label
	})

	return result, nil
}

// ActiveMatches returns the active wallets whose address is in addrs.
func (s *WalletStore) ActiveMatches(_ context.Context, addrs []string) ([]*domain.TrackedWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TrackedWallet
	for _, addr := range addrs {
		w, exists := s.data[addr]
		if !exists || w.Status != domain.WalletActive {
			continue
		}
		walletCopy := *w
		result = append(result, &walletCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})

	return result, nil
}
