package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// DiscoveredTokenStore is an in-memory implementation of
// storage.DiscoveredTokenStore.
type DiscoveredTokenStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[string]*domain.DiscoveredToken // keyed by address
}

// NewDiscoveredTokenStore creates a new in-memory discovered-token store.
func NewDiscoveredTokenStore() *DiscoveredTokenStore {
	return &DiscoveredTokenStore{
		nextID: 1,
		data:   make(map[string]*domain.DiscoveredToken),
	}
}

// Compile-time interface check.
var _ storage.DiscoveredTokenStore = (*DiscoveredTokenStore)(nil)

// Upsert inserts a winner as pending on first sight, or refreshes current
// market cap and gain multiple on repeat sight.
func (s *DiscoveredTokenStore) Upsert(_ context.Context, t *domain.DiscoveredToken) error {
	if t == nil || t.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[t.Address]; ok {
		existing.CurrentMarketCap = t.CurrentMarketCap
		existing.GainMultiple = t.GainMultiple
		if t.PeakMarketCap > existing.PeakMarketCap {
			existing.PeakMarketCap = t.PeakMarketCap
		}
		return nil
	}

	tokenCopy := *t
	tokenCopy.ID = s.nextID
	s.nextID++
	s.data[t.Address] = &tokenCopy
	return nil
}

// GetByAddress retrieves a winner by token address.
func (s *DiscoveredTokenStore) GetByAddress(_ context.Context, address string) (*domain.DiscoveredToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// ListByStatus retrieves winners in any of the given statuses, ordered by
// gain multiple descending.
func (s *DiscoveredTokenStore) ListByStatus(_ context.Context, statuses ...domain.DiscoveryStatus) ([]*domain.DiscoveredToken, error) {
	wanted := make(map[domain.DiscoveryStatus]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DiscoveredToken
	for _, t := range s.data {
		if wanted[t.Status] {
			tokenCopy := *t
			result = append(result, &tokenCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].GainMultiple != result[j].GainMultiple {
			return result[i].GainMultiple > result[j].GainMultiple
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// SetStatus transitions a winner's extraction status.
func (s *DiscoveredTokenStore) SetStatus(_ context.Context, id int64, status domain.DiscoveryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.data {
		if t.ID == id {
			t.Status = status
			return nil
		}
	}
	return storage.ErrNotFound
}

// MarkDone sets status done and records how many early buyers were found.
func (s *DiscoveredTokenStore) MarkDone(_ context.Context, id int64, buyersFound int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.data {
		if t.ID == id {
			t.Status = domain.DiscoveryDone
			t.EarlyBuyersFound = buyersFound
			return nil
		}
	}
	return storage.ErrNotFound
}

// statusByID returns extraction status and symbol for a winner id.
// Used by the in-memory EarlyBuyerStore to mirror the SQL join.
func (s *DiscoveredTokenStore) statusByID(id int64) (domain.DiscoveryStatus, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.data {
		if t.ID == id {
			return t.Status, t.Symbol, true
		}
	}
	return "", "", false
}
