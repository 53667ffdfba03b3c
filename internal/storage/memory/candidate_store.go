package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// CandidateStore is an in-memory implementation of storage.CandidateStore.
type CandidateStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[string]*domain.SmartWalletCandidate // keyed by wallet address
}

// NewCandidateStore creates a new in-memory candidate store.
func NewCandidateStore() *CandidateStore {
	return &CandidateStore{
		nextID: 1,
		data:   make(map[string]*domain.SmartWalletCandidate),
	}
}

// Compile-time interface check.
var _ storage.CandidateStore = (*CandidateStore)(nil)

// Upsert inserts a candidate, or updates token_count and token_symbols if
// the wallet is already recorded. is_promoted is never lowered here.
func (s *CandidateStore) Upsert(_ context.Context, c *domain.SmartWalletCandidate) error {
	if c == nil || c.WalletAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[c.WalletAddress]; ok {
		existing.TokenCount = c.TokenCount
		existing.TokenSymbols = c.TokenSymbols
		return nil
	}

	candidateCopy := *c
	candidateCopy.ID = s.nextID
	s.nextID++
	s.data[c.WalletAddress] = &candidateCopy
	return nil
}

// Get retrieves a candidate by wallet address.
func (s *CandidateStore) Get(_ context.Context, walletAddress string) (*domain.SmartWalletCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[walletAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}

	candidateCopy := *c
	return &candidateCopy, nil
}

// List retrieves all candidates ordered by token count descending.
func (s *CandidateStore) List(_ context.Context) ([]*domain.SmartWalletCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SmartWalletCandidate, 0, len(s.data))
	for _, c := range s.data {
		candidateCopy := *c
		result = append(result, &candidateCopy)
	}

	sortCandidates(result)
	return result, nil
}

// ListPromotable retrieves unpromoted candidates with at least minTokens.
func (s *CandidateStore) ListPromotable(_ context.Context, minTokens int) ([]*domain.SmartWalletCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SmartWalletCandidate
	for _, c := range s.data {
		if c.IsPromoted || c.TokenCount < minTokens {
			continue
		}
		candidateCopy := *c
		result = append(result, &candidateCopy)
	}

	sortCandidates(result)
	return result, nil
}

// MarkPromoted sets is_promoted. Promotion is monotonic.
func (s *CandidateStore) MarkPromoted(_ context.Context, walletAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.data[walletAddress]
	if !exists {
		return storage.ErrNotFound
	}
	c.IsPromoted = true
	return nil
}

func sortCandidates(candidates []*domain.SmartWalletCandidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].TokenCount != candidates[j].TokenCount {
			return candidates[i].TokenCount > candidates[j].TokenCount
		}
		return candidates[i].ID < candidates[j].ID
	})
}
