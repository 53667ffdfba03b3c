package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// MarketCapHistoryStore is an in-memory implementation of
// storage.MarketCapHistoryStore.
type MarketCapHistoryStore struct {
	mu   sync.RWMutex
	data []*domain.MarketCapPoint
}

// NewMarketCapHistoryStore creates a new in-memory history store.
func NewMarketCapHistoryStore() *MarketCapHistoryStore {
	return &MarketCapHistoryStore{}
}

// Compile-time interface check.
var _ storage.MarketCapHistoryStore = (*MarketCapHistoryStore)(nil)

// InsertBulk appends observation points.
func (s *MarketCapHistoryStore) InsertBulk(_ context.Context, points []*domain.MarketCapPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		pointCopy := *p
		s.data = append(s.data, &pointCopy)
	}
	return nil
}

// GetByToken retrieves all points for a token, ordered by timestamp ASC.
func (s *MarketCapHistoryStore) GetByToken(_ context.Context, tokenAddress string) ([]*domain.MarketCapPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MarketCapPoint
	for _, p := range s.data {
		if p.TokenAddress == tokenAddress {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}
