package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore and
// storage.SignalWriter. It shares the token map with a TokenStore so that
// the token+signal write is atomic the way the Postgres transaction is.
type SignalStore struct {
	mu     sync.RWMutex
	nextID int64
	data   []*domain.Signal
	tokens *TokenStore
}

// NewSignalStore creates a new in-memory signal store writing tokens
// through the given token store.
func NewSignalStore(tokens *TokenStore) *SignalStore {
	return &SignalStore{nextID: 1, tokens: tokens}
}

// Compile-time interface checks.
var (
	_ storage.SignalStore  = (*SignalStore)(nil)
	_ storage.SignalWriter = (*SignalStore)(nil)
)

// InsertTokenWithSignal writes both rows atomically. Returns ErrDuplicateKey
// when the token already exists; in that case neither row is written.
func (s *SignalStore) InsertTokenWithSignal(_ context.Context, t *domain.Token, sig *domain.Signal) error {
	if t == nil || sig == nil || t.ContractAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tokens.insert(t); err != nil {
		return err
	}

	sigCopy := *sig
	sigCopy.ID = s.nextID
	s.nextID++
	s.data = append(s.data, &sigCopy)
	return nil
}

// ListRecent retrieves the most recent signals, newest first.
func (s *SignalStore) ListRecent(_ context.Context, limit int) ([]*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Signal, 0, len(s.data))
	for _, sig := range s.data {
		sigCopy := *sig
		result = append(result, &sigCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
