package postgres

import (
	"context"
	"fmt"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// SignalStore implements storage.SignalStore and storage.SignalWriter
// using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface checks.
var (
	_ storage.SignalStore  = (*SignalStore)(nil)
	_ storage.SignalWriter = (*SignalStore)(nil)
)

// InsertTokenWithSignal writes both rows atomically. Returns ErrDuplicateKey
// when the token already exists; in that case neither row is written.
func (s *SignalStore) InsertTokenWithSignal(ctx context.Context, t *domain.Token, sig *domain.Signal) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin signal tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO tokens (contract_address, symbol, created_at, dev_address, market_cap_at_scan, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.ContractAddress, t.Symbol, t.CreatedAt, t.DevAddress, t.MarketCapAtScan, string(t.Status))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO signals (token_address, smart_wallet_count, confidence_score, timestamp, is_executed)
		VALUES ($1, $2, $3, $4, $5)
	`, sig.TokenAddress, sig.SmartWalletCount, sig.ConfidenceScore, sig.Timestamp, sig.IsExecuted)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit signal tx: %w", err)
	}
	return nil
}

// ListRecent retrieves the most recent signals, newest first.
func (s *SignalStore) ListRecent(ctx context.Context, limit int) ([]*domain.Signal, error) {
	query := `
		SELECT id, token_address, smart_wallet_count, confidence_score, timestamp, is_executed
		FROM signals
		ORDER BY timestamp DESC, id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent signals: %w", err)
	}
	defer rows.Close()

	var signals []*domain.Signal
	for rows.Next() {
		var sig domain.Signal
		if err := rows.Scan(&sig.ID, &sig.TokenAddress, &sig.SmartWalletCount,
			&sig.ConfidenceScore, &sig.Timestamp, &sig.IsExecuted); err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}
		signals = append(signals, &sig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signal rows: %w", err)
	}
	return signals, nil
}
