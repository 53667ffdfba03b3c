package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// DiscoveredTokenStore implements storage.DiscoveredTokenStore using PostgreSQL.
type DiscoveredTokenStore struct {
	pool *Pool
}

// NewDiscoveredTokenStore creates a new DiscoveredTokenStore.
func NewDiscoveredTokenStore(pool *Pool) *DiscoveredTokenStore {
	return &DiscoveredTokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DiscoveredTokenStore = (*DiscoveredTokenStore)(nil)

const discoveredTokenColumns = `
	id, address, symbol, name, dex, peak_market_cap, current_market_cap,
	launch_market_cap, gain_multiple, pair_created_at, discovered_at,
	status, early_buyers_found
`

// Upsert inserts a winner as pending on first sight, or refreshes current
// market cap and gain multiple on repeat sight. Extraction status is never
// touched on conflict.
func (s *DiscoveredTokenStore) Upsert(ctx context.Context, t *domain.DiscoveredToken) error {
	query := `
		INSERT INTO discovered_tokens (
			address, symbol, name, dex, peak_market_cap, current_market_cap,
			launch_market_cap, gain_multiple, pair_created_at, discovered_at, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (address) DO UPDATE SET
			current_market_cap = EXCLUDED.current_market_cap,
			gain_multiple = EXCLUDED.gain_multiple,
			peak_market_cap = GREATEST(discovered_tokens.peak_market_cap, EXCLUDED.peak_market_cap)
	`

	_, err := s.pool.Exec(ctx, query,
		t.Address, t.Symbol, t.Name, t.Dex,
		t.PeakMarketCap, t.CurrentMarketCap, t.LaunchMarketCap, t.GainMultiple,
		t.PairCreatedAt, t.DiscoveredAt, string(t.Status),
	)
	if err != nil {
		return fmt.Errorf("upsert discovered token: %w", err)
	}
	return nil
}

// GetByAddress retrieves a winner by token address.
func (s *DiscoveredTokenStore) GetByAddress(ctx context.Context, address string) (*domain.DiscoveredToken, error) {
	query := `SELECT ` + discoveredTokenColumns + ` FROM discovered_tokens WHERE address = $1`

	t, err := scanDiscoveredToken(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get discovered token: %w", err)
	}
	return t, nil
}

// ListByStatus retrieves winners in any of the given statuses, ordered by
// gain multiple descending.
func (s *DiscoveredTokenStore) ListByStatus(ctx context.Context, statuses ...domain.DiscoveryStatus) ([]*domain.DiscoveredToken, error) {
	states := make([]string, len(statuses))
	for i, st := range statuses {
		states[i] = string(st)
	}

	query := `
		SELECT ` + discoveredTokenColumns + `
		FROM discovered_tokens
		WHERE status = ANY($1)
		ORDER BY gain_multiple DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, states)
	if err != nil {
		return nil, fmt.Errorf("list discovered tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.DiscoveredToken
	for rows.Next() {
		t, err := scanDiscoveredToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan discovered token row: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discovered token rows: %w", err)
	}
	return tokens, nil
}

// SetStatus transitions a winner's extraction status.
func (s *DiscoveredTokenStore) SetStatus(ctx context.Context, id int64, status domain.DiscoveryStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE discovered_tokens SET status = $2 WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("set discovered token status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkDone sets status done and records how many early buyers were found.
func (s *DiscoveredTokenStore) MarkDone(ctx context.Context, id int64, buyersFound int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE discovered_tokens SET status = $2, early_buyers_found = $3 WHERE id = $1`,
		id, string(domain.DiscoveryDone), buyersFound,
	)
	if err != nil {
		return fmt.Errorf("mark discovered token done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanDiscoveredToken scans a single row into a DiscoveredToken.
func scanDiscoveredToken(row pgx.Row) (*domain.DiscoveredToken, error) {
	var t domain.DiscoveredToken
	var status string

	err := row.Scan(
		&t.ID, &t.Address, &t.Symbol, &t.Name, &t.Dex,
		&t.PeakMarketCap, &t.CurrentMarketCap, &t.LaunchMarketCap, &t.GainMultiple,
		&t.PairCreatedAt, &t.DiscoveredAt, &status, &t.EarlyBuyersFound,
	)
	if err != nil {
		return nil, err
	}

	t.Status = domain.DiscoveryStatus(status)
	return &t, nil
}
