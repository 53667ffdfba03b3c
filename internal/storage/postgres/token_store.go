package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Get retrieves a token by contract address. Returns ErrNotFound if absent.
func (s *TokenStore) Get(ctx context.Context, address string) (*domain.Token, error) {
	query := `
		SELECT contract_address, symbol, created_at, dev_address, market_cap_at_scan, status
		FROM tokens
		WHERE contract_address = $1
	`

	t, err := scanToken(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}

// Exists reports whether a token row exists for the address.
func (s *TokenStore) Exists(ctx context.Context, address string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tokens WHERE contract_address = $1)`, address,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("token exists: %w", err)
	}
	return exists, nil
}

// ListByStatus retrieves tokens in any of the given statuses.
func (s *TokenStore) ListByStatus(ctx context.Context, statuses ...domain.TokenStatus) ([]*domain.Token, error) {
	states := make([]string, len(statuses))
	for i, st := range statuses {
		states[i] = string(st)
	}

	query := `
		SELECT contract_address, symbol, created_at, dev_address, market_cap_at_scan, status
		FROM tokens
		WHERE status = ANY($1)
		ORDER BY created_at ASC, contract_address ASC
	`

	rows, err := s.pool.Query(ctx, query, states)
	if err != nil {
		return nil, fmt.Errorf("list tokens by status: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.Token
	for rows.Next() {
		var t domain.Token
		var status string
		if err := rows.Scan(&t.ContractAddress, &t.Symbol, &t.CreatedAt,
			&t.DevAddress, &t.MarketCapAtScan, &status); err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		t.Status = domain.TokenStatus(status)
		tokens = append(tokens, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}
	return tokens, nil
}

// UpdateMarketCap sets market_cap_at_scan for a token.
func (s *TokenStore) UpdateMarketCap(ctx context.Context, address string, marketCap float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tokens SET market_cap_at_scan = $2 WHERE contract_address = $1`,
		address, marketCap,
	)
	if err != nil {
		return fmt.Errorf("update token market cap: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateStatus sets the lifecycle status for a token.
func (s *TokenStore) UpdateStatus(ctx context.Context, address string, status domain.TokenStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tokens SET status = $2 WHERE contract_address = $1`,
		address, string(status),
	)
	if err != nil {
		return fmt.Errorf("update token status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanToken scans a single row into a Token.
func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token
	var status string

	err := row.Scan(&t.ContractAddress, &t.Symbol, &t.CreatedAt,
		&t.DevAddress, &t.MarketCapAtScan, &status)
	if err != nil {
		return nil, err
	}

	t.Status = domain.TokenStatus(status)
	return &t, nil
}
