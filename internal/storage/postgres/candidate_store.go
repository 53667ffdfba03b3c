package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// CandidateStore implements storage.CandidateStore using PostgreSQL.
type CandidateStore struct {
	pool *Pool
}

// NewCandidateStore creates a new CandidateStore.
func NewCandidateStore(pool *Pool) *CandidateStore {
	return &CandidateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CandidateStore = (*CandidateStore)(nil)

// Upsert inserts a candidate, or updates token_count and token_symbols if
// the wallet is already recorded. is_promoted is never lowered here.
func (s *CandidateStore) Upsert(ctx context.Context, c *domain.SmartWalletCandidate) error {
	query := `
		INSERT INTO smart_wallet_candidates (wallet_address, token_count, token_symbols, first_seen, is_promoted)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (wallet_address) DO UPDATE SET
			token_count = EXCLUDED.token_count,
			token_symbols = EXCLUDED.token_symbols
	`

	_, err := s.pool.Exec(ctx, query,
		c.WalletAddress, c.TokenCount, c.TokenSymbols, c.FirstSeen, c.IsPromoted,
	)
	if err != nil {
		return fmt.Errorf("upsert candidate: %w", err)
	}
	return nil
}

// Get retrieves a candidate by wallet address.
func (s *CandidateStore) Get(ctx context.Context, walletAddress string) (*domain.SmartWalletCandidate, error) {
	query := `
		SELECT id, wallet_address, token_count, token_symbols, first_seen, is_promoted
		FROM smart_wallet_candidates
		WHERE wallet_address = $1
	`

	c, err := scanCandidate(s.pool.QueryRow(ctx, query, walletAddress))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

// List retrieves all candidates ordered by token count descending.
func (s *CandidateStore) List(ctx context.Context) ([]*domain.SmartWalletCandidate, error) {
	query := `
		SELECT id, wallet_address, token_count, token_symbols, first_seen, is_promoted
		FROM smart_wallet_candidates
		ORDER BY token_count DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// ListPromotable retrieves unpromoted candidates with at least minTokens.
func (s *CandidateStore) ListPromotable(ctx context.Context, minTokens int) ([]*domain.SmartWalletCandidate, error) {
	query := `
		SELECT id, wallet_address, token_count, token_symbols, first_seen, is_promoted
		FROM smart_wallet_candidates
		WHERE token_count >= $1 AND is_promoted = FALSE
		ORDER BY token_count DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, minTokens)
	if err != nil {
		return nil, fmt.Errorf("list promotable candidates: %w", err)
	}
	defer rows.Close()

	return scanCandidates(rows)
}

// MarkPromoted sets is_promoted. Promotion is monotonic.
func (s *CandidateStore) MarkPromoted(ctx context.Context, walletAddress string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE smart_wallet_candidates SET is_promoted = TRUE WHERE wallet_address = $1`,
		walletAddress,
	)
	if err != nil {
		return fmt.Errorf("mark candidate promoted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanCandidate scans a single row into a SmartWalletCandidate.
func scanCandidate(row pgx.Row) (*domain.SmartWalletCandidate, error) {
	var c domain.SmartWalletCandidate
	err := row.Scan(&c.ID, &c.WalletAddress, &c.TokenCount, &c.TokenSymbols,
		&c.FirstSeen, &c.IsPromoted)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanCandidates scans multiple rows into a slice of SmartWalletCandidate.
func scanCandidates(rows pgx.Rows) ([]*domain.SmartWalletCandidate, error) {
	var candidates []*domain.SmartWalletCandidate

	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}
	return candidates, nil
}
