package postgres

import (
	"context"
	"fmt"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// EarlyBuyerStore implements storage.EarlyBuyerStore using PostgreSQL.
type EarlyBuyerStore struct {
	pool *Pool
}

// NewEarlyBuyerStore creates a new EarlyBuyerStore.
func NewEarlyBuyerStore(pool *Pool) *EarlyBuyerStore {
	return &EarlyBuyerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EarlyBuyerStore = (*EarlyBuyerStore)(nil)

// Insert adds a buyer. Returns ErrDuplicateKey if the (token, wallet) pair
// is already recorded.
func (s *EarlyBuyerStore) Insert(ctx context.Context, b *domain.EarlyBuyer) error {
	appearances := b.Appearances
	if appearances == 0 {
		appearances = 1
	}

	query := `
		INSERT INTO early_buyers (
			token_id, token_address, wallet_address, entry_timestamp, tx_signature, appearances
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		b.TokenID, b.TokenAddress, b.WalletAddress,
		b.EntryTimestamp, b.TxSignature, appearances,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert early buyer: %w", err)
	}
	return nil
}

// ListByToken retrieves buyers for a token address, earliest entry first.
func (s *EarlyBuyerStore) ListByToken(ctx context.Context, tokenAddress string) ([]*domain.EarlyBuyer, error) {
	query := `
		SELECT id, token_id, token_address, wallet_address, entry_timestamp, tx_signature, appearances
		FROM early_buyers
		WHERE token_address = $1
		ORDER BY entry_timestamp ASC NULLS LAST, id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("list early buyers: %w", err)
	}
	defer rows.Close()

	var buyers []*domain.EarlyBuyer
	for rows.Next() {
		var b domain.EarlyBuyer
		if err := rows.Scan(&b.ID, &b.TokenID, &b.TokenAddress, &b.WalletAddress,
			&b.EntryTimestamp, &b.TxSignature, &b.Appearances); err != nil {
			return nil, fmt.Errorf("scan early buyer row: %w", err)
		}
		buyers = append(buyers, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate early buyer rows: %w", err)
	}
	return buyers, nil
}

// AggregateByWallet groups buyers of winners with status done by wallet,
// keeping wallets that appear in at least minTokens distinct winners.
func (s *EarlyBuyerStore) AggregateByWallet(ctx context.Context, minTokens int) ([]*domain.WalletAggregate, error) {
	query := `
		SELECT
			eb.wallet_address,
			COUNT(DISTINCT eb.token_address) AS token_count,
			STRING_AGG(DISTINCT dt.symbol, ', ') AS token_symbols
		FROM early_buyers eb
		JOIN discovered_tokens dt ON dt.id = eb.token_id
		WHERE dt.status = $1
		GROUP BY eb.wallet_address
		HAVING COUNT(DISTINCT eb.token_address) >= $2
		ORDER BY token_count DESC, eb.wallet_address ASC
	`

	rows, err := s.pool.Query(ctx, query, string(domain.DiscoveryDone), minTokens)
	if err != nil {
		return nil, fmt.Errorf("aggregate early buyers: %w", err)
	}
	defer rows.Close()

	var aggs []*domain.WalletAggregate
	for rows.Next() {
		var a domain.WalletAggregate
		if err := rows.Scan(&a.WalletAddress, &a.TokenCount, &a.TokenSymbols); err != nil {
			return nil, fmt.Errorf("scan wallet aggregate row: %w", err)
		}
		aggs = append(aggs, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet aggregate rows: %w", err)
	}
	return aggs, nil
}
