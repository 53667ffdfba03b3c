package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// WalletStore implements storage.WalletStore using PostgreSQL.
type WalletStore struct {
	pool *Pool
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(pool *Pool) *WalletStore {
	return &WalletStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WalletStore = (*WalletStore)(nil)

// Insert adds a wallet. Returns ErrDuplicateKey if the address is tracked.
func (s *WalletStore) Insert(ctx context.Context, w *domain.TrackedWallet) error {
	query := `
		INSERT INTO tracked_wallets (address, label, status, source, tracked_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		w.Address,
		w.Label,
		string(w.Status),
		string(w.Source),
		w.TrackedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// Get retrieves a wallet by address. Returns ErrNotFound if not tracked.
func (s *WalletStore) Get(ctx context.Context, address string) (*domain.TrackedWallet, error) {
	query := `
		SELECT address, label, status, source, tracked_at
		FROM tracked_wallets
		WHERE address = $1
	`

	var w domain.TrackedWallet
	var status, source string
	err := s.pool.QueryRow(ctx, query, address).Scan(
		&w.Address, &w.Label, &status, &source, &w.TrackedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	w.Status = domain.WalletStatus(status)
	w.Source = domain.WalletSource(source)
	return &w, nil
}

// Delete removes a wallet. Returns ErrNotFound if not tracked.
func (s *WalletStore) Delete(ctx context.Context, address string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tracked_wallets WHERE address = $1`, address)
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List retrieves all wallets ordered by label.
func (s *WalletStore) List(ctx context.Context) ([]*domain.TrackedWallet, error) {
	query := `
		SELECT address, label, status, source, tracked_at
		FROM tracked_wallets
		ORDER BY label ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	return scanWallets(rows)
}

// ActiveMatches returns the active wallets whose address is in addrs.
func (s *WalletStore) ActiveMatches(ctx context.Context, addrs []string) ([]*domain.TrackedWallet, error) {
	if len(addrs) == 0 {
		return nil, nil
	}

	query := `
		SELECT address, label, status, source, tracked_at
		FROM tracked_wallets
		WHERE address = ANY($1) AND status = $2
		ORDER BY address ASC
	`

	rows, err := s.pool.Query(ctx, query, addrs, string(domain.WalletActive))
	if err != nil {
		return nil, fmt.Errorf("match active wallets: %w", err)
	}
	defer rows.Close()

	return scanWallets(rows)
}

// scanWallets scans multiple rows into a slice of TrackedWallet.
func scanWallets(rows pgx.Rows) ([]*domain.TrackedWallet, error) {
	var wallets []*domain.TrackedWallet

	for rows.Next() {
		var w domain.TrackedWallet
		var status, source string

		if err := rows.Scan(&w.Address, &w.Label, &status, &source, &w.TrackedAt); err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}

		w.Status = domain.WalletStatus(status)
		w.Source = domain.WalletSource(source)
		wallets = append(wallets, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}

	return wallets, nil
}
