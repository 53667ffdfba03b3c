package storage

import (
	"context"

	"solana-sniper-stack/internal/domain"
)

// WalletStore provides access to the tracked_wallets roster.
type WalletStore interface {
	// Insert adds a wallet. Returns ErrDuplicateKey if the address is tracked.
	Insert(ctx context.Context, w *domain.TrackedWallet) error

	// Get retrieves a wallet by address. Returns ErrNotFound if not tracked.
	Get(ctx context.Context, address string) (*domain.TrackedWallet, error)

	// Delete removes a wallet. Returns ErrNotFound if not tracked.
	Delete(ctx context.Context, address string) error

	// List retrieves all wallets ordered by label.
	List(ctx context.Context) ([]*domain.TrackedWallet, error)

	// ActiveMatches returns the active wallets whose address is in addrs.
	ActiveMatches(ctx context.Context, addrs []string) ([]*domain.TrackedWallet, error)
}

// TokenStore provides access to scanned tokens.
type TokenStore interface {
	// Get retrieves a token by contract address. Returns ErrNotFound if absent.
	Get(ctx context.Context, address string) (*domain.Token, error)

	// Exists reports whether a token row exists for the address.
	Exists(ctx context.Context, address string) (bool, error)

	// ListByStatus retrieves tokens in any of the given statuses.
	ListByStatus(ctx context.Context, statuses ...domain.TokenStatus) ([]*domain.Token, error)

	// UpdateMarketCap sets market_cap_at_scan for a token.
	UpdateMarketCap(ctx context.Context, address string, marketCap float64) error

	// UpdateStatus sets the lifecycle status for a token.
	UpdateStatus(ctx context.Context, address string, status domain.TokenStatus) error
}

// SignalStore provides read access to emitted signals.
type SignalStore interface {
	// ListRecent retrieves the most recent signals, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Signal, error)
}

// SignalWriter persists a token and its signal in one transaction.
// The analyzer is the only producer.
type SignalWriter interface {
	// InsertTokenWithSignal writes both rows atomically. Returns
	// ErrDuplicateKey when the token already exists (concurrent scan);
	// in that case neither row is written.
	InsertTokenWithSignal(ctx context.Context, t *domain.Token, s *domain.Signal) error
}

// DiscoveredTokenStore provides access to discovery winners.
type DiscoveredTokenStore interface {
	// Upsert inserts a winner as pending on first sight, or refreshes
	// current market cap and gain multiple on repeat sight.
	Upsert(ctx context.Context, t *domain.DiscoveredToken) error

	// GetByAddress retrieves a winner by token address.
	GetByAddress(ctx context.Context, address string) (*domain.DiscoveredToken, error)

	// ListByStatus retrieves winners in any of the given statuses.
	ListByStatus(ctx context.Context, statuses ...domain.DiscoveryStatus) ([]*domain.DiscoveredToken, error)

	// SetStatus transitions a winner's extraction status.
	SetStatus(ctx context.Context, id int64, status domain.DiscoveryStatus) error

	// MarkDone sets status done and records how many early buyers were found.
	MarkDone(ctx context.Context, id int64, buyersFound int) error
}

// EarlyBuyerStore provides access to early-buyer rows.
type EarlyBuyerStore interface {
	// Insert adds a buyer. Returns ErrDuplicateKey if the (token, wallet)
	// pair is already recorded.
	Insert(ctx context.Context, b *domain.EarlyBuyer) error

	// ListByToken retrieves buyers for a token address.
	ListByToken(ctx context.Context, tokenAddress string) ([]*domain.EarlyBuyer, error)

	// AggregateByWallet groups buyers of winners with status done by wallet,
	// keeping wallets that appear in at least minTokens distinct winners.
	// Results are ordered by token count descending.
	AggregateByWallet(ctx context.Context, minTokens int) ([]*domain.WalletAggregate, error)
}

// CandidateStore provides access to smart-wallet candidates.
type CandidateStore interface {
	// Upsert inserts a candidate, or updates token_count and token_symbols
	// if the wallet is already recorded.
	Upsert(ctx context.Context, c *domain.SmartWalletCandidate) error

	// Get retrieves a candidate by wallet address.
	Get(ctx context.Context, walletAddress string) (*domain.SmartWalletCandidate, error)

	// List retrieves all candidates ordered by token count descending.
	List(ctx context.Context) ([]*domain.SmartWalletCandidate, error)

	// ListPromotable retrieves unpromoted candidates with at least minTokens.
	ListPromotable(ctx context.Context, minTokens int) ([]*domain.SmartWalletCandidate, error)

	// MarkPromoted sets is_promoted. Promotion is monotonic.
	MarkPromoted(ctx context.Context, walletAddress string) error
}

// MarketCapHistoryStore records market observations from price sweeps.
type MarketCapHistoryStore interface {
	// InsertBulk appends observation points.
	InsertBulk(ctx context.Context, points []*domain.MarketCapPoint) error

	// GetByToken retrieves all points for a token, ordered by timestamp ASC.
	GetByToken(ctx context.Context, tokenAddress string) ([]*domain.MarketCapPoint, error)
}
