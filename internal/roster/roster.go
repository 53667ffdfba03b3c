// Package roster manages the tracked smart-wallet list: manual additions
// and removals, candidate promotion, and read access to recent activity.
package roster

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// DefaultSignalLimit bounds RecentSignals when the caller passes no limit.
const DefaultSignalLimit = 20

// Options configures a Service.
type Options struct {
	Logger *log.Logger
	Now    func() time.Time
}

// Service is the roster management facade used by the command-line tools.
type Service struct {
	wallets    storage.WalletStore
	tokens     storage.TokenStore
	signals    storage.SignalStore
	discovered storage.DiscoveredTokenStore
	candidates storage.CandidateStore

	logger *log.Logger
	now    func() time.Time
}

// New creates a Service. Nil options get defaults.
func New(wallets storage.WalletStore, tokens storage.TokenStore,
	signals storage.SignalStore, discovered storage.DiscoveredTokenStore,
	candidates storage.CandidateStore, opts *Options) *Service {

	if opts == nil {
		opts = &Options{}
	}

	s := &Service{
		wallets:    wallets,
		tokens:     tokens,
		signals:    signals,
		discovered: discovered,
		candidates: candidates,
		logger:     opts.Logger,
		now:        opts.Now,
	}

	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// AddWallet validates the address and adds it to the roster as a manually
// tracked wallet. Returns ErrInvalidInput for malformed addresses and
// ErrDuplicateKey if the wallet is already tracked.
func (s *Service) AddWallet(ctx context.Context, address, label string) (*domain.TrackedWallet, error) {
	address = strings.TrimSpace(address)
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}

	label = strings.TrimSpace(label)
	if label == "" {
		label = address[:6]
	}

	wallet := &domain.TrackedWallet{
		Address:   address,
		Label:     label,
		Status:    domain.WalletActive,
		Source:    domain.WalletSourceManual,
		TrackedAt: s.now(),
	}

	if err := s.wallets.Insert(ctx, wallet); err != nil {
		return nil, err
	}
	s.logger.Printf("[roster] tracking %s (%s)", label, address)
	return wallet, nil
}

// RemoveWallet drops a wallet from the roster.
func (s *Service) RemoveWallet(ctx context.Context, address string) error {
	return s.wallets.Delete(ctx, strings.TrimSpace(address))
}

// Wallets lists the full roster ordered by label.
func (s *Service) Wallets(ctx context.Context) ([]*domain.TrackedWallet, error) {
	return s.wallets.List(ctx)
}

// RecentSignals lists the latest emitted signals, newest first.
func (s *Service) RecentSignals(ctx context.Context, limit int) ([]*domain.Signal, error) {
	if limit <= 0 {
		limit = DefaultSignalLimit
	}
	return s.signals.ListRecent(ctx, limit)
}

// Tokens lists scanned tokens in the given statuses, or every status when
// none are given.
func (s *Service) Tokens(ctx context.Context, statuses ...domain.TokenStatus) ([]*domain.Token, error) {
	if len(statuses) == 0 {
		statuses = []domain.TokenStatus{domain.TokenBondingCurve, domain.TokenGraduated, domain.TokenRugged}
	}
	return s.tokens.ListByStatus(ctx, statuses...)
}

// Winners lists discovered winners in the given extraction statuses, or
// every status when none are given.
func (s *Service) Winners(ctx context.Context, statuses ...domain.DiscoveryStatus) ([]*domain.DiscoveredToken, error) {
	if len(statuses) == 0 {
		statuses = []domain.DiscoveryStatus{
			domain.DiscoveryPending, domain.DiscoveryProcessing,
			domain.DiscoveryDone, domain.DiscoveryError,
		}
	}
	return s.discovered.ListByStatus(ctx, statuses...)
}

// Candidates lists discovery candidates ordered by token count descending.
func (s *Service) Candidates(ctx context.Context) ([]*domain.SmartWalletCandidate, error) {
	return s.candidates.List(ctx)
}

// PromoteCandidate moves a single candidate onto the roster regardless of
// its token count. A wallet already on the roster is still marked promoted.
func (s *Service) PromoteCandidate(ctx context.Context, walletAddress string) error {
	walletAddress = strings.TrimSpace(walletAddress)

	c, err := s.candidates.Get(ctx, walletAddress)
	if err != nil {
		return err
	}
	if c.IsPromoted {
		return nil
	}

	wallet := &domain.TrackedWallet{
		Address:   c.WalletAddress,
		Label:     fmt.Sprintf("Discovery_%dx (%s)", c.TokenCount, truncate(c.TokenSymbols, 30)),
		Status:    domain.WalletActive,
		Source:    domain.WalletSourceDiscovery,
		TrackedAt: s.now(),
	}
	if err := s.wallets.Insert(ctx, wallet); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return err
	}
	return s.candidates.MarkPromoted(ctx, c.WalletAddress)
}

// PromoteAll promotes every unpromoted candidate seen in at least minTokens
// winners and returns how many were promoted.
func (s *Service) PromoteAll(ctx context.Context, minTokens int) (int, error) {
	promotable, err := s.candidates.ListPromotable(ctx, minTokens)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, c := range promotable {
		if err := s.PromoteCandidate(ctx, c.WalletAddress); err != nil {
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

// ValidateAddress checks that address is a base58-encoded 32-byte ed25519
// point. Program derived addresses are off the curve and rejected; a wallet
// must be a regular keypair account.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: empty address", storage.ErrInvalidInput)
	}

	decoded, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %s is not base58", storage.ErrInvalidInput, address)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("%w: %s decodes to %d bytes, want 32", storage.ErrInvalidInput, address, len(decoded))
	}
	if _, err := new(edwards25519.Point).SetBytes(decoded); err != nil {
		return fmt.Errorf("%w: %s is not on the ed25519 curve", storage.ErrInvalidInput, address)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
