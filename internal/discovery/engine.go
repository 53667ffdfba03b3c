// Package discovery finds wallets that were early into multiple winning
// tokens and promotes them into the tracked roster.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solana-sniper-stack/internal/dexscreener"
	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/observability"
	"solana-sniper-stack/internal/solana"
	"solana-sniper-stack/internal/storage"
)

// Default tuning values.
const (
	DefaultMinGain        = 200
	DefaultInitialMinGain = 100
	DefaultLookback       = 7 * 24 * time.Hour
	DefaultMaxBuyers      = 50
	DefaultHistoryLimit   = 100
	DefaultMinAppearances = 2
	DefaultTokenPause     = 1 * time.Second
	DefaultBatchPause     = 500 * time.Millisecond
	DefaultSearchPause    = 200 * time.Millisecond

	DefaultLaunchMCPump  = 5_000
	DefaultLaunchMCOther = 10_000

	// labelSymbolsMax caps the symbol list embedded in a roster label.
	labelSymbolsMax = 30
)

// Summary reports what one discovery run did.
type Summary struct {
	Winners    int
	Buyers     int
	Candidates int
	Promoted   int
}

// RunParams tunes a single run.
type RunParams struct {
	// MinGain overrides the configured gain threshold when positive.
	MinGain float64
	// AutoPromote promotes qualifying candidates at the end of the run.
	AutoPromote bool
}

// Options configures an Engine.
type Options struct {
	Logger *log.Logger

	MinGain        float64
	Lookback       time.Duration
	MaxBuyers      int
	HistoryLimit   int
	MinAppearances int
	TokenPause     time.Duration
	BatchPause     time.Duration
	SearchPause    time.Duration
	SearchTerms    []string

	LaunchMCPump  float64
	LaunchMCOther float64

	Now func() time.Time
}

// Engine runs the discovery pipeline: survey winners, extract their early
// buyers, aggregate wallets across winners, promote the repeat offenders.
type Engine struct {
	dex      dexscreener.Client
	enhanced solana.EnhancedClient

	discovered storage.DiscoveredTokenStore
	buyers     storage.EarlyBuyerStore
	candidates storage.CandidateStore
	wallets    storage.WalletStore

	logger *log.Logger

	minGain        float64
	lookback       time.Duration
	maxBuyers      int
	historyLimit   int
	minAppearances int
	tokenPause     time.Duration
	batchPause     time.Duration
	searchPause    time.Duration
	searchTerms    []string
	launchMCPump   float64
	launchMCOther  float64

	now func() time.Time
}

// New creates an Engine. Nil options get defaults.
func New(dex dexscreener.Client, enhanced solana.EnhancedClient,
	discovered storage.DiscoveredTokenStore, buyers storage.EarlyBuyerStore,
	candidates storage.CandidateStore, wallets storage.WalletStore,
	opts *Options) *Engine {

	if opts == nil {
		opts = &Options{}
	}

	e := &Engine{
		dex:            dex,
		enhanced:       enhanced,
		discovered:     discovered,
		buyers:         buyers,
		candidates:     candidates,
		wallets:        wallets,
		logger:         opts.Logger,
		minGain:        opts.MinGain,
		lookback:       opts.Lookback,
		maxBuyers:      opts.MaxBuyers,
		historyLimit:   opts.HistoryLimit,
		minAppearances: opts.MinAppearances,
		tokenPause:     opts.TokenPause,
		batchPause:     opts.BatchPause,
		searchPause:    opts.SearchPause,
		searchTerms:    opts.SearchTerms,
		launchMCPump:   opts.LaunchMCPump,
		launchMCOther:  opts.LaunchMCOther,
		now:            opts.Now,
	}

	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.minGain <= 0 {
		e.minGain = DefaultMinGain
	}
	if e.lookback <= 0 {
		e.lookback = DefaultLookback
	}
	if e.maxBuyers <= 0 {
		e.maxBuyers = DefaultMaxBuyers
	}
	if e.historyLimit <= 0 {
		e.historyLimit = DefaultHistoryLimit
	}
	if e.minAppearances <= 0 {
		e.minAppearances = DefaultMinAppearances
	}
	if e.tokenPause <= 0 {
		e.tokenPause = DefaultTokenPause
	}
	if e.batchPause <= 0 {
		e.batchPause = DefaultBatchPause
	}
	if e.searchPause <= 0 {
		e.searchPause = DefaultSearchPause
	}
	if e.searchTerms == nil {
		e.searchTerms = defaultSearchTerms
	}
	if e.launchMCPump <= 0 {
		e.launchMCPump = DefaultLaunchMCPump
	}
	if e.launchMCOther <= 0 {
		e.launchMCOther = DefaultLaunchMCOther
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Run executes one full discovery pass.
func (e *Engine) Run(ctx context.Context, params RunParams) (*Summary, error) {
	start := e.now()

	summary, err := e.run(ctx, params)
	elapsed := e.now().Sub(start).Seconds()
	if err != nil {
		observability.RecordDiscoveryRun("error", elapsed)
		return summary, err
	}

	observability.RecordDiscoveryRun("ok", elapsed)
	observability.DefaultMetrics.LastSuccessfulDiscovery.Set(float64(e.now().Unix()))
	e.logger.Printf("[discovery] run done: %d winners, %d buyers, %d candidates, %d promoted",
		summary.Winners, summary.Buyers, summary.Candidates, summary.Promoted)
	return summary, nil
}

func (e *Engine) run(ctx context.Context, params RunParams) (*Summary, error) {
	summary := &Summary{}

	minGain := e.minGain
	if params.MinGain > 0 {
		minGain = params.MinGain
	}

	winners, err := e.findWinners(ctx, minGain)
	if err != nil {
		return summary, fmt.Errorf("find winners: %w", err)
	}
	for _, w := range winners {
		if err := e.discovered.Upsert(ctx, w); err != nil {
			return summary, fmt.Errorf("upsert winner %s: %w", w.Address, err)
		}
		observability.DefaultMetrics.WinnersFound.Inc()
	}
	summary.Winners = len(winners)

	buyers, err := e.processPending(ctx)
	if err != nil {
		return summary, err
	}
	summary.Buyers = buyers

	candidates, err := e.aggregate(ctx)
	if err != nil {
		return summary, err
	}
	summary.Candidates = candidates

	if params.AutoPromote {
		promoted, err := e.Promote(ctx, e.minAppearances)
		if err != nil {
			return summary, err
		}
		summary.Promoted = promoted
	}

	return summary, nil
}

// processPending walks winners awaiting extraction. Winners left in
// processing by an interrupted run are picked up again. A failed winner is
// marked error and does not stop the run; the next pass retries nothing,
// the winner stays visible for inspection.
func (e *Engine) processPending(ctx context.Context) (int, error) {
	pending, err := e.discovered.ListByStatus(ctx, domain.DiscoveryPending, domain.DiscoveryProcessing)
	if err != nil {
		return 0, fmt.Errorf("list pending winners: %w", err)
	}

	total := 0
	for i, w := range pending {
		if i > 0 {
			if !sleep(ctx, e.tokenPause) {
				return total, ctx.Err()
			}
		}

		if err := e.discovered.SetStatus(ctx, w.ID, domain.DiscoveryProcessing); err != nil {
			return total, fmt.Errorf("mark winner processing: %w", err)
		}

		found, err := e.extractBuyers(ctx, w)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			e.logger.Printf("[discovery] extract buyers for %s: %v", w.Address, err)
			if err := e.discovered.SetStatus(ctx, w.ID, domain.DiscoveryError); err != nil {
				return total, fmt.Errorf("mark winner errored: %w", err)
			}
			continue
		}

		if err := e.discovered.MarkDone(ctx, w.ID, found); err != nil {
			return total, fmt.Errorf("mark winner done: %w", err)
		}
		total += found
	}

	return total, nil
}

// aggregate rolls early buyers up into smart-wallet candidates.
func (e *Engine) aggregate(ctx context.Context) (int, error) {
	aggregates, err := e.buyers.AggregateByWallet(ctx, e.minAppearances)
	if err != nil {
		return 0, fmt.Errorf("aggregate buyers: %w", err)
	}

	for _, agg := range aggregates {
		err := e.candidates.Upsert(ctx, &domain.SmartWalletCandidate{
			WalletAddress: agg.WalletAddress,
			TokenCount:    agg.TokenCount,
			TokenSymbols:  agg.TokenSymbols,
			FirstSeen:     e.now(),
		})
		if err != nil {
			return 0, fmt.Errorf("upsert candidate %s: %w", agg.WalletAddress, err)
		}
	}

	return len(aggregates), nil
}

// Promote moves qualifying candidates into the tracked roster. Promotion is
// idempotent and monotonic: a wallet already on the roster is still marked
// promoted, and promotion is never undone.
func (e *Engine) Promote(ctx context.Context, minTokens int) (int, error) {
	promotable, err := e.candidates.ListPromotable(ctx, minTokens)
	if err != nil {
		return 0, fmt.Errorf("list promotable candidates: %w", err)
	}

	promoted := 0
	for _, c := range promotable {
		wallet := &domain.TrackedWallet{
			Address:   c.WalletAddress,
			Label:     promotionLabel(c),
			Status:    domain.WalletActive,
			Source:    domain.WalletSourceDiscovery,
			TrackedAt: e.now(),
		}

		if err := e.wallets.Insert(ctx, wallet); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return promoted, fmt.Errorf("insert wallet %s: %w", c.WalletAddress, err)
		}
		if err := e.candidates.MarkPromoted(ctx, c.WalletAddress); err != nil {
			return promoted, fmt.Errorf("mark candidate promoted: %w", err)
		}
		observability.DefaultMetrics.CandidatesPromoted.Inc()
		promoted++
	}

	return promoted, nil
}

// promotionLabel renders the roster label for a promoted candidate.
func promotionLabel(c *domain.SmartWalletCandidate) string {
	symbols := c.TokenSymbols
	if len(symbols) > labelSymbolsMax {
		symbols = symbols[:labelSymbolsMax]
	}
	return fmt.Sprintf("Discovery_%dx (%s)", c.TokenCount, symbols)
}

// sleep waits for d or until ctx is cancelled. Returns false on cancel.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
