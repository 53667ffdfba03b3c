// Package pricetracker sweeps market data for tracked tokens and moves
// them through their lifecycle: bonding_curve, graduated, rugged.
package pricetracker

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-sniper-stack/internal/dexscreener"
	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/observability"
	"solana-sniper-stack/internal/storage"
)

// Default tuning values.
const (
	DefaultInterval    = 60 * time.Second
	DefaultMaxTrackAge = 48 * time.Hour
	DefaultBatchPause  = 500 * time.Millisecond

	DefaultRuggedMaxMarketCap = 500
	DefaultRuggedMinLiquidity = 100
	DefaultGraduatedAllowedMC = 50_000
	DefaultGraduatedAnyDexMC  = 100_000
)

// defaultGraduationDexes are venues where a lower market cap already counts
// as graduation; reaching them means the token left the bonding curve.
var defaultGraduationDexes = map[string]bool{
	"raydium": true,
	"meteora": true,
	"orca":    true,
	"jupiter": true,
}

// Options configures a Tracker.
type Options struct {
	Logger      *log.Logger
	Interval    time.Duration
	MaxTrackAge time.Duration
	BatchPause  time.Duration

	RuggedMaxMarketCap float64
	RuggedMinLiquidity float64
	GraduatedAllowedMC float64
	GraduatedAnyDexMC  float64
	GraduationDexes    map[string]bool

	Now func() time.Time
}

// Tracker runs periodic market sweeps. The history store is optional; when
// nil, observations are not archived.
type Tracker struct {
	dex     dexscreener.Client
	tokens  storage.TokenStore
	history storage.MarketCapHistoryStore

	logger      *log.Logger
	interval    time.Duration
	maxTrackAge time.Duration
	batchPause  time.Duration

	ruggedMaxMC  float64
	ruggedMinLiq float64
	gradAllowMC  float64
	gradAnyMC    float64
	gradDexes    map[string]bool

	now func() time.Time
}

// New creates a Tracker. Nil options get defaults.
func New(dex dexscreener.Client, tokens storage.TokenStore, history storage.MarketCapHistoryStore, opts *Options) *Tracker {
	if opts == nil {
		opts = &Options{}
	}

	t := &Tracker{
		dex:          dex,
		tokens:       tokens,
		history:      history,
		logger:       opts.Logger,
		interval:     opts.Interval,
		maxTrackAge:  opts.MaxTrackAge,
		batchPause:   opts.BatchPause,
		ruggedMaxMC:  opts.RuggedMaxMarketCap,
		ruggedMinLiq: opts.RuggedMinLiquidity,
		gradAllowMC:  opts.GraduatedAllowedMC,
		gradAnyMC:    opts.GraduatedAnyDexMC,
		gradDexes:    opts.GraduationDexes,
		now:          opts.Now,
	}

	if t.logger == nil {
		t.logger = log.Default()
	}
	if t.interval <= 0 {
		t.interval = DefaultInterval
	}
	if t.maxTrackAge <= 0 {
		t.maxTrackAge = DefaultMaxTrackAge
	}
	if t.batchPause <= 0 {
		t.batchPause = DefaultBatchPause
	}
	if t.ruggedMaxMC <= 0 {
		t.ruggedMaxMC = DefaultRuggedMaxMarketCap
	}
	if t.ruggedMinLiq <= 0 {
		t.ruggedMinLiq = DefaultRuggedMinLiquidity
	}
	if t.gradAllowMC <= 0 {
		t.gradAllowMC = DefaultGraduatedAllowedMC
	}
	if t.gradAnyMC <= 0 {
		t.gradAnyMC = DefaultGraduatedAnyDexMC
	}
	if t.gradDexes == nil {
		t.gradDexes = defaultGraduationDexes
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// Run sweeps on the configured interval until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := t.Sweep(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.logger.Printf("[pricetracker] sweep failed: %v", err)
		}
	}
}

// Sweep performs one full pass over all live tracked tokens.
func (t *Tracker) Sweep(ctx context.Context) error {
	start := t.now()

	tokens, err := t.tokens.ListByStatus(ctx, domain.TokenBondingCurve, domain.TokenGraduated)
	if err != nil {
		return fmt.Errorf("list tracked tokens: %w", err)
	}

	// Tokens past the tracking window stay at their last status; nothing
	// interesting happens to a two-day-old meme coin that hasn't already.
	var live []*domain.Token
	for _, tok := range tokens {
		if start.Sub(tok.CreatedAt) <= t.maxTrackAge {
			live = append(live, tok)
		}
	}
	if len(live) == 0 {
		return nil
	}

	byAddress := make(map[string]*domain.Token, len(live))
	addresses := make([]string, 0, len(live))
	for _, tok := range live {
		byAddress[tok.ContractAddress] = tok
		addresses = append(addresses, tok.ContractAddress)
	}

	var points []*domain.MarketCapPoint
	swept := 0

	for i := 0; i < len(addresses); i += dexscreener.MaxBatchSize {
		end := i + dexscreener.MaxBatchSize
		if end > len(addresses) {
			end = len(addresses)
		}
		if i > 0 {
			if !sleep(ctx, t.batchPause) {
				return ctx.Err()
			}
		}

		pairs, err := t.dex.TokenPairs(ctx, addresses[i:end])
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.logger.Printf("[pricetracker] batch fetch failed: %v", err)
			continue
		}

		for addr, pair := range bestPairs(pairs) {
			tok, ok := byAddress[addr]
			if !ok {
				continue
			}
			swept++
			points = append(points, t.observe(ctx, tok, pair))
		}
	}

	if t.history != nil && len(points) > 0 {
		if err := t.history.InsertBulk(ctx, points); err != nil {
			t.logger.Printf("[pricetracker] archive observations: %v", err)
		}
	}

	elapsed := t.now().Sub(start)
	observability.RecordSweep(swept, elapsed.Seconds())
	observability.DefaultMetrics.LastSuccessfulSweep.Set(float64(t.now().Unix()))
	return nil
}

// observe applies the status rules to one token observation and persists
// the result. Returns the history point for this observation.
func (t *Tracker) observe(ctx context.Context, tok *domain.Token, pair *dexscreener.Pair) *domain.MarketCapPoint {
	mc := pair.BestMarketCap()
	liq := pair.Liquidity.USD
	status := tok.Status

	switch {
	case mc < t.ruggedMaxMC || (mc > 0 && liq < t.ruggedMinLiq):
		status = domain.TokenRugged
	case tok.Status == domain.TokenBondingCurve && t.graduated(pair.DexID, mc):
		status = domain.TokenGraduated
	}

	if mc > 0 {
		if err := t.tokens.UpdateMarketCap(ctx, tok.ContractAddress, mc); err != nil {
			t.logger.Printf("[pricetracker] update market cap %s: %v", tok.ContractAddress, err)
		}
	}

	if status != tok.Status {
		if err := t.tokens.UpdateStatus(ctx, tok.ContractAddress, status); err != nil {
			t.logger.Printf("[pricetracker] update status %s: %v", tok.ContractAddress, err)
		} else {
			observability.RecordStatusTransition(string(status))
			t.logger.Printf("[pricetracker] %s -> %s (mc=%.0f liq=%.0f dex=%s)",
				tok.ContractAddress, status, mc, liq, pair.DexID)
		}
	}

	return &domain.MarketCapPoint{
		TokenAddress: tok.ContractAddress,
		TimestampMs:  t.now().UnixMilli(),
		MarketCap:    mc,
		LiquidityUSD: liq,
		Dex:          pair.DexID,
		Status:       status,
	}
}

// graduated reports whether the market cap clears the graduation bar for
// the venue.
func (t *Tracker) graduated(dex string, mc float64) bool {
	if t.gradDexes[dex] && mc >= t.gradAllowMC {
		return true
	}
	return mc >= t.gradAnyMC
}

// bestPairs picks the pair with the highest market cap per base token.
func bestPairs(pairs []dexscreener.Pair) map[string]*dexscreener.Pair {
	best := make(map[string]*dexscreener.Pair)
	for i := range pairs {
		p := &pairs[i]
		addr := p.BaseToken.Address
		if cur, ok := best[addr]; !ok || p.BestMarketCap() > cur.BestMarketCap() {
			best[addr] = p
		}
	}
	return best
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
