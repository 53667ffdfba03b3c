// Package analyzer scans freshly created tokens for smart-money
// participation and emits signals when enough tracked wallets are in.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/observability"
	"solana-sniper-stack/internal/solana"
	"solana-sniper-stack/internal/storage"
)

// Outcome classifies a single scan.
type Outcome string

const (
	// OutcomeSignal means a signal was emitted.
	OutcomeSignal Outcome = "signal"
	// OutcomeSkipDuplicate means the token was already scanned.
	OutcomeSkipDuplicate Outcome = "skip_duplicate"
	// OutcomeSkipNoMetadata means no transaction history was available.
	OutcomeSkipNoMetadata Outcome = "skip_no_metadata"
	// OutcomeSkipTooOld means the token is past the freshness window.
	OutcomeSkipTooOld Outcome = "skip_too_old"
	// OutcomeSkipFewMatches means fewer tracked wallets bought than required.
	OutcomeSkipFewMatches Outcome = "skip_few_matches"
	// OutcomeError means the scan failed and may be retried.
	OutcomeError Outcome = "error"
)

// ScanResult is the explicit outcome of one scan.
type ScanResult struct {
	Outcome    Outcome
	MatchCount int
	Confidence int
}

// Default tuning values.
const (
	DefaultMaxTokenAge  = 10 * time.Minute
	DefaultMinMatches   = 2
	DefaultHistoryLimit = 100

	// Confidence scoring: base plus a step per matched wallet, capped.
	confidenceBase = 50
	confidenceStep = 10
	confidenceCap  = 100
)

// launchSources are provider source labels of the pump.fun launch venue.
// A transaction from any of them counts as launch activity.
var launchSources = map[string]bool{
	"PUMP_FUN": true,
	"PUMP_AMM": true,
	"PUMP":     true,
}

// Options configures an Analyzer.
type Options struct {
	Logger       *log.Logger
	MaxTokenAge  time.Duration
	MinMatches   int
	HistoryLimit int
	Now          func() time.Time
}

// Analyzer implements the token scan.
type Analyzer struct {
	enhanced solana.EnhancedClient
	rpc      solana.RPCClient
	tokens   storage.TokenStore
	wallets  storage.WalletStore
	signals  storage.SignalWriter

	logger       *log.Logger
	maxTokenAge  time.Duration
	minMatches   int
	historyLimit int
	now          func() time.Time
}

// New creates an Analyzer. Nil options get defaults.
func New(enhanced solana.EnhancedClient, rpc solana.RPCClient,
	tokens storage.TokenStore, wallets storage.WalletStore, signals storage.SignalWriter,
	opts *Options) *Analyzer {

	if opts == nil {
		opts = &Options{}
	}

	a := &Analyzer{
		enhanced:     enhanced,
		rpc:          rpc,
		tokens:       tokens,
		wallets:      wallets,
		signals:      signals,
		logger:       opts.Logger,
		maxTokenAge:  opts.MaxTokenAge,
		minMatches:   opts.MinMatches,
		historyLimit: opts.HistoryLimit,
		now:          opts.Now,
	}

	if a.logger == nil {
		a.logger = log.Default()
	}
	if a.maxTokenAge <= 0 {
		a.maxTokenAge = DefaultMaxTokenAge
	}
	if a.minMatches <= 0 {
		a.minMatches = DefaultMinMatches
	}
	if a.historyLimit <= 0 {
		a.historyLimit = DefaultHistoryLimit
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// HandleCandidate implements the listener's CandidateHandler.
func (a *Analyzer) HandleCandidate(ctx context.Context, mint string) {
	result, err := a.Scan(ctx, mint)
	if err != nil {
		a.logger.Printf("[analyzer] scan %s: %v", mint, err)
		return
	}
	if result.Outcome == OutcomeSignal {
		a.logger.Printf("[analyzer] signal for %s: %d smart wallets, confidence %d",
			mint, result.MatchCount, result.Confidence)
	}
}

// Scan analyzes one token creation candidate. Every return path is an
// explicit outcome so callers and metrics can tell skips apart.
func (a *Analyzer) Scan(ctx context.Context, mint string) (*ScanResult, error) {
	result, err := a.scan(ctx, mint)
	if err != nil {
		observability.RecordScanOutcome(string(OutcomeError))
		return &ScanResult{Outcome: OutcomeError}, err
	}
	observability.RecordScanOutcome(string(result.Outcome))
	if result.Outcome == OutcomeSignal {
		observability.RecordSignalEmitted()
	}
	return result, nil
}

func (a *Analyzer) scan(ctx context.Context, mint string) (*ScanResult, error) {
	exists, err := a.tokens.Exists(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("check token exists: %w", err)
	}
	if exists {
		return &ScanResult{Outcome: OutcomeSkipDuplicate}, nil
	}

	history, err := a.enhanced.AddressTransactions(ctx, mint, a.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", mint, err)
	}
	if len(history) == 0 {
		return &ScanResult{Outcome: OutcomeSkipNoMetadata}, nil
	}

	createdAt, dev := creationInfo(history)

	if a.now().Sub(createdAt) > a.maxTokenAge {
		return &ScanResult{Outcome: OutcomeSkipTooOld}, nil
	}

	signers := buyerFeePayers(history)
	matches, err := a.wallets.ActiveMatches(ctx, signers)
	if err != nil {
		return nil, fmt.Errorf("match tracked wallets: %w", err)
	}
	if len(matches) < a.minMatches {
		return &ScanResult{Outcome: OutcomeSkipFewMatches, MatchCount: len(matches)}, nil
	}

	confidence := confidenceBase + confidenceStep*len(matches)
	if confidence > confidenceCap {
		confidence = confidenceCap
	}

	token := &domain.Token{
		ContractAddress: mint,
		Symbol:          a.tokenSymbol(ctx, mint),
		CreatedAt:       createdAt,
		DevAddress:      dev,
		Status:          domain.TokenBondingCurve,
	}
	signal := &domain.Signal{
		TokenAddress:     mint,
		SmartWalletCount: len(matches),
		ConfidenceScore:  confidence,
		Timestamp:        a.now(),
	}

	if err := a.signals.InsertTokenWithSignal(ctx, token, signal); err != nil {
		// A concurrent scan won the race; the signal already exists.
		if errors.Is(err, storage.ErrDuplicateKey) {
			return &ScanResult{Outcome: OutcomeSkipDuplicate, MatchCount: len(matches)}, nil
		}
		return nil, fmt.Errorf("write signal: %w", err)
	}

	return &ScanResult{
		Outcome:    OutcomeSignal,
		MatchCount: len(matches),
		Confidence: confidence,
	}, nil
}

// creationInfo derives creation time and dev wallet from enriched history.
// The API returns newest first, so the last entry is the oldest fetched.
// When the history reaches back to launch-venue activity, the earliest such
// transaction is the better creation anchor than whatever happens to be
// last in the page.
func creationInfo(history []solana.EnhancedTransaction) (time.Time, string) {
	earliest := history[len(history)-1]

	for i := len(history) - 1; i >= 0; i-- {
		if launchSources[history[i].Source] {
			earliest = history[i]
			break
		}
	}

	return time.Unix(earliest.Timestamp, 0), earliest.FeePayer
}

// buyerFeePayers collects unique fee payers of swap or launch-venue
// transactions. The dev wallet counts too: a tracked dev launching a token
// is itself smart-money participation.
func buyerFeePayers(history []solana.EnhancedTransaction) []string {
	seen := make(map[string]bool)
	var signers []string

	for _, tx := range history {
		if tx.FeePayer == "" {
			continue
		}
		if tx.Type != "SWAP" && !launchSources[tx.Source] {
			continue
		}
		if seen[tx.FeePayer] {
			continue
		}
		seen[tx.FeePayer] = true
		signers = append(signers, tx.FeePayer)
	}

	return signers
}

// tokenSymbol resolves the token symbol, falling back to a mint prefix when
// the asset is unknown. Metadata failures never fail a scan.
func (a *Analyzer) tokenSymbol(ctx context.Context, mint string) string {
	asset, err := a.rpc.GetAsset(ctx, mint)
	if err == nil && asset != nil && strings.TrimSpace(asset.Symbol) != "" {
		return strings.TrimSpace(asset.Symbol)
	}
	if len(mint) >= 6 {
		return mint[:6]
	}
	return mint
}
