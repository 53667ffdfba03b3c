package pricetracker

import (
	"context"
	"testing"
	"time"

	"solana-sniper-stack/internal/dexscreener"
	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage/memory"
)

// stubDex serves fixed pairs keyed by token address.
type stubDex struct {
	pairs map[string][]dexscreener.Pair
	calls int
}

func (d *stubDex) TokenPairs(_ context.Context, addresses []string) ([]dexscreener.Pair, error) {
	d.calls++
	var result []dexscreener.Pair
	for _, addr := range addresses {
		result = append(result, d.pairs[addr]...)
	}
	return result, nil
}

func (d *stubDex) TopBoosts(_ context.Context) ([]dexscreener.BoostedToken, error) {
	return nil, nil
}

func (d *stubDex) Search(_ context.Context, _ string) ([]dexscreener.Pair, error) {
	return nil, nil
}

func pair(addr, dex string, mc, liq float64) dexscreener.Pair {
	return dexscreener.Pair{
		ChainID:   "solana",
		DexID:     dex,
		BaseToken: dexscreener.BaseToken{Address: addr, Symbol: "TST"},
		MarketCap: mc,
		Liquidity: dexscreener.Liquidity{USD: liq},
	}
}

func insertToken(t *testing.T, tokens *memory.TokenStore, signals *memory.SignalStore, addr string, createdAt time.Time) {
	t.Helper()
	err := signals.InsertTokenWithSignal(context.Background(),
		&domain.Token{
			ContractAddress: addr,
			Symbol:          "TST",
			CreatedAt:       createdAt,
			Status:          domain.TokenBondingCurve,
		},
		&domain.Signal{TokenAddress: addr, SmartWalletCount: 2, ConfidenceScore: 70, Timestamp: createdAt},
	)
	if err != nil {
		t.Fatalf("insert token %s: %v", addr, err)
	}
}

type sweepFixture struct {
	tracker *Tracker
	tokens  *memory.TokenStore
	signals *memory.SignalStore
	history *memory.MarketCapHistoryStore
}

func newSweepFixture(dex *stubDex, now time.Time) *sweepFixture {
	tokens := memory.NewTokenStore()
	signals := memory.NewSignalStore(tokens)
	history := memory.NewMarketCapHistoryStore()

	tracker := New(dex, tokens, history, &Options{
		BatchPause: time.Millisecond,
		Now:        func() time.Time { return now },
	})
	return &sweepFixture{tracker: tracker, tokens: tokens, signals: signals, history: history}
}

func TestSweep_MarksRuggedOnCollapse(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	dex := &stubDex{pairs: map[string][]dexscreener.Pair{
		"lowmc": {pair("lowmc", "pumpswap", 400, 5_000)},
		"noliq": {pair("noliq", "pumpswap", 2_000, 50)},
		"alive": {pair("alive", "pumpswap", 8_000, 3_000)},
	}}
	f := newSweepFixture(dex, now)

	for _, addr := range []string{"lowmc", "noliq", "alive"} {
		insertToken(t, f.tokens, f.signals, addr, now.Add(-time.Hour))
	}

	if err := f.tracker.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	for addr, want := range map[string]domain.TokenStatus{
		"lowmc": domain.TokenRugged,
		"noliq": domain.TokenRugged,
		"alive": domain.TokenBondingCurve,
	} {
		tok, err := f.tokens.Get(context.Background(), addr)
		if err != nil {
			t.Fatalf("get %s: %v", addr, err)
		}
		if tok.Status != want {
			t.Errorf("%s: expected %s, got %s", addr, want, tok.Status)
		}
	}
}

func TestSweep_GraduationThresholds(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	dex := &stubDex{pairs: map[string][]dexscreener.Pair{
		"onray":    {pair("onray", "raydium", 60_000, 20_000)},      // allow-listed dex, above 50k
		"lowray":   {pair("lowray", "raydium", 40_000, 20_000)},     // allow-listed dex, below 50k
		"bigother": {pair("bigother", "pumpswap", 150_000, 40_000)}, // any dex, above 100k
	}}
	f := newSweepFixture(dex, now)

	for _, addr := range []string{"onray", "lowray", "bigother"} {
		insertToken(t, f.tokens, f.signals, addr, now.Add(-time.Hour))
	}

	if err := f.tracker.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	for addr, want := range map[string]domain.TokenStatus{
		"onray":    domain.TokenGraduated,
		"lowray":   domain.TokenBondingCurve,
		"bigother": domain.TokenGraduated,
	} {
		tok, err := f.tokens.Get(context.Background(), addr)
		if err != nil {
			t.Fatalf("get %s: %v", addr, err)
		}
		if tok.Status != want {
			t.Errorf("%s: expected %s, got %s", addr, want, tok.Status)
		}
	}
}

func TestSweep_UpdatesMarketCapAndHistory(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	dex := &stubDex{pairs: map[string][]dexscreener.Pair{
		"tok": {
			pair("tok", "pumpswap", 8_000, 3_000),
			pair("tok", "raydium", 12_000, 5_000), // best pair wins
		},
	}}
	f := newSweepFixture(dex, now)
	insertToken(t, f.tokens, f.signals, "tok", now.Add(-time.Hour))

	if err := f.tracker.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	tok, err := f.tokens.Get(context.Background(), "tok")
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if tok.MarketCapAtScan != 12_000 {
		t.Errorf("expected market cap 12000 from best pair, got %.0f", tok.MarketCapAtScan)
	}

	points, err := f.history.GetByToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 history point, got %d", len(points))
	}
	if points[0].MarketCap != 12_000 || points[0].Dex != "raydium" {
		t.Errorf("unexpected point: %+v", points[0])
	}
}

func TestSweep_SkipsStaleTokens(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	dex := &stubDex{pairs: map[string][]dexscreener.Pair{
		"stale": {pair("stale", "pumpswap", 100, 10)},
	}}
	f := newSweepFixture(dex, now)
	insertToken(t, f.tokens, f.signals, "stale", now.Add(-49*time.Hour))

	if err := f.tracker.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if dex.calls != 0 {
		t.Errorf("expected no market lookups for stale tokens, got %d", dex.calls)
	}

	tok, _ := f.tokens.Get(context.Background(), "stale")
	if tok.Status != domain.TokenBondingCurve {
		t.Errorf("stale token should keep its status, got %s", tok.Status)
	}
}

func TestBestPairs_PicksHighestMarketCap(t *testing.T) {
	pairs := []dexscreener.Pair{
		pair("a", "pumpswap", 1_000, 100),
		pair("a", "raydium", 5_000, 500),
		pair("b", "orca", 2_000, 200),
	}

	best := bestPairs(pairs)
	if best["a"].DexID != "raydium" {
		t.Errorf("expected raydium pair for a, got %s", best["a"].DexID)
	}
	if best["b"].DexID != "orca" {
		t.Errorf("expected orca pair for b, got %s", best["b"].DexID)
	}
}

func TestBestPairs_FDVFallback(t *testing.T) {
	p := dexscreener.Pair{MarketCap: 0, FDV: 7_500}
	if p.BestMarketCap() != 7_500 {
		t.Errorf("expected fdv fallback, got %.0f", p.BestMarketCap())
	}
}
