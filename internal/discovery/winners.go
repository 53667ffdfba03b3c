package discovery

import (
	"context"
	"sort"
	"strings"
	"time"

	"solana-sniper-stack/internal/dexscreener"
	"solana-sniper-stack/internal/domain"
)

// defaultSearchTerms are the thematic queries used to surface meme-coin
// pairs that never make the boost list.
var defaultSearchTerms = []string{
	"pump SOL",
	"pumpfun",
	"meme SOL",
	"AI agent SOL",
	"cat SOL",
	"dog SOL",
	"pepe SOL",
	"trump SOL",
	"doge SOL",
	"bonk SOL",
}

// findWinners surveys the market for recent tokens whose current market cap
// is a large multiple of their assumed launch market cap. Results are
// ordered by gain multiple descending.
func (e *Engine) findWinners(ctx context.Context, minGain float64) ([]*domain.DiscoveredToken, error) {
	now := e.now()
	addresses := make(map[string]bool)

	boosts, err := e.dex.TopBoosts(ctx)
	if err != nil {
		e.logger.Printf("[discovery] boost survey failed: %v", err)
	}
	for _, b := range boosts {
		addresses[b.TokenAddress] = true
	}

	for _, term := range e.searchTerms {
		pairs, err := e.dex.Search(ctx, term)
		if err != nil {
			e.logger.Printf("[discovery] search %q failed: %v", term, err)
			continue
		}
		for _, p := range pairs {
			if p.ChainID == "solana" && p.BaseToken.Address != "" {
				addresses[p.BaseToken.Address] = true
			}
		}
		if !sleep(ctx, e.searchPause) {
			return nil, ctx.Err()
		}
	}

	if len(addresses) == 0 {
		return nil, nil
	}

	all := make([]string, 0, len(addresses))
	for addr := range addresses {
		all = append(all, addr)
	}
	sort.Strings(all)

	best := make(map[string]*dexscreener.Pair)
	for i := 0; i < len(all); i += dexscreener.MaxBatchSize {
		end := i + dexscreener.MaxBatchSize
		if end > len(all) {
			end = len(all)
		}
		if i > 0 {
			if !sleep(ctx, e.batchPause) {
				return nil, ctx.Err()
			}
		}

		pairs, err := e.dex.TokenPairs(ctx, all[i:end])
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Printf("[discovery] pair batch failed: %v", err)
			continue
		}
		for j := range pairs {
			p := &pairs[j]
			if p.ChainID != "solana" {
				continue
			}
			addr := p.BaseToken.Address
			if cur, ok := best[addr]; !ok || p.BestMarketCap() > cur.BestMarketCap() {
				best[addr] = p
			}
		}
	}

	var winners []*domain.DiscoveredToken
	for addr, p := range best {
		// The lookback filter only applies when the pair age is known;
		// a missing timestamp does not disqualify a winner.
		var pairCreated *time.Time
		if p.PairCreatedAt > 0 {
			created := time.UnixMilli(p.PairCreatedAt)
			if now.Sub(created) > e.lookback {
				continue
			}
			pairCreated = &created
		}

		mc := p.BestMarketCap()
		launchMC := e.launchMarketCap(p.DexID)
		gain := mc / launchMC
		if gain < minGain {
			continue
		}

		winners = append(winners, &domain.DiscoveredToken{
			Address:          addr,
			Symbol:           p.BaseToken.Symbol,
			Name:             p.BaseToken.Name,
			Dex:              p.DexID,
			PeakMarketCap:    mc,
			CurrentMarketCap: mc,
			LaunchMarketCap:  launchMC,
			GainMultiple:     gain,
			PairCreatedAt:    pairCreated,
			DiscoveredAt:     now,
			Status:           domain.DiscoveryPending,
		})
	}

	sort.Slice(winners, func(i, j int) bool {
		return winners[i].GainMultiple > winners[j].GainMultiple
	})
	return winners, nil
}

// launchMarketCap is the assumed market cap at launch. Pump venues start
// tokens around $5k; everywhere else $10k is the better guess. The gain
// multiple built on it is an estimate, not a measurement.
func (e *Engine) launchMarketCap(dex string) float64 {
	if strings.Contains(strings.ToLower(dex), "pump") {
		return e.launchMCPump
	}
	return e.launchMCOther
}
