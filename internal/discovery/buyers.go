package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/observability"
	"solana-sniper-stack/internal/storage"
)

// extractBuyers records the earliest buyers of one winner. History comes
// newest first from the provider; walking it backwards yields chain order,
// and only the first occurrence per fee payer counts as the entry.
func (e *Engine) extractBuyers(ctx context.Context, token *domain.DiscoveredToken) (int, error) {
	history, err := e.enhanced.AddressTransactions(ctx, token.Address, e.historyLimit)
	if err != nil {
		return 0, fmt.Errorf("fetch history for %s: %w", token.Address, err)
	}

	seen := make(map[string]bool)
	found := 0

	for i := len(history) - 1; i >= 0 && found < e.maxBuyers; i-- {
		tx := history[i]
		if tx.FeePayer == "" || seen[tx.FeePayer] {
			continue
		}
		if tx.Type != "SWAP" && !launchVenueSources[tx.Source] {
			continue
		}
		seen[tx.FeePayer] = true

		var entry *time.Time
		if tx.Timestamp > 0 {
			ts := time.Unix(tx.Timestamp, 0)
			entry = &ts
		}

		err := e.buyers.Insert(ctx, &domain.EarlyBuyer{
			TokenID:        token.ID,
			TokenAddress:   token.Address,
			WalletAddress:  tx.FeePayer,
			EntryTimestamp: entry,
			TxSignature:    tx.Signature,
		})
		if err != nil {
			// Re-running a winner hits existing rows; that is fine.
			if errors.Is(err, storage.ErrDuplicateKey) {
				found++
				continue
			}
			return found, fmt.Errorf("insert buyer %s: %w", tx.FeePayer, err)
		}
		observability.DefaultMetrics.EarlyBuyersRecorded.Inc()
		found++
	}

	return found, nil
}

// launchVenueSources mirror the analyzer's launch classification.
var launchVenueSources = map[string]bool{
	"PUMP_FUN": true,
	"PUMP_AMM": true,
	"PUMP":     true,
}
