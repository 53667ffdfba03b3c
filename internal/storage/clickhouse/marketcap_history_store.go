package clickhouse

import (
	"context"
	"fmt"

	"solana-sniper-stack/internal/domain"
	"solana-sniper-stack/internal/storage"
)

// MarketCapHistoryStore implements storage.MarketCapHistoryStore using
// ClickHouse. Sweep observations are append-only; MergeTree does not
// enforce uniqueness and the sweep never produces duplicate timestamps
// for a token.
type MarketCapHistoryStore struct {
	conn *Conn
}

// NewMarketCapHistoryStore creates a new MarketCapHistoryStore.
func NewMarketCapHistoryStore(conn *Conn) *MarketCapHistoryStore {
	return &MarketCapHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MarketCapHistoryStore = (*MarketCapHistoryStore)(nil)

// InsertBulk appends observation points in one batch.
func (s *MarketCapHistoryStore) InsertBulk(ctx context.Context, points []*domain.MarketCapPoint) error {
	if len(points) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO marketcap_history (
			token_address, timestamp_ms, market_cap, liquidity_usd, dex, status
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.TokenAddress, uint64(p.TimestampMs),
			p.MarketCap, p.LiquidityUSD, p.Dex, string(p.Status),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByToken retrieves all points for a token, ordered by timestamp ASC.
func (s *MarketCapHistoryStore) GetByToken(ctx context.Context, tokenAddress string) ([]*domain.MarketCapPoint, error) {
	query := `
		SELECT token_address, timestamp_ms, market_cap, liquidity_usd, dex, status
		FROM marketcap_history
		WHERE token_address = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("query by token address: %w", err)
	}
	defer rows.Close()

	return scanMarketCapHistory(rows)
}

// scanMarketCapHistory scans multiple rows.
func scanMarketCapHistory(rows chRows) ([]*domain.MarketCapPoint, error) {
	var points []*domain.MarketCapPoint

	for rows.Next() {
		var p domain.MarketCapPoint
		var timestampMs uint64
		var status string

		err := rows.Scan(
			&p.TokenAddress, &timestampMs,
			&p.MarketCap, &p.LiquidityUSD, &p.Dex, &status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan marketcap history row: %w", err)
		}

		p.TimestampMs = int64(timestampMs)
		p.Status = domain.TokenStatus(status)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate marketcap history rows: %w", err)
	}

	return points, nil
}
