package domain

// MarketCapPoint is one market observation recorded during a price sweep.
// Corresponds to the marketcap_history ClickHouse table.
type MarketCapPoint struct {
	TokenAddress string
	TimestampMs  int64
	MarketCap    float64
	LiquidityUSD float64
	Dex          string
	Status       TokenStatus // status after the sweep evaluated this observation
}
