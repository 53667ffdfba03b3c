package domain

import "time"

// DiscoveryStatus is the buyer-extraction pipeline state of a discovered winner.
type DiscoveryStatus string

const (
	DiscoveryPending    DiscoveryStatus = "pending"
	DiscoveryProcessing DiscoveryStatus = "processing"
	DiscoveryDone       DiscoveryStatus = "done"
	DiscoveryError      DiscoveryStatus = "error"
)

// DiscoveredToken is a historical winner found by the discovery engine.
// Corresponds to the discovered_tokens table; address is unique.
type DiscoveredToken struct {
	ID               int64 // serial
	Address          string
	Symbol           string
	Name             string
	Dex              string
	PeakMarketCap    float64
	CurrentMarketCap float64
	LaunchMarketCap  float64 // assumed launch MC, heuristic
	GainMultiple     float64 // current / launch estimate
	PairCreatedAt    *time.Time
	DiscoveredAt     time.Time
	Status           DiscoveryStatus
	EarlyBuyersFound int
}

// EarlyBuyer is the earliest qualifying buy of a wallet into a discovered winner.
// At most one row per (token, wallet); the earliest entry timestamp is kept.
type EarlyBuyer struct {
	ID             int64 // serial
	TokenID        int64 // FK to discovered_tokens
	TokenAddress   string
	WalletAddress  string
	EntryTimestamp *time.Time
	TxSignature    string
	Appearances    int // winners this wallet appears in, denormalized
}

// SmartWalletCandidate is a wallet seen buying early into multiple winners.
// wallet_address is unique; is_promoted is monotonic once set.
type SmartWalletCandidate struct {
	ID            int64 // serial
	WalletAddress string
	TokenCount    int    // distinct winners this wallet bought early
	TokenSymbols  string // comma-separated symbol list
	FirstSeen     time.Time
	IsPromoted    bool
}

// WalletAggregate is one row of the cross-winner aggregation.
type WalletAggregate struct {
	WalletAddress string
	TokenCount    int
	TokenSymbols  string
}
