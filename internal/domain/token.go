package domain

import "time"

// TokenStatus is the lifecycle state of a scanned token.
type TokenStatus string

const (
	TokenBondingCurve TokenStatus = "bonding_curve"
	TokenGraduated    TokenStatus = "graduated"
	TokenRugged       TokenStatus = "rugged"
)

// Token is a launch-venue token that cleared the scan pipeline.
// Corresponds to the tokens table; one row per contract address.
type Token struct {
	ContractAddress string // PRIMARY KEY, mint address
	Symbol          string
	CreatedAt       time.Time
	DevAddress      string // fee payer of the creation transaction
	MarketCapAtScan float64
	Status          TokenStatus
}

// Signal is an actionable match emitted by the analyzer.
// Immutable after creation; is_executed is flipped by external tooling.
type Signal struct {
	ID               int64 // serial
	TokenAddress     string
	SmartWalletCount int
	ConfidenceScore  int // [0,100]
	Timestamp        time.Time
	IsExecuted       bool
}
