package domain

import "time"

// WalletStatus is the tracking state of a smart wallet.
type WalletStatus string

const (
	WalletActive WalletStatus = "active"
	WalletPaused WalletStatus = "paused"
)

// WalletSource records how a wallet entered the roster.
type WalletSource string

const (
	WalletSourceManual    WalletSource = "manual"
	WalletSourceDiscovery WalletSource = "discovery"
)

// TrackedWallet is a roster entry the analyzer cross-references signers against.
// Corresponds to the tracked_wallets table. The address is immutable once created.
type TrackedWallet struct {
	Address   string // PRIMARY KEY, base58 pubkey
	Label     string
	Status    WalletStatus
	Source    WalletSource
	TrackedAt time.Time
}
