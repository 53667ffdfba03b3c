// Package resolver extracts the token mint address from pump.fun creation
// events, first from the log lines themselves and, when the logs carry no
// address, from the parsed transaction.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"solana-sniper-stack/internal/solana"
)

// Mint address length bounds in base58 characters.
const (
	minAddressLen = 32
	maxAddressLen = 44
)

// punctuation stripped from log words before address validation.
const punctuation = `,.;:'"()`

// Resolver resolves the mint address of a token creation event.
type Resolver struct {
	rpc solana.RPCClient
}

// New creates a Resolver backed by the given RPC client.
func New(rpc solana.RPCClient) *Resolver {
	return &Resolver{rpc: rpc}
}

// FromLogs extracts a mint address from subscription log lines. Only lines
// carrying a creation marker are considered. Returns empty when no valid
// address is present, which is the common case; logs rarely embed the mint.
func FromLogs(logs []string) string {
	for _, line := range logs {
		if !isCreationLine(line) {
			continue
		}
		for _, word := range strings.Fields(line) {
			word = strings.Trim(word, punctuation)
			if isMintAddress(word) {
				return word
			}
		}
	}
	return ""
}

// FromSignature resolves the mint by fetching the parsed transaction.
// Inner instructions are checked first because pump.fun initializes the
// mint via CPI; top-level initializeMint covers direct SPL launches. As a
// last resort the second account key is used, which is where pump.fun
// places the new mint.
func (r *Resolver) FromSignature(ctx context.Context, signature string) (string, error) {
	tx, err := r.rpc.GetTransaction(ctx, signature)
	if err != nil {
		return "", fmt.Errorf("get transaction %s: %w", signature, err)
	}
	if tx == nil {
		return "", fmt.Errorf("transaction %s not found", signature)
	}

	if mint := mintFromInstructions(tx.InnerInstructions); mint != "" {
		return mint, nil
	}
	if mint := mintFromInstructions(tx.Instructions); mint != "" {
		return mint, nil
	}

	if len(tx.AccountKeys) >= 3 {
		key := tx.AccountKeys[1].Pubkey
		if key != solana.PumpFunProgramID && isMintAddress(key) {
			return key, nil
		}
	}

	return "", fmt.Errorf("no mint found in transaction %s", signature)
}

// mintFromInstructions scans parsed instructions for an initializeMint.
func mintFromInstructions(instructions []solana.ParsedInstruction) string {
	for _, ins := range instructions {
		if ins.Parsed == nil {
			continue
		}
		switch ins.Parsed.Type {
		case "initializeMint", "initializeMint2":
			if isMintAddress(ins.Parsed.Info.Mint) {
				return ins.Parsed.Info.Mint
			}
		}
	}
	return ""
}

// HasCreationMarker reports whether any log line marks a token creation.
func HasCreationMarker(logs []string) bool {
	for _, line := range logs {
		if isCreationLine(line) {
			return true
		}
	}
	return false
}

// isCreationLine reports whether a log line marks a token creation.
func isCreationLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "create") || strings.Contains(line, "InitializeMint")
}

// isMintAddress reports whether s is a plausible base58 Solana address.
func isMintAddress(s string) bool {
	if len(s) < minAddressLen || len(s) > maxAddressLen {
		return false
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}
