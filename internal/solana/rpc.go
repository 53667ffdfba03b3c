package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface used by the pipeline.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature with parsed
	// instructions. Returns nil if the transaction is not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address,
	// newest first, with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetAsset retrieves DAS metadata for a mint. Returns nil if the
	// asset is unknown to the provider.
	GetAsset(ctx context.Context, mint string) (*AssetMetadata, error)
}

// Transaction represents a Solana transaction with jsonParsed instructions.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Err       interface{}

	LogMessages []string
	AccountKeys []AccountKey

	// Instructions are top-level parsed instructions; InnerInstructions
	// are flattened across all CPI groups.
	Instructions      []ParsedInstruction
	InnerInstructions []ParsedInstruction
}

// AccountKey is one entry of the parsed account key list.
type AccountKey struct {
	Pubkey string `json:"pubkey"`
	Signer bool   `json:"signer"`
}

// ParsedInstruction is one instruction as returned by jsonParsed encoding.
// Parsed is nil for programs the RPC node cannot decode.
type ParsedInstruction struct {
	Program   string      `json:"program"`
	ProgramID string      `json:"programId"`
	Parsed    *ParsedInfo `json:"parsed"`
}

// ParsedInfo is the decoded payload of a parsed instruction.
type ParsedInfo struct {
	Type string `json:"type"`
	Info struct {
		Mint string `json:"mint"`
	} `json:"info"`
}

// SignaturesOpts controls getSignaturesForAddress pagination.
type SignaturesOpts struct {
	Before string
	Until  string
	Limit  int
}

// SignatureInfo is one item of a getSignaturesForAddress response.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// AssetMetadata is the subset of DAS getAsset content the pipeline needs.
type AssetMetadata struct {
	Symbol string
	Name   string
}
