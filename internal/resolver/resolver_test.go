package resolver

import (
	"context"
	"testing"

	"solana-sniper-stack/internal/solana"
)

const (
	wsolMint   = "So11111111111111111111111111111111111111112"
	tokenkeg   = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	pumpFunPID = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
)

func TestFromLogs_ExtractsMintFromCreationLine(t *testing.T) {
	logs := []string{
		"Program log: Instruction: Buy",
		"Program log: Create token: " + wsolMint + ",",
	}

	mint := FromLogs(logs)
	if mint != wsolMint {
		t.Errorf("expected %s, got %q", wsolMint, mint)
	}
}

func TestFromLogs_IgnoresNonCreationLines(t *testing.T) {
	logs := []string{
		"Program log: Swap " + wsolMint,
		"Program log: Transfer complete",
	}

	if mint := FromLogs(logs); mint != "" {
		t.Errorf("expected empty, got %q", mint)
	}
}

func TestFromLogs_StripsPunctuation(t *testing.T) {
	logs := []string{
		`Program log: InitializeMint ("` + tokenkeg + `").`,
	}

	mint := FromLogs(logs)
	if mint != tokenkeg {
		t.Errorf("expected %s, got %q", tokenkeg, mint)
	}
}

func TestFromLogs_RejectsInvalidBase58(t *testing.T) {
	// Right length, but 0 and l are not in the base58 alphabet.
	logs := []string{
		"Program log: create 0l0l0l0l0l0l0l0l0l0l0l0l0l0l0l0l0l0l0l0l0l0l",
	}

	if mint := FromLogs(logs); mint != "" {
		t.Errorf("expected empty, got %q", mint)
	}
}

// stubRPC returns a fixed transaction for any signature.
type stubRPC struct {
	tx *solana.Transaction
}

func (s *stubRPC) GetTransaction(_ context.Context, _ string) (*solana.Transaction, error) {
	return s.tx, nil
}

func (s *stubRPC) GetSignaturesForAddress(_ context.Context, _ string, _ *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	return nil, nil
}

func (s *stubRPC) GetAsset(_ context.Context, _ string) (*solana.AssetMetadata, error) {
	return nil, nil
}

func parsedInitializeMint(mint string) solana.ParsedInstruction {
	ins := solana.ParsedInstruction{
		Program:   "spl-token",
		ProgramID: tokenkeg,
		Parsed:    &solana.ParsedInfo{Type: "initializeMint"},
	}
	ins.Parsed.Info.Mint = mint
	return ins
}

func TestFromSignature_PrefersInnerInstructions(t *testing.T) {
	top := parsedInitializeMint(tokenkeg)
	inner := parsedInitializeMint(wsolMint)

	r := New(&stubRPC{tx: &solana.Transaction{
		Signature:         "sig",
		Instructions:      []solana.ParsedInstruction{top},
		InnerInstructions: []solana.ParsedInstruction{inner},
	}})

	mint, err := r.FromSignature(context.Background(), "sig")
	if err != nil {
		t.Fatalf("FromSignature: %v", err)
	}
	if mint != wsolMint {
		t.Errorf("expected inner mint %s, got %s", wsolMint, mint)
	}
}

func TestFromSignature_FallsBackToTopLevel(t *testing.T) {
	r := New(&stubRPC{tx: &solana.Transaction{
		Signature:    "sig",
		Instructions: []solana.ParsedInstruction{parsedInitializeMint(tokenkeg)},
	}})

	mint, err := r.FromSignature(context.Background(), "sig")
	if err != nil {
		t.Fatalf("FromSignature: %v", err)
	}
	if mint != tokenkeg {
		t.Errorf("expected %s, got %s", tokenkeg, mint)
	}
}

func TestFromSignature_FallsBackToSecondAccountKey(t *testing.T) {
	r := New(&stubRPC{tx: &solana.Transaction{
		Signature: "sig",
		AccountKeys: []solana.AccountKey{
			{Pubkey: tokenkeg, Signer: true},
			{Pubkey: wsolMint},
			{Pubkey: pumpFunPID},
		},
	}})

	mint, err := r.FromSignature(context.Background(), "sig")
	if err != nil {
		t.Fatalf("FromSignature: %v", err)
	}
	if mint != wsolMint {
		t.Errorf("expected %s, got %s", wsolMint, mint)
	}
}

func TestFromSignature_SecondKeyMustNotBeLaunchProgram(t *testing.T) {
	r := New(&stubRPC{tx: &solana.Transaction{
		Signature: "sig",
		AccountKeys: []solana.AccountKey{
			{Pubkey: tokenkeg, Signer: true},
			{Pubkey: pumpFunPID},
			{Pubkey: wsolMint},
		},
	}})

	if _, err := r.FromSignature(context.Background(), "sig"); err == nil {
		t.Fatal("expected error when the second key is the launch program")
	}
}

func TestHasCreationMarker(t *testing.T) {
	if !HasCreationMarker([]string{"Program log: Instruction: Create"}) {
		t.Error("expected marker for Create line")
	}
	if !HasCreationMarker([]string{"Program log: InitializeMint"}) {
		t.Error("expected marker for InitializeMint line")
	}
	if HasCreationMarker([]string{"Program log: Instruction: Buy"}) {
		t.Error("did not expect marker for Buy line")
	}
}

func TestFromSignature_NoMintFound(t *testing.T) {
	r := New(&stubRPC{tx: &solana.Transaction{Signature: "sig"}})

	if _, err := r.FromSignature(context.Background(), "sig"); err == nil {
		t.Fatal("expected error for transaction without a mint")
	}
}
