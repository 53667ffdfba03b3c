package listener

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"solana-sniper-stack/internal/solana"
)

const (
	wsolMint = "So11111111111111111111111111111111111111112"
	tokenkeg = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

func TestSeenSet_DedupAndEviction(t *testing.T) {
	s := newSeenSet(3)

	if !s.Add("a") || !s.Add("b") || !s.Add("c") {
		t.Fatal("fresh signatures should be accepted")
	}
	if s.Add("a") {
		t.Error("duplicate should be rejected")
	}

	// Capacity 3: adding d evicts a, the oldest.
	if !s.Add("d") {
		t.Fatal("d should be accepted")
	}
	if !s.Add("a") {
		t.Error("a should have been evicted and accepted again")
	}
	if s.Len() != 3 {
		t.Errorf("expected len 3, got %d", s.Len())
	}
}

// recordingHandler collects mints and signals each delivery.
type recordingHandler struct {
	mu        sync.Mutex
	mints     []string
	delivered chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{delivered: make(chan struct{}, 100)}
}

func (h *recordingHandler) HandleCandidate(_ context.Context, mint string) {
	h.mu.Lock()
	h.mints = append(h.mints, mint)
	h.mu.Unlock()
	h.delivered <- struct{}{}
}

func (h *recordingHandler) all() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.mints...)
}

func (h *recordingHandler) waitFor(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-h.delivered:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

// mapResolver resolves signatures from a fixed table.
type mapResolver struct {
	mints map[string]string
}

func (r *mapResolver) FromSignature(_ context.Context, signature string) (string, error) {
	mint, ok := r.mints[signature]
	if !ok {
		return "", fmt.Errorf("no mint found in transaction %s", signature)
	}
	return mint, nil
}

// scriptedSession replays notifications, then blocks until closed.
type scriptedSession struct {
	notifs []*solana.LogNotification
	idx    int
	done   chan struct{}
	once   sync.Once
}

func newScriptedSession(notifs ...*solana.LogNotification) *scriptedSession {
	return &scriptedSession{notifs: notifs, done: make(chan struct{})}
}

func (s *scriptedSession) Recv() (*solana.LogNotification, error) {
	if s.idx < len(s.notifs) {
		n := s.notifs[s.idx]
		s.idx++
		return n, nil
	}
	<-s.done
	return nil, errors.New("session closed")
}

func (s *scriptedSession) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// pollRPC serves a fixed signature page.
type pollRPC struct {
	sigs []solana.SignatureInfo
}

func (r *pollRPC) GetTransaction(_ context.Context, _ string) (*solana.Transaction, error) {
	return nil, nil
}

func (r *pollRPC) GetSignaturesForAddress(_ context.Context, _ string, _ *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	return r.sigs, nil
}

func (r *pollRPC) GetAsset(_ context.Context, _ string) (*solana.AssetMetadata, error) {
	return nil, nil
}

func TestListener_WebSocketDelivery(t *testing.T) {
	creationLogs := []string{"Program log: Instruction: Create"}
	session := newScriptedSession(
		// Mint embedded in the logs, no transaction fetch needed.
		&solana.LogNotification{Signature: "sig1", Logs: []string{"Program log: create " + wsolMint}},
		// Duplicate signature.
		&solana.LogNotification{Signature: "sig1", Logs: creationLogs},
		// Failed transaction.
		&solana.LogNotification{Signature: "sig2", Logs: creationLogs, Err: "failed"},
		// Not a creation.
		&solana.LogNotification{Signature: "sig3", Logs: []string{"Program log: Instruction: Buy"}},
		// Creation without mint in logs, resolved by signature.
		&solana.LogNotification{Signature: "sig4", Logs: creationLogs},
	)

	handler := newRecordingHandler()
	l := New(&pollRPC{}, "wss://unused", &mapResolver{mints: map[string]string{"sig4": tokenkeg}}, handler, &Options{
		Dial: func(_ context.Context, _ string, _ solana.LogsFilter, _ *solana.WSConfig) (Session, error) {
			return session, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- l.Run(ctx) }()

	handler.waitFor(t, 2)
	cancel()
	<-runErr

	got := handler.all()
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %v", len(got), got)
	}
	if got[0] != wsolMint || got[1] != tokenkeg {
		t.Errorf("unexpected candidates: %v", got)
	}
	if l.Mode() != ModeWebSocket {
		t.Errorf("expected websocket mode, got %s", l.Mode())
	}
}

func TestListener_RedialsAfterSessionLoss(t *testing.T) {
	logs := []string{"Program log: create " + wsolMint}
	sessions := []*scriptedSession{
		newScriptedSession(&solana.LogNotification{Signature: "sig1", Logs: logs}),
		newScriptedSession(&solana.LogNotification{Signature: "sig2", Logs: logs}),
	}
	var dials int

	handler := newRecordingHandler()
	l := New(&pollRPC{}, "wss://unused", &mapResolver{}, handler, &Options{
		ReconnectDelay: time.Millisecond,
		Dial: func(_ context.Context, _ string, _ solana.LogsFilter, _ *solana.WSConfig) (Session, error) {
			if dials >= len(sessions) {
				return nil, fmt.Errorf("no more sessions")
			}
			s := sessions[dials]
			dials++
			// End the session right after its replay so Run redials.
			s.Close()
			return s, nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- l.Run(ctx) }()

	handler.waitFor(t, 2)
	cancel()
	<-runErr

	if dials != 2 {
		t.Errorf("expected 2 dials, got %d", dials)
	}
	if got := handler.all(); len(got) != 2 {
		t.Errorf("expected 2 candidates, got %v", got)
	}
}

func TestListener_FallsBackToPollingOnBadEndpoint(t *testing.T) {
	rpc := &pollRPC{sigs: []solana.SignatureInfo{
		{Signature: "newest"},
		{Signature: "failed", Err: "InstructionError"},
		{Signature: "oldest"},
		{Signature: "not-a-creation"},
	}}
	resolve := &mapResolver{mints: map[string]string{
		"newest": wsolMint,
		"oldest": tokenkeg,
	}}

	handler := newRecordingHandler()
	l := New(rpc, "wss://unused", resolve, handler, &Options{
		PollInterval: time.Millisecond,
		Dial: func(_ context.Context, _ string, _ solana.LogsFilter, _ *solana.WSConfig) (Session, error) {
			return nil, fmt.Errorf("subscribe: %w", solana.ErrBadEndpoint)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- l.Run(ctx) }()

	handler.waitFor(t, 2)
	cancel()
	<-runErr

	if l.Mode() != ModePolling {
		t.Errorf("expected polling mode, got %s", l.Mode())
	}

	got := handler.all()
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %v", len(got), got)
	}
	// Oldest first; failed and unresolvable signatures skipped.
	if got[0] != tokenkeg || got[1] != wsolMint {
		t.Errorf("unexpected order: %v", got)
	}
}
