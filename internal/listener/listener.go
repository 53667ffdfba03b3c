// Package listener watches the pump.fun program for token creation events.
// It prefers a logsSubscribe websocket and falls back to signature polling
// when the endpoint cannot serve subscriptions at all.
package listener

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"solana-sniper-stack/internal/observability"
	"solana-sniper-stack/internal/resolver"
	"solana-sniper-stack/internal/solana"
)

// Mode is the listener's current event source.
type Mode string

const (
	// ModeWebSocket means events arrive through a live logs subscription.
	ModeWebSocket Mode = "websocket"
	// ModeReconnecting means the subscription dropped and a redial is due.
	ModeReconnecting Mode = "reconnecting"
	// ModePolling means the endpoint rejected subscriptions and the
	// listener polls signatures instead. Polling is terminal; the
	// endpoint will not start supporting subscriptions mid-run.
	ModePolling Mode = "polling"
)

// CandidateHandler consumes resolved mint candidates.
type CandidateHandler interface {
	HandleCandidate(ctx context.Context, mint string)
}

// MintResolver resolves a creation transaction to its mint address.
type MintResolver interface {
	FromSignature(ctx context.Context, signature string) (string, error)
}

// Session is the subset of a log session the listener drives.
type Session interface {
	Recv() (*solana.LogNotification, error)
	Close() error
}

// DialFunc dials a log session. Injected so tests can run without a socket.
type DialFunc func(ctx context.Context, endpoint string, filter solana.LogsFilter, config *solana.WSConfig) (Session, error)

// Default tuning values.
const (
	DefaultReconnectDelay = 5 * time.Second
	DefaultPollInterval   = 5 * time.Second
	DefaultPollLimit      = 20
	DefaultSeenCapacity   = 5000
)

// Options configures a Listener.
type Options struct {
	Logger         *log.Logger
	Dial           DialFunc
	WSConfig       *solana.WSConfig
	Program        string
	ReconnectDelay time.Duration
	PollInterval   time.Duration
	PollLimit      int
	SeenCapacity   int
}

// Listener drives the creation event stream, resolves each event to a mint
// and hands it to a CandidateHandler. It owns the connection lifecycle; the
// websocket session itself never reconnects.
type Listener struct {
	rpc        solana.RPCClient
	wsEndpoint string
	resolve    MintResolver
	handler    CandidateHandler

	logger         *log.Logger
	dial           DialFunc
	wsConfig       *solana.WSConfig
	program        string
	reconnectDelay time.Duration
	pollInterval   time.Duration
	pollLimit      int

	seen *seenSet
	mode atomic.Value // Mode
}

// New creates a Listener. Nil options get defaults.
func New(rpc solana.RPCClient, wsEndpoint string, resolve MintResolver, handler CandidateHandler, opts *Options) *Listener {
	if opts == nil {
		opts = &Options{}
	}

	l := &Listener{
		rpc:            rpc,
		wsEndpoint:     wsEndpoint,
		resolve:        resolve,
		handler:        handler,
		logger:         opts.Logger,
		dial:           opts.Dial,
		wsConfig:       opts.WSConfig,
		program:        opts.Program,
		reconnectDelay: opts.ReconnectDelay,
		pollInterval:   opts.PollInterval,
		pollLimit:      opts.PollLimit,
	}

	if l.logger == nil {
		l.logger = log.Default()
	}
	if l.dial == nil {
		l.dial = func(ctx context.Context, endpoint string, filter solana.LogsFilter, config *solana.WSConfig) (Session, error) {
			return solana.DialLogs(ctx, endpoint, filter, config)
		}
	}
	if l.program == "" {
		l.program = solana.PumpFunProgramID
	}
	if l.reconnectDelay <= 0 {
		l.reconnectDelay = DefaultReconnectDelay
	}
	if l.pollInterval <= 0 {
		l.pollInterval = DefaultPollInterval
	}
	if l.pollLimit <= 0 {
		l.pollLimit = DefaultPollLimit
	}

	capacity := opts.SeenCapacity
	if capacity <= 0 {
		capacity = DefaultSeenCapacity
	}
	l.seen = newSeenSet(capacity)

	l.mode.Store(ModeReconnecting)
	return l
}

// Mode returns the listener's current event source.
func (l *Listener) Mode() Mode {
	return l.mode.Load().(Mode)
}

// Run blocks until ctx is cancelled, delivering candidates to the handler.
func (l *Listener) Run(ctx context.Context) error {
	filter := solana.LogsFilter{Mentions: []string{l.program}}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		session, err := l.dial(ctx, l.wsEndpoint, filter, l.wsConfig)
		if err != nil {
			if errors.Is(err, solana.ErrBadEndpoint) {
				l.logger.Printf("[listener] endpoint has no subscription support, switching to polling: %v", err)
				return l.runPolling(ctx)
			}
			l.setMode(ModeReconnecting)
			observability.RecordReconnect()
			l.logger.Printf("[listener] dial failed, retrying in %s: %v", l.reconnectDelay, err)
			if !sleep(ctx, l.reconnectDelay) {
				return ctx.Err()
			}
			continue
		}

		l.setMode(ModeWebSocket)
		l.logger.Printf("[listener] subscribed to %s logs", l.program)

		err = l.consume(ctx, session)
		session.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.setMode(ModeReconnecting)
		observability.RecordReconnect()
		l.logger.Printf("[listener] subscription lost, redialing in %s: %v", l.reconnectDelay, err)
		if !sleep(ctx, l.reconnectDelay) {
			return ctx.Err()
		}
	}
}

// consume drains a session until it fails. A goroutine closes the session
// on ctx cancellation so the blocking Recv unwinds.
func (l *Listener) consume(ctx context.Context, session Session) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			session.Close()
		case <-stop:
		}
	}()

	for {
		notif, err := session.Recv()
		if err != nil {
			return err
		}
		// Failed transactions never carry a usable creation.
		if notif.Err != nil || notif.Signature == "" {
			continue
		}
		if !resolver.HasCreationMarker(notif.Logs) {
			continue
		}
		if !l.seen.Add(notif.Signature) {
			continue
		}
		observability.RecordEventReceived()
		observability.UpdateSeenSetSize(l.seen.Len())

		// Cheap path first: the mint is occasionally right in the logs.
		mint := resolver.FromLogs(notif.Logs)
		if mint == "" {
			mint, err = l.resolve.FromSignature(ctx, notif.Signature)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logger.Printf("[listener] resolve %s: %v", notif.Signature, err)
				continue
			}
		}
		l.handler.HandleCandidate(ctx, mint)
	}
}

// runPolling polls recent program signatures on a fixed interval. This mode
// is terminal for the process lifetime.
func (l *Listener) runPolling(ctx context.Context) error {
	l.setMode(ModePolling)
	l.logger.Printf("[listener] polling %s signatures every %s", l.program, l.pollInterval)

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		sigs, err := l.rpc.GetSignaturesForAddress(ctx, l.program, &solana.SignaturesOpts{Limit: l.pollLimit})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Printf("[listener] poll failed: %v", err)
			continue
		}

		// The RPC returns newest first; process oldest first so the
		// handler sees creations in chain order.
		for i := len(sigs) - 1; i >= 0; i-- {
			sig := sigs[i]
			if sig.Err != nil || sig.Signature == "" {
				continue
			}
			if !l.seen.Add(sig.Signature) {
				continue
			}
			observability.RecordEventReceived()
			observability.UpdateSeenSetSize(l.seen.Len())

			mint, err := l.resolve.FromSignature(ctx, sig.Signature)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Most program transactions are trades, not creations.
				continue
			}
			l.handler.HandleCandidate(ctx, mint)
		}
	}
}

func (l *Listener) setMode(m Mode) {
	l.mode.Store(m)
	observability.SetListenerMode(m == ModePolling)
}

// sleep waits for d or until ctx is cancelled. Returns false on cancel.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
