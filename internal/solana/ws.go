package solana

import (
	"errors"
	"strings"
	"time"
)

// ErrBadEndpoint means the endpoint rejected the websocket handshake or the
// logs subscription itself. Retrying the same endpoint will not help.
var ErrBadEndpoint = errors.New("websocket endpoint rejected logs subscription")

// LogsFilter defines the subscription filter for logs.
type LogsFilter struct {
	// Mentions filters logs that mention any of these program IDs.
	Mentions []string
}

// LogNotification represents a logs subscription message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}

// WSConfig configures a log session.
type WSConfig struct {
	// HandshakeTimeout bounds the dial and the subscription confirmation.
	HandshakeTimeout time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the maximum silence before a read fails. Pong frames
	// extend the deadline, so a healthy idle connection does not time out.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      90 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// WebSocketURL derives the websocket endpoint from an HTTP RPC endpoint.
// Query parameters (provider API keys) are preserved.
func WebSocketURL(httpEndpoint string) string {
	switch {
	case strings.HasPrefix(httpEndpoint, "https://"):
		return "wss://" + strings.TrimPrefix(httpEndpoint, "https://")
	case strings.HasPrefix(httpEndpoint, "http://"):
		return "ws://" + strings.TrimPrefix(httpEndpoint, "http://")
	default:
		return httpEndpoint
	}
}
