package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// LogSession is a single logsSubscribe websocket session. A session does not
// reconnect; when the connection dies Recv returns an error and the caller
// decides whether to dial again. That keeps connection-lifecycle policy in
// one place instead of hiding it inside the transport.
type LogSession struct {
	conn   *websocket.Conn
	config WSConfig
	subID  int64

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// DialLogs connects to the endpoint and subscribes to logs matching the
// filter. Returns ErrBadEndpoint when the endpoint refuses the handshake or
// the subscription, which means a redial is pointless.
func DialLogs(ctx context.Context, endpoint string, filter LogsFilter, config *WSConfig) (*LogSession, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: handshake status %d", ErrBadEndpoint, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	s := &LogSession{
		conn:   conn,
		config: cfg,
		done:   make(chan struct{}),
	}

	subID, err := s.subscribe(filter)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.subID = subID

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// subscribe sends logsSubscribe and waits for the confirmation frame.
func (s *LogSession) subscribe(filter LogsFilter) (int64, error) {
	mentionsFilter := make(map[string]interface{})
	if len(filter.Mentions) > 0 {
		mentionsFilter["mentions"] = filter.Mentions
	} else {
		mentionsFilter["all"] = nil
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "logsSubscribe",
		Params: []interface{}{
			mentionsFilter,
			map[string]string{"commitment": "confirmed"},
		},
	}

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(req); err != nil {
		return 0, fmt.Errorf("write subscribe: %w", err)
	}

	deadline := time.Now().Add(s.config.HandshakeTimeout)
	for {
		s.conn.SetReadDeadline(deadline)
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return 0, fmt.Errorf("read subscribe confirmation: %w", err)
		}

		var resp wsSubscribeResponse
		if err := json.Unmarshal(message, &resp); err == nil && resp.ID == req.ID {
			if resp.Error != nil {
				return 0, fmt.Errorf("%w: %s", ErrBadEndpoint, resp.Error.Message)
			}
			if resp.Result > 0 {
				return resp.Result, nil
			}
		}
		// Not the confirmation, keep reading until the deadline.
	}
}

// Recv blocks until the next log notification arrives or the connection
// fails. Frames other than logsNotification are skipped.
func (s *LogSession) Recv() (*LogNotification, error) {
	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("websocket read: %w", err)
		}

		var notif wsNotification
		if err := json.Unmarshal(message, &notif); err != nil || notif.Method != "logsNotification" {
			continue
		}
		if notif.Params == nil || notif.Params.Subscription != s.subID {
			continue
		}

		value := notif.Params.Result.Value
		logNotif := &LogNotification{
			Signature: value.Signature,
			Logs:      value.Logs,
			Err:       value.Err,
		}
		if notif.Params.Result.Context != nil {
			logNotif.Slot = notif.Params.Result.Context.Slot
		}
		return logNotif, nil
	}
}

// Close closes the session. Safe to call concurrently with Recv; the
// blocked read unwinds with an error.
func (s *LogSession) Close() error {
	s.once.Do(func() {
		close(s.done)

		s.writeMu.Lock()
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(s.config.WriteTimeout))
		s.writeMu.Unlock()

		s.conn.Close()
		s.wg.Wait()
	})
	return nil
}

// pingLoop keeps the connection alive between notifications.
func (s *LogSession) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			// A dead connection surfaces on the next Recv.
			s.conn.WriteControl(websocket.PingMessage, nil,
				time.Now().Add(s.config.WriteTimeout))
			s.writeMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}
