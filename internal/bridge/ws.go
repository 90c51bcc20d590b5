package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingInterval     = 50 * time.Second
	readTimeout      = 90 * time.Second
	maxReconnectWait = 30 * time.Second
	eventBufferSize  = 256
)

// PassEvent is a scheduler pass-boundary notification from the
// co-simulation host: it tells the simulator which of the three passes
// (pre-top-down, bottom-up, post-top-down) is starting and what simulated
// time it corresponds to.
type PassEvent struct {
	EventType string    `json:"event_type"` // "pre_topdown" | "bottom_up" | "post_topdown"
	SimTime   time.Time `json:"sim_time"`
}

// ClockEvent announces the host's simulation clock has advanced.
type ClockEvent struct {
	EventType string    `json:"event_type"` // "clock"
	SimTime   time.Time `json:"sim_time"`
}

// Feed maintains a WebSocket connection to the co-simulation host's
// scheduler event stream, auto-reconnecting with exponential backoff.
type Feed struct {
	url    string
	conn   *websocket.Conn
	connMu sync.Mutex

	passCh  chan PassEvent
	clockCh chan ClockEvent

	logger *slog.Logger
}

// NewFeed creates a scheduler-event WebSocket feed.
func NewFeed(wsURL string, logger *slog.Logger) *Feed {
	return &Feed{
		url:     wsURL,
		passCh:  make(chan PassEvent, eventBufferSize),
		clockCh: make(chan ClockEvent, eventBufferSize),
		logger:  logger.With("component", "bridge_ws"),
	}
}

// PassEvents returns a read-only channel of scheduler pass events.
func (f *Feed) PassEvents() <-chan PassEvent { return f.passCh }

// ClockEvents returns a read-only channel of clock-advance events.
func (f *Feed) ClockEvents() <-chan ClockEvent { return f.clockCh }

// Run connects and maintains the WebSocket connection with auto-reconnect.
// Blocks until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	backoff := time.Second

	for {
		err := f.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Warn("bridge websocket disconnected, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

// Close gracefully closes the connection.
func (f *Feed) Close() error {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}

func (f *Feed) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()

	defer func() {
		f.connMu.Lock()
		conn.Close()
		f.conn = nil
		f.connMu.Unlock()
	}()

	f.logger.Info("bridge websocket connected")

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go f.pingLoop(pingCtx, conn)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		f.dispatchMessage(msg)
	}
}

func (f *Feed) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.connMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			f.connMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (f *Feed) dispatchMessage(data []byte) {
	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		f.logger.Debug("ignoring non-json bridge message", "data", string(data))
		return
	}

	switch envelope.EventType {
	case "pre_topdown", "bottom_up", "post_topdown":
		var ev PassEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			f.logger.Warn("failed to decode pass event", "error", err)
			return
		}
		select {
		case f.passCh <- ev:
		default:
			f.logger.Warn("pass event channel full, dropping event")
		}
	case "clock":
		var ev ClockEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			f.logger.Warn("failed to decode clock event", "error", err)
			return
		}
		select {
		case f.clockCh <- ev:
		default:
			f.logger.Warn("clock event channel full, dropping event")
		}
	default:
		f.logger.Debug("unknown bridge event type", "event_type", envelope.EventType)
	}
}
