package channel

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"github.com/dm/pidash/internal/apperror"
	"github.com/dm/pidash/internal/logger"
)

const (
	defaultMinBackoff       = 500 * time.Millisecond
	defaultMaxBackoff       = 10 * time.Second
	defaultHandshakeTimeout = 5 * time.Second
	writeTimeout            = 5 * time.Second
	eventBuffer             = 64
)

// Options configures a WebSocket channel.
type Options struct {
	URL                string
	InsecureSkipVerify bool
	MinBackoff         time.Duration
	MaxBackoff         time.Duration
	HandshakeTimeout   time.Duration
}

// WebSocket implements Channel over gorilla/websocket.
type WebSocket struct {
	opts   Options
	log    *logger.Logger
	dialer *websocket.Dialer
	events chan Event

	mu        sync.Mutex // guards conn and writes to it
	conn      *websocket.Conn
	announced string // last connect/disconnect event delivered
}

// NewWebSocket creates a channel for opts.URL. Nothing is dialled until Run.
func NewWebSocket(opts Options, log *logger.Logger) *WebSocket {
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = defaultMinBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	return &WebSocket{
		opts: opts,
		log:  log,
		dialer: &websocket.Dialer{
			HandshakeTimeout: opts.HandshakeTimeout,
			TLSClientConfig:  &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify}, //nolint:gosec
		},
		events: make(chan Event, eventBuffer),
	}
}

// Events implements Channel.
func (w *WebSocket) Events() <-chan Event {
	return w.events
}

// Connected implements Channel.
func (w *WebSocket) Connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn != nil
}

// Run dials the device and keeps redialling with jittered exponential backoff
// whenever the connection fails or drops. It returns nil when ctx is cancelled.
func (w *WebSocket) Run(ctx context.Context) error {
	b := &backoff.Backoff{Min: w.opts.MinBackoff, Max: w.opts.MaxBackoff, Factor: 2, Jitter: true}

	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, _, err := w.dialer.DialContext(ctx, w.opts.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d := b.Duration()
			w.log.LogWarning(err, "push channel dial failed", "url", w.opts.URL, "retry_in", d.String())
			w.announce(ctx, EventDisconnect)
			if !sleep(ctx, d) {
				return nil
			}
			continue
		}

		b.Reset()
		w.setConn(conn)
		w.log.LogInfo("push channel connected", "url", w.opts.URL)
		w.announce(ctx, EventConnect)

		err = w.readLoop(ctx, conn)
		w.setConn(nil)
		_ = conn.Close()

		if ctx.Err() != nil {
			return nil
		}
		w.log.LogWarning(err, "push channel closed", "url", w.opts.URL)
		w.announce(ctx, EventDisconnect)
	}
}

// Emit implements Channel.
func (w *WebSocket) Emit(name string, payload any) error {
	ev, err := NewEvent(name, payload)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return apperror.ChannelUnavailable
	}
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := w.conn.WriteJSON(ev); err != nil {
		return apperror.ChannelUnavailable.Wrap(err)
	}
	return nil
}

func (w *WebSocket) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	// ReadMessage does not take a context; closing the socket unblocks it.
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil || ev.Name == "" {
			if err == nil {
				err = errors.New("missing event name")
			}
			w.log.LogWarning(apperror.InvalidPayload.Wrap(err), "dropping push frame", "frame", truncate(data, 120))
			continue
		}
		w.deliver(ctx, ev)
	}
}

// announce delivers a connect/disconnect event, collapsing repeats so a run of
// failed dials produces a single disconnect.
func (w *WebSocket) announce(ctx context.Context, name string) {
	w.mu.Lock()
	if w.announced == name {
		w.mu.Unlock()
		return
	}
	w.announced = name
	w.mu.Unlock()
	w.deliver(ctx, Event{Name: name})
}

func (w *WebSocket) deliver(ctx context.Context, ev Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

func (w *WebSocket) setConn(conn *websocket.Conn) {
	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
