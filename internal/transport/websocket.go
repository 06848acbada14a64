// Package transport owns the realtime duplex connection to the proxy's
// control channel. A Conn is single-use: it dials once, delivers lifecycle
// events in arrival order on one channel, and is spent after the terminal
// Closed event. Reconnection is the session layer's concern.
package transport

import (
	"context"
	goerrors "errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/filter-panel/panel/internal/errors"
	"github.com/filter-panel/panel/internal/interfaces"
	"github.com/filter-panel/panel/internal/logging"
)

const (
	// Time allowed to complete the opening handshake
	handshakeTimeout = 10 * time.Second

	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024

	// Buffer for lifecycle events awaiting the session loop
	eventBuffer = 32
)

// ErrNotConnected is returned by Send when the connection is not open
var ErrNotConnected = goerrors.New("transport: not connected")

// ErrAlreadyOpened is returned by Open on a spent or already-dialed Conn
var ErrAlreadyOpened = goerrors.New("transport: connection already opened")

// Conn is one websocket connection to the control channel
type Conn struct {
	url    string
	logger *logging.Logger

	ws      *websocket.Conn
	events  chan interfaces.TransportEvent
	done    chan struct{}
	writeMu sync.Mutex

	opened    atomic.Bool
	connected atomic.Bool
	closeOnce sync.Once
}

// New creates an unopened connection for the given ws:// or wss:// URL
func New(url string) *Conn {
	return &Conn{
		url:    url,
		logger: logging.GetTransportLogger(),
		events: make(chan interfaces.TransportEvent, eventBuffer),
		done:   make(chan struct{}),
	}
}

// Open dials the control channel. On success an Opened event is emitted and
// a read pump starts delivering Received events; the pump emits the terminal
// Closed event and closes the event channel when the connection ends. Open
// returns an error without emitting any event when the handshake fails.
func (c *Conn) Open(ctx context.Context) error {
	if !c.opened.CompareAndSwap(false, true) {
		return ErrAlreadyOpened
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	start := time.Now()
	ws, resp, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return errors.NewConnectionError("transport").
			WithOperation("open").
			WithMessage("websocket dial failed").
			WithCause(err).
			WithContext("url", c.url).
			WithContext("status", status).
			WithoutStackTrace().
			Build()
	}
	if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
		c.logger.Warn("Unexpected handshake status", "status", resp.StatusCode)
	}

	c.ws = ws
	c.connected.Store(true)
	c.logger.LogConnectionSuccess(c.url, time.Since(start))

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.emit(interfaces.TransportEvent{Kind: interfaces.TransportOpened})

	go c.readPump()
	go c.pingLoop()

	return nil
}

// Send writes one raw text frame. It reports ErrNotConnected when the
// connection is not open so the caller can surface the failure instead of
// silently losing the message.
func (c *Conn) Send(raw []byte) error {
	if !c.connected.Load() {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, raw); err != nil {
		return errors.NewNetworkError("transport").
			WithOperation("send").
			WithMessage("websocket write failed").
			WithCause(err).
			WithoutStackTrace().
			Build()
	}
	return nil
}

// Events returns the lifecycle event channel. It is closed after the
// terminal Closed event.
func (c *Conn) Events() <-chan interfaces.TransportEvent {
	return c.events
}

// Close tears the connection down, attempting a clean close handshake. The
// read pump still emits the terminal Closed event.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			c.writeMu.Lock()
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			c.writeMu.Unlock()
			err = c.ws.Close()
		} else {
			// Never dialed: emit the terminal event ourselves
			c.connected.Store(false)
			c.emit(interfaces.TransportEvent{
				Kind:   interfaces.TransportClosed,
				Code:   websocket.CloseNormalClosure,
				Reason: "closed before open",
			})
			close(c.events)
		}
	})
	return err
}

// readPump reads inbound frames until the connection ends, then emits the
// terminal Closed event and closes the event channel
func (c *Conn) readPump() {
	defer func() {
		c.connected.Store(false)
		c.ws.Close()
		close(c.events)
	}()

	for {
		messageType, raw, err := c.ws.ReadMessage()
		if err != nil {
			code, reason := closeDetails(err)
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.emit(interfaces.TransportEvent{Kind: interfaces.TransportError, Err: err})
			}
			c.logger.LogConnectionClosed(code, reason)
			c.emit(interfaces.TransportEvent{
				Kind:   interfaces.TransportClosed,
				Code:   code,
				Reason: reason,
			})
			return
		}

		if messageType != websocket.TextMessage {
			c.logger.Debug("Ignoring non-text frame", "message_type", messageType)
			continue
		}

		c.emit(interfaces.TransportEvent{Kind: interfaces.TransportReceived, Message: raw})
	}
}

// pingLoop keeps the connection alive so the read deadline keeps advancing
func (c *Conn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.ws.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// emit delivers an event in arrival order. Consumers must drain Events()
// until it closes; the terminal Closed event is never dropped.
func (c *Conn) emit(event interfaces.TransportEvent) {
	c.events <- event
}

// closeDetails extracts the close code and reason from a read error
func closeDetails(err error) (int, string) {
	var closeErr *websocket.CloseError
	if goerrors.As(err, &closeErr) {
		return closeErr.Code, closeErr.Text
	}
	return websocket.CloseAbnormalClosure, err.Error()
}
