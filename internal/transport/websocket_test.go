package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filter-panel/panel/internal/interfaces"
)

var upgrader = websocket.Upgrader{}

// echoServer upgrades every request and echoes text frames back
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for {
			messageType, raw, err := ws.ReadMessage()
			if err != nil {
				return
			}
			if err := ws.WriteMessage(messageType, raw); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return strings.Replace(server.URL, "http", "ws", 1)
}

func nextEvent(t *testing.T, conn *Conn) interfaces.TransportEvent {
	t.Helper()
	select {
	case event, ok := <-conn.Events():
		require.True(t, ok, "event channel closed unexpectedly")
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for transport event")
		return interfaces.TransportEvent{}
	}
}

func TestOpenEmitsOpened(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	conn := New(wsURL(server))
	require.NoError(t, conn.Open(context.Background()))
	defer conn.Close()

	event := nextEvent(t, conn)
	assert.Equal(t, interfaces.TransportOpened, event.Kind)
}

func TestOpenFailsAgainstDeadServer(t *testing.T) {
	server := echoServer(t)
	url := wsURL(server)
	server.Close()

	conn := New(url)
	err := conn.Open(context.Background())
	require.Error(t, err)
}

func TestOpenIsSingleUse(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	conn := New(wsURL(server))
	require.NoError(t, conn.Open(context.Background()))
	defer conn.Close()

	assert.ErrorIs(t, conn.Open(context.Background()), ErrAlreadyOpened)
}

func TestSendAndReceive(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	conn := New(wsURL(server))
	require.NoError(t, conn.Open(context.Background()))
	defer conn.Close()

	require.Equal(t, interfaces.TransportOpened, nextEvent(t, conn).Kind)

	payload := []byte(`{"type":"test_url","url":"http://example.com"}`)
	require.NoError(t, conn.Send(payload))

	event := nextEvent(t, conn)
	assert.Equal(t, interfaces.TransportReceived, event.Kind)
	assert.Equal(t, payload, event.Message)
}

func TestSendBeforeOpenReturnsErrNotConnected(t *testing.T) {
	conn := New("ws://localhost:1/ws")
	assert.ErrorIs(t, conn.Send([]byte("x")), ErrNotConnected)
}

func TestServerCloseEmitsClosedAndClosesChannel(t *testing.T) {
	closeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		ws.Close()
	}))
	defer closeServer.Close()

	conn := New(wsURL(closeServer))
	require.NoError(t, conn.Open(context.Background()))

	require.Equal(t, interfaces.TransportOpened, nextEvent(t, conn).Kind)

	var closed interfaces.TransportEvent
	for {
		event, ok := <-conn.Events()
		if !ok {
			break
		}
		if event.Kind == interfaces.TransportClosed {
			closed = event
		}
	}
	assert.Equal(t, interfaces.TransportClosed, closed.Kind)
	assert.ErrorIs(t, conn.Send([]byte("x")), ErrNotConnected)
}

func TestClientCloseEndsEventStream(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	conn := New(wsURL(server))
	require.NoError(t, conn.Open(context.Background()))
	require.Equal(t, interfaces.TransportOpened, nextEvent(t, conn).Kind)

	require.NoError(t, conn.Close())

	sawClosed := false
	deadline := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-conn.Events():
			if !ok {
				assert.True(t, sawClosed, "terminal Closed event should precede channel close")
				return
			}
			if event.Kind == interfaces.TransportClosed {
				sawClosed = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for event channel to close")
		}
	}
}

func TestCloseWithoutOpenIsSafe(t *testing.T) {
	conn := New("ws://localhost:1/ws")
	require.NoError(t, conn.Close())

	event := nextEvent(t, conn)
	assert.Equal(t, interfaces.TransportClosed, event.Kind)

	_, ok := <-conn.Events()
	assert.False(t, ok)
}
