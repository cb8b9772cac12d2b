package trade

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

	"github.com/wbtools/apitest/internal/config"
)

var upgrader = websocket.Upgrader{}

func eventsWSURL(server *httptest.Server) string {
	return "ws://" + strings.TrimPrefix(server.URL, "http://")
}

func TestEvents_ReceivesOrderEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub map[string]string
		require.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, "subscribe", sub["type"])
		assert.Equal(t, config.PlaceholderAccountID, sub["account_id"])

		require.NoError(t, conn.WriteJSON(map[string]any{"type": "sub-ack"}))
		require.NoError(t, conn.WriteJSON(map[string]any{
			"type": "order-event", "event_type": "ORDER_STATUS_CHANGED",
			"client_order_id": "ord-1", "symbol": "AAPL", "status": "FILLED",
			"filled_quantity": "1", "timestamp": 1700000000000,
		}))
		conn.ReadMessage()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c := NewEvents(config.Defaults(), WithEventsURL(eventsWSURL(server)))
	events := make(chan OrderEvent, 1)
	go func() { c.Run(ctx, events) }()

	select {
	case ev := <-events:
		assert.Equal(t, "ORDER_STATUS_CHANGED", ev.EventType)
		assert.Equal(t, "ord-1", ev.ClientOrderID)
		assert.Equal(t, "FILLED", ev.Status)
		assert.Equal(t, time.UnixMilli(1700000000000), ev.Timestamp)
	case <-ctx.Done():
		t.Fatal("timed out waiting for order event")
	}
}

func TestEvents_CleanCloseReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub map[string]string
		require.NoError(t, conn.ReadJSON(&sub))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	}))
	defer server.Close()

	c := NewEvents(config.Defaults(), WithEventsURL(eventsWSURL(server)))
	err := c.Run(context.Background(), make(chan OrderEvent, 1))
	assert.NoError(t, err)
}

func TestEvents_AbruptDropReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		var sub map[string]string
		require.NoError(t, conn.ReadJSON(&sub))
		// No close frame: the connection just dies.
		conn.Close()
	}))
	defer server.Close()

	c := NewEvents(config.Defaults(), WithEventsURL(eventsWSURL(server)))
	err := c.Run(context.Background(), make(chan OrderEvent, 1))
	assert.Error(t, err, "a dropped event stream must be surfaced, not retried")
}

func TestEvents_ContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub map[string]string
		require.NoError(t, conn.ReadJSON(&sub))
		conn.ReadMessage()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewEvents(config.Defaults(), WithEventsURL(eventsWSURL(server)))

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx, make(chan OrderEvent, 1)) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("events client did not stop after cancel")
	}
}

func TestNewEvents_DerivesURL(t *testing.T) {
	c := NewEvents(&config.Config{Endpoint: "api.webull.hk", AccountID: "ACC-1"})
	assert.Equal(t, "wss://api.webull.hk/trade/events", c.url)
	assert.Equal(t, "ACC-1", c.accountID)
}
