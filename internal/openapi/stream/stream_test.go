package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbtools/apitest/internal/config"
	"github.com/wbtools/apitest/internal/openapi/core"
)

var upgrader = websocket.Upgrader{}

// wsURL converts an httptest server URL to a ws:// URL.
func wsURL(server *httptest.Server) string {
	return "ws://" + strings.TrimPrefix(server.URL, "http://")
}

func TestRun_ReceivesQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.PlaceholderAppKey, r.Header.Get(core.HeaderAppKey))

		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub subscribeFrame
		require.NoError(t, conn.ReadJSON(&sub))
		assert.Equal(t, "subscribe", sub.Type)
		assert.Equal(t, []string{"AAPL"}, sub.Symbols)

		require.NoError(t, conn.WriteJSON(map[string]any{"type": "sub-ack"}))
		require.NoError(t, conn.WriteJSON(map[string]any{
			"type": "quote", "symbol": "AAPL", "price": "189.50", "volume": 12, "timestamp": 1700000000000,
		}))

		// Hold the connection open until the client goes away.
		conn.ReadMessage()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(config.Defaults(), WithURL(wsURL(server)))
	quotes := make(chan Quote, 1)
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx, []string{"AAPL"}, quotes) }()

	select {
	case q := <-quotes:
		assert.Equal(t, "AAPL", q.Symbol)
		assert.Equal(t, 189.50, q.Price)
		assert.Equal(t, int64(12), q.Volume)
		assert.Equal(t, time.UnixMilli(1700000000000), q.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for quote")
	}

	cancel()
	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.Canceled) || err == nil)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop after cancel")
	}
}

func TestRun_NoSymbols(t *testing.T) {
	c := New(config.Defaults())
	err := c.Run(context.Background(), nil, make(chan Quote))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one symbol")
}

func TestRun_CleanCloseEndsRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub subscribeFrame
		require.NoError(t, conn.ReadJSON(&sub))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
	}))
	defer server.Close()

	c := New(config.Defaults(), WithURL(wsURL(server)))
	err := c.Run(context.Background(), []string{"AAPL"}, make(chan Quote, 1))
	assert.NoError(t, err)
}

func TestRun_ReconnectsAfterDrop(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		var sub subscribeFrame
		require.NoError(t, conn.ReadJSON(&sub))

		if n == 1 {
			// Abrupt drop without a close frame forces a reconnect.
			conn.Close()
			return
		}

		defer conn.Close()
		data, _ := json.Marshal(map[string]any{
			"type": "quote", "symbol": "TSLA", "price": "242.10", "volume": 5, "timestamp": 1700000000000,
		})
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
		conn.ReadMessage()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := New(config.Defaults(), WithURL(wsURL(server)), WithInitialBackoff(10*time.Millisecond))
	quotes := make(chan Quote, 1)
	go func() { c.Run(ctx, []string{"TSLA"}, quotes) }()

	select {
	case q := <-quotes:
		assert.Equal(t, "TSLA", q.Symbol)
		assert.GreaterOrEqual(t, attempts.Load(), int32(2))
	case <-ctx.Done():
		t.Fatal("timed out waiting for quote after reconnect")
	}
}

func TestRun_IgnoresMalformedFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub subscribeFrame
		require.NoError(t, conn.ReadJSON(&sub))

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
		require.NoError(t, conn.WriteJSON(map[string]any{"type": "quote", "symbol": "AAPL", "price": "bad"}))
		require.NoError(t, conn.WriteJSON(map[string]any{
			"type": "quote", "symbol": "AAPL", "price": "1.25", "volume": 1, "timestamp": 1700000000000,
		}))
		conn.ReadMessage()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c := New(config.Defaults(), WithURL(wsURL(server)))
	quotes := make(chan Quote, 1)
	go func() { c.Run(ctx, []string{"AAPL"}, quotes) }()

	select {
	case q := <-quotes:
		assert.Equal(t, 1.25, q.Price)
	case <-ctx.Done():
		t.Fatal("timed out waiting for the valid quote")
	}
}

func TestNew_DerivesURLFromEndpoint(t *testing.T) {
	c := New(&config.Config{Endpoint: "api.webull.hk"})
	assert.Equal(t, "wss://api.webull.hk/market-data/stream", c.url)
}
