// Package stream implements the market data streaming client.
//
// Quotes are delivered over a websocket. The client keeps the connection
// alive with periodic pings, resets its read deadline on pongs, and
// reconnects with bounded backoff until the context ends.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wbtools/apitest/internal/config"
	"github.com/wbtools/apitest/internal/openapi/core"
)

// Quote is one streamed price update.
type Quote struct {
	Symbol    string
	Price     float64
	Volume    int64
	Timestamp time.Time
}

// wire frames
type subscribeFrame struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

type inboundFrame struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Volume    int64  `json:"volume"`
	Timestamp int64  `json:"timestamp"`
}

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultPingInterval     = 15 * time.Second
	defaultReadTimeout      = 30 * time.Second
	defaultInitialBackoff   = time.Second
	maxBackoff              = 30 * time.Second
)

// Client streams quotes from the configured endpoint.
type Client struct {
	url            string
	appKey         string
	log            zerolog.Logger
	pingInterval   time.Duration
	readTimeout    time.Duration
	initialBackoff time.Duration
}

// Option configures Client construction.
type Option func(*Client)

// WithURL overrides the derived wss:// URL. Tests point this at a ws://
// httptest server.
func WithURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.url = u
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithPingInterval overrides the keepalive cadence.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// WithInitialBackoff overrides the first reconnect delay.
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.initialBackoff = d
		}
	}
}

// New builds a streaming client from the injected configuration. No I/O.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		url:            "wss://" + cfg.Endpoint + "/market-data/stream",
		appKey:         cfg.AppKey,
		log:            zerolog.Nop(),
		pingInterval:   defaultPingInterval,
		readTimeout:    defaultReadTimeout,
		initialBackoff: defaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run streams quotes for the given symbols into out until the context ends
// or the server closes the stream cleanly. Transport errors trigger a
// reconnect with capped exponential backoff.
func (c *Client) Run(ctx context.Context, symbols []string, out chan<- Quote) error {
	if len(symbols) == 0 {
		return fmt.Errorf("stream requires at least one symbol")
	}

	backoff := c.initialBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.consume(ctx, symbols, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn().Err(err).Msg("stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (c *Client) consume(ctx context.Context, symbols []string, out chan<- Quote) error {
	dialer := websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout}
	header := map[string][]string{core.HeaderAppKey: {c.appKey}}
	conn, _, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	c.log.Info().Str("url", c.url).Strs("symbols", symbols).Msg("connected market data stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		return nil
	})

	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(subscribeFrame{Type: "subscribe", Symbols: symbols}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					c.log.Warn().Err(err).Msg("stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}

		var frame inboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.log.Warn().Err(err).Msg("failed to decode stream message")
			continue
		}

		switch frame.Type {
		case "quote":
			px, err := strconv.ParseFloat(frame.Price, 64)
			if err != nil {
				c.log.Warn().Str("price", frame.Price).Msg("unparseable quote price")
				continue
			}
			q := Quote{
				Symbol:    frame.Symbol,
				Price:     px,
				Volume:    frame.Volume,
				Timestamp: time.UnixMilli(frame.Timestamp),
			}
			select {
			case out <- q:
			case <-ctx.Done():
				return ctx.Err()
			}
		case "sub-ack":
			c.log.Debug().Msg("subscription acknowledged")
		default:
			c.log.Debug().Str("type", frame.Type).Msg("ignoring stream frame")
		}
	}
}
