package trade

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wbtools/apitest/internal/config"
	"github.com/wbtools/apitest/internal/openapi/core"
)

// OrderEvent is one order status transition pushed by the backend.
type OrderEvent struct {
	EventType     string    `json:"event_type"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Status        string    `json:"status"`
	FilledQty     string    `json:"filled_quantity"`
	Timestamp     time.Time `json:"-"`
}

type eventFrame struct {
	Type          string `json:"type"`
	EventType     string `json:"event_type"`
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
	FilledQty     string `json:"filled_quantity"`
	Timestamp     int64  `json:"timestamp"`
}

// EventsClient subscribes to order events for one account.
//
// Unlike the market data stream there is no automatic reconnect: a dropped
// event connection can mean missed order transitions, so the gap is
// surfaced to the caller instead of being papered over.
type EventsClient struct {
	url       string
	appKey    string
	accountID string
	log       zerolog.Logger
}

// EventsOption configures EventsClient construction.
type EventsOption func(*EventsClient)

// WithEventsURL overrides the derived wss:// URL for tests.
func WithEventsURL(u string) EventsOption {
	return func(c *EventsClient) {
		if u != "" {
			c.url = u
		}
	}
}

// WithEventsLogger sets the client logger.
func WithEventsLogger(log zerolog.Logger) EventsOption {
	return func(c *EventsClient) { c.log = log }
}

// NewEvents builds an order event client from the injected configuration.
// No I/O.
func NewEvents(cfg *config.Config, opts ...EventsOption) *EventsClient {
	c := &EventsClient{
		url:       "wss://" + cfg.Endpoint + "/trade/events",
		appKey:    cfg.AppKey,
		accountID: cfg.AccountID,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run subscribes and forwards order events into out until the context ends
// or the connection drops. A clean server close returns nil.
func (c *EventsClient) Run(ctx context.Context, out chan<- OrderEvent) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := map[string][]string{core.HeaderAppKey: {c.appKey}}
	conn, _, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return fmt.Errorf("dial events: %w", err)
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)

	sub := map[string]string{"type": "subscribe", "account_id": c.accountID}
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe events: %w", err)
	}

	c.log.Info().Str("account_id", c.accountID).Msg("subscribed to order events")

	// Close the connection when the context ends so ReadMessage unblocks.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}

		var frame eventFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.log.Warn().Err(err).Msg("failed to decode order event")
			continue
		}

		switch frame.Type {
		case "order-event":
			ev := OrderEvent{
				EventType:     frame.EventType,
				ClientOrderID: frame.ClientOrderID,
				Symbol:        frame.Symbol,
				Status:        frame.Status,
				FilledQty:     frame.FilledQty,
				Timestamp:     time.UnixMilli(frame.Timestamp),
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		case "sub-ack":
			c.log.Debug().Msg("event subscription acknowledged")
		default:
			c.log.Debug().Str("type", frame.Type).Msg("ignoring event frame")
		}
	}
}
