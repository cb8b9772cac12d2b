package suites

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wbtools/apitest/internal/config"
	"github.com/wbtools/apitest/internal/harness"
	"github.com/wbtools/apitest/internal/openapi/core"
	"github.com/wbtools/apitest/internal/openapi/trade"
)

func buildTradeEvent(cfg *config.Config) (*harness.Suite, error) {
	events := trade.NewEvents(cfg)
	tc := trade.New(core.New(cfg), cfg.AccountID)

	return &harness.Suite{
		Cases: []harness.Case{
			{
				// Subscribes, triggers an order transition by placing and
				// cancelling a far-from-market limit order, and expects the
				// resulting event on the stream.
				Name: "order_event_roundtrip",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, streamTimeout)
					defer cancel()

					out := make(chan trade.OrderEvent, 16)
					errCh := make(chan error, 1)
					go func() { errCh <- events.Run(ctx, out) }()

					// Give the subscription a moment before mutating state.
					select {
					case <-time.After(time.Second):
					case <-ctx.Done():
						return ctx.Err()
					}

					placed, err := tc.PlaceOrder(ctx, trade.OrderRequest{
						Symbol:      dataSymbols[0],
						Side:        trade.SideBuy,
						OrderType:   trade.TypeLimit,
						TimeInForce: trade.TIFDay,
						Quantity:    "1",
						LimitPrice:  "1.00",
					})
					if err != nil {
						return fmt.Errorf("place trigger order: %w", err)
					}
					if _, err := tc.CancelOrder(ctx, placed.ClientOrderID); err != nil {
						return fmt.Errorf("cancel trigger order: %w", err)
					}

					for {
						select {
						case ev := <-out:
							if ev.ClientOrderID == placed.ClientOrderID {
								cc.Logger.Debug().Str("status", ev.Status).Msg("order event received")
								return nil
							}
						case err := <-errCh:
							if err == nil || errors.Is(err, context.DeadlineExceeded) {
								return fmt.Errorf("event stream ended before delivering order event")
							}
							return err
						case <-ctx.Done():
							return fmt.Errorf("no event for order %s within %s", placed.ClientOrderID, streamTimeout)
						}
					}
				},
			},
		},
	}, nil
}
