package suites

import (
	"context"
	"fmt"

	"github.com/wbtools/apitest/internal/config"
	"github.com/wbtools/apitest/internal/harness"
	"github.com/wbtools/apitest/internal/openapi/core"
	"github.com/wbtools/apitest/internal/openapi/trade"
)

func buildTrade(cfg *config.Config) (*harness.Suite, error) {
	tc := trade.New(core.New(cfg), cfg.AccountID)

	return &harness.Suite{
		Cases: []harness.Case{
			{
				Name: "account_detail",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, caseTimeout)
					defer cancel()

					acct, err := tc.Account(ctx)
					if err != nil {
						return err
					}
					if acct.AccountID != cfg.AccountID {
						return fmt.Errorf("requested account %s, got %s", cfg.AccountID, acct.AccountID)
					}
					return nil
				},
			},
			{
				Name: "list_orders",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, caseTimeout)
					defer cancel()

					_, err := tc.Orders(ctx, 20)
					return err
				},
			},
			{
				// Places a limit order far below market and cancels it,
				// so nothing should ever fill even outside paper accounts.
				Name: "place_and_cancel_limit_order",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, caseTimeout)
					defer cancel()

					placed, err := tc.PlaceOrder(ctx, trade.OrderRequest{
						Symbol:      dataSymbols[0],
						Side:        trade.SideBuy,
						OrderType:   trade.TypeLimit,
						TimeInForce: trade.TIFDay,
						Quantity:    "1",
						LimitPrice:  "1.00",
					})
					if err != nil {
						return err
					}
					cc.Logger.Debug().Str("client_order_id", placed.ClientOrderID).Msg("order placed")

					cancelled, err := tc.CancelOrder(ctx, placed.ClientOrderID)
					if err != nil {
						return fmt.Errorf("cancel %s: %w", placed.ClientOrderID, err)
					}
					if cancelled.Status != "CANCELLED" && cancelled.Status != "CANCEL_PENDING" {
						return fmt.Errorf("unexpected cancel status %q", cancelled.Status)
					}
					return nil
				},
			},
		},
	}, nil
}
