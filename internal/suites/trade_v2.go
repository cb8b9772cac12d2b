package suites

import (
	"context"
	"fmt"

	"github.com/wbtools/apitest/internal/config"
	"github.com/wbtools/apitest/internal/harness"
	"github.com/wbtools/apitest/internal/openapi/core"
	"github.com/wbtools/apitest/internal/openapi/trade"
)

func buildTradeV2(cfg *config.Config) (*harness.Suite, error) {
	tc := trade.NewV2(core.New(cfg), cfg.AccountID)

	return &harness.Suite{
		Cases: []harness.Case{
			{
				Name: "balance",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, caseTimeout)
					defer cancel()

					bal, err := tc.Balance(ctx, "USD")
					if err != nil {
						return err
					}
					if bal.Currency != "USD" {
						return fmt.Errorf("requested USD balance, got %q", bal.Currency)
					}
					if bal.TotalAssets == "" {
						return fmt.Errorf("balance missing total_asset")
					}
					return nil
				},
			},
			{
				Name: "positions",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, caseTimeout)
					defer cancel()

					pos, err := tc.Positions(ctx)
					if err != nil {
						return err
					}
					for _, p := range pos {
						if p.Symbol == "" {
							return fmt.Errorf("position with empty symbol")
						}
					}
					return nil
				},
			},
			{
				Name: "preview_order",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, caseTimeout)
					defer cancel()

					preview, err := tc.PreviewOrder(ctx, trade.OrderRequest{
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
					if preview.EstimatedCost == "" {
						return fmt.Errorf("preview missing estimated_cost")
					}
					return nil
				},
			},
		},
	}, nil
}
