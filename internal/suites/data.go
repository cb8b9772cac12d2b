package suites

import (
	"context"
	"fmt"

	"github.com/wbtools/apitest/internal/config"
	"github.com/wbtools/apitest/internal/harness"
	"github.com/wbtools/apitest/internal/openapi/core"
	"github.com/wbtools/apitest/internal/openapi/quotes"
)

func buildData(cfg *config.Config) (*harness.Suite, error) {
	md := quotes.New(core.New(cfg))

	return &harness.Suite{
		Cases: []harness.Case{
			{
				Name: "instruments",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, caseTimeout)
					defer cancel()

					ins, err := md.Instruments(ctx, quotes.CategoryUSStock, dataSymbols...)
					if err != nil {
						return err
					}
					if len(ins) != len(dataSymbols) {
						return fmt.Errorf("expected %d instruments, got %d", len(dataSymbols), len(ins))
					}
					for _, in := range ins {
						if in.InstrumentID == "" {
							return fmt.Errorf("instrument %s missing instrument_id", in.Symbol)
						}
					}
					return nil
				},
			},
			{
				Name: "snapshot",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, caseTimeout)
					defer cancel()

					snaps, err := md.Snapshot(ctx, quotes.CategoryUSStock, dataSymbols...)
					if err != nil {
						return err
					}
					if len(snaps) == 0 {
						return fmt.Errorf("empty snapshot response")
					}
					for _, s := range snaps {
						if s.Price == "" {
							return fmt.Errorf("snapshot for %s has no price", s.Symbol)
						}
					}
					return nil
				},
			},
			{
				Name: "bars",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, caseTimeout)
					defer cancel()

					bars, err := md.Bars(ctx, quotes.CategoryUSStock, dataSymbols[0], "M1", 10)
					if err != nil {
						return err
					}
					if len(bars) == 0 {
						return fmt.Errorf("empty bars response")
					}
					// Bars must come back in ascending time order.
					for i := 1; i < len(bars); i++ {
						if bars[i].Time < bars[i-1].Time {
							return fmt.Errorf("bars out of order at index %d", i)
						}
					}
					return nil
				},
			},
		},
	}, nil
}
