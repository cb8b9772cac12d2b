package suites

import (
	"context"
	"fmt"
	"time"

	"github.com/wbtools/apitest/internal/config"
	"github.com/wbtools/apitest/internal/harness"
	"github.com/wbtools/apitest/internal/openapi/stream"
)

// streamTimeout is longer than caseTimeout: a quiet market can delay the
// first tick.
const streamTimeout = 45 * time.Second

func buildDataStreaming(cfg *config.Config) (*harness.Suite, error) {
	client := stream.New(cfg)

	return &harness.Suite{
		Cases: []harness.Case{
			{
				Name: "receive_first_quote",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, streamTimeout)
					defer cancel()

					quotes := make(chan stream.Quote, 16)
					errCh := make(chan error, 1)
					go func() {
						errCh <- client.Run(ctx, dataSymbols[:1], quotes)
					}()

					select {
					case q := <-quotes:
						if q.Symbol != dataSymbols[0] {
							return fmt.Errorf("subscribed to %s but received %s", dataSymbols[0], q.Symbol)
						}
						if q.Price <= 0 {
							return fmt.Errorf("non-positive price %v for %s", q.Price, q.Symbol)
						}
						cc.Logger.Debug().Str("symbol", q.Symbol).Float64("price", q.Price).Msg("first quote received")
						return nil
					case err := <-errCh:
						if err == nil {
							return fmt.Errorf("stream closed before delivering a quote")
						}
						return err
					case <-ctx.Done():
						return fmt.Errorf("no quote within %s: %w", streamTimeout, ctx.Err())
					}
				},
			},
		},
	}, nil
}
