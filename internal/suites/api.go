package suites

import (
	"context"
	"fmt"
	"time"

	"github.com/wbtools/apitest/internal/config"
	"github.com/wbtools/apitest/internal/harness"
	"github.com/wbtools/apitest/internal/openapi/core"
)

func buildAPI(cfg *config.Config) (*harness.Suite, error) {
	api := core.New(cfg)

	return &harness.Suite{
		Cases: []harness.Case{
			{
				Name: "ping",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, caseTimeout)
					defer cancel()
					return api.Get(ctx, "/ping", nil, nil)
				},
			},
			{
				Name: "server_time",
				Run: func(ctx context.Context, cc *harness.CaseContext) error {
					ctx, cancel := context.WithTimeout(ctx, caseTimeout)
					defer cancel()

					var out struct {
						ServerTime int64 `json:"server_time"`
					}
					if err := api.Get(ctx, "/ping", nil, &out); err != nil {
						return err
					}

					drift := time.Since(time.UnixMilli(out.ServerTime))
					if drift < 0 {
						drift = -drift
					}
					if drift > 5*time.Minute {
						return fmt.Errorf("server time drift %s exceeds 5m", drift)
					}
					cc.Logger.Debug().Dur("drift", drift).Msg("server time within bounds")
					return nil
				},
			},
		},
	}, nil
}
