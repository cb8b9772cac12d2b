package suites

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbtools/apitest/internal/config"
	"github.com/wbtools/apitest/internal/harness"
)

func TestDefaultRegistry_Aliases(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t,
		[]string{"api", "data", "data_streaming", "trade", "trade_v2", "trade_event"},
		r.Aliases())
}

func TestDefaultRegistry_Descriptions(t *testing.T) {
	r := DefaultRegistry()
	for _, alias := range r.Aliases() {
		assert.NotEmpty(t, r.Description(alias), "alias %s needs a description", alias)
	}
}

// Every suite must load with placeholder credentials and an empty
// environment: construction is I/O free by contract.
func TestAllSuitesLoadWithPlaceholders(t *testing.T) {
	r := DefaultRegistry()
	cfg := config.Defaults()

	for _, alias := range r.Aliases() {
		t.Run(alias, func(t *testing.T) {
			done := make(chan *harness.Suite, 1)
			go func() {
				suite, err := r.Build(alias, cfg, zerolog.Nop())
				require.NoError(t, err)
				done <- suite
			}()

			select {
			case suite := <-done:
				assert.Equal(t, alias, suite.Alias)
				assert.NotEmpty(t, suite.Cases, "suite %s should register cases", alias)
				for _, c := range suite.Cases {
					assert.NotEmpty(t, c.Name)
					assert.NotNil(t, c.Run)
				}
			case <-time.After(time.Second):
				t.Fatalf("building %s blocked; builders must not perform I/O", alias)
			}
		})
	}
}

func TestUnknownAliasRejected(t *testing.T) {
	_, err := DefaultRegistry().Build("bogus", config.Defaults(), zerolog.Nop())
	assert.ErrorIs(t, err, harness.ErrUnknownSuite)
}

// An unreachable endpoint makes cases fail, not panic: run the api suite
// against a closed port and expect clean failures.
func TestCaseFailureIsErrorNotPanic(t *testing.T) {
	cfg := config.Defaults()
	cfg.Endpoint = "127.0.0.1:1"

	r := DefaultRegistry()
	suite, err := r.Build("api", cfg, zerolog.Nop())
	require.NoError(t, err)

	runner := harness.NewRunner(zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result := runner.Run(ctx, &harness.CaseContext{Config: cfg, Logger: zerolog.Nop()}, []*harness.Suite{suite})

	assert.False(t, result.Pass)
	assert.Equal(t, len(suite.Cases), result.Failed)
	for _, cr := range result.Cases {
		assert.NotEmpty(t, cr.Detail)
	}
}
