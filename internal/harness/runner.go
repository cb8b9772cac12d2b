package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wbtools/apitest/internal/testutil"
)

// CaseResult is the outcome of one executed case.
type CaseResult struct {
	Suite   string        `json:"suite"`
	Case    string        `json:"case"`
	Pass    bool          `json:"pass"`
	Detail  string        `json:"detail,omitempty"`
	Seq     int64         `json:"seq"`
	Elapsed time.Duration `json:"-"`
}

// Result aggregates a whole run.
type Result struct {
	// Pass is true iff every executed case passed.
	Pass bool `json:"pass"`

	// Cases holds per-case outcomes in execution order.
	Cases []CaseResult `json:"cases"`

	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Total  int `json:"total"`

	// Suites lists the aliases that were run, in order.
	Suites []string `json:"suites"`
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{Pass: true, Cases: []CaseResult{}}
}

func (r *Result) add(cr CaseResult) {
	r.Cases = append(r.Cases, cr)
	r.Total++
	if cr.Pass {
		r.Passed++
	} else {
		r.Failed++
		r.Pass = false
	}
}

// Runner executes suites sequentially.
//
// There is deliberately no parallelism and no retrying: suite order is the
// order the user listed, case order is registration order, and every
// outcome is stamped with a logical sequence number.
type Runner struct {
	log   zerolog.Logger
	clock *testutil.SeqClock
}

// NewRunner creates a runner logging to the given logger.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{log: log, clock: testutil.NewSeqClock()}
}

// Run executes all suites and returns the aggregated result.
//
// A case that returns an error or panics is recorded as failed; the run
// always continues to the next case. Context cancellation stops the run
// early with the remaining cases unexecuted.
func (r *Runner) Run(ctx context.Context, cfg *CaseContext, suites []*Suite) *Result {
	result := NewResult()

	for _, suite := range suites {
		result.Suites = append(result.Suites, suite.Alias)
		log := r.log.With().Str("suite", suite.Alias).Logger()

		for _, c := range suite.Cases {
			if ctx.Err() != nil {
				log.Warn().Msg("run cancelled")
				return result
			}

			cc := *cfg
			cc.Logger = log.With().Str("case", c.Name).Logger()

			start := time.Now()
			err := runCase(ctx, c, &cc)
			cr := CaseResult{
				Suite:   suite.Alias,
				Case:    c.Name,
				Pass:    err == nil,
				Seq:     r.clock.Next(),
				Elapsed: time.Since(start),
			}
			if err != nil {
				cr.Detail = err.Error()
				log.Debug().Err(err).Str("case", c.Name).Msg("case failed")
			} else {
				log.Debug().Str("case", c.Name).Msg("case passed")
			}
			result.add(cr)
		}
	}

	return result
}

// runCase invokes a case, converting panics into failures.
func runCase(ctx context.Context, c Case, cc *CaseContext) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("case panicked: %v", rec)
		}
	}()
	return c.Run(ctx, cc)
}
