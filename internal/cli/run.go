package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/wbtools/apitest/internal/config"
	"github.com/wbtools/apitest/internal/harness"
	"github.com/wbtools/apitest/internal/recorder"
)

// runSuites is the main execution path: validate the selection, resolve
// config, build the selected suites with it injected, run, report.
func runSuites(cmd *cobra.Command, registry *harness.Registry, opts *Options) error {
	out := cmd.OutOrStdout()

	selection, err := resolveSelection(registry, opts.Tests)
	if err != nil {
		// Fatal before anything runs: zero tests execute.
		if opts.Format == "json" {
			writeJSON(out, Response{
				Status: "error",
				Error:  &ResponseError{Code: "E_UNKNOWN_TEST", Message: err.Error()},
			})
		} else {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
		return NewExitError(ExitFailure, err.Error())
	}

	var cfgOpts []config.Option
	if opts.Profile != "" {
		cfgOpts = append(cfgOpts, config.WithProfile(opts.Profile))
	}
	if opts.EnvFile != "" {
		cfgOpts = append(cfgOpts, config.WithEnvFile(opts.EnvFile))
	}
	cfg, err := config.Resolve(cfgOpts...)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "resolve configuration", Err: err}
	}

	log := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	if opts.Format != "json" {
		fmt.Fprintf(out, "Running tests: %s\n", strings.Join(selection, ", "))
		printConfig(out, cfg)
		fmt.Fprintln(out)
	}

	suitesToRun := make([]*harness.Suite, 0, len(selection))
	for _, alias := range selection {
		suite, err := registry.Build(alias, cfg, log)
		if err != nil {
			// Selection was validated above, so this is unreachable in
			// practice; keep the failure explicit anyway.
			return NewExitError(ExitFailure, err.Error())
		}
		suitesToRun = append(suitesToRun, suite)
	}

	started := time.Now()
	cc := &harness.CaseContext{Config: cfg, Logger: log, Verbose: opts.Verbose}
	result := harness.NewRunner(log).Run(cmd.Context(), cc, suitesToRun)

	if opts.Record != "" {
		recordRun(cmd.Context(), log, opts.Record, selection, started, result)
	}

	if opts.Format == "json" {
		return outputRunJSON(out, result)
	}
	return outputRunText(out, result, opts.Verbose)
}

// newLogger builds the stderr diagnostic logger.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// printConfig shows the effective configuration with secrets masked.
func printConfig(w io.Writer, cfg *config.Config) {
	masked := cfg.Masked()
	fmt.Fprintln(w, "Using configuration:")
	fmt.Fprintf(w, "  endpoint: %s\n", masked.Endpoint)
	fmt.Fprintf(w, "  app_key: %s\n", masked.AppKey)
	fmt.Fprintf(w, "  app_secret: %s\n", masked.AppSecret)
	fmt.Fprintf(w, "  region_id: %s\n", masked.RegionID)
	fmt.Fprintf(w, "  account_id: %s\n", masked.AccountID)
}

// recordRun appends the result to the SQLite run log. Recording is
// best-effort bookkeeping and never changes the exit code.
func recordRun(ctx context.Context, log zerolog.Logger, path string, selection []string, started time.Time, result *harness.Result) {
	rec, err := recorder.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("run log unavailable")
		return
	}
	defer rec.Close()

	runID, err := rec.Record(ctx, selection, started, result)
	if err != nil {
		log.Warn().Err(err).Msg("failed to record run")
		return
	}
	log.Info().Str("run_id", runID).Str("path", path).Msg("run recorded")
}

func outputRunText(w io.Writer, result *harness.Result, verbose bool) error {
	for _, cr := range result.Cases {
		mark := "✓"
		if !cr.Pass {
			mark = "✗"
		}
		if verbose {
			fmt.Fprintf(w, "%s %s/%s (%s)\n", mark, cr.Suite, cr.Case, cr.Elapsed.Round(time.Millisecond))
		} else {
			fmt.Fprintf(w, "%s %s/%s\n", mark, cr.Suite, cr.Case)
		}
		if !cr.Pass {
			fmt.Fprintf(w, "    %s\n", cr.Detail)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n",
		result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d test(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All tests passed")
	return nil
}

func outputRunJSON(w io.Writer, result *harness.Result) error {
	resp := Response{Status: "ok", Data: result}
	if result.Failed > 0 {
		resp.Status = "error"
		resp.Error = &ResponseError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d test(s) failed", result.Failed),
		}
	}
	if err := writeJSON(w, resp); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d test(s) failed", result.Failed))
	}
	return nil
}
