// Package cli implements the apitest command surface.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wbtools/apitest/internal/harness"
	"github.com/wbtools/apitest/internal/suites"
)

// Options holds all root command flags.
type Options struct {
	Tests   string
	List    bool
	Verbose bool
	Format  string // "text" | "json"
	Profile string
	EnvFile string
	Record  string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the apitest command wired to the default suite
// registry.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithRegistry(suites.DefaultRegistry())
}

// NewRootCommandWithRegistry creates the command against an explicit
// registry. Tests use this to substitute stub suites.
func NewRootCommandWithRegistry(registry *harness.Registry) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "apitest",
		Short: "Conformance harness for the Webull OpenAPI clients",
		Long: `Run the Webull OpenAPI conformance suites with configuration taken
from the environment.

Credentials come from WEBULL_API_ENDPOINT, WEBULL_APP_KEY,
WEBULL_APP_SECRET, WEBULL_REGION_ID, and WEBULL_ACCOUNT_ID. Unset
variables fall back to placeholder defaults: every suite still loads, but
network-facing assertions will fail against the backend.

Exit codes:
  0 - All tests passed (or --list)
  1 - Unknown suite alias, or one or more tests failed
  2 - Command error (invalid flag value, unreadable config file)

Examples:
  apitest --tests data,trade
  apitest --tests all --verbose
  apitest --list
  apitest --tests trade_v2 --format json --record runs.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.List {
				return listSuites(cmd, registry, opts)
			}
			return runSuites(cmd, registry, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Tests, "tests", "t", "all",
		"comma-separated suite aliases to run, or \"all\"")
	cmd.Flags().BoolVarP(&opts.List, "list", "l", false, "list available suites and exit")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.Flags().StringVar(&opts.Profile, "config", "", "YAML config profile (env still wins)")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file to load")
	cmd.Flags().StringVar(&opts.Record, "record", "", "SQLite file to append run results to")

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// SuiteInfo is one row of --list output.
type SuiteInfo struct {
	Alias       string `json:"alias"`
	Description string `json:"description"`
}

// listSuites prints the registry and exits 0 regardless of environment
// state: listing must never depend on credentials.
func listSuites(cmd *cobra.Command, registry *harness.Registry, opts *Options) error {
	infos := make([]SuiteInfo, 0, len(registry.Aliases()))
	for _, alias := range registry.Aliases() {
		infos = append(infos, SuiteInfo{Alias: alias, Description: registry.Description(alias)})
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), Response{Status: "ok", Data: infos})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Available test suites:")
	for _, info := range infos {
		fmt.Fprintf(w, "  %s: %s\n", info.Alias, info.Description)
	}
	return nil
}

// resolveSelection expands and validates the --tests flag against the
// registry. An unknown alias is fatal before anything runs.
func resolveSelection(registry *harness.Registry, testsFlag string) ([]string, error) {
	if strings.EqualFold(strings.TrimSpace(testsFlag), "all") {
		return registry.Aliases(), nil
	}

	var selection []string
	for _, raw := range strings.Split(testsFlag, ",") {
		alias := strings.TrimSpace(raw)
		if alias == "" {
			continue
		}
		if !registry.Contains(alias) {
			return nil, fmt.Errorf("unknown test %q (available: %s)",
				alias, strings.Join(registry.Aliases(), ", "))
		}
		selection = append(selection, alias)
	}
	if len(selection) == 0 {
		return nil, fmt.Errorf("no tests selected")
	}
	return selection, nil
}
