package harness

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/wbtools/apitest/internal/config"
)

// CaseContext carries per-run dependencies into a test case.
type CaseContext struct {
	// Config is the resolved harness configuration injected into the suite.
	Config *config.Config

	// Logger is scoped to the running case.
	Logger zerolog.Logger

	// Verbose mirrors the CLI flag for cases that want to emit extra detail.
	Verbose bool
}

// Case is a single named test case. Run returns nil on pass; any error is
// a failure with the error text as detail.
type Case struct {
	Name string
	Run  func(ctx context.Context, cc *CaseContext) error
}

// Suite is an ordered collection of cases built for one registry alias.
type Suite struct {
	// Alias is the registry name the suite was built under.
	Alias string

	// Description is a one-line summary shown by --list.
	Description string

	// Cases run in the order they appear here.
	Cases []Case
}

// Builder constructs a suite from the injected configuration.
//
// Builders must be I/O free: they may wire clients and capture config but
// must not dial, resolve, or authenticate. A builder that returns an error
// (or panics) contributes an empty suite, not a run abort.
type Builder func(cfg *config.Config) (*Suite, error)
