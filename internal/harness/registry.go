package harness

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wbtools/apitest/internal/config"
)

// ErrUnknownSuite is returned by Build for an alias that was never
// registered.
var ErrUnknownSuite = errors.New("unknown suite")

type entry struct {
	description string
	builder     Builder
}

// Registry maps short aliases to suite builders.
//
// The alias set is fixed at process start: suites register during package
// init and the registry is read-only afterwards. Alias uniqueness is the
// only invariant; Register panics on a duplicate.
type Registry struct {
	entries map[string]entry
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a builder under an alias. Registration order is preserved
// for listing. Panics if the alias is already taken or the builder is nil.
func (r *Registry) Register(alias, description string, b Builder) {
	if b == nil {
		panic(fmt.Sprintf("harness: nil builder for suite %q", alias))
	}
	if _, dup := r.entries[alias]; dup {
		panic(fmt.Sprintf("harness: duplicate suite alias %q", alias))
	}
	r.entries[alias] = entry{description: description, builder: b}
	r.order = append(r.order, alias)
}

// Aliases returns all registered aliases in registration order.
func (r *Registry) Aliases() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Contains reports whether an alias is registered.
func (r *Registry) Contains(alias string) bool {
	_, ok := r.entries[alias]
	return ok
}

// Description returns the one-line summary for an alias, or "" if unknown.
func (r *Registry) Description(alias string) string {
	return r.entries[alias].description
}

// Build constructs the suite for an alias with the given config injected.
//
// An unknown alias returns ErrUnknownSuite. A builder error or panic is
// recovered, logged, and replaced with an empty suite so the run can
// continue; that path never returns an error.
func (r *Registry) Build(alias string, cfg *config.Config, log zerolog.Logger) (*Suite, error) {
	e, ok := r.entries[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSuite, alias)
	}

	suite, err := buildSafely(alias, e.builder, cfg)
	if err != nil {
		log.Warn().Err(err).Str("suite", alias).Msg("suite failed to build, substituting empty suite")
		return &Suite{Alias: alias, Description: e.description}, nil
	}
	if suite.Description == "" {
		suite.Description = e.description
	}
	return suite, nil
}

// buildSafely invokes a builder, converting panics into errors.
func buildSafely(alias string, b Builder, cfg *config.Config) (suite *Suite, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("builder for %q panicked: %v", alias, rec)
		}
	}()

	suite, err = b(cfg)
	if err != nil {
		return nil, err
	}
	if suite == nil {
		return nil, fmt.Errorf("builder for %q returned nil suite", alias)
	}
	suite.Alias = alias
	return suite, nil
}
