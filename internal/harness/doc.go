// Package harness provides the suite registry and runner for the Webull
// OpenAPI conformance harness.
//
// # Design
//
// Suites receive their configuration through dependency injection: each
// registered builder is handed the resolved config.Config and constructs
// its API clients from it. Builders must not perform I/O: construction
// succeeds even with placeholder credentials, and only case execution
// touches the network. This keeps "the suite loads" and "the assertions
// pass" strictly independent properties.
//
// # Failure semantics
//
//   - Unknown alias: Build returns ErrUnknownSuite. Callers treat this as
//     fatal before anything runs.
//   - Builder error or panic: recovered and logged; an empty suite is
//     substituted so the rest of the run continues.
//   - Case error or panic: recorded as a failed case; the run continues.
//
// # Determinism
//
// The runner executes suites in the order given and cases in registration
// order, stamping each case result with a sequence number from a logical
// clock. Reports over the same selection are byte-identical across runs,
// which makes golden-file comparison of harness output possible.
package harness
