// Package suites registers the conformance suites that exercise the Webull
// OpenAPI clients.
//
// Builders only wire clients from the injected config; every network touch
// happens inside case execution. With placeholder credentials all suites
// still load; their cases then fail against the backend, which is the
// intended separation between load failures and assertion failures.
package suites

import (
	"time"

	"github.com/wbtools/apitest/internal/harness"
)

// caseTimeout bounds a single network-facing case.
const caseTimeout = 20 * time.Second

// Default symbols exercised by the market data suites. These exist in
// every Webull sandbox region.
var dataSymbols = []string{"AAPL", "TSLA"}

// DefaultRegistry returns the registry with all six suites registered, in
// the canonical listing order.
func DefaultRegistry() *harness.Registry {
	r := harness.NewRegistry()
	r.Register("api", "core API connectivity and request signing", buildAPI)
	r.Register("data", "market data client: instruments, snapshots, bars", buildData)
	r.Register("data_streaming", "market data streaming over websocket", buildDataStreaming)
	r.Register("trade", "trade client v1: account, orders", buildTrade)
	r.Register("trade_v2", "trade client v2: balance, positions, preview", buildTradeV2)
	r.Register("trade_event", "order event stream", buildTradeEvent)
	return r
}
