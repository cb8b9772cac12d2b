// Package quotes is the market data client (instruments, snapshots, bars).
package quotes

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wbtools/apitest/internal/openapi/core"
)

// Category values accepted by the market data endpoints.
const (
	CategoryUSStock = "US_STOCK"
	CategoryHKStock = "HK_STOCK"
	CategoryCrypto  = "CRYPTO"
)

// Client exposes the market data endpoints over a shared core transport.
type Client struct {
	api *core.Client
}

// New wraps a core client. No I/O.
func New(api *core.Client) *Client {
	return &Client{api: api}
}

// Instrument identifies one tradable symbol.
type Instrument struct {
	InstrumentID string `json:"instrument_id"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Exchange     string `json:"exchange_code"`
	Currency     string `json:"currency"`
}

// Snapshot is a point-in-time quote.
type Snapshot struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	PrevClose string `json:"pre_close"`
	Volume    int64  `json:"volume"`
	Timestamp int64  `json:"timestamp"`
}

// Bar is one candlestick.
type Bar struct {
	Time   int64  `json:"time"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume int64  `json:"volume"`
}

// Instruments looks up instrument metadata for the given symbols.
func (c *Client) Instruments(ctx context.Context, category string, symbols ...string) ([]Instrument, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("instruments: at least one symbol required")
	}

	q := url.Values{
		"category": {category},
		"symbols":  {strings.Join(symbols, ",")},
	}
	var out []Instrument
	if err := c.api.Get(ctx, "/market-data/instruments", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot fetches current quotes for the given symbols.
func (c *Client) Snapshot(ctx context.Context, category string, symbols ...string) ([]Snapshot, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("snapshot: at least one symbol required")
	}

	q := url.Values{
		"category": {category},
		"symbols":  {strings.Join(symbols, ",")},
	}
	var out []Snapshot
	if err := c.api.Get(ctx, "/market-data/snapshot", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Bars fetches up to count candlesticks for one symbol. timespan is the
// backend timeframe token (for example "M1" or "D1").
func (c *Client) Bars(ctx context.Context, category, symbol, timespan string, count int) ([]Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("bars: symbol required")
	}
	if count <= 0 {
		count = 100
	}

	q := url.Values{
		"category": {category},
		"symbol":   {symbol},
		"timespan": {timespan},
		"count":    {strconv.Itoa(count)},
	}
	var out []Bar
	if err := c.api.Get(ctx, "/market-data/bars", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}
