package trade

import (
	"context"
	"net/url"

	"github.com/wbtools/apitest/internal/openapi/core"
)

// ClientV2 is the v2 account/trading client. The v2 surface splits balance
// and positions out of the account detail and adds order preview.
type ClientV2 struct {
	api       *core.Client
	accountID string
}

// NewV2 wraps a core transport for one account. No I/O.
func NewV2(api *core.Client, accountID string) *ClientV2 {
	return &ClientV2{api: api, accountID: accountID}
}

// Balance is the v2 account balance payload.
type Balance struct {
	Currency        string `json:"currency"`
	TotalAssets     string `json:"total_asset"`
	CashBalance     string `json:"cash_balance"`
	BuyingPower     string `json:"buying_power"`
	FrozenAmount    string `json:"frozen_amount"`
	WithdrawableAmt string `json:"withdrawable_amount"`
}

// Position is one open position.
type Position struct {
	Symbol        string `json:"symbol"`
	InstrumentID  string `json:"instrument_id"`
	Quantity      string `json:"quantity"`
	CostPrice     string `json:"cost_price"`
	LastPrice     string `json:"last_price"`
	UnrealizedPnL string `json:"unrealized_pnl"`
}

// OrderPreview is the fee/cost estimate for a prospective order.
type OrderPreview struct {
	EstimatedCost   string   `json:"estimated_cost"`
	EstimatedFees   string   `json:"estimated_fees"`
	BuyingPowerUsed string   `json:"buying_power_used"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Balance fetches the account balance in the given currency.
func (c *ClientV2) Balance(ctx context.Context, currency string) (*Balance, error) {
	q := url.Values{"account_id": {c.accountID}}
	if currency != "" {
		q.Set("currency", currency)
	}
	var out Balance
	if err := c.api.Get(ctx, "/trade/v2/account/balance", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Positions lists open positions.
func (c *ClientV2) Positions(ctx context.Context) ([]Position, error) {
	q := url.Values{"account_id": {c.accountID}}
	var out []Position
	if err := c.api.Get(ctx, "/trade/v2/account/positions", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PreviewOrder asks the backend for a cost estimate without placing.
func (c *ClientV2) PreviewOrder(ctx context.Context, req OrderRequest) (*OrderPreview, error) {
	if err := validateOrder(&req); err != nil {
		return nil, err
	}

	q := url.Values{"account_id": {c.accountID}}
	var out OrderPreview
	if err := c.api.Post(ctx, "/trade/v2/order/preview", q, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlaceOrder submits an order through the v2 surface.
func (c *ClientV2) PlaceOrder(ctx context.Context, req OrderRequest) (*PlacedOrder, error) {
	if err := validateOrder(&req); err != nil {
		return nil, err
	}

	q := url.Values{"account_id": {c.accountID}}
	var out PlacedOrder
	if err := c.api.Post(ctx, "/trade/v2/order", q, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
