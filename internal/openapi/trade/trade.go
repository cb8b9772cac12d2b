// Package trade covers the trading surfaces: the v1 order/account client,
// the v2 account client, and the order event stream.
package trade

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/wbtools/apitest/internal/openapi/core"
)

// Order sides, types, and time-in-force tokens accepted by the backend.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	TypeLimit  = "LIMIT"
	TypeMarket = "MARKET"

	TIFDay = "DAY"
	TIFGTC = "GTC"
)

// Client is the v1 trading client bound to one account.
type Client struct {
	api       *core.Client
	accountID string
}

// New wraps a core transport for one account. No I/O.
func New(api *core.Client, accountID string) *Client {
	return &Client{api: api, accountID: accountID}
}

// Account is the v1 account detail payload.
type Account struct {
	AccountID     string `json:"account_id"`
	AccountType   string `json:"account_type"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	PaperTrading  bool   `json:"paper_trading"`
	NetLiquidity  string `json:"net_liquidation_value"`
	BuyingPower   string `json:"buying_power"`
	CashBalance   string `json:"cash_balance"`
	UnrealizedPnL string `json:"unrealized_pnl"`
}

// OrderRequest describes an order to place or preview.
type OrderRequest struct {
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	InstrumentID  string `json:"instrument_id,omitempty"`
	Side          string `json:"side"`
	OrderType     string `json:"order_type"`
	TimeInForce   string `json:"time_in_force"`
	Quantity      string `json:"quantity"`
	LimitPrice    string `json:"limit_price,omitempty"`
}

// Order is one row of the order list.
type Order struct {
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	OrderType     string `json:"order_type"`
	Status        string `json:"status"`
	Quantity      string `json:"quantity"`
	FilledQty     string `json:"filled_quantity"`
	LimitPrice    string `json:"limit_price,omitempty"`
	PlacedAt      int64  `json:"placed_at"`
}

// PlacedOrder is the acknowledgement for a placed or cancelled order.
type PlacedOrder struct {
	ClientOrderID string `json:"client_order_id"`
	Status        string `json:"status"`
}

// AccountID returns the bound account id.
func (c *Client) AccountID() string { return c.accountID }

// Account fetches the v1 account detail.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	q := url.Values{"account_id": {c.accountID}}
	var out Account
	if err := c.api.Get(ctx, "/trade/account", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders lists recent orders, newest first.
func (c *Client) Orders(ctx context.Context, pageSize int) ([]Order, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	q := url.Values{
		"account_id": {c.accountID},
		"page_size":  {strconv.Itoa(pageSize)},
	}
	var out []Order
	if err := c.api.Get(ctx, "/trade/orders", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PlaceOrder submits an order. A missing ClientOrderID is filled with a
// fresh uuid so retried submissions stay idempotent on the backend.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*PlacedOrder, error) {
	if err := validateOrder(&req); err != nil {
		return nil, err
	}

	q := url.Values{"account_id": {c.accountID}}
	var out PlacedOrder
	if err := c.api.Post(ctx, "/trade/order", q, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder cancels an order by client order id.
func (c *Client) CancelOrder(ctx context.Context, clientOrderID string) (*PlacedOrder, error) {
	if clientOrderID == "" {
		return nil, fmt.Errorf("cancel order: client order id required")
	}

	q := url.Values{"account_id": {c.accountID}}
	body := map[string]string{"client_order_id": clientOrderID}
	var out PlacedOrder
	if err := c.api.Post(ctx, "/trade/order/cancel", q, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func validateOrder(req *OrderRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("place order: symbol required")
	}
	if req.Side != SideBuy && req.Side != SideSell {
		return fmt.Errorf("place order: invalid side %q", req.Side)
	}
	if req.OrderType == TypeLimit && req.LimitPrice == "" {
		return fmt.Errorf("place order: limit order requires limit_price")
	}
	if req.Quantity == "" {
		return fmt.Errorf("place order: quantity required")
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}
	return nil
}
