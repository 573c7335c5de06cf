package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"futures-trader/internal/exchange"
	"futures-trader/internal/types"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	liveBaseURL    = "https://fapi.binance.com"
	testnetBaseURL = "https://testnet.binancefuture.com"

	// Binance API error codes the core cares about.
	codeInvalidSymbol      = -1121
	codeInsufficientMargin = -2019
)

type Params struct {
	APIKey     string
	APISecret  string
	Testnet    bool
	RecvWindow time.Duration
}

// Client talks to the Binance USDⓈ-M futures REST API. Read endpoints get a
// small transport-level retry; order submission never retries because a
// resubmitted market order is not idempotent.
type Client struct {
	p     Params
	httpc *resty.Client
}

var _ exchange.Exchange = (*Client)(nil)

func New(p Params) *Client {
	if p.RecvWindow <= 0 {
		p.RecvWindow = 5 * time.Second
	}

	base := liveBaseURL
	if p.Testnet {
		base = testnetBaseURL
	}

	httpc := resty.New().
		SetBaseURL(base).
		SetTimeout(15 * time.Second).
		SetHeader("X-MBX-APIKEY", p.APIKey).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request.Method != resty.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= 500 || r.StatusCode() == 429
		})

	return &Client{p: p, httpc: httpc}
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type tickerPrice struct {
	Symbol string      `json:"symbol"`
	Price  json.Number `json:"price"`
	Time   int64       `json:"time"`
}

type balanceEntry struct {
	Asset            string      `json:"asset"`
	Balance          json.Number `json:"balance"`
	AvailableBalance json.Number `json:"availableBalance"`
}

type orderResponse struct {
	OrderID     int64       `json:"orderId"`
	Symbol      string      `json:"symbol"`
	Status      string      `json:"status"`
	Side        string      `json:"side"`
	Type        string      `json:"type"`
	OrigQty     json.Number `json:"origQty"`
	ExecutedQty json.Number `json:"executedQty"`
	AvgPrice    json.Number `json:"avgPrice"`
	StopPrice   json.Number `json:"stopPrice"`
	UpdateTime  int64       `json:"updateTime"`
}

func (c *Client) GetPrice(ctx context.Context, symbol string) (types.Quote, error) {
	var out tickerPrice
	err := c.get(ctx, "/fapi/v1/ticker/price", url.Values{"symbol": {strings.ToUpper(symbol)}}, false, &out)
	if err != nil {
		return types.Quote{}, err
	}
	price, err := parseDecimal(out.Price)
	if err != nil {
		return types.Quote{}, fmt.Errorf("parse ticker price for %s: %w", symbol, err)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return types.Quote{}, fmt.Errorf("%w: %s", types.ErrSymbolNotFound, symbol)
	}
	return types.Quote{Symbol: out.Symbol, Price: price, Time: time.Now().UTC()}, nil
}

func (c *Client) GetAllPrices(ctx context.Context) ([]types.Quote, error) {
	var out []tickerPrice
	if err := c.get(ctx, "/fapi/v1/ticker/price", nil, false, &out); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	quotes := make([]types.Quote, 0, len(out))
	for _, t := range out {
		price, err := parseDecimal(t.Price)
		if err != nil {
			continue
		}
		quotes = append(quotes, types.Quote{Symbol: t.Symbol, Price: price, Time: now})
	}
	return quotes, nil
}

func (c *Client) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	balances, err := c.GetBalances(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return balances[strings.ToUpper(asset)], nil
}

func (c *Client) GetBalances(ctx context.Context) (map[string]decimal.Decimal, error) {
	var out []balanceEntry
	if err := c.get(ctx, "/fapi/v2/balance", nil, true, &out); err != nil {
		return nil, err
	}
	balances := make(map[string]decimal.Decimal, len(out))
	for _, b := range out {
		avail, err := parseDecimal(b.AvailableBalance)
		if err != nil {
			avail, err = parseDecimal(b.Balance)
			if err != nil {
				continue
			}
		}
		if !avail.IsZero() {
			balances[strings.ToUpper(b.Asset)] = avail
		}
	}
	return balances, nil
}

func (c *Client) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if !req.Side.Valid() {
		return types.OrderResult{}, types.InvalidParamf("invalid side %q", req.Side)
	}

	v := url.Values{}
	v.Set("symbol", strings.ToUpper(req.Symbol))
	v.Set("side", string(req.Side))
	v.Set("type", string(req.Type))

	switch req.Type {
	case types.OrderTypeMarket:
		v.Set("quantity", req.Quantity.String())
		// RESULT response type so avgPrice/executedQty reflect the fill.
		v.Set("newOrderRespType", "RESULT")
	case types.OrderTypeStopMarket:
		v.Set("stopPrice", req.StopPrice.String())
		if req.ClosePosition {
			// closePosition is mutually exclusive with reduceOnly on the
			// wire; it already implies reduce-only semantics.
			v.Set("closePosition", "true")
		} else {
			if req.ReduceOnly {
				v.Set("reduceOnly", "true")
			}
			v.Set("quantity", req.Quantity.String())
		}
	default:
		return types.OrderResult{}, types.InvalidParamf("unsupported order type %q", req.Type)
	}

	var out orderResponse
	if err := c.post(ctx, "/fapi/v1/order", v, &out); err != nil {
		return types.OrderResult{}, err
	}

	return toOrderResult(out), nil
}

func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if leverage <= 0 {
		return types.InvalidParamf("leverage must be positive, got %d", leverage)
	}
	v := url.Values{}
	v.Set("symbol", strings.ToUpper(symbol))
	v.Set("leverage", strconv.Itoa(leverage))
	return c.post(ctx, "/fapi/v1/leverage", v, nil)
}

func toOrderResult(o orderResponse) types.OrderResult {
	res := types.OrderResult{
		OrderID: strconv.FormatInt(o.OrderID, 10),
		Symbol:  o.Symbol,
		Side:    types.Side(o.Side),
		Type:    types.OrderType(o.Type),
		Status:  mapStatus(o.Status),
		Time:    time.UnixMilli(o.UpdateTime).UTC(),
	}
	if d, err := parseDecimal(o.OrigQty); err == nil {
		res.Quantity = d
	}
	if d, err := parseDecimal(o.ExecutedQty); err == nil {
		res.ExecutedQty = d
	}
	if d, err := parseDecimal(o.AvgPrice); err == nil {
		res.AvgPrice = d
	}
	if d, err := parseDecimal(o.StopPrice); err == nil {
		res.StopPrice = d
	}
	return res
}

func mapStatus(s string) string {
	switch s {
	case "FILLED":
		return types.StatusFilled
	case "REJECTED", "EXPIRED":
		return types.StatusRejected
	default:
		return types.StatusNew
	}
}

func parseDecimal(n json.Number) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(n.String())
}
