package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the closing side for a position opened on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

type OrderType string

const (
	OrderTypeMarket     OrderType = "MARKET"
	OrderTypeStopMarket OrderType = "STOP_MARKET"
)

// Quote is a point-in-time reference price. A fresh quote is fetched per
// decision; quotes are never cached across calls.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Time   time.Time       `json:"time"`
}

// OrderRequest describes a single order submission. It is built once and not
// mutated after it is handed to the exchange.
type OrderRequest struct {
	Symbol        string          `json:"symbol"`
	Side          Side            `json:"side"`
	Type          OrderType       `json:"type"`
	Quantity      decimal.Decimal `json:"quantity,omitempty"`
	StopPrice     decimal.Decimal `json:"stop_price,omitempty"`
	ClosePosition bool            `json:"close_position,omitempty"`
	ReduceOnly    bool            `json:"reduce_only,omitempty"`
}

// Order statuses as reported by the execution backend.
const (
	StatusFilled   = "FILLED"
	StatusNew      = "NEW"
	StatusRejected = "REJECTED"
)

type OrderResult struct {
	OrderID     string          `json:"order_id"`
	Symbol      string          `json:"symbol"`
	Side        Side            `json:"side"`
	Type        OrderType       `json:"type"`
	Status      string          `json:"status"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgPrice    decimal.Decimal `json:"avg_price"`
	ExecutedQty decimal.Decimal `json:"executed_qty"`
	StopPrice   decimal.Decimal `json:"stop_price,omitempty"`
	Time        time.Time       `json:"time"`
}

// Rejected reports whether the backend accepted the call but refused the
// order. Callers must check this before treating a nil error as a fill.
func (r OrderResult) Rejected() bool { return r.Status == StatusRejected }

// RiskParams are the per-session risk inputs. RiskPercent is a percentage of
// the quote-asset balance; StopLossPercent and TakeProfitPercent are
// fractions of the entry price (0.01 == 1%).
type RiskParams struct {
	RiskPercent       decimal.Decimal `json:"risk_percent"`
	StopLossPercent   decimal.Decimal `json:"stop_loss_percent"`
	TakeProfitPercent decimal.Decimal `json:"take_profit_percent"`
	Leverage          int             `json:"leverage"`
}

func (p RiskParams) Validate() error {
	if p.RiskPercent.LessThanOrEqual(decimal.Zero) || p.RiskPercent.GreaterThan(decimal.NewFromInt(100)) {
		return invalidParamf("risk_percent must be in (0, 100], got %s", p.RiskPercent)
	}
	if p.StopLossPercent.LessThanOrEqual(decimal.Zero) {
		return invalidParamf("stop_loss_percent must be positive, got %s", p.StopLossPercent)
	}
	if p.TakeProfitPercent.LessThanOrEqual(decimal.Zero) {
		return invalidParamf("take_profit_percent must be positive, got %s", p.TakeProfitPercent)
	}
	if p.Leverage <= 0 {
		return invalidParamf("leverage must be positive, got %d", p.Leverage)
	}
	return nil
}
