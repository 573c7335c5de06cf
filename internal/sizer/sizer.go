package sizer

import (
	"github.com/shopspring/decimal"

	"futures-trader/internal/types"
)

var hundred = decimal.NewFromInt(100)

// Size computes the trade quantity for a risk-sized entry:
//
//	risk_amount   = balance * risk_percent / 100
//	stop_distance = price * stop_loss_percent
//	quantity      = risk_amount * leverage / stop_distance
//
// The result is rounded to precision decimal places. Size has no side
// effects; balance and price are read by the caller.
func Size(balance, riskPercent, price, stopLossPercent decimal.Decimal, leverage int, precision int32) (decimal.Decimal, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, types.InvalidParamf("price must be positive, got %s", price)
	}
	if stopLossPercent.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, types.InvalidParamf("stop_loss_percent must be positive, got %s", stopLossPercent)
	}
	if leverage <= 0 {
		return decimal.Zero, types.InvalidParamf("leverage must be positive, got %d", leverage)
	}
	if riskPercent.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, types.InvalidParamf("risk_percent must be positive, got %s", riskPercent)
	}
	if balance.LessThan(decimal.Zero) {
		return decimal.Zero, types.InvalidParamf("balance must be non-negative, got %s", balance)
	}

	riskAmount := balance.Mul(riskPercent).Div(hundred)
	stopDistance := price.Mul(stopLossPercent)
	qty := riskAmount.Mul(decimal.NewFromInt(int64(leverage))).Div(stopDistance)
	return qty.Round(precision), nil
}
