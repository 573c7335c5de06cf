package executor

import (
	"context"
	"errors"

	"futures-trader/internal/exchange"
	"futures-trader/internal/logger"
	"futures-trader/internal/tradelog"
	"futures-trader/internal/types"

	"github.com/shopspring/decimal"
)

// Audit tags written to the tradelog.
const (
	TagMarket     = "MARKET"
	TagStopLoss   = "SL"
	TagTakeProfit = "TP"
)

// Executor submits orders and writes the audit trail. Every submission, pass
// or fail, produces one tradelog record.
type Executor struct {
	ex             exchange.Exchange
	pricePrecision int32
}

func New(ex exchange.Exchange, pricePrecision int32) *Executor {
	return &Executor{ex: ex, pricePrecision: pricePrecision}
}

// OrderOutcome is the per-order result of an exit submission.
type OrderOutcome struct {
	Result types.OrderResult `json:"result"`
	Err    error             `json:"-"`
}

// OK reports whether the order was accepted by the backend.
func (o OrderOutcome) OK() bool { return o.Err == nil && !o.Result.Rejected() }

// ExitResults carries both exit outcomes. The two submissions are
// independent; callers must inspect each one.
type ExitResults struct {
	StopLoss   OrderOutcome `json:"stop_loss"`
	TakeProfit OrderOutcome `json:"take_profit"`
}

// AllOK reports whether both exits were accepted.
func (r ExitResults) AllOK() bool { return r.StopLoss.OK() && r.TakeProfit.OK() }

// Partial reports whether exactly one exit failed.
func (r ExitResults) Partial() bool { return r.StopLoss.OK() != r.TakeProfit.OK() }

// SubmitMarketOrder submits an entry order. A nil error means the backend
// accepted the call, not that the order filled; check the result status.
func (e *Executor) SubmitMarketOrder(ctx context.Context, symbol string, side types.Side, qty decimal.Decimal) (types.OrderResult, error) {
	if !side.Valid() {
		return types.OrderResult{}, types.InvalidParamf("invalid side %q", side)
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return types.OrderResult{}, types.InvalidParamf("quantity must be positive, got %s", qty)
	}

	req := types.OrderRequest{
		Symbol:   symbol,
		Side:     side,
		Type:     types.OrderTypeMarket,
		Quantity: qty,
	}

	res, err := e.submit(ctx, req, TagMarket)
	if err != nil {
		return types.OrderResult{}, asExecutionError(err)
	}
	return res, nil
}

// SubmitRiskExits places the stop-loss/take-profit pair protecting an entry.
// The exit side is the inverse of the entry side; both orders are reduce-only
// stop triggers rounded to the tick precision. The two submissions are
// independent: a failure on one never aborts the other, and each outcome is
// returned for the caller to inspect.
func (e *Executor) SubmitRiskExits(ctx context.Context, symbol string, entrySide types.Side, stopLossPrice, takeProfitPrice decimal.Decimal) ExitResults {
	exitSide := entrySide.Opposite()

	var results ExitResults
	results.StopLoss = e.submitExit(ctx, symbol, exitSide, stopLossPrice, TagStopLoss)
	results.TakeProfit = e.submitExit(ctx, symbol, exitSide, takeProfitPrice, TagTakeProfit)

	if !results.AllOK() {
		logger.Risk(ctx, symbol, "EXIT_SUBMISSION_INCOMPLETE",
			"stop_loss_ok", results.StopLoss.OK(),
			"take_profit_ok", results.TakeProfit.OK(),
		)
	}
	return results
}

func (e *Executor) submitExit(ctx context.Context, symbol string, side types.Side, stopPrice decimal.Decimal, tag string) OrderOutcome {
	req := types.OrderRequest{
		Symbol:        symbol,
		Side:          side,
		Type:          types.OrderTypeStopMarket,
		StopPrice:     stopPrice.Round(e.pricePrecision),
		ClosePosition: true,
		ReduceOnly:    true,
	}

	res, err := e.submit(ctx, req, tag)
	if err != nil {
		return OrderOutcome{Err: asExecutionError(err)}
	}
	return OrderOutcome{Result: res}
}

// submit sends the order and appends the audit record.
func (e *Executor) submit(ctx context.Context, req types.OrderRequest, tag string) (types.OrderResult, error) {
	res, err := e.ex.SubmitOrder(ctx, req)

	entry := tradelog.Entry{Request: req, Tag: tag}
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.Result = &res
	}
	if logErr := tradelog.Append(entry); logErr != nil {
		logger.Warn(ctx, "Failed to write audit record", "error", logErr, "symbol", req.Symbol, "tag", tag)
	}

	if err != nil {
		return types.OrderResult{}, err
	}

	logger.Order(ctx, res.Symbol, string(res.Side), string(res.Type), req.Quantity, res.OrderID, res.Status, "tag", tag)
	return res, nil
}

// asExecutionError guarantees backend failures surface as ExecutionError
// while leaving parameter errors alone.
func asExecutionError(err error) error {
	var execErr *types.ExecutionError
	if errors.As(err, &execErr) || errors.Is(err, types.ErrInvalidParameter) {
		return err
	}
	return types.NewExecutionError(0, err.Error(), err)
}
