package exchangeobs

import (
	"context"

	"futures-trader/internal/exchange"
	"futures-trader/internal/logger"
	"futures-trader/internal/trace"
	"futures-trader/internal/types"

	"github.com/shopspring/decimal"
)

// observableExchange wraps an Exchange with observability (logging & tracing)
type observableExchange struct {
	ex exchange.Exchange
}

// Compile-time interface check
var _ exchange.Exchange = (*observableExchange)(nil)

// Wrap wraps an exchange with observability middleware
func Wrap(ex exchange.Exchange) exchange.Exchange {
	return &observableExchange{ex: ex}
}

// GetPrice fetches a quote with observability
func (o *observableExchange) GetPrice(ctx context.Context, symbol string) (types.Quote, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.GetPrice")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching price", "symbol", symbol)

	quote, err := o.ex.GetPrice(ctx, symbol)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch price", err, "symbol", symbol)
		return types.Quote{}, err
	}

	logger.DebugSkip(ctx, 1, "Price fetched successfully", "symbol", symbol, "price", quote.Price.String())
	return quote, nil
}

// GetAllPrices fetches the full price list with observability
func (o *observableExchange) GetAllPrices(ctx context.Context) ([]types.Quote, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.GetAllPrices")
	defer span.End()

	quotes, err := o.ex.GetAllPrices(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch prices", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Prices fetched successfully", "count", len(quotes))
	return quotes, nil
}

// GetBalance fetches one asset balance with observability
func (o *observableExchange) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.GetBalance")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching balance", "asset", asset)

	balance, err := o.ex.GetBalance(ctx, asset)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balance", err, "asset", asset)
		return decimal.Zero, err
	}

	logger.DebugSkip(ctx, 1, "Balance fetched successfully", "asset", asset, "balance", balance.String())
	return balance, nil
}

// GetBalances fetches all balances with observability
func (o *observableExchange) GetBalances(ctx context.Context) (map[string]decimal.Decimal, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.GetBalances")
	defer span.End()

	balances, err := o.ex.GetBalances(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balances", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Balances fetched successfully", "count", len(balances))
	return balances, nil
}

// SubmitOrder submits an order with observability
func (o *observableExchange) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "exchange.SubmitOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Submitting order",
		"symbol", req.Symbol,
		"side", req.Side,
		"order_type", req.Type,
		"quantity", req.Quantity.String(),
		"stop_price", req.StopPrice.String(),
		"close_position", req.ClosePosition,
	)

	res, err := o.ex.SubmitOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to submit order", err,
			"symbol", req.Symbol,
			"side", req.Side,
			"order_type", req.Type,
		)
		return types.OrderResult{}, err
	}

	logger.InfoSkip(ctx, 1, "Order submitted successfully",
		"symbol", req.Symbol,
		"order_id", res.OrderID,
		"status", res.Status,
	)
	return res, nil
}

// SetLeverage sets leverage with observability
func (o *observableExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	ctx, span := trace.StartSpan(ctx, "exchange.SetLeverage")
	defer span.End()

	err := o.ex.SetLeverage(ctx, symbol, leverage)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to set leverage", err, "symbol", symbol, "leverage", leverage)
		return err
	}

	logger.InfoSkip(ctx, 1, "Leverage set", "symbol", symbol, "leverage", leverage)
	return nil
}
