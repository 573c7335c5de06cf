package session

import (
	"context"
	"fmt"

	"futures-trader/internal/config"
	"futures-trader/internal/exchange"
	"futures-trader/internal/executor"
	"futures-trader/internal/logger"
	"futures-trader/internal/sizer"
	"futures-trader/internal/trace"
	"futures-trader/internal/types"

	"github.com/shopspring/decimal"
)

// State is the session lifecycle phase. Failed is terminal and reachable
// from Sizing and EntrySubmitted only; once exits are submitted the session
// always completes, carrying per-order exit outcomes instead of aborting.
type State string

const (
	StateIdle           State = "IDLE"
	StateSizing         State = "SIZING"
	StateEntrySubmitted State = "ENTRY_SUBMITTED"
	StateExitsSubmitted State = "EXITS_SUBMITTED"
	StateComplete       State = "COMPLETE"
	StateFailed         State = "FAILED"
)

// TradeRequest is one trading decision: a symbol, a direction and the risk
// parameters for this session.
type TradeRequest struct {
	Symbol string
	Side   types.Side
	Risk   types.RiskParams
}

// TradeReport records everything that happened during one Execute call.
type TradeReport struct {
	Symbol   string               `json:"symbol"`
	Side     types.Side           `json:"side"`
	State    State                `json:"state"`
	Quote    types.Quote          `json:"quote"`
	Quantity decimal.Decimal      `json:"quantity"`
	Entry    types.OrderResult    `json:"entry"`
	StopLoss decimal.Decimal      `json:"stop_loss_price"`
	TakeProf decimal.Decimal      `json:"take_profit_price"`
	Exits    executor.ExitResults `json:"exits"`
	Err      string               `json:"error,omitempty"`
}

// Partial reports whether the entry filled but one of the two protective
// exits failed to submit. Callers must remediate manually; the missing
// exit is never silently dropped.
func (r *TradeReport) Partial() bool {
	return r.State == StateComplete && r.Exits.Partial()
}

// Session orchestrates one risk-sized order workflow: quote → size → entry →
// exits, strictly sequential. It never retries; retry policy belongs to the
// supervising caller.
type Session struct {
	cfg  *config.Config
	ex   exchange.Exchange
	exec *executor.Executor
}

func New(cfg *config.Config, ex exchange.Exchange, exec *executor.Executor) *Session {
	return &Session{cfg: cfg, ex: ex, exec: exec}
}

// Execute runs the full workflow for req. On a sizing or entry failure the
// returned report is in StateFailed, no exits were submitted and the error
// is non-nil. Once the entry is confirmed the session always reaches
// StateComplete; individual exit failures are carried in the report.
func (s *Session) Execute(ctx context.Context, req TradeRequest) (*TradeReport, error) {
	ctx, span := trace.StartSpan(ctx, "session.Execute")
	defer span.End()

	op := logger.StartOperation(ctx, "trade_session", "symbol", req.Symbol, "side", string(req.Side))

	report := &TradeReport{Symbol: req.Symbol, Side: req.Side, State: StateIdle}

	if err := s.validate(req); err != nil {
		s.fail(ctx, report, op, err)
		return report, err
	}

	// Sizing: fresh quote and balance per decision, no caching.
	s.transition(ctx, report, StateSizing)

	quote, err := s.ex.GetPrice(ctx, req.Symbol)
	if err != nil {
		s.fail(ctx, report, op, err)
		return report, err
	}
	report.Quote = quote

	balance, err := s.ex.GetBalance(ctx, s.cfg.QuoteAsset)
	if err != nil {
		err = fmt.Errorf("fetch %s balance: %w", s.cfg.QuoteAsset, err)
		s.fail(ctx, report, op, err)
		return report, err
	}

	qty, err := sizer.Size(balance, req.Risk.RiskPercent, quote.Price, req.Risk.StopLossPercent, req.Risk.Leverage, s.cfg.QuantityPrecision)
	if err != nil {
		s.fail(ctx, report, op, err)
		return report, err
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		err := types.InvalidParamf("sized quantity %s rounds to zero at precision %d", qty, s.cfg.QuantityPrecision)
		s.fail(ctx, report, op, err)
		return report, err
	}
	report.Quantity = qty

	logger.Info(ctx, "Position sized",
		"symbol", req.Symbol,
		"balance", balance.String(),
		"price", quote.Price.String(),
		"risk_percent", req.Risk.RiskPercent.String(),
		"leverage", req.Risk.Leverage,
		"quantity", qty.String(),
	)

	// Leverage setup is best effort: a failure is logged, not fatal, the
	// backend falls back to its configured multiplier.
	if err := s.ex.SetLeverage(ctx, req.Symbol, req.Risk.Leverage); err != nil {
		logger.Warn(ctx, "Failed to set leverage", "symbol", req.Symbol, "leverage", req.Risk.Leverage, "error", err)
	}

	// Entry. A rejection here means no position exists, so exits are never
	// attempted.
	entry, err := s.exec.SubmitMarketOrder(ctx, req.Symbol, req.Side, qty)
	if err != nil {
		s.fail(ctx, report, op, err)
		return report, err
	}
	if entry.Rejected() {
		err := types.NewExecutionError(0, "entry order rejected: "+entry.OrderID, nil)
		report.Entry = entry
		s.fail(ctx, report, op, err)
		return report, err
	}
	report.Entry = entry
	s.transition(ctx, report, StateEntrySubmitted)

	// Exit levels come from the quoted price, matching the sizing inputs.
	// The actual fill can differ under slippage; Entry.AvgPrice is in the
	// report so a supervisor can re-level.
	report.StopLoss, report.TakeProf = exitLevels(req.Side, quote.Price, req.Risk)

	report.Exits = s.exec.SubmitRiskExits(ctx, req.Symbol, req.Side, report.StopLoss, report.TakeProf)
	s.transition(ctx, report, StateExitsSubmitted)

	if !report.Exits.AllOK() {
		logger.Risk(ctx, req.Symbol, "UNPROTECTED_POSITION_RISK",
			"entry_order_id", entry.OrderID,
			"stop_loss_ok", report.Exits.StopLoss.OK(),
			"take_profit_ok", report.Exits.TakeProfit.OK(),
		)
	}

	s.transition(ctx, report, StateComplete)
	op.End("state", string(report.State), "quantity", qty.String())
	return report, nil
}

func (s *Session) validate(req TradeRequest) error {
	if req.Symbol == "" {
		return types.InvalidParamf("symbol cannot be empty")
	}
	if !req.Side.Valid() {
		return types.InvalidParamf("invalid side %q", req.Side)
	}
	return req.Risk.Validate()
}

func (s *Session) transition(ctx context.Context, report *TradeReport, next State) {
	logger.Debug(ctx, "Session state changed", "symbol", report.Symbol, "from", string(report.State), "to", string(next))
	report.State = next
}

func (s *Session) fail(ctx context.Context, report *TradeReport, op *logger.OperationTimer, err error) {
	report.State = StateFailed
	report.Err = err.Error()
	op.EndWithError(err, "symbol", report.Symbol)
}

// exitLevels computes stop-loss and take-profit trigger prices from the
// intended entry price as entry*(1±pct). For a BUY the stop sits below and
// the target above; a SELL entry inverts both.
func exitLevels(side types.Side, price decimal.Decimal, risk types.RiskParams) (stopLoss, takeProfit decimal.Decimal) {
	one := decimal.NewFromInt(1)
	if side == types.SideBuy {
		stopLoss = price.Mul(one.Sub(risk.StopLossPercent))
		takeProfit = price.Mul(one.Add(risk.TakeProfitPercent))
		return stopLoss, takeProfit
	}
	stopLoss = price.Mul(one.Add(risk.StopLossPercent))
	takeProfit = price.Mul(one.Sub(risk.TakeProfitPercent))
	return stopLoss, takeProfit
}
