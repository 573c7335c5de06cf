package mock

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"futures-trader/internal/exchange"
	"futures-trader/internal/ledger"
	"futures-trader/internal/logger"
	"futures-trader/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Params struct {
	DataDir    string
	QuoteAsset string
}

// Mock is the offline exchange. Balances live in a file-backed ledger,
// reference prices in a read-only JSON list; market orders fill instantly at
// the reference price. Stop-trigger exits are accepted and recorded but never
// matched.
type Mock struct {
	p      Params
	ledger *ledger.Ledger
	prices *priceList

	mu       sync.Mutex
	leverage map[string]int
	exits    []types.OrderResult
}

var _ exchange.Exchange = (*Mock)(nil)

// New builds the mock exchange, seeding the balance and price files on first
// use with the reference defaults (1000 USDT, BTC/ETH/BNB price list).
func New(p Params) (*Mock, error) {
	if p.QuoteAsset == "" {
		p.QuoteAsset = "USDT"
	}

	store := ledger.NewFileStore(filepath.Join(p.DataDir, "mock_balance.json"), map[string]decimal.Decimal{
		p.QuoteAsset: decimal.NewFromInt(1000),
		"BTC":        decimal.Zero,
		"ETH":        decimal.Zero,
	})
	led, err := ledger.New(store)
	if err != nil {
		return nil, err
	}

	prices, err := loadPriceList(filepath.Join(p.DataDir, "mock_prices.json"))
	if err != nil {
		return nil, err
	}

	return &Mock{
		p:        p,
		ledger:   led,
		prices:   prices,
		leverage: map[string]int{},
	}, nil
}

// Ledger exposes the balance ledger backing the mock.
func (m *Mock) Ledger() *ledger.Ledger { return m.ledger }

func (m *Mock) GetPrice(ctx context.Context, symbol string) (types.Quote, error) {
	price, ok := m.prices.get(symbol)
	if !ok {
		return types.Quote{}, fmt.Errorf("%w: %s", types.ErrSymbolNotFound, symbol)
	}
	return types.Quote{Symbol: strings.ToUpper(symbol), Price: price, Time: time.Now().UTC()}, nil
}

func (m *Mock) GetAllPrices(ctx context.Context) ([]types.Quote, error) {
	return m.prices.all(), nil
}

func (m *Mock) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return m.ledger.Get(asset), nil
}

func (m *Mock) GetBalances(ctx context.Context) (map[string]decimal.Decimal, error) {
	return m.ledger.All(), nil
}

func (m *Mock) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if !req.Side.Valid() {
		return types.OrderResult{}, types.InvalidParamf("invalid side %q", req.Side)
	}

	switch req.Type {
	case types.OrderTypeMarket:
		return m.fillMarket(ctx, req)
	case types.OrderTypeStopMarket:
		return m.acceptExit(ctx, req)
	default:
		return types.OrderResult{}, types.InvalidParamf("unsupported order type %q", req.Type)
	}
}

// fillMarket fills at the reference price and settles against the ledger.
func (m *Mock) fillMarket(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	quote, err := m.GetPrice(ctx, req.Symbol)
	if err != nil {
		return types.OrderResult{}, err
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return types.OrderResult{}, types.InvalidParamf("quantity must be positive, got %s", req.Quantity)
	}

	base := baseAsset(req.Symbol, m.p.QuoteAsset)
	if err := m.ledger.ApplyFill(base, m.p.QuoteAsset, req.Side, req.Quantity, quote.Price); err != nil {
		return types.OrderResult{}, types.NewExecutionError(0, "mock fill rejected", err)
	}

	res := types.OrderResult{
		OrderID:     "MOCK-" + uuid.NewString(),
		Symbol:      quote.Symbol,
		Side:        req.Side,
		Type:        req.Type,
		Status:      types.StatusFilled,
		Quantity:    req.Quantity,
		AvgPrice:    quote.Price,
		ExecutedQty: req.Quantity,
		Time:        time.Now().UTC(),
	}
	logger.Info(ctx, "Mock order filled",
		"symbol", res.Symbol, "side", res.Side, "qty", res.Quantity.String(), "price", res.AvgPrice.String(),
	)
	return res, nil
}

// acceptExit records a stop-trigger order without matching it.
func (m *Mock) acceptExit(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	if _, ok := m.prices.get(req.Symbol); !ok {
		return types.OrderResult{}, fmt.Errorf("%w: %s", types.ErrSymbolNotFound, req.Symbol)
	}
	if req.StopPrice.LessThanOrEqual(decimal.Zero) {
		return types.OrderResult{}, types.InvalidParamf("stop price must be positive, got %s", req.StopPrice)
	}

	res := types.OrderResult{
		OrderID:   "MOCK-" + uuid.NewString(),
		Symbol:    strings.ToUpper(req.Symbol),
		Side:      req.Side,
		Type:      req.Type,
		Status:    types.StatusNew,
		StopPrice: req.StopPrice,
		Time:      time.Now().UTC(),
	}

	m.mu.Lock()
	m.exits = append(m.exits, res)
	m.mu.Unlock()

	logger.Info(ctx, "Mock exit order accepted",
		"symbol", res.Symbol, "side", res.Side, "stop_price", res.StopPrice.String(),
	)
	return res, nil
}

func (m *Mock) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	if leverage <= 0 {
		return types.InvalidParamf("leverage must be positive, got %d", leverage)
	}
	m.mu.Lock()
	m.leverage[strings.ToUpper(symbol)] = leverage
	m.mu.Unlock()
	return nil
}

// OpenExits returns the accepted stop-trigger orders, oldest first.
func (m *Mock) OpenExits() []types.OrderResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.OrderResult, len(m.exits))
	copy(out, m.exits)
	return out
}

// Leverage returns the recorded leverage for symbol, zero if never set.
func (m *Mock) Leverage(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leverage[strings.ToUpper(symbol)]
}

func baseAsset(symbol, quoteAsset string) string {
	s := strings.ToUpper(symbol)
	if b, ok := strings.CutSuffix(s, strings.ToUpper(quoteAsset)); ok && b != "" {
		return b
	}
	return s
}
