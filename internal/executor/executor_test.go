package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"futures-trader/internal/types"

	"github.com/shopspring/decimal"
)

// fakeExchange records submissions and fails according to a scripted error
// queue, one entry consumed per SubmitOrder call.
type fakeExchange struct {
	submitted []types.OrderRequest
	errQueue  []error
	reject    bool
}

func (f *fakeExchange) GetPrice(ctx context.Context, symbol string) (types.Quote, error) {
	return types.Quote{Symbol: symbol, Price: decimal.NewFromInt(68000), Time: time.Now()}, nil
}

func (f *fakeExchange) GetAllPrices(ctx context.Context) ([]types.Quote, error) { return nil, nil }

func (f *fakeExchange) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return decimal.NewFromInt(1000), nil
}

func (f *fakeExchange) GetBalances(ctx context.Context) (map[string]decimal.Decimal, error) {
	return nil, nil
}

func (f *fakeExchange) SubmitOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	f.submitted = append(f.submitted, req)
	var err error
	if len(f.errQueue) > 0 {
		err = f.errQueue[0]
		f.errQueue = f.errQueue[1:]
	}
	if err != nil {
		return types.OrderResult{}, err
	}
	status := types.StatusFilled
	if req.Type == types.OrderTypeStopMarket {
		status = types.StatusNew
	}
	if f.reject {
		status = types.StatusRejected
	}
	return types.OrderResult{
		OrderID:     fmt.Sprintf("FAKE-%d", len(f.submitted)),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Type:        req.Type,
		Status:      status,
		Quantity:    req.Quantity,
		StopPrice:   req.StopPrice,
		AvgPrice:    decimal.NewFromInt(68000),
		ExecutedQty: req.Quantity,
		Time:        time.Now(),
	}, nil
}

func (f *fakeExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	return nil
}

func TestSubmitMarketOrder(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	fake := &fakeExchange{}
	exec := New(fake, 2)

	res, err := exec.SubmitMarketOrder(context.Background(), "BTCUSDT", types.SideBuy, decimal.NewFromFloat(0.147))
	if err != nil {
		t.Fatalf("SubmitMarketOrder: %v", err)
	}
	if res.Status != types.StatusFilled {
		t.Errorf("Expected FILLED, got %s", res.Status)
	}
	if len(fake.submitted) != 1 {
		t.Fatalf("Expected 1 submission, got %d", len(fake.submitted))
	}
	req := fake.submitted[0]
	if req.Type != types.OrderTypeMarket || req.Side != types.SideBuy {
		t.Errorf("Unexpected request: %+v", req)
	}
}

func TestSubmitMarketOrderValidation(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	exec := New(&fakeExchange{}, 2)

	_, err := exec.SubmitMarketOrder(context.Background(), "BTCUSDT", types.SideBuy, decimal.Zero)
	if !errors.Is(err, types.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for zero qty, got %v", err)
	}
	_, err = exec.SubmitMarketOrder(context.Background(), "BTCUSDT", types.Side("HOLD"), decimal.NewFromInt(1))
	if !errors.Is(err, types.ErrInvalidParameter) {
		t.Errorf("Expected ErrInvalidParameter for bad side, got %v", err)
	}
}

func TestSubmitMarketOrderWrapsBackendFailure(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	fake := &fakeExchange{errQueue: []error{errors.New("connection reset")}}
	exec := New(fake, 2)

	_, err := exec.SubmitMarketOrder(context.Background(), "BTCUSDT", types.SideBuy, decimal.NewFromInt(1))
	var execErr *types.ExecutionError
	if !errors.As(err, &execErr) {
		t.Errorf("Expected ExecutionError, got %v", err)
	}
}

func TestSubmitRiskExitsInvertsEntrySide(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	for _, tc := range []struct {
		entry, exit types.Side
	}{
		{types.SideBuy, types.SideSell},
		{types.SideSell, types.SideBuy},
	} {
		fake := &fakeExchange{}
		exec := New(fake, 2)

		results := exec.SubmitRiskExits(context.Background(), "BTCUSDT", tc.entry,
			decimal.NewFromInt(67320), decimal.NewFromInt(69360))
		if !results.AllOK() {
			t.Fatalf("entry=%s: expected both exits to succeed", tc.entry)
		}
		if len(fake.submitted) != 2 {
			t.Fatalf("entry=%s: expected 2 submissions, got %d", tc.entry, len(fake.submitted))
		}
		for _, req := range fake.submitted {
			if req.Side != tc.exit {
				t.Errorf("entry=%s: exit side %s, want %s", tc.entry, req.Side, tc.exit)
			}
			if req.Type != types.OrderTypeStopMarket {
				t.Errorf("entry=%s: exit type %s, want STOP_MARKET", tc.entry, req.Type)
			}
			if !req.ClosePosition || !req.ReduceOnly {
				t.Errorf("entry=%s: exit must be closePosition+reduceOnly, got %+v", tc.entry, req)
			}
		}
	}
}

func TestSubmitRiskExitsRoundsToTickPrecision(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())
	fake := &fakeExchange{}
	exec := New(fake, 2)

	exec.SubmitRiskExits(context.Background(), "BTCUSDT", types.SideBuy,
		decimal.NewFromFloat(67319.987654), decimal.NewFromFloat(69360.123456))

	if got, want := fake.submitted[0].StopPrice, decimal.NewFromFloat(67319.99); !got.Equal(want) {
		t.Errorf("Stop-loss price %s, want %s", got, want)
	}
	if got, want := fake.submitted[1].StopPrice, decimal.NewFromFloat(69360.12); !got.Equal(want) {
		t.Errorf("Take-profit price %s, want %s", got, want)
	}
}

func TestSubmitRiskExitsPartialFailure(t *testing.T) {
	t.Setenv("TRADER_LOG_DIR", t.TempDir())

	// Stop-loss submission fails, take-profit succeeds. Both must have been
	// attempted and the failure carried per order.
	fake := &fakeExchange{errQueue: []error{errors.New("rate limited")}}
	exec := New(fake, 2)

	results := exec.SubmitRiskExits(context.Background(), "BTCUSDT", types.SideBuy,
		decimal.NewFromInt(67320), decimal.NewFromInt(69360))

	if len(fake.submitted) != 2 {
		t.Fatalf("Expected both exits attempted, got %d submissions", len(fake.submitted))
	}
	if results.StopLoss.OK() {
		t.Error("Expected stop-loss outcome to carry the failure")
	}
	if results.StopLoss.Err == nil {
		t.Error("Expected a non-nil stop-loss error")
	}
	if !results.TakeProfit.OK() {
		t.Errorf("Expected take-profit to succeed, got %v", results.TakeProfit.Err)
	}
	if !results.Partial() {
		t.Error("Expected Partial() to report the asymmetric outcome")
	}
	if results.AllOK() {
		t.Error("AllOK must be false on partial failure")
	}
}
