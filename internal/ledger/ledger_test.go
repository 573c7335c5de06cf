package ledger

import (
	"errors"
	"path/filepath"
	"testing"

	"futures-trader/internal/types"

	"github.com/shopspring/decimal"
)

func newTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "balance.json")
	store := NewFileStore(path, map[string]decimal.Decimal{
		"USDT": decimal.NewFromInt(1000),
		"BTC":  decimal.Zero,
	})
	l, err := New(store)
	if err != nil {
		t.Fatalf("New ledger: %v", err)
	}
	return l, path
}

func TestGetUnseenAssetIsZero(t *testing.T) {
	l, _ := newTestLedger(t)
	if got := l.Get("DOGE"); !got.IsZero() {
		t.Errorf("Expected zero for unseen asset, got %s", got)
	}
}

func TestApplyFillBuy(t *testing.T) {
	l, _ := newTestLedger(t)

	// BUY 0.01 BTC at 68000 costs 680 USDT
	err := l.ApplyFill("BTC", "USDT", types.SideBuy, decimal.NewFromFloat(0.01), decimal.NewFromInt(68000))
	if err != nil {
		t.Fatalf("ApplyFill: %v", err)
	}

	if got, want := l.Get("USDT"), decimal.NewFromInt(320); !got.Equal(want) {
		t.Errorf("Expected USDT %s, got %s", want, got)
	}
	if got, want := l.Get("BTC"), decimal.NewFromFloat(0.01); !got.Equal(want) {
		t.Errorf("Expected BTC %s, got %s", want, got)
	}
}

func TestApplyFillInsufficientBalanceIsAtomic(t *testing.T) {
	l, _ := newTestLedger(t)

	// SELL 1.0 BTC against BTC:0 must fail and change nothing
	err := l.ApplyFill("BTC", "USDT", types.SideSell, decimal.NewFromInt(1), decimal.NewFromInt(68000))
	if !errors.Is(err, types.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	if got, want := l.Get("USDT"), decimal.NewFromInt(1000); !got.Equal(want) {
		t.Errorf("USDT changed on failed fill: want %s, got %s", want, got)
	}
	if got := l.Get("BTC"); !got.IsZero() {
		t.Errorf("BTC changed on failed fill: got %s", got)
	}
}

func TestApplyFillRoundTripRestoresBalances(t *testing.T) {
	l, _ := newTestLedger(t)

	qty := decimal.NewFromFloat(0.01)
	price := decimal.NewFromInt(68000)

	if err := l.ApplyFill("BTC", "USDT", types.SideBuy, qty, price); err != nil {
		t.Fatalf("BUY: %v", err)
	}
	if err := l.ApplyFill("BTC", "USDT", types.SideSell, qty, price); err != nil {
		t.Fatalf("SELL: %v", err)
	}

	if got, want := l.Get("USDT"), decimal.NewFromInt(1000); !got.Equal(want) {
		t.Errorf("Expected USDT restored to %s, got %s", want, got)
	}
	if got := l.Get("BTC"); !got.IsZero() {
		t.Errorf("Expected BTC restored to zero, got %s", got)
	}
}

func TestApplyFillRejectsInvalidInputs(t *testing.T) {
	l, _ := newTestLedger(t)

	cases := []struct {
		name       string
		side       types.Side
		qty, price decimal.Decimal
	}{
		{"zero qty", types.SideBuy, decimal.Zero, decimal.NewFromInt(100)},
		{"negative price", types.SideBuy, decimal.NewFromInt(1), decimal.NewFromInt(-1)},
		{"bad side", types.Side("HOLD"), decimal.NewFromInt(1), decimal.NewFromInt(100)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := l.ApplyFill("BTC", "USDT", tc.side, tc.qty, tc.price)
			if !errors.Is(err, types.ErrInvalidParameter) {
				t.Errorf("Expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

// flakyStore wraps a Store and fails Save on demand.
type flakyStore struct {
	inner    Store
	failSave bool
}

func (s *flakyStore) Load() (map[string]decimal.Decimal, error) { return s.inner.Load() }

func (s *flakyStore) Save(balances map[string]decimal.Decimal) error {
	if s.failSave {
		return errors.New("disk full")
	}
	return s.inner.Save(balances)
}

func TestApplyFillSaveFailureLeavesBalancesUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	store := &flakyStore{inner: NewFileStore(path, map[string]decimal.Decimal{
		"USDT": decimal.NewFromInt(1000),
		"BTC":  decimal.Zero,
	})}
	l, err := New(store)
	if err != nil {
		t.Fatalf("New ledger: %v", err)
	}

	store.failSave = true
	err = l.ApplyFill("BTC", "USDT", types.SideBuy, decimal.NewFromFloat(0.01), decimal.NewFromInt(68000))
	if err == nil {
		t.Fatal("Expected an error when persistence fails")
	}

	// A failed fill must not be visible in memory either.
	if got, want := l.Get("USDT"), decimal.NewFromInt(1000); !got.Equal(want) {
		t.Errorf("USDT mutated despite failed fill: got %s, want %s", got, want)
	}
	if got := l.Get("BTC"); !got.IsZero() {
		t.Errorf("BTC mutated despite failed fill: got %s, want 0", got)
	}

	// Once the store recovers the same fill goes through cleanly.
	store.failSave = false
	if err := l.ApplyFill("BTC", "USDT", types.SideBuy, decimal.NewFromFloat(0.01), decimal.NewFromInt(68000)); err != nil {
		t.Fatalf("ApplyFill after store recovery: %v", err)
	}
	if got, want := l.Get("USDT"), decimal.NewFromInt(320); !got.Equal(want) {
		t.Errorf("Expected USDT %s after fill, got %s", want, got)
	}
}

func TestBalancesSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	seed := map[string]decimal.Decimal{"USDT": decimal.NewFromInt(1000)}

	l, err := New(NewFileStore(path, seed))
	if err != nil {
		t.Fatalf("New ledger: %v", err)
	}
	if err := l.ApplyFill("ETH", "USDT", types.SideBuy, decimal.NewFromFloat(0.1), decimal.NewFromInt(3200)); err != nil {
		t.Fatalf("ApplyFill: %v", err)
	}

	// A second ledger over the same file sees the mutated state.
	reloaded, err := New(NewFileStore(path, seed))
	if err != nil {
		t.Fatalf("Reload ledger: %v", err)
	}
	if got, want := reloaded.Get("USDT"), decimal.NewFromInt(680); !got.Equal(want) {
		t.Errorf("Expected persisted USDT %s, got %s", want, got)
	}
	if got, want := reloaded.Get("ETH"), decimal.NewFromFloat(0.1); !got.Equal(want) {
		t.Errorf("Expected persisted ETH %s, got %s", want, got)
	}
}

func TestFileStoreSeedsOnFirstLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	store := NewFileStore(path, map[string]decimal.Decimal{"USDT": decimal.NewFromInt(1000)})

	balances, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := balances["USDT"], decimal.NewFromInt(1000); !got.Equal(want) {
		t.Errorf("Expected seeded USDT %s, got %s", want, got)
	}

	// The seed must have been written to disk, not just returned.
	again, err := store.Load()
	if err != nil {
		t.Fatalf("Second load: %v", err)
	}
	if got := again["USDT"]; !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected persisted seed, got %s", got)
	}
}
