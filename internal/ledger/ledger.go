package ledger

import (
	"fmt"
	"sync"

	"futures-trader/internal/types"

	"github.com/shopspring/decimal"
)

// Store persists the asset → balance map. Implementations must make Save
// durable before returning.
type Store interface {
	Load() (map[string]decimal.Decimal, error)
	Save(balances map[string]decimal.Decimal) error
}

// Ledger tracks available balance per asset. All mutations go through
// ApplyFill, which is serialized per ledger instance so concurrent sessions
// cannot push a balance negative.
type Ledger struct {
	mu       sync.Mutex
	store    Store
	balances map[string]decimal.Decimal
}

// New loads the persisted balances from store.
func New(store Store) (*Ledger, error) {
	balances, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load balances: %w", err)
	}
	if balances == nil {
		balances = map[string]decimal.Decimal{}
	}
	return &Ledger{store: store, balances: balances}, nil
}

// Get returns the available quantity for asset, zero if unseen.
func (l *Ledger) Get(asset string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[asset]
}

// All returns a copy of every tracked balance.
func (l *Ledger) All() map[string]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(l.balances))
	for k, v := range l.balances {
		out[k] = v
	}
	return out
}

// ApplyFill applies a fill atomically. BUY debits quoteAsset by price*qty and
// credits baseAsset by qty; SELL is the inverse. If the debit side would go
// negative the fill fails with ErrInsufficientBalance and neither balance is
// touched.
func (l *Ledger) ApplyFill(baseAsset, quoteAsset string, side types.Side, qty, price decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) || price.LessThanOrEqual(decimal.Zero) {
		return types.InvalidParamf("fill qty and price must be positive, got qty=%s price=%s", qty, price)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cost := price.Mul(qty)

	var debitAsset, creditAsset string
	var debitAmt, creditAmt decimal.Decimal
	switch side {
	case types.SideBuy:
		debitAsset, debitAmt = quoteAsset, cost
		creditAsset, creditAmt = baseAsset, qty
	case types.SideSell:
		debitAsset, debitAmt = baseAsset, qty
		creditAsset, creditAmt = quoteAsset, cost
	default:
		return types.InvalidParamf("invalid side %q", side)
	}

	// Check before apply so a failure leaves both balances unchanged.
	if l.balances[debitAsset].LessThan(debitAmt) {
		return fmt.Errorf("%w: %s available %s, need %s",
			types.ErrInsufficientBalance, debitAsset, l.balances[debitAsset], debitAmt)
	}

	// Apply onto a candidate copy and persist that first. The in-memory view
	// only advances once the write is durable, so a Save failure leaves
	// memory and disk agreeing on the pre-fill state.
	next := make(map[string]decimal.Decimal, len(l.balances))
	for k, v := range l.balances {
		next[k] = v
	}
	next[debitAsset] = next[debitAsset].Sub(debitAmt)
	next[creditAsset] = next[creditAsset].Add(creditAmt)

	if err := l.store.Save(next); err != nil {
		return fmt.Errorf("persist balances: %w", err)
	}
	l.balances = next
	return nil
}
