package exchange

import (
	"context"

	"futures-trader/internal/types"

	"github.com/shopspring/decimal"
)

// Exchange is the single capability interface the core needs from an
// execution backend. Two implementations exist: the Binance USDⓈ-M futures
// client and the file-backed mock. The concrete backend is chosen at
// construction time, never by runtime type inspection.
type Exchange interface {
	// GetPrice returns a fresh quote for symbol. Fails with
	// types.ErrSymbolNotFound for unknown symbols.
	GetPrice(ctx context.Context, symbol string) (types.Quote, error)

	// GetAllPrices returns the current reference price for every symbol the
	// backend knows about.
	GetAllPrices(ctx context.Context) ([]types.Quote, error)

	// GetBalance returns the available balance for one asset, zero if the
	// asset is unseen.
	GetBalance(ctx context.Context, asset string) (decimal.Decimal, error)

	// GetBalances returns every non-empty asset balance.
	GetBalances(ctx context.Context) (map[string]decimal.Decimal, error)

	// SubmitOrder submits one order. A nil error does not imply a fill;
	// callers must inspect the result status.
	SubmitOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error)

	// SetLeverage sets the leverage multiplier for symbol.
	SetLeverage(ctx context.Context, symbol string, leverage int) error
}
