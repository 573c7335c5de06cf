package mock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"futures-trader/internal/types"

	"github.com/shopspring/decimal"
)

// priceList is the read-only reference price table, loaded once at startup.
type priceList struct {
	order  []string
	prices map[string]decimal.Decimal
}

type priceEntry struct {
	Symbol string      `json:"symbol"`
	Price  json.Number `json:"price"`
}

var defaultPrices = []priceEntry{
	{Symbol: "BTCUSDT", Price: "68000.0"},
	{Symbol: "ETHUSDT", Price: "3200.0"},
	{Symbol: "BNBUSDT", Price: "560.0"},
}

func loadPriceList(path string) (*priceList, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := writeDefaultPrices(path); err != nil {
			return nil, err
		}
		b, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	var entries []priceEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	pl := &priceList{prices: make(map[string]decimal.Decimal, len(entries))}
	for _, e := range entries {
		sym := strings.ToUpper(e.Symbol)
		price, err := decimal.NewFromString(e.Price.String())
		if err != nil {
			return nil, fmt.Errorf("parse price for %s: %w", sym, err)
		}
		if _, dup := pl.prices[sym]; !dup {
			pl.order = append(pl.order, sym)
		}
		pl.prices[sym] = price
	}
	return pl, nil
}

func writeDefaultPrices(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(defaultPrices, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (pl *priceList) get(symbol string) (decimal.Decimal, bool) {
	p, ok := pl.prices[strings.ToUpper(symbol)]
	return p, ok
}

func (pl *priceList) all() []types.Quote {
	now := time.Now().UTC()
	out := make([]types.Quote, 0, len(pl.order))
	for _, sym := range pl.order {
		out = append(out, types.Quote{Symbol: sym, Price: pl.prices[sym], Time: now})
	}
	return out
}
