package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"futures-trader/internal/session"
	"futures-trader/internal/sizer"
	"futures-trader/internal/types"

	"github.com/shopspring/decimal"
)

const usage = `Usage: trader [flags] <command>

Commands:
  prices    list reference prices for all known symbols
  balance   show account balances
  buy       market-buy a fixed amount (-symbol, -amount)
  sell      market-sell a fixed amount (-symbol, -amount)
  calc      compute a risk-sized quantity without trading (-symbol, -risk, -stop, -leverage)
  trade     run the full risk-managed workflow: sized entry + SL/TP exits

Flags:
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to yaml config")
	symbol := flag.String("symbol", "", "symbol, e.g. BTCUSDT")
	amount := flag.String("amount", "", "amount to trade (buy/sell)")
	risk := flag.String("risk", "", "risk percent of balance, e.g. 1")
	stop := flag.String("stop", "", "stop loss percent as fraction, e.g. 0.01")
	take := flag.String("take", "", "take profit percent as fraction, e.g. 0.02")
	leverage := flag.Int("leverage", 0, "leverage multiplier")
	side := flag.String("side", "BUY", "trade direction for the trade command: BUY or SELL")
	useReal := flag.Bool("real", false, "use the real exchange instead of the mock")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		flag.Usage()
		return
	}

	ctx := context.Background()

	a, err := newApp(ctx, *configPath, *useReal)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}
	defer a.shutdown(ctx)

	sym := *symbol
	if sym == "" {
		sym = a.cfg.DefaultSymbol
	}

	riskParams := a.cfg.Risk.Params()
	if err := overrideRisk(&riskParams, *risk, *stop, *take, *leverage); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}

	switch command {
	case "prices":
		quotes, err := a.ex.GetAllPrices(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		printJSON(quotes)

	case "balance":
		balances, err := a.ex.GetBalances(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		printJSON(balances)

	case "buy", "sell":
		if *amount == "" {
			fmt.Fprintln(os.Stderr, "Please provide -symbol and -amount")
			return
		}
		qty, err := decimal.NewFromString(*amount)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid amount %q: %v\n", *amount, err)
			return
		}
		orderSide := types.SideBuy
		if command == "sell" {
			orderSide = types.SideSell
		}
		res, err := a.exec.SubmitMarketOrder(ctx, sym, orderSide, qty)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		printJSON(res)

	case "calc":
		quote, err := a.ex.GetPrice(ctx, sym)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		balance, err := a.ex.GetBalance(ctx, a.cfg.QuoteAsset)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		qty, err := sizer.Size(balance, riskParams.RiskPercent, quote.Price, riskParams.StopLossPercent, riskParams.Leverage, a.cfg.QuantityPrecision)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		fmt.Printf("Position size: %s %s at %s %s\n", qty, sym, quote.Price, a.cfg.QuoteAsset)

	case "trade":
		tradeSide := types.Side(*side)
		report, err := a.sess.Execute(ctx, session.TradeRequest{Symbol: sym, Side: tradeSide, Risk: riskParams})
		if report != nil {
			printJSON(report)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		if report.Partial() {
			fmt.Fprintln(os.Stderr, "WARNING: entry filled but one exit order failed - place the missing order manually")
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", command)
		flag.Usage()
	}
}

// overrideRisk applies non-empty flag values on top of the config defaults.
func overrideRisk(p *types.RiskParams, risk, stop, take string, leverage int) error {
	var err error
	if risk != "" {
		if p.RiskPercent, err = decimal.NewFromString(risk); err != nil {
			return fmt.Errorf("invalid -risk %q: %w", risk, err)
		}
	}
	if stop != "" {
		if p.StopLossPercent, err = decimal.NewFromString(stop); err != nil {
			return fmt.Errorf("invalid -stop %q: %w", stop, err)
		}
	}
	if take != "" {
		if p.TakeProfitPercent, err = decimal.NewFromString(take); err != nil {
			return fmt.Errorf("invalid -take %q: %w", take, err)
		}
	}
	if leverage != 0 {
		p.Leverage = leverage
	}
	return nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return
	}
	fmt.Println(string(b))
}
