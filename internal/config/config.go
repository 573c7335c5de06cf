package config

import (
	"fmt"
	"os"

	"futures-trader/internal/types"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the explicit configuration passed into session construction.
// There is no process-wide mutable state; flags and env override file values
// in cmd/trader.
type Config struct {
	Mode    string `yaml:"mode"`    // MOCK or LIVE
	Testnet bool   `yaml:"testnet"` // LIVE mode only: use the futures testnet

	// QuoteAsset is the settlement asset balances are risked against.
	QuoteAsset string `yaml:"quote_asset"`

	// DataDir holds the mock exchange's balance and price files.
	DataDir string `yaml:"data_dir"`

	DefaultSymbol string `yaml:"default_symbol"`

	// Instrument rounding. Quantity precision applies to sized order
	// quantities, price precision to stop-trigger levels.
	QuantityPrecision int32 `yaml:"quantity_precision"`
	PricePrecision    int32 `yaml:"price_precision"`

	Risk RiskConfig `yaml:"risk"`

	// LogRetentionDays compresses audit files older than this many days.
	// Zero disables compression.
	LogRetentionDays int `yaml:"log_retention_days"`
}

// RiskConfig is the yaml-facing risk block. Values are plain floats in the
// file and converted to decimals once via Params.
type RiskConfig struct {
	RiskPercent       float64 `yaml:"risk_percent"`
	StopLossPercent   float64 `yaml:"stop_loss_percent"`
	TakeProfitPercent float64 `yaml:"take_profit_percent"`
	Leverage          int     `yaml:"leverage"`
}

func (r RiskConfig) Params() types.RiskParams {
	return types.RiskParams{
		RiskPercent:       decimal.NewFromFloat(r.RiskPercent),
		StopLossPercent:   decimal.NewFromFloat(r.StopLossPercent),
		TakeProfitPercent: decimal.NewFromFloat(r.TakeProfitPercent),
		Leverage:          r.Leverage,
	}
}

func (c *Config) Validate() error {
	if c.Mode != "MOCK" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'MOCK' or 'LIVE'", c.Mode)
	}
	if c.QuoteAsset == "" {
		return fmt.Errorf("quote_asset cannot be empty")
	}
	if c.QuantityPrecision < 0 || c.PricePrecision < 0 {
		return fmt.Errorf("precision values must be non-negative")
	}
	if err := c.Risk.Params().Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	return nil
}

// Default returns the configuration used when no config file is present.
// Values mirror the reference instrument set: USDT-margined futures with
// 3-decimal quantities and 2-decimal trigger prices.
func Default() *Config {
	return &Config{
		Mode:              "MOCK",
		Testnet:           true,
		QuoteAsset:        "USDT",
		DataDir:           "data",
		DefaultSymbol:     "BTCUSDT",
		QuantityPrecision: 3,
		PricePrecision:    2,
		Risk: RiskConfig{
			RiskPercent:       1,
			StopLossPercent:   0.01,
			TakeProfitPercent: 0.02,
			Leverage:          10,
		},
	}
}

// Load reads the yaml config at path, applies defaults for unset fields and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	applyDefaults(c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.QuoteAsset == "" {
		c.QuoteAsset = d.QuoteAsset
	}
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.DefaultSymbol == "" {
		c.DefaultSymbol = d.DefaultSymbol
	}
	// Precisions are not re-defaulted here: Load seeds them from Default()
	// before unmarshalling, so an absent key keeps the default while an
	// explicit zero (whole-unit instruments) survives.
	if c.Risk.RiskPercent == 0 {
		c.Risk.RiskPercent = d.Risk.RiskPercent
	}
	if c.Risk.StopLossPercent == 0 {
		c.Risk.StopLossPercent = d.Risk.StopLossPercent
	}
	if c.Risk.TakeProfitPercent == 0 {
		c.Risk.TakeProfitPercent = d.Risk.TakeProfitPercent
	}
	if c.Risk.Leverage == 0 {
		c.Risk.Leverage = d.Risk.Leverage
	}
}
