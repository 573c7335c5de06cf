package types

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSideOpposite(t *testing.T) {
	if SideBuy.Opposite() != SideSell {
		t.Error("Opposite of BUY must be SELL")
	}
	if SideSell.Opposite() != SideBuy {
		t.Error("Opposite of SELL must be BUY")
	}
}

func TestRiskParamsValidate(t *testing.T) {
	valid := RiskParams{
		RiskPercent:       decimal.NewFromInt(1),
		StopLossPercent:   decimal.NewFromFloat(0.01),
		TakeProfitPercent: decimal.NewFromFloat(0.02),
		Leverage:          10,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Valid params rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RiskParams)
	}{
		{"zero risk", func(p *RiskParams) { p.RiskPercent = decimal.Zero }},
		{"risk above 100", func(p *RiskParams) { p.RiskPercent = decimal.NewFromInt(101) }},
		{"zero stop", func(p *RiskParams) { p.StopLossPercent = decimal.Zero }},
		{"negative take", func(p *RiskParams) { p.TakeProfitPercent = decimal.NewFromInt(-1) }},
		{"zero leverage", func(p *RiskParams) { p.Leverage = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("Expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestExecutionErrorUnwrap(t *testing.T) {
	cause := ErrInsufficientBalance
	err := NewExecutionError(-2019, "margin is insufficient", cause)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Error("ExecutionError must unwrap to its cause")
	}

	var execErr *ExecutionError
	if !errors.As(error(err), &execErr) {
		t.Fatal("errors.As must match *ExecutionError")
	}
	if execErr.Code != -2019 {
		t.Errorf("Expected code -2019, got %d", execErr.Code)
	}
}

func TestOrderResultRejected(t *testing.T) {
	if (OrderResult{Status: StatusFilled}).Rejected() {
		t.Error("FILLED is not rejected")
	}
	if !(OrderResult{Status: StatusRejected}).Rejected() {
		t.Error("REJECTED must report rejected")
	}
}
