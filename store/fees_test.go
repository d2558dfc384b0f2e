package store

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculateFeesUSDC(t *testing.T) {
	fees := CalculateFees(decimal.NewFromInt(100), "USDC")
	if got := fees.PlatformFee.String(); got != "2.5" {
		t.Fatalf("platform fee = %s, want 2.5", got)
	}
	if got := fees.GasFeeEstimate.String(); got != "0.0001" {
		t.Fatalf("gas fee = %s, want 0.0001", got)
	}
	if got := fees.NetAmount.String(); got != "97.4999" {
		t.Fatalf("net = %s, want 97.4999", got)
	}
}

func TestCalculateFeesPerCurrencyGas(t *testing.T) {
	cases := map[string]string{
		"USDC": "0.0001",
		"ETH":  "0.0005",
		"WLD":  "0.001",
	}
	for currency, want := range cases {
		fees := CalculateFees(decimal.NewFromInt(10), currency)
		if got := fees.GasFeeEstimate.String(); got != want {
			t.Fatalf("%s gas fee = %s, want %s", currency, got, want)
		}
	}
}

func TestCalculateFeesNetNeverNegative(t *testing.T) {
	fees := CalculateFees(decimal.NewFromFloat(0.0001), "WLD")
	if fees.NetAmount.IsNegative() {
		t.Fatalf("net went negative: %s", fees.NetAmount)
	}
	if !fees.NetAmount.IsZero() {
		t.Fatalf("dust payment should net zero, got %s", fees.NetAmount)
	}
}

func TestCalculateFeesUnknownCurrencyFallsBackToWLD(t *testing.T) {
	fees := CalculateFees(decimal.NewFromInt(10), "BTC")
	if got := fees.GasFeeEstimate.String(); got != "0.001" {
		t.Fatalf("unknown currency gas = %s, want WLD rate 0.001", got)
	}
}

func TestCalculateFeesDeterministic(t *testing.T) {
	a := CalculateFees(decimal.NewFromFloat(33.33), "ETH")
	b := CalculateFees(decimal.NewFromFloat(33.33), "ETH")
	if !a.NetAmount.Equal(b.NetAmount) || !a.PlatformFee.Equal(b.PlatformFee) {
		t.Fatalf("same input produced different fees: %+v vs %+v", a, b)
	}
}
