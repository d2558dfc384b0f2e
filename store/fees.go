package store

import "github.com/shopspring/decimal"

// Fee schedule. Platform fee is a flat percentage; gas is a per-currency
// flat estimate refreshed manually against mainnet averages.
var (
	platformFeeRate = decimal.NewFromFloat(0.025)

	gasFees = map[string]decimal.Decimal{
		"USDC": decimal.NewFromFloat(0.0001),
		"ETH":  decimal.NewFromFloat(0.0005),
		"WLD":  decimal.NewFromFloat(0.001),
	}
)

// FeeBreakdown is what the payer sees before confirming and what gets
// persisted on the payment row.
type FeeBreakdown struct {
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	GasFeeEstimate decimal.Decimal `json:"gas_fee_estimate"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}

// CalculateFees computes the deductions for a gross amount in the given
// currency. The platform fee rounds to 2 decimal places; net never goes
// negative, so a dust-sized payment nets zero rather than a debt.
func CalculateFees(amount decimal.Decimal, currency string) FeeBreakdown {
	platform := amount.Mul(platformFeeRate).Round(2)

	gas, ok := gasFees[currency]
	if !ok {
		gas = gasFees["WLD"]
	}

	net := amount.Sub(platform).Sub(gas)
	if net.IsNegative() {
		net = decimal.Zero
	}
	return FeeBreakdown{
		PlatformFee:    platform,
		GasFeeEstimate: gas,
		NetAmount:      net,
	}
}
