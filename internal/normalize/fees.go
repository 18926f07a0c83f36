package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultFeeRate applies to platforms missing from the fee table.
var DefaultFeeRate = decimal.RequireFromString("0.10")

// DefaultFeeRates holds typical seller fee rates per platform. Rates are
// fractions of the total price, not percentages.
func DefaultFeeRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"ebay":     decimal.RequireFromString("0.1325"),
		"etsy":     decimal.RequireFromString("0.095"),
		"depop":    decimal.RequireFromString("0.10"),
		"mercari":  decimal.RequireFromString("0.10"),
		"poshmark": decimal.RequireFromString("0.20"),
		"grailed":  decimal.RequireFromString("0.09"),
		"facebook": decimal.RequireFromString("0.05"),
	}
}

// FeeTable resolves a fee rate by platform name.
type FeeTable map[string]decimal.Decimal

// Rate returns the configured rate, or DefaultFeeRate.
func (t FeeTable) Rate(platform string) decimal.Decimal {
	if rate, ok := t[strings.ToLower(platform)]; ok {
		return rate
	}
	return DefaultFeeRate
}

// Merge returns a copy of t with overrides applied.
func (t FeeTable) Merge(overrides map[string]decimal.Decimal) FeeTable {
	out := make(FeeTable, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		out[strings.ToLower(k)] = v
	}
	return out
}
