// Package costing holds the pure cost and profit derivations: totals,
// breakdowns, snapshot comparison, monthly trends, quotation margins and the
// profit analysis roll-up. Nothing here touches storage.
package costing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds x to two decimals, half away from zero. The float is first
// taken at its shortest decimal representation so 1.005 rounds to 1.01.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	v, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return v
}

// percent returns part/whole as a rounded percentage, or 0 when whole is 0.
func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return Round2(part / whole * 100)
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
