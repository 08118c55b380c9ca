package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// PercentReturn returns (cur - prev) / prev as a fraction.
// A non-positive prev yields 0 so the column stays finite.
func PercentReturn(prev, cur decimal.Decimal) float64 {
	if !prev.IsPositive() {
		return 0
	}
	return cur.Sub(prev).Div(prev).InexactFloat64()
}

// LogReturn returns ln(cur / prev). Either price being non-positive yields 0.
func LogReturn(prev, cur decimal.Decimal) float64 {
	if !prev.IsPositive() || !cur.IsPositive() {
		return 0
	}
	return math.Log(cur.Div(prev).InexactFloat64())
}
