// Package round implements display rounding for stat values.
package round

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Spec selects how a value is rounded for display.
type Spec struct {
	// Places is the number of decimal places. Zero rounds to an integer.
	Places int
	// Percent scales a ratio by 100 and keeps one decimal place.
	Percent bool
}

// Integer rounds to a whole number.
var Integer = Spec{}

// PercentSpec formats a ratio as a percentage.
var PercentSpec = Spec{Percent: true}

// Decimals rounds to n places.
func Decimals(n int) Spec {
	return Spec{Places: n}
}

// Round rounds v to places decimals, ties away from zero. Infinities and NaN
// pass through unchanged.
func Round(v float64, places int) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(int32(places)).InexactFloat64()
}

// Apply rounds v according to spec. Percent specs return the scaled value.
func Apply(v float64, spec Spec) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	if spec.Percent {
		return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
	}
	return Round(v, spec.Places)
}

// Format renders v for display.
func Format(v float64, spec Spec) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "n/a"
	}
	if spec.Percent {
		return strconv.FormatFloat(Apply(v, spec), 'f', 1, 64) + "%"
	}
	return strconv.FormatFloat(Round(v, spec.Places), 'f', spec.Places, 64)
}
