// Package format renders amounts for display. Computation values are never
// rounded; only the returned strings are.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Euro returns a whole-euro string with "." thousands separators and a
// trailing euro sign (e.g., "-11.727 €"). Halves round to even.
func Euro(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return NotAvailable
	}
	return Amount(amount) + " €"
}

// NotAvailable is rendered in place of NaN and infinite amounts.
const NotAvailable = "n/a"

// Amount returns a whole-unit string with "." thousands separators and no
// currency symbol (e.g., "-11.727").
func Amount(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return NotAvailable
	}
	whole := decimal.NewFromFloat(amount).RoundBank(0)

	sign := ""
	if whole.IsNegative() {
		sign = "-"
	}
	return sign + groupThousands(whole.Abs().String(), '.')
}

func groupThousands(intPart string, sep byte) string {
	if len(intPart) <= 3 {
		return intPart
	}

	var builder strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			builder.WriteByte(sep)
		}
		builder.WriteRune(digit)
	}
	return builder.String()
}
