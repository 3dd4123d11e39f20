package tco

import (
	"fmt"
	"math"
	"strings"
)

// NonFiniteError reports results that overflowed to NaN or an infinity,
// typically because input magnitudes exceed the float64 range.
type NonFiniteError struct {
	Fields []string
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("result is not finite: %s", strings.Join(e.Fields, ", "))
}

// CheckFinite returns a *NonFiniteError naming every summary metric and
// cashflow value that is NaN or infinite, or nil when all are finite.
func CheckFinite(summary Summary, cashflows []CashflowYear) error {
	var fields []string
	add := func(name string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			fields = append(fields, name)
		}
	}

	add("npv", summary.NPV)
	add("totalNetCashflow", summary.TotalNetCashflow)
	add("avgYearlySavings", summary.AvgYearlySavings)
	for _, cf := range cashflows {
		add(fmt.Sprintf("savings[%d]", cf.Year), cf.Savings)
		add(fmt.Sprintf("annuity[%d]", cf.Year), cf.Annuity)
		add(fmt.Sprintf("cashflow[%d]", cf.Year), cf.Cashflow)
	}

	if len(fields) == 0 {
		return nil
	}
	return &NonFiniteError{Fields: fields}
}
