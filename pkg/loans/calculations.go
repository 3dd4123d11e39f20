// Package loans provides annual loan amortization utilities.
package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/ev-tco/pkg/mathutil"
	"go.uber.org/zap"
)

// LoanYear holds the values for one annual payment of a loan.
type LoanYear struct {
	YearIndex int     `json:"yearIndex"` // zero-based, relative to loan start
	Payment   float64 `json:"payment"`
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
	Remaining float64 `json:"remaining"`
}

// AnnuityPayment calculates the fixed yearly payment that amortizes principal
// over years at annualRate using the standard annuity formula.
func AnnuityPayment(principal, annualRate float64, years int) float64 {
	if years <= 0 {
		return 0.0
	}
	if annualRate <= 0 {
		// Straight-line repayment without interest.
		return principal / float64(years)
	}

	power := math.Pow(1.0+annualRate, float64(years))
	return principal * (annualRate * power) / (power - 1.0)
}

// Schedule computes the annual amortization schedule of a loan. The first
// graceYears are interest-only; the remaining years pay a fixed annuity on the
// balance left after the grace period. Out-of-range year counts are clamped
// rather than rejected, so the result always has max(yearsTotal, 0) entries.
func Schedule(principal, annualRate float64, yearsTotal, graceYears int) []LoanYear {
	yearsTotal = max(yearsTotal, 0)
	graceYears = min(max(graceYears, 0), yearsTotal)

	schedule := make([]LoanYear, 0, yearsTotal)
	remaining := principal

	for yi := 0; yi < graceYears; yi++ {
		interest := remaining * annualRate
		schedule = append(schedule, LoanYear{
			YearIndex: yi,
			Payment:   interest,
			Interest:  interest,
			Principal: 0.0,
			Remaining: remaining,
		})
	}

	amortYears := yearsTotal - graceYears
	payment := AnnuityPayment(remaining, annualRate, amortYears)

	for k := 0; k < amortYears; k++ {
		interest := remaining * annualRate
		principalPay := mathutil.Min(mathutil.Max(payment-interest, 0.0), remaining)
		remaining -= principalPay
		schedule = append(schedule, LoanYear{
			YearIndex: graceYears + k,
			Payment:   payment,
			Interest:  interest,
			Principal: principalPay,
			Remaining: remaining,
		})
	}

	return schedule
}

// LoanConfig represents loan configuration parameters
type LoanConfig struct {
	Name         string
	Principal    float64
	InterestRate float64 // fraction, e.g. 0.05
	TermYears    int
	GraceYears   int
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule creates a complete amortization schedule for a loan
func (g *AmortizationScheduleGenerator) GenerateSchedule(loan LoanConfig) []LoanYear {
	if loan.GraceYears > loan.TermYears {
		g.logger.Debug(fmt.Sprintf("loan %s: grace period of %d years exceeds term of %d years, clamping",
			loan.Name, loan.GraceYears, loan.TermYears),
			zap.String("op", "loans.GenerateSchedule"),
		)
	}

	schedule := Schedule(loan.Principal, loan.InterestRate, loan.TermYears, loan.GraceYears)

	if len(schedule) > 0 {
		last := schedule[len(schedule)-1]
		g.logger.Debug(fmt.Sprintf("loan %s: generated %d payments, final balance %.2f",
			loan.Name, len(schedule), last.Remaining),
			zap.String("op", "loans.GenerateSchedule"),
			zap.Float64("principal", loan.Principal),
			zap.Float64("rate", loan.InterestRate),
		)
	}

	return schedule
}

// TotalPaid sums the payments of a schedule.
func TotalPaid(schedule []LoanYear) float64 {
	total := 0.0
	for _, ly := range schedule {
		total += ly.Payment
	}
	return total
}
