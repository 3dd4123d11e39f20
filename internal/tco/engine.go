package tco

import (
	"fmt"
	"math"

	"github.com/iwvelando/ev-tco/pkg/ledger"
	"github.com/iwvelando/ev-tco/pkg/loans"
	"github.com/iwvelando/ev-tco/pkg/mathutil"
	"go.uber.org/zap"
)

// DieselToElectricKWhPerLiter is the electric energy that replaces one liter
// of diesel.
const DieselToElectricKWhPerLiter = 3.8

// Ledger steps, in the order the engine posts them.
const (
	StepDeriveDieselL        = "derive_diesel_l"
	StepDieselCost           = "diesel_cost"
	StepDeriveElectricityKWh = "derive_electricity_kwh"
	StepElectricityCost      = "electricity_cost"
	StepYearlySavings        = "yearly_savings"
	StepCapex                = "capex"
	StepSubsidy              = "subsidy"
	StepResaleOldDevice      = "resale_old_device"
	StepLoanPayment          = "loan_payment"
	StepSummary              = "summary"
)

// Ledger account codes.
const (
	AccountDerivedDieselLPerYear      = "DERIVED_DIESEL_L_PER_YEAR"
	AccountOpexDiesel                 = "OPEX_DIESEL"
	AccountDerivedElectricityKWhPerYr = "DERIVED_ELECTRICITY_KWH_PER_YEAR"
	AccountOpexElectricity            = "OPEX_ELECTRICITY"
	AccountSavings                    = "SAVINGS"
	AccountCapex                      = "CAPEX"
	AccountSubsidy                    = "SUBSIDY"
	AccountResaleOldDevice            = "RESALE_OLD_DEVICE"
	AccountFinLoanPayment             = "FIN_LOAN_PAYMENT"
	AccountSummaryNPV                 = "SUMMARY_NPV"
)

// Summary holds the headline metrics of a run.
type Summary struct {
	NPV              float64 `json:"npv"`
	TotalNetCashflow float64 `json:"totalNetCashflow"`
	AvgYearlySavings float64 `json:"avgYearlySavings"`
}

// CashflowYear is one row of the yearly cashflow projection. The first row
// is the investment year and carries no savings or annuity.
type CashflowYear struct {
	Year     int     `json:"year"`
	Savings  float64 `json:"savings"`
	Annuity  float64 `json:"annuity"`
	Cashflow float64 `json:"cashflow"`
}

// Engine runs TCO calculations. It holds no per-run state, so one Engine may
// serve concurrent callers.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new engine with the given logger.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Run computes the summary, the cashflow projection for the base year and
// the following HorizonYears, and the ledger of every posted amount. Inputs
// are not validated; out-of-range values produce whatever arithmetic follows.
func (e *Engine) Run(in Inputs) (Summary, []CashflowYear, []ledger.Entry) {
	rec := ledger.NewRecorder(e.logger)

	// Diesel baseline
	dieselL := in.DieselTotalLPerYear
	if dieselL <= 0 {
		dieselL = in.HoursPerYear * in.DieselLPerH
		rec.Post(StepDeriveDieselL, in.BaseYear, AccountDerivedDieselLPerYear, dieselL, ledger.Meta{
			"hours_per_year": in.HoursPerYear,
			"diesel_l_per_h": in.DieselLPerH,
		})
	}

	dieselCost := dieselL * in.DieselPriceEURPerL
	rec.Post(StepDieselCost, in.BaseYear, AccountOpexDiesel, -dieselCost, ledger.Meta{
		"diesel_l_per_year": dieselL,
		"diesel_price":      in.DieselPriceEURPerL,
	})

	// Electric consumption is always derived from the diesel baseline; the
	// ElectricityKWhPerYear input is intentionally ignored.
	electricityKWh := dieselL * DieselToElectricKWhPerLiter
	rec.Post(StepDeriveElectricityKWh, in.BaseYear, AccountDerivedElectricityKWhPerYr, electricityKWh, ledger.Meta{
		"diesel_l_per_year": dieselL,
		"factor_kwh_per_l":  DieselToElectricKWhPerLiter,
	})

	electricityCost := electricityKWh * in.ElectricityPriceEURPerKWh
	rec.Post(StepElectricityCost, in.BaseYear, AccountOpexElectricity, -electricityCost, ledger.Meta{
		"kwh_per_year": electricityKWh,
		"price":        in.ElectricityPriceEURPerKWh,
	})

	// Positive savings mean the electric device is cheaper to run.
	yearlySavings := dieselCost - electricityCost
	rec.Post(StepYearlySavings, in.BaseYear, AccountSavings, yearlySavings, nil)

	// Investment year
	subsidy := in.InvestEUR * in.SubsidyRate
	investCashflow := -in.InvestEUR + subsidy + in.ResaleOldDeviceEUR

	rec.Post(StepCapex, in.BaseYear, AccountCapex, -in.InvestEUR, nil)
	rec.Post(StepSubsidy, in.BaseYear, AccountSubsidy, subsidy, ledger.Meta{
		"subsidy_rate": in.SubsidyRate,
	})
	rec.Post(StepResaleOldDevice, in.BaseYear, AccountResaleOldDevice, in.ResaleOldDeviceEUR, nil)

	// Financing starts the year after acquisition.
	principal := mathutil.Max(in.InvestEUR-subsidy-in.ResaleOldDeviceEUR, 0.0)
	schedule := loans.NewAmortizationScheduleGenerator(e.logger).GenerateSchedule(loans.LoanConfig{
		Name:         in.ProjectName,
		Principal:    principal,
		InterestRate: in.LoanInterest,
		TermYears:    in.LoanYearsTotal,
		GraceYears:   in.LoanGraceYears,
	})

	paymentByYear := make(map[int]float64, len(schedule))
	for _, ly := range schedule {
		year := in.BaseYear + 1 + ly.YearIndex
		paymentByYear[year] = ly.Payment
		rec.Post(StepLoanPayment, year, AccountFinLoanPayment, -ly.Payment, ledger.Meta{
			"interest":  ly.Interest,
			"principal": ly.Principal,
			"remaining": ly.Remaining,
		})
	}

	cashflows := make([]CashflowYear, 0, max(in.HorizonYears, 0)+1)
	cashflows = append(cashflows, CashflowYear{
		Year:     in.BaseYear,
		Cashflow: investCashflow,
	})
	for i := 1; i <= in.HorizonYears; i++ {
		year := in.BaseYear + i
		annuity := paymentByYear[year]
		cashflows = append(cashflows, CashflowYear{
			Year:     year,
			Savings:  yearlySavings,
			Annuity:  annuity,
			Cashflow: yearlySavings - annuity,
		})
	}

	summary := Summary{
		NPV:              NetPresentValue(cashflows, in.DiscountRate),
		TotalNetCashflow: TotalCashflow(cashflows),
		AvgYearlySavings: yearlySavings,
	}

	rec.Post(StepSummary, in.BaseYear, AccountSummaryNPV, summary.NPV, ledger.Meta{
		"inputs": in.AsMap(),
	})

	e.logger.Info(fmt.Sprintf("computed TCO for project %s", in.ProjectName),
		zap.String("op", "tco.Run"),
		zap.Float64("npv", summary.NPV),
		zap.Float64("totalNetCashflow", summary.TotalNetCashflow),
		zap.Float64("yearlySavings", yearlySavings),
		zap.Float64("financed", principal),
		zap.Float64("totalLoanPayments", loans.TotalPaid(schedule)),
		zap.Int("ledgerEntries", rec.Len()),
	)

	return summary, cashflows, rec.Entries()
}

// NetPresentValue discounts each cashflow by its position in the sequence;
// the first entry is undiscounted. A rate of zero or less sums the cashflows
// as they are.
func NetPresentValue(cashflows []CashflowYear, discountRate float64) float64 {
	npv := 0.0
	for t, cf := range cashflows {
		if discountRate > 0 {
			npv += cf.Cashflow / math.Pow(1+discountRate, float64(t))
		} else {
			npv += cf.Cashflow
		}
	}
	return npv
}

// TotalCashflow sums the undiscounted cashflows in sequence order.
func TotalCashflow(cashflows []CashflowYear) float64 {
	total := 0.0
	for _, cf := range cashflows {
		total += cf.Cashflow
	}
	return total
}
