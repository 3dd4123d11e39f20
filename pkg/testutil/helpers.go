// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/ev-tco/internal/tco"
	"github.com/iwvelando/ev-tco/pkg/ledger"
)

// ReferenceInputs returns the inputs of the reference project used across
// tests: 6600 l diesel per year replaced by a 60000 € device with 35 %
// subsidy, financed over 10 years with 2 grace years.
func ReferenceInputs() tco.Inputs {
	return tco.Inputs{
		ProjectName:               "Projekt 1",
		BaseYear:                  2026,
		HorizonYears:              7,
		HoursPerYear:              880,
		DieselLPerH:               7.5,
		DieselTotalLPerYear:       6600,
		DieselPriceEURPerL:        1.8,
		ElectricityKWhPerYear:     25080,
		ElectricityPriceEURPerKWh: 0.08,
		InvestEUR:                 60000,
		SubsidyRate:               0.35,
		ResaleOldDeviceEUR:        0,
		LoanInterest:              0.05,
		LoanYearsTotal:            10,
		LoanGraceYears:            2,
		DiscountRate:              0.08,
	}
}

// FindCashflow finds the projection row for year.
// Returns a pointer to the row if found, nil otherwise.
func FindCashflow(cashflows []tco.CashflowYear, year int) *tco.CashflowYear {
	for i := range cashflows {
		if cashflows[i].Year == year {
			return &cashflows[i]
		}
	}
	return nil
}

// FindEntries returns the ledger entries posted under step, in posting order.
func FindEntries(entries []ledger.Entry, step string) []ledger.Entry {
	var found []ledger.Entry
	for _, entry := range entries {
		if entry.Step == step {
			found = append(found, entry)
		}
	}
	return found
}
