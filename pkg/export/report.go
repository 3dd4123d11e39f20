// Package export renders TCO reports as binary documents.
package export

import (
	"bytes"
	"fmt"

	"github.com/iwvelando/ev-tco/pkg/format"
	"github.com/iwvelando/ev-tco/pkg/output"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX workbook.
const (
	SummarySheet   = "summary"
	CashflowsSheet = "cashflows"
	LedgerSheet    = "ledger"
)

// PDF renders the summary metrics and the cashflow table.
func PDF(r output.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, tr(fmt.Sprintf("TCO Report: %s", r.Inputs.ProjectName)))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Base year: %d", r.Inputs.BaseYear))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Horizon: %d years", r.Inputs.HorizonYears))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Discount rate: %.2f %%", r.Inputs.DiscountRate*100))
	pdf.Ln(8)

	pdf.Cell(0, 6, tr(fmt.Sprintf("NPV: %s", r.Display.NPV)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Total net cashflow: %s", r.Display.TotalNetCashflow)))
	pdf.Ln(5)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Avg. yearly savings: %s", r.Display.AvgYearlySavings)))
	pdf.Ln(8)

	// Cashflow table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Year", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Savings", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Annuity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Cashflow", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, cf := range r.Cashflows {
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", cf.Year), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, tr(format.Euro(cf.Savings)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, tr(format.Euro(cf.Annuity)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, tr(format.Euro(cf.Cashflow)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// XLSX renders a workbook with summary, cashflow and ledger sheets. Amounts
// are written unrounded.
func XLSX(r output.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(CashflowsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(LedgerSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(SummarySheet, "A1", "TCO Report")
	_ = f.SetCellValue(SummarySheet, "A3", "Project")
	_ = f.SetCellValue(SummarySheet, "B3", r.Inputs.ProjectName)
	_ = f.SetCellValue(SummarySheet, "A4", "NPV")
	_ = f.SetCellValue(SummarySheet, "B4", r.Summary.NPV)
	_ = f.SetCellValue(SummarySheet, "C4", r.Display.NPV)
	_ = f.SetCellValue(SummarySheet, "A5", "Total net cashflow")
	_ = f.SetCellValue(SummarySheet, "B5", r.Summary.TotalNetCashflow)
	_ = f.SetCellValue(SummarySheet, "C5", r.Display.TotalNetCashflow)
	_ = f.SetCellValue(SummarySheet, "A6", "Avg. yearly savings")
	_ = f.SetCellValue(SummarySheet, "B6", r.Summary.AvgYearlySavings)
	_ = f.SetCellValue(SummarySheet, "C6", r.Display.AvgYearlySavings)

	_ = f.SetCellValue(CashflowsSheet, "A1", "Year")
	_ = f.SetCellValue(CashflowsSheet, "B1", "Savings")
	_ = f.SetCellValue(CashflowsSheet, "C1", "Annuity")
	_ = f.SetCellValue(CashflowsSheet, "D1", "Cashflow")
	for i, cf := range r.Cashflows {
		row := i + 2
		_ = f.SetCellValue(CashflowsSheet, fmt.Sprintf("A%d", row), cf.Year)
		_ = f.SetCellValue(CashflowsSheet, fmt.Sprintf("B%d", row), cf.Savings)
		_ = f.SetCellValue(CashflowsSheet, fmt.Sprintf("C%d", row), cf.Annuity)
		_ = f.SetCellValue(CashflowsSheet, fmt.Sprintf("D%d", row), cf.Cashflow)
	}

	_ = f.SetCellValue(LedgerSheet, "A1", "Step")
	_ = f.SetCellValue(LedgerSheet, "B1", "Year")
	_ = f.SetCellValue(LedgerSheet, "C1", "Account")
	_ = f.SetCellValue(LedgerSheet, "D1", "Amount")
	_ = f.SetCellValue(LedgerSheet, "E1", "Metadata")
	for i, entry := range r.Ledger {
		row := i + 2
		meta, err := output.MetadataJSON(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata for step %s: %w", entry.Step, err)
		}
		_ = f.SetCellValue(LedgerSheet, fmt.Sprintf("A%d", row), entry.Step)
		_ = f.SetCellValue(LedgerSheet, fmt.Sprintf("B%d", row), entry.Year)
		_ = f.SetCellValue(LedgerSheet, fmt.Sprintf("C%d", row), entry.Account)
		_ = f.SetCellValue(LedgerSheet, fmt.Sprintf("D%d", row), entry.Amount)
		_ = f.SetCellValue(LedgerSheet, fmt.Sprintf("E%d", row), meta)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
