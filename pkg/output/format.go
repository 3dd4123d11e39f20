// Package output provides utilities for formatting and displaying TCO results.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/ev-tco/internal/tco"
	"github.com/iwvelando/ev-tco/pkg/format"
	"github.com/iwvelando/ev-tco/pkg/ledger"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report bundles everything a single run produces.
type Report struct {
	Inputs    tco.Inputs         `json:"inputs"`
	Summary   tco.Summary        `json:"summary"`
	Display   Display            `json:"display"`
	Cashflows []tco.CashflowYear `json:"cashflows"`
	Ledger    []ledger.Entry     `json:"ledger"`
}

// Display carries the summary metrics as whole-euro strings.
type Display struct {
	NPV              string `json:"npv"`
	TotalNetCashflow string `json:"totalNetCashflow"`
	AvgYearlySavings string `json:"avgYearlySavings"`
}

// NewReport assembles a Report from the results of tco.Engine.Run.
func NewReport(in tco.Inputs, summary tco.Summary, cashflows []tco.CashflowYear, entries []ledger.Entry) Report {
	return Report{
		Inputs:  in,
		Summary: summary,
		Display: Display{
			NPV:              format.Euro(summary.NPV),
			TotalNetCashflow: format.Euro(summary.TotalNetCashflow),
			AvgYearlySavings: format.Euro(summary.AvgYearlySavings),
		},
		Cashflows: cashflows,
		Ledger:    entries,
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, r Report) error {
	p := message.NewPrinter(language.German)
	var b strings.Builder

	fmt.Fprintf(&b, "--- TCO results for %s ---\n", r.Inputs.ProjectName)
	fmt.Fprintf(&b, "NPV                 | %s\n", r.Display.NPV)
	fmt.Fprintf(&b, "Total net cashflow  | %s\n", r.Display.TotalNetCashflow)
	fmt.Fprintf(&b, "Avg. yearly savings | %s\n", r.Display.AvgYearlySavings)

	b.WriteString("\nYear | Savings | Annuity | Cashflow\n")
	b.WriteString("____ | _______ | _______ | ________\n")
	for _, cf := range r.Cashflows {
		fmt.Fprintf(&b, "%d | %s | %s | %s\n", cf.Year,
			format.Euro(cf.Savings), format.Euro(cf.Annuity), format.Euro(cf.Cashflow))
	}

	b.WriteString("\nStep | Year | Account | Amount | Details\n")
	b.WriteString("____ | ____ | _______ | ______ | _______\n")
	for _, entry := range r.Ledger {
		b.WriteString(p.Sprintf("%s | %d | %s | %.2f | %s\n",
			entry.Step, entry.Year, entry.Account, entry.Amount, metaString(p, entry.Metadata)))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// metaString lists scalar metadata as sorted key=value pairs. Nested maps
// such as the input snapshot are summarized by their size.
func metaString(p *message.Printer, meta ledger.Meta) string {
	keys := make([]string, 0, len(meta))
	for key := range meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		switch v := meta[key].(type) {
		case float64:
			parts = append(parts, p.Sprintf("%s=%v", key, v))
		case map[string]any:
			parts = append(parts, fmt.Sprintf("%s=(%d fields)", key, len(v)))
		default:
			parts = append(parts, fmt.Sprintf("%s=%v", key, v))
		}
	}
	return strings.Join(parts, ", ")
}

// CsvFormat outputs the cashflow table, a blank line and the ledger in
// comma-separated value format.
func CsvFormat(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"year", "savings", "annuity", "cashflow"}); err != nil {
		return err
	}
	for _, cf := range r.Cashflows {
		record := []string{
			strconv.Itoa(cf.Year),
			formatFloat(cf.Savings),
			formatFloat(cf.Annuity),
			formatFloat(cf.Cashflow),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}

	if err := cw.Write([]string{"step", "year", "account", "amount", "metadata"}); err != nil {
		return err
	}
	for _, entry := range r.Ledger {
		meta, err := MetadataJSON(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for step %s: %w", entry.Step, err)
		}
		record := []string{
			entry.Step,
			strconv.Itoa(entry.Year),
			entry.Account,
			formatFloat(entry.Amount),
			meta,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MetadataJSON encodes ledger metadata as a JSON object. NaN and infinite
// numbers, which JSON cannot carry, are written as format.NotAvailable.
func MetadataJSON(meta ledger.Meta) (string, error) {
	data, err := json.Marshal(finiteValues(map[string]any(meta)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func finiteValues(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return format.NotAvailable
		}
		return val
	case map[string]any:
		if val == nil {
			return val
		}
		out := make(map[string]any, len(val))
		for key, inner := range val {
			out[key] = finiteValues(inner)
		}
		return out
	default:
		return v
	}
}

// CsvString renders the report in CSV format and returns it as a string.
func CsvString(r Report) string {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, r); err != nil {
		return ""
	}
	return buf.String()
}

// JSONFormat outputs the full report as indented JSON.
func JSONFormat(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
