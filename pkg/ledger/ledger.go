// Package ledger records the financial events produced while computing a
// result. A Recorder is append-only and keeps entries in posting order; it is
// an audit trail, not a balanced double-entry book, so account codes are not
// validated.
package ledger

import (
	"sort"

	"go.uber.org/zap"
)

// Meta carries free-form key/value details that explain how an amount was
// derived.
type Meta map[string]any

// Entry is one posted financial event.
type Entry struct {
	Step     string  `json:"step"`
	Year     int     `json:"year"`
	Account  string  `json:"account"`
	Amount   float64 `json:"amount"`
	Metadata Meta    `json:"metadata"`
}

// Recorder accumulates entries for a single computation. It is not safe for
// concurrent use; each run owns its own Recorder.
type Recorder struct {
	logger  *zap.Logger
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger}
}

// Post appends one entry. A nil meta is stored as an empty map.
func (r *Recorder) Post(step string, year int, account string, amount float64, meta Meta) {
	r.entries = append(r.entries, Entry{
		Step:     step,
		Year:     year,
		Account:  account,
		Amount:   amount,
		Metadata: copyMeta(meta),
	})

	r.logger.Debug("ledger entry posted",
		zap.String("op", "ledger.Post"),
		zap.String("step", step),
		zap.Int("year", year),
		zap.String("account", account),
		zap.Float64("amount", amount),
	)
}

// Len returns the number of posted entries.
func (r *Recorder) Len() int {
	return len(r.entries)
}

// Entries returns the posted entries in insertion order. The returned slice
// and its metadata maps are copies.
func (r *Recorder) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		e.Metadata = copyMeta(e.Metadata)
		out[i] = e
	}
	return out
}

// SortByYear returns a copy of entries ordered by fiscal year. Entries of the
// same year keep their posting order.
func SortByYear(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Year < sorted[j].Year
	})
	return sorted
}

// TotalsByAccount sums entry amounts per account code.
func TotalsByAccount(entries []Entry) map[string]float64 {
	totals := make(map[string]float64)
	for _, e := range entries {
		totals[e.Account] += e.Amount
	}
	return totals
}

func copyMeta(meta Meta) Meta {
	out := make(Meta, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
