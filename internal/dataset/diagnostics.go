package dataset

import (
	"github.com/pable/go-fight-metrics/internal/features"
	"github.com/pable/go-fight-metrics/internal/model"
)

// Diagnostics summarises data quality for one run. It is written next to the
// dataset so skipped and flagged records are auditable.
type Diagnostics struct {
	FightersIn int
	EventsIn   int
	FightsIn   int
	FightsUsed int // fights that produced at least one row
	RowsOut    int

	HighMissingRows int
	DebutFighters   int // fighters with a zero-fight snapshot in the output

	DuplicateFights   int
	DuplicateFighters int
	UnknownRefs       int
	SelfPairings      int
	UndatedFights     int
	SameDateConflicts int // same-day groups inside a fighter's timeline

	UnlabeledDropped int // draws / no-contests left out of the table
	UnlabeledKept    int // draws / no-contests kept with a missing label

	// MissingByColumn counts rows with a missing value, per feature column.
	MissingByColumn [features.NumColumns]int

	Issues []model.Issue
}

func (d *Diagnostics) addIssue(is model.Issue) {
	d.Issues = append(d.Issues, is)
}

func (d *Diagnostics) observeRow(r model.FeatureRow, threshold float64) {
	d.RowsOut++
	for i, f := range r.Features {
		if !f.Valid {
			d.MissingByColumn[i]++
		}
	}
	if len(r.Features) > 0 && float64(r.MissingCount())/float64(len(r.Features)) > threshold {
		d.HighMissingRows++
	}
}

// IntegrityIssues returns the number of integrity issues.
func (d *Diagnostics) IntegrityIssues() int {
	n := 0
	for _, is := range d.Issues {
		if is.Kind == model.IssueIntegrity {
			n++
		}
	}
	return n
}

// MissingRate returns the share of rows missing each feature column.
func (d *Diagnostics) MissingRate() []float64 {
	out := make([]float64, features.NumColumns)
	if d.RowsOut == 0 {
		return out
	}
	for i, n := range d.MissingByColumn {
		out[i] = float64(n) / float64(d.RowsOut)
	}
	return out
}
