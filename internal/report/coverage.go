package report

import (
	"fmt"
	"io"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/pable/go-fight-metrics/internal/features"
	"github.com/pable/go-fight-metrics/internal/model"
)

// minCorrSample is the fewest complete (feature, label) pairs a correlation
// is computed from.
const minCorrSample = 3

// ColumnCoverage describes one feature column across a dataset.
type ColumnCoverage struct {
	Name        string
	Present     int
	MissingRate float64
	LabelCorr   model.Float // Pearson correlation with the label over labeled rows
}

// MissingSummary is the distribution of per-column missing rates.
type MissingSummary struct {
	Mean   float64
	Median float64
	P90    float64
	Max    float64
}

// Coverage computes per-column coverage for rows.
func Coverage(rows []model.FeatureRow) []ColumnCoverage {
	out := make([]ColumnCoverage, features.NumColumns)
	for c := range out {
		out[c].Name = features.Columns[c]

		var xs, ys []float64
		for _, r := range rows {
			if c >= len(r.Features) || !r.Features[c].Valid {
				continue
			}
			out[c].Present++
			if r.Label.Valid {
				xs = append(xs, r.Features[c].Val)
				ys = append(ys, float64(r.Label.Val))
			}
		}
		if len(rows) > 0 {
			out[c].MissingRate = 1 - float64(out[c].Present)/float64(len(rows))
		}
		if len(xs) >= minCorrSample {
			// NaN for a constant column; SomeFloat turns that into missing.
			out[c].LabelCorr = model.SomeFloat(stat.Correlation(xs, ys, nil))
		}
	}
	return out
}

// SummarizeMissing summarises the missing rates of cov.
func SummarizeMissing(cov []ColumnCoverage) (MissingSummary, error) {
	rates := make(stats.Float64Data, len(cov))
	for i, c := range cov {
		rates[i] = c.MissingRate
	}
	var s MissingSummary
	var err error
	if s.Mean, err = stats.Mean(rates); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(rates); err != nil {
		return s, err
	}
	if s.P90, err = stats.Percentile(rates, 90); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(rates); err != nil {
		return s, err
	}
	return s, nil
}

// PrintCoverage prints the coverage table and the missing-rate summary.
func PrintCoverage(w io.Writer, cov []ColumnCoverage) {
	table := newTable(w)
	table.Header("FEATURE", "PRESENT", "MISSING%", "CORR(LABEL)")
	for _, c := range cov {
		table.Append(
			c.Name,
			fmt.Sprintf("%d", c.Present),
			fmt.Sprintf("%.1f%%", c.MissingRate*100),
			num(c.LabelCorr, 3),
		)
	}
	table.Render()

	s, err := SummarizeMissing(cov)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "\nMissing rate across columns: mean %.1f%%  median %.1f%%  p90 %.1f%%  max %.1f%%\n",
		s.Mean*100, s.Median*100, s.P90*100, s.Max*100)
}
