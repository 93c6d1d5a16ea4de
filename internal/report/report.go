package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-fight-metrics/internal/aggregator"
	"github.com/pable/go-fight-metrics/internal/dataset"
	"github.com/pable/go-fight-metrics/internal/model"
)

const dash = "—"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
}

func num(v model.Float, prec int) string { return v.Format(prec, dash) }

func pct(v model.Float) string {
	if !v.Valid {
		return dash
	}
	return fmt.Sprintf("%.0f%%", v.Val*100)
}

// PrintFighterHeader prints a one-line identity header for a fighter.
func PrintFighterHeader(w io.Writer, f model.Fighter) {
	dob := dash
	if f.DOB != nil {
		dob = f.DOB.Format("2006-01-02")
	}
	stance := f.Stance
	if stance == "" {
		stance = dash
	}
	fmt.Fprintf(w, "\n%s  |  Height: %s in  |  Reach: %s in  |  Weight: %s lbs  |  Stance: %s  |  DOB: %s  |  ID: %s\n\n",
		f.Name, num(f.HeightIn, 0), num(f.ReachIn, 0), num(f.WeightLbs, 0), stance, dob, f.ID)
}

// PrintTimeline prints one row per fight with the snapshot the fighter carried
// into it.
func PrintTimeline(w io.Writer, tl *aggregator.Timeline) {
	table := newTable(w)
	table.Header("DATE", "FIGHT", "REC", "SAMPLE", "WIN% CI", "SLpM", "SApM", "ACC", "DEF",
		"TD/15", "TD_ACC", "TD_DEF", "CTRL%", "L3", "L5", "STREAK", "DAYS", "AGE")

	for _, s := range tl.Snapshots {
		table.Append(
			s.Date.Format("2006-01-02"),
			s.FightID,
			fmt.Sprintf("%d-%d-%d", s.Wins, s.Losses, s.Draws),
			sampleFlag(s.FightCount),
			winRateCI(s),
			num(s.SLpM, 2),
			num(s.SApM, 2),
			pct(s.StrAcc),
			pct(s.StrDef),
			num(s.TDAvg, 2),
			pct(s.TDAcc),
			pct(s.TDDef),
			pct(s.ControlPct),
			pct(s.Last3WinRate),
			pct(s.Last5WinRate),
			strconv.Itoa(s.WinStreak),
			num(s.DaysSinceLast, 0),
			num(s.AgeYears, 1),
		)
	}
	table.Render()
}

// sampleFlag grades how much history backs a snapshot.
func sampleFlag(fights int) string {
	switch {
	case fights >= 10:
		return "OK"
	case fights >= 3:
		return "LOW"
	case fights > 0:
		return "VERY_LOW"
	default:
		return "DEBUT"
	}
}

func winRateCI(s model.Snapshot) string {
	n := s.Wins + s.Losses + s.Draws
	if n == 0 {
		return dash
	}
	lo, hi := wilsonCI(s.Wins, n)
	return fmt.Sprintf("%.0f–%.0f%%", lo*100, hi*100)
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}

// PrintDiagnostics prints the data-quality counters of a run followed by up
// to maxIssues issues. maxIssues <= 0 prints them all.
func PrintDiagnostics(w io.Writer, d *dataset.Diagnostics, maxIssues int) {
	table := newTable(w)
	table.Header("METRIC", "COUNT")
	for _, kv := range []struct {
		name string
		n    int
	}{
		{"fighters in", d.FightersIn},
		{"events in", d.EventsIn},
		{"fights in", d.FightsIn},
		{"fights used", d.FightsUsed},
		{"rows out", d.RowsOut},
		{"high-missing rows", d.HighMissingRows},
		{"debut fighters", d.DebutFighters},
		{"duplicate fights", d.DuplicateFights},
		{"duplicate fighters", d.DuplicateFighters},
		{"unknown references", d.UnknownRefs},
		{"self pairings", d.SelfPairings},
		{"undated fights", d.UndatedFights},
		{"same-date conflicts", d.SameDateConflicts},
		{"unlabeled dropped", d.UnlabeledDropped},
		{"unlabeled kept", d.UnlabeledKept},
	} {
		table.Append(kv.name, strconv.Itoa(kv.n))
	}
	table.Render()

	if len(d.Issues) == 0 {
		return
	}
	fmt.Fprintf(w, "\nIssues (%d):\n", len(d.Issues))
	for i, is := range d.Issues {
		if maxIssues > 0 && i >= maxIssues {
			fmt.Fprintf(w, "  ... %d more\n", len(d.Issues)-maxIssues)
			break
		}
		fmt.Fprintf(w, "  %s %s: %s\n", kindLabel(is.Kind), is.Entity, is.Message)
	}
}

var (
	integrityColor = color.New(color.FgRed, color.Bold)
	orderingColor  = color.New(color.FgYellow)
)

func kindLabel(k model.IssueKind) string {
	label := "[" + string(k) + "]"
	switch k {
	case model.IssueIntegrity:
		return integrityColor.Sprint(label)
	case model.IssueOrdering:
		return orderingColor.Sprint(label)
	}
	return label
}
