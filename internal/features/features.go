// Package features turns two pre-fight snapshots into a differential feature
// vector. Every column is f(A) − f(B); a column is missing whenever either
// side's input is missing.
package features

import (
	"github.com/pable/go-fight-metrics/internal/model"
)

// Grappling index weights. The submission term is squashed to [0,1) with
// s/(1+s) so it sits on the same scale as the two rates.
const (
	GrappleWeightTDAcc = 0.4
	GrappleWeightTDDef = 0.4
	GrappleWeightSub   = 0.2
)

// Column indices into a feature vector.
const (
	HeightDiff = iota
	ReachDiff
	AgeDiff
	WeightDiff

	SLpMDiff
	SApMDiff
	StrAccDiff
	StrDefDiff
	OffenseScoreDiff
	DamageMarginDiff
	KDAvgDiff

	TDAvgDiff
	TDAccDiff
	TDDefDiff
	SubAvgDiff
	ControlPctDiff
	GrapplingIndexDiff

	FightCountDiff
	Last3WinRateDiff
	Last5WinRateDiff
	DaysSinceLastDiff
	WinStreakDiff
	FinishRateDiff

	SLpMPerLbDiff
	TDAttPerLbDiff

	NumColumns
)

// Columns holds the output column names, indexed by the constants above.
var Columns = [NumColumns]string{
	HeightDiff: "height_diff",
	ReachDiff:  "reach_diff",
	AgeDiff:    "age_diff",
	WeightDiff: "weight_diff",

	SLpMDiff:         "slpm_diff",
	SApMDiff:         "sapm_diff",
	StrAccDiff:       "str_acc_diff",
	StrDefDiff:       "str_def_diff",
	OffenseScoreDiff: "offense_score_diff",
	DamageMarginDiff: "damage_margin_diff",
	KDAvgDiff:        "kd_avg_diff",

	TDAvgDiff:          "td_avg_diff",
	TDAccDiff:          "td_acc_diff",
	TDDefDiff:          "td_def_diff",
	SubAvgDiff:         "sub_avg_diff",
	ControlPctDiff:     "control_pct_diff",
	GrapplingIndexDiff: "grappling_index_diff",

	FightCountDiff:    "fight_count_diff",
	Last3WinRateDiff:  "last3_win_rate_diff",
	Last5WinRateDiff:  "last5_win_rate_diff",
	DaysSinceLastDiff: "days_since_last_fight_diff",
	WinStreakDiff:     "win_streak_diff",
	FinishRateDiff:    "finish_rate_diff",

	SLpMPerLbDiff:  "slpm_per_lb_diff",
	TDAttPerLbDiff: "td_att_per_lb_diff",
}

// Index returns the column index for name, or -1.
func Index(name string) int {
	for i, c := range Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// profile is one fighter's per-side values before differencing.
type profile [NumColumns]model.Float

func buildProfile(s model.Snapshot, f model.Fighter) profile {
	var p profile
	p[HeightDiff] = f.HeightIn
	p[ReachDiff] = f.ReachIn
	p[AgeDiff] = s.AgeYears
	p[WeightDiff] = f.WeightLbs

	p[SLpMDiff] = s.SLpM
	p[SApMDiff] = s.SApM
	p[StrAccDiff] = s.StrAcc
	p[StrDefDiff] = s.StrDef
	p[OffenseScoreDiff] = model.Sub(s.SLpM, s.SApM)
	p[DamageMarginDiff] = s.DamageMargin
	p[KDAvgDiff] = s.KDAvg

	p[TDAvgDiff] = s.TDAvg
	p[TDAccDiff] = s.TDAcc
	p[TDDefDiff] = s.TDDef
	p[SubAvgDiff] = s.SubAvg
	p[ControlPctDiff] = s.ControlPct
	p[GrapplingIndexDiff] = GrapplingIndex(s)

	p[FightCountDiff] = model.Some(float64(s.FightCount))
	p[Last3WinRateDiff] = s.Last3WinRate
	p[Last5WinRateDiff] = s.Last5WinRate
	p[DaysSinceLastDiff] = s.DaysSinceLast
	p[WinStreakDiff] = model.Some(float64(s.WinStreak))
	p[FinishRateDiff] = s.FinishRate

	p[SLpMPerLbDiff] = model.Ratio(s.SLpM, f.WeightLbs)
	p[TDAttPerLbDiff] = model.Ratio(s.TDAttPer15, f.WeightLbs)
	return p
}

// GrapplingIndex combines takedown accuracy, takedown defense and submission
// rate. Missing if any component is missing.
func GrapplingIndex(s model.Snapshot) model.Float {
	if !s.TDAcc.Valid || !s.TDDef.Valid || !s.SubAvg.Valid {
		return model.Float{}
	}
	sub := s.SubAvg.Val / (1 + s.SubAvg.Val)
	return model.SomeFloat(GrappleWeightTDAcc*s.TDAcc.Val +
		GrappleWeightTDDef*s.TDDef.Val +
		GrappleWeightSub*sub)
}

// Synthesize returns the A − B feature vector for one fight. It is a pure
// function of its arguments.
func Synthesize(a, b model.Snapshot, fa, fb model.Fighter) []model.Float {
	pa := buildProfile(a, fa)
	pb := buildProfile(b, fb)
	out := make([]model.Float, NumColumns)
	for i := range out {
		out[i] = model.Sub(pa[i], pb[i])
	}
	return out
}

// Mirror returns the B-vs-A row: fighters swapped, every feature negated and
// the label flipped. Missing features and labels stay missing.
func Mirror(r model.FeatureRow) model.FeatureRow {
	m := r
	m.FighterAID, m.FighterBID = r.FighterBID, r.FighterAID
	m.Mirrored = !r.Mirrored
	m.Features = make([]model.Float, len(r.Features))
	for i, f := range r.Features {
		m.Features[i] = model.Neg(f)
	}
	if r.Label.Valid {
		m.Label = model.Some(1 - r.Label.Val)
	}
	return m
}
