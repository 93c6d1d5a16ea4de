package model

import (
	"math"
	"testing"
)

func TestOptHelpers(t *testing.T) {
	if (Int{}).Valid {
		t.Error("zero value must be missing")
	}
	if got := SomeFloat(math.NaN()); got.Valid {
		t.Error("NaN must be missing")
	}
	if got := SomeFloat(math.Inf(1)); got.Valid {
		t.Error("Inf must be missing")
	}
	if got := Some(3).Float(); got != Some(3.0) {
		t.Errorf("Float: got %+v", got)
	}
	if got := None[int]().Or(7); got != 7 {
		t.Errorf("Or: got %d", got)
	}
	if p := None[float64]().Ptr(); p != nil {
		t.Error("Ptr of missing must be nil")
	}
	if got := FromPtr(Some(2.5).Ptr()); got != Some(2.5) {
		t.Errorf("FromPtr round trip: got %+v", got)
	}
	if got := Some(1.23456).Format(3, "NA"); got != "1.235" {
		t.Errorf("Format: got %q", got)
	}
	if got := None[float64]().Format(3, "NA"); got != "NA" {
		t.Errorf("Format missing: got %q", got)
	}
}

func TestOptArithmetic(t *testing.T) {
	if got := Sub(Some(5.0), Some(2.0)); got != Some(3.0) {
		t.Errorf("Sub: got %+v", got)
	}
	if got := Sub(Some(5.0), Float{}); got.Valid {
		t.Error("Sub with missing side must be missing")
	}
	if got := Neg(Some(2.0)); got != Some(-2.0) {
		t.Errorf("Neg: got %+v", got)
	}
	if got := Neg(Float{}); got.Valid {
		t.Error("Neg of missing must stay missing")
	}
	if got := Ratio(Some(1.0), Some(4.0)); got != Some(0.25) {
		t.Errorf("Ratio: got %+v", got)
	}
	if got := Ratio(Some(1.0), Some(0.0)); got.Valid {
		t.Error("Ratio by zero must be missing")
	}
}

func TestOutcomeFor(t *testing.T) {
	f := Fight{Red: CornerStats{FighterID: "a"}, Blue: CornerStats{FighterID: "b"}, Result: ResultWin, WinnerID: "a"}
	if f.OutcomeFor("a") != OutcomeWin || f.OutcomeFor("b") != OutcomeLoss {
		t.Error("win/loss outcome mismatch")
	}
	f.Result, f.WinnerID = ResultDraw, ""
	if f.OutcomeFor("a") != OutcomeDraw || !f.OutcomeFor("b").Decisive() {
		t.Error("draw must be decisive for both sides")
	}
	f.Result = ResultNoContest
	if f.OutcomeFor("a").Decisive() {
		t.Error("no-contest must not be decisive")
	}
	f.Result = ResultUnknown
	if f.OutcomeFor("b") != OutcomeNoContest {
		t.Error("unknown result folds into no-contest")
	}
}

func TestCorners(t *testing.T) {
	f := Fight{Red: CornerStats{FighterID: "a", Knockdowns: Some(1)}, Blue: CornerStats{FighterID: "b"}}
	own, opp, ok := f.Corners("a")
	if !ok || own.Knockdowns != Some(1) || opp.FighterID != "b" {
		t.Errorf("Corners(a): %+v %+v %v", own, opp, ok)
	}
	if _, _, ok := f.Corners("c"); ok {
		t.Error("non-participant must not resolve")
	}
}

func TestMethodClass(t *testing.T) {
	cases := []struct{ in, want string }{
		{"KO/TKO", "KO"},
		{"TKO - Doctor's Stoppage", "KO"},
		{"Submission", "SUB"},
		{"U-DEC", "DEC"},
		{"S-DEC", "DEC"},
		{"Overturned", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := methodClass(c.in); got != c.want {
			t.Errorf("methodClass(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if !(&Fight{Method: "Submission"}).IsFinish() {
		t.Error("submission is a finish")
	}
	if (&Fight{Method: "M-DEC"}).IsFinish() {
		t.Error("decision is not a finish")
	}
}

func TestIssueString(t *testing.T) {
	is := Issue{Kind: IssueIntegrity, Entity: "fight b1", Message: "unknown event"}
	if got := is.String(); got == "" {
		t.Error("empty issue string")
	}
}

func TestFeatureRowMissingCount(t *testing.T) {
	r := FeatureRow{Features: []Float{Some(1.0), {}, Some(0.0), {}}}
	if got := r.MissingCount(); got != 2 {
		t.Errorf("MissingCount = %d, want 2", got)
	}
	if got := (FeatureRow{}).MissingCount(); got != 0 {
		t.Errorf("empty row MissingCount = %d, want 0", got)
	}
}
