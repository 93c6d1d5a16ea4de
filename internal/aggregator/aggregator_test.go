package aggregator

import (
	"math"
	"testing"
	"time"

	"github.com/pable/go-fight-metrics/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// corner builds full bout stats for one side.
func corner(id string, sigL, sigA, tdL, tdA, subs int) model.CornerStats {
	return model.CornerStats{
		FighterID:       id,
		Knockdowns:      model.Some(0),
		SigStrLanded:    model.Some(sigL),
		SigStrAttempted: model.Some(sigA),
		TDLanded:        model.Some(tdL),
		TDAttempted:     model.Some(tdA),
		SubAttempts:     model.Some(subs),
		ControlSec:      model.Some(60),
	}
}

// entry builds a 15-minute fight for fighter "x".
func entry(id, date string, outcome model.Outcome, sigL int) Entry {
	return Entry{
		FightID:     id,
		EventID:     "ev-" + id,
		Date:        day(date),
		Own:         corner("x", sigL, sigL*2, 1, 2, 1),
		Opp:         corner("opp-"+id, 30, 60, 0, 4, 0),
		Outcome:     outcome,
		DurationSec: model.Some(900),
	}
}

var fighterX = model.Fighter{ID: "x", Name: "Fighter X"}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// ---- No-leakage ----

func TestTimeline_OnlyStrictlyPriorFights(t *testing.T) {
	// Input deliberately out of order.
	entries := []Entry{
		entry("f3", "2023-06-01", model.OutcomeWin, 90),
		entry("f1", "2023-01-01", model.OutcomeWin, 30),
		entry("f2", "2023-03-01", model.OutcomeLoss, 60),
	}
	tl, issues := BuildTimeline(fighterX, entries)
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if tl.Len() != 3 {
		t.Fatalf("expected 3 snapshots, got %d", tl.Len())
	}

	s1, _ := tl.At("f1")
	s2, _ := tl.At("f2")
	s3, _ := tl.At("f3")

	if s1.FightCount != 0 || s2.FightCount != 1 || s3.FightCount != 2 {
		t.Errorf("fight counts = %d,%d,%d; want 0,1,2", s1.FightCount, s2.FightCount, s3.FightCount)
	}
	// At t2 only f1 is known: 30 landed in 15 minutes = 2.0 per minute.
	if !s2.SLpM.Valid || !approx(s2.SLpM.Val, 2.0) {
		t.Errorf("SLpM at t2 = %+v, want 2.0", s2.SLpM)
	}
	// At t3, f1+f2: 90 landed in 30 minutes = 3.0 per minute; f3's 90 is not included.
	if !s3.SLpM.Valid || !approx(s3.SLpM.Val, 3.0) {
		t.Errorf("SLpM at t3 = %+v, want 3.0", s3.SLpM)
	}
	if s3.Wins != 1 || s3.Losses != 1 {
		t.Errorf("record at t3 = %d-%d, want 1-1", s3.Wins, s3.Losses)
	}
	if !s3.Last3WinRate.Valid || !approx(s3.Last3WinRate.Val, 0.5) {
		t.Errorf("last3 at t3 = %+v, want 0.5", s3.Last3WinRate)
	}
	if !s3.DaysSinceLast.Valid || s3.DaysSinceLast.Val != 92 {
		t.Errorf("days since last at t3 = %+v, want 92", s3.DaysSinceLast)
	}
}

// ---- Debut ----

func TestTimeline_DebutSnapshotIsMissingNotZero(t *testing.T) {
	tl, _ := BuildTimeline(fighterX, []Entry{entry("only", "2024-02-10", model.OutcomeWin, 40)})
	s, ok := tl.At("only")
	if !ok {
		t.Fatal("snapshot for debut fight not found")
	}
	if !s.IsDebut() {
		t.Errorf("expected debut, FightCount=%d", s.FightCount)
	}
	rates := map[string]model.Float{
		"SLpM": s.SLpM, "SApM": s.SApM, "StrAcc": s.StrAcc, "StrDef": s.StrDef,
		"DamageMargin": s.DamageMargin, "KDAvg": s.KDAvg, "TDAvg": s.TDAvg,
		"TDAttPer15": s.TDAttPer15, "TDAcc": s.TDAcc, "TDDef": s.TDDef,
		"SubAvg": s.SubAvg, "ControlPct": s.ControlPct, "FinishRate": s.FinishRate,
		"Last3WinRate": s.Last3WinRate, "Last5WinRate": s.Last5WinRate,
		"DaysSinceLast": s.DaysSinceLast,
	}
	for name, v := range rates {
		if v.Valid {
			t.Errorf("%s should be missing on debut, got %v", name, v.Val)
		}
	}
}

func TestTimeline_AgeFromDOB(t *testing.T) {
	dob := day("1990-06-01")
	f := model.Fighter{ID: "x", DOB: &dob}
	tl, _ := BuildTimeline(f, []Entry{entry("a", "2020-06-01", model.OutcomeWin, 10)})
	s, _ := tl.At("a")
	if !s.AgeYears.Valid || math.Abs(s.AgeYears.Val-30) > 0.01 {
		t.Errorf("age = %+v, want ~30", s.AgeYears)
	}

	tl, _ = BuildTimeline(fighterX, []Entry{entry("a", "2020-06-01", model.OutcomeWin, 10)})
	s, _ = tl.At("a")
	if s.AgeYears.Valid {
		t.Error("age must be missing without DOB")
	}
}

// ---- Same-date tie-break ----

func TestTimeline_SameDateFightsDoNotInformEachOther(t *testing.T) {
	a := entry("a", "2023-01-01", model.OutcomeWin, 30)
	b := entry("b", "2023-05-05", model.OutcomeWin, 30)
	c := entry("c", "2023-05-05", model.OutcomeLoss, 30)
	c.BoutOrder = 2
	d := entry("d", "2023-09-09", model.OutcomeWin, 30)

	tl, issues := BuildTimeline(fighterX, []Entry{d, c, b, a})
	sb, _ := tl.At("b")
	sc, _ := tl.At("c")
	sd, _ := tl.At("d")

	if sb.FightCount != 1 || sc.FightCount != 1 {
		t.Errorf("same-day snapshots saw %d and %d fights, want 1 and 1", sb.FightCount, sc.FightCount)
	}
	if sd.FightCount != 3 {
		t.Errorf("snapshot after same-day group saw %d fights, want 3", sd.FightCount)
	}
	ordering := 0
	for _, is := range issues {
		if is.Kind == model.IssueOrdering {
			ordering++
		}
	}
	if ordering != 1 {
		t.Errorf("expected 1 ordering warning, got %d (%v)", ordering, issues)
	}
}

// ---- Duplicates ----

func TestTimeline_DuplicateFightCountedOnce(t *testing.T) {
	first := entry("dup", "2023-01-01", model.OutcomeWin, 30)
	second := entry("dup", "2023-01-01", model.OutcomeWin, 999)
	next := entry("next", "2023-04-01", model.OutcomeWin, 30)

	tl, issues := BuildTimeline(fighterX, []Entry{first, second, next})
	if tl.Len() != 2 {
		t.Fatalf("expected 2 snapshots, got %d", tl.Len())
	}
	s, _ := tl.At("next")
	if s.FightCount != 1 || s.Wins != 1 {
		t.Errorf("duplicate double-counted: count=%d wins=%d", s.FightCount, s.Wins)
	}
	// First copy kept: 30 landed over 15 minutes.
	if !approx(s.SLpM.Val, 2.0) {
		t.Errorf("SLpM = %v, want 2.0 from the first copy", s.SLpM.Val)
	}
	if len(issues) != 1 || issues[0].Kind != model.IssueIntegrity {
		t.Errorf("expected one integrity issue, got %v", issues)
	}
}

// ---- No-contests ----

func TestTimeline_NoContestFeedsRatesNotRecord(t *testing.T) {
	nc := entry("nc", "2023-01-01", model.OutcomeNoContest, 60)
	next := entry("next", "2023-02-01", model.OutcomeWin, 10)
	tl, _ := BuildTimeline(fighterX, []Entry{nc, next})

	s, _ := tl.At("next")
	if s.FightCount != 1 || s.NoContests != 1 {
		t.Errorf("count=%d nc=%d, want 1/1", s.FightCount, s.NoContests)
	}
	if s.Wins+s.Losses+s.Draws != 0 {
		t.Error("no-contest must not enter the win/loss record")
	}
	if s.Last3WinRate.Valid {
		t.Error("win-rate window must be missing when only a no-contest precedes")
	}
	if !s.SLpM.Valid || !approx(s.SLpM.Val, 4.0) {
		t.Errorf("SLpM = %+v, want 4.0 from the no-contest", s.SLpM)
	}
}

// ---- Rolling windows ----

func TestTimeline_RollingWindowsAreBounded(t *testing.T) {
	outcomes := []model.Outcome{
		model.OutcomeLoss, model.OutcomeLoss, model.OutcomeLoss,
		model.OutcomeWin, model.OutcomeWin, model.OutcomeWin, model.OutcomeLoss,
	}
	var entries []Entry
	start := day("2020-01-01")
	for i, o := range outcomes {
		e := entry(string(rune('a'+i)), "2020-01-01", o, 10)
		e.Date = start.AddDate(0, i, 0)
		entries = append(entries, e)
	}
	last := entry("z", "2021-01-01", model.OutcomeWin, 10)
	tl, _ := BuildTimeline(fighterX, append(entries, last))

	s, _ := tl.At("z")
	// Last 3: W W L -> 2/3. Last 5: L W W W L -> 3/5.
	if !approx(s.Last3WinRate.Val, 2.0/3.0) {
		t.Errorf("last3 = %v, want 0.667", s.Last3WinRate.Val)
	}
	if !approx(s.Last5WinRate.Val, 0.6) {
		t.Errorf("last5 = %v, want 0.6", s.Last5WinRate.Val)
	}
	if s.WinStreak != 0 {
		t.Errorf("win streak = %d, want 0 after a loss", s.WinStreak)
	}
}

// ---- Division safety ----

func TestTimeline_ZeroAttemptsYieldMissing(t *testing.T) {
	e := entry("a", "2023-01-01", model.OutcomeWin, 10)
	e.Own.TDLanded = model.Some(0)
	e.Own.TDAttempted = model.Some(0)
	e.Opp.TDLanded = model.Some(0)
	e.Opp.TDAttempted = model.Some(0)
	next := entry("b", "2023-02-01", model.OutcomeWin, 10)

	tl, _ := BuildTimeline(fighterX, []Entry{e, next})
	s, _ := tl.At("b")
	if s.TDAcc.Valid {
		t.Errorf("TDAcc with zero attempts should be missing, got %v", s.TDAcc.Val)
	}
	if s.TDDef.Valid {
		t.Errorf("TDDef with zero opponent attempts should be missing, got %v", s.TDDef.Val)
	}
	// Per-15 rates are still defined: 0 takedowns over 15 minutes.
	if !s.TDAvg.Valid || s.TDAvg.Val != 0 {
		t.Errorf("TDAvg = %+v, want present 0", s.TDAvg)
	}
}

func TestTimeline_PartialStatsDoNotDilute(t *testing.T) {
	a := entry("a", "2023-01-01", model.OutcomeWin, 30)
	b := entry("b", "2023-02-01", model.OutcomeWin, 0)
	b.Own.SigStrLanded = model.Int{}
	b.Own.SigStrAttempted = model.Int{}
	c := entry("c", "2023-03-01", model.OutcomeWin, 0)

	tl, _ := BuildTimeline(fighterX, []Entry{a, b, c})
	s, _ := tl.At("c")
	if !approx(s.SLpM.Val, 2.0) {
		t.Errorf("SLpM = %v, want 2.0 (fight b has no strike data)", s.SLpM.Val)
	}
	if !approx(s.StrAcc.Val, 0.5) {
		t.Errorf("StrAcc = %v, want 0.5", s.StrAcc.Val)
	}
}

func TestTimeline_UndatedEntrySkipped(t *testing.T) {
	e := entry("a", "2023-01-01", model.OutcomeWin, 10)
	e.Date = time.Time{}
	tl, issues := BuildTimeline(fighterX, []Entry{e})
	if tl.Len() != 0 {
		t.Errorf("undated entry should be skipped, got %d snapshots", tl.Len())
	}
	if len(issues) != 1 || issues[0].Kind != model.IssueOrdering {
		t.Errorf("expected one ordering issue, got %v", issues)
	}
}

func TestEntryFor(t *testing.T) {
	f := model.Fight{
		ID: "f", EventID: "e", BoutOrder: 3,
		Red:    corner("r", 10, 20, 1, 2, 0),
		Blue:   corner("b", 5, 20, 0, 3, 1),
		Result: model.ResultWin, WinnerID: "b", Method: "Submission",
	}
	e, ok := EntryFor(&f, "b", day("2023-01-01"))
	if !ok {
		t.Fatal("blue corner not found")
	}
	if e.Own.FighterID != "b" || e.Opp.FighterID != "r" {
		t.Errorf("corners not projected: own=%s opp=%s", e.Own.FighterID, e.Opp.FighterID)
	}
	if e.Outcome != model.OutcomeWin || !e.Finish {
		t.Errorf("outcome=%v finish=%v, want W/true", e.Outcome, e.Finish)
	}
	if _, ok := EntryFor(&f, "nobody", day("2023-01-01")); ok {
		t.Error("expected ok=false for a non-participant")
	}
}
