package dataset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-fight-metrics/internal/features"
	"github.com/pable/go-fight-metrics/internal/model"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func stats(id string) model.CornerStats {
	return model.CornerStats{
		FighterID:       id,
		Knockdowns:      model.Some(0),
		SigStrLanded:    model.Some(40),
		SigStrAttempted: model.Some(90),
		TDLanded:        model.Some(1),
		TDAttempted:     model.Some(3),
		SubAttempts:     model.Some(0),
		ControlSec:      model.Some(120),
	}
}

func win(id, event, red, blue, winner string) model.Fight {
	return model.Fight{
		ID: id, EventID: event,
		Red: stats(red), Blue: stats(blue),
		Result: model.ResultWin, WinnerID: winner,
		Method: "U-DEC", DurationSec: model.Some(900),
	}
}

func physical(id string, h float64) model.Fighter {
	dob := date("1990-01-01")
	return model.Fighter{ID: id, Name: id, HeightIn: model.Some(h), ReachIn: model.Some(h + 2), WeightLbs: model.Some(155.0), DOB: &dob}
}

// scenario: F1 beats F2 (Jan), F2 beats F3 (Mar), F1 beats F3 (Jun), F2 and F3
// fight to a no-contest (Sep).
func scenario() model.RecordSet {
	return model.RecordSet{
		Fighters: []model.Fighter{physical("F1", 70), physical("F2", 71), physical("F3", 72)},
		Events: []model.Event{
			{ID: "E1", Date: date("2023-01-01")},
			{ID: "E2", Date: date("2023-03-01")},
			{ID: "E3", Date: date("2023-06-01")},
			{ID: "E4", Date: date("2023-09-01")},
		},
		Fights: []model.Fight{
			win("B1", "E1", "F1", "F2", "F1"),
			win("B2", "E2", "F2", "F3", "F2"),
			win("B3", "E3", "F1", "F3", "F1"),
			{ID: "B4", EventID: "E4", Red: stats("F2"), Blue: stats("F3"), Result: model.ResultNoContest, DurationSec: model.Some(120)},
		},
	}
}

func assemble(t *testing.T, rs model.RecordSet, opts Options) *Result {
	t.Helper()
	res, err := Assemble(context.Background(), rs, opts, nil)
	require.NoError(t, err)
	return res
}

func TestAssemble_EndToEndScenario(t *testing.T) {
	res := assemble(t, scenario(), DefaultOptions())

	f1, ok := res.Timelines["F1"].At("B3")
	require.True(t, ok)
	assert.Equal(t, 1, f1.FightCount)
	assert.Equal(t, model.Some(1.0), f1.Last3WinRate)
	assert.Equal(t, model.Some(151.0), f1.DaysSinceLast)

	f3, ok := res.Timelines["F3"].At("B3")
	require.True(t, ok)
	assert.Equal(t, 1, f3.FightCount)
	assert.Equal(t, model.Some(0.0), f3.Last3WinRate)

	// B4 is a no-contest: no row by default.
	require.Len(t, res.Rows, 3)
	assert.Equal(t, []string{"B1", "B2", "B3"}, []string{res.Rows[0].FightID, res.Rows[1].FightID, res.Rows[2].FightID})
	for _, r := range res.Rows {
		assert.Equal(t, model.Some(1), r.Label, "red corner won every labeled fight")
	}
	row := res.Rows[2]
	assert.Equal(t, model.Some(0.0), row.Features[features.FightCountDiff])
	assert.Equal(t, model.Some(1.0), row.Features[features.Last3WinRateDiff])
	assert.Equal(t, model.Some(-2.0), row.Features[features.HeightDiff])

	d := res.Diagnostics
	assert.Equal(t, 3, d.RowsOut)
	assert.Equal(t, 1, d.UnlabeledDropped)
	assert.Equal(t, 3, d.DebutFighters)
	assert.Empty(t, d.Issues)
}

func TestAssemble_NoContestFeedsLaterSnapshots(t *testing.T) {
	rs := scenario()
	rs.Events = append(rs.Events, model.Event{ID: "E5", Date: date("2023-12-01")})
	rs.Fights = append(rs.Fights, win("B5", "E5", "F2", "F1", "F2"))

	res := assemble(t, rs, DefaultOptions())
	s, ok := res.Timelines["F2"].At("B5")
	require.True(t, ok)
	assert.Equal(t, 3, s.FightCount)
	assert.Equal(t, 1, s.NoContests)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, model.Some(91.0), s.DaysSinceLast)
}

func TestAssemble_KeepUnlabeled(t *testing.T) {
	opts := DefaultOptions()
	opts.KeepUnlabeled = true
	res := assemble(t, scenario(), opts)

	require.Len(t, res.Rows, 4)
	last := res.Rows[3]
	assert.Equal(t, "B4", last.FightID)
	assert.False(t, last.Label.Valid)
	assert.Equal(t, 1, res.Diagnostics.UnlabeledKept)
}

func TestAssemble_MirrorDoublesRows(t *testing.T) {
	opts := DefaultOptions()
	opts.Mirror = true
	res := assemble(t, scenario(), opts)

	require.Len(t, res.Rows, 6)
	for i := 0; i < len(res.Rows); i += 2 {
		orig, mir := res.Rows[i], res.Rows[i+1]
		assert.False(t, orig.Mirrored)
		assert.True(t, mir.Mirrored)
		assert.Equal(t, orig.FighterAID, mir.FighterBID)
		assert.Equal(t, 1-orig.Label.Val, mir.Label.Val)
		for c := range orig.Features {
			if orig.Features[c].Valid {
				assert.Equal(t, orig.Features[c].Val, -mir.Features[c].Val, features.Columns[c])
			}
		}
	}
}

func TestAssemble_HashedOrientationKeepsLabelsConsistent(t *testing.T) {
	opts := DefaultOptions()
	opts.Orientation = OrientHashed
	res := assemble(t, scenario(), opts)

	corners := map[string][2]string{"B1": {"F1", "F2"}, "B2": {"F2", "F3"}, "B3": {"F1", "F3"}}
	winners := map[string]string{"B1": "F1", "B2": "F2", "B3": "F1"}
	for _, r := range res.Rows {
		wantA := corners[r.FightID][0]
		if flipped(r.FightID) {
			wantA = corners[r.FightID][1]
		}
		assert.Equal(t, wantA, r.FighterAID, r.FightID)

		want := 0
		if r.FighterAID == winners[r.FightID] {
			want = 1
		}
		assert.Equal(t, model.Some(want), r.Label, r.FightID)
	}
}

func TestAssemble_DuplicateFightDropped(t *testing.T) {
	rs := scenario()
	rs.Fights = append(rs.Fights, rs.Fights[0])

	res := assemble(t, rs, DefaultOptions())
	assert.Equal(t, 1, res.Diagnostics.DuplicateFights)
	assert.Equal(t, 1, res.Diagnostics.IntegrityIssues())
	assert.Len(t, res.Rows, 3)

	s, _ := res.Timelines["F1"].At("B3")
	assert.Equal(t, 1, s.FightCount, "duplicate must contribute once")
}

func TestAssemble_IntegrityIssuesAreRecovered(t *testing.T) {
	rs := scenario()
	rs.Events = append(rs.Events, model.Event{ID: "E-undated"})
	rs.Fights = append(rs.Fights,
		win("X1", "E-missing", "F1", "F2", "F1"),
		win("X2", "E1", "F1", "ghost", "F1"),
		win("X3", "E1", "F1", "F1", "F1"),
		win("X4", "E1", "F1", "F2", "nobody"),
		win("X5", "E-undated", "F1", "F2", "F1"),
	)

	res := assemble(t, rs, DefaultOptions())
	d := res.Diagnostics
	assert.Equal(t, 3, d.UnknownRefs)
	assert.Equal(t, 1, d.SelfPairings)
	assert.Equal(t, 1, d.UndatedFights)
	assert.Equal(t, 4, d.IntegrityIssues())
	assert.Len(t, res.Rows, 3, "unaffected fights still produce rows")
}

func TestAssemble_SameCardRematchExcluded(t *testing.T) {
	rs := scenario()
	second := win("B1b", "E1", "F2", "F1", "F2")
	second.BoutOrder = 5
	rs.Fights = append(rs.Fights, second)

	res := assemble(t, rs, DefaultOptions())
	s1, _ := res.Timelines["F1"].At("B1")
	s2, _ := res.Timelines["F1"].At("B1b")
	assert.Equal(t, 0, s1.FightCount)
	assert.Equal(t, 0, s2.FightCount, "same-date bouts never inform each other")
	assert.Equal(t, 2, res.Diagnostics.SameDateConflicts)
}

func TestAssemble_FatalErrors(t *testing.T) {
	_, err := Assemble(context.Background(), model.RecordSet{}, DefaultOptions(), nil)
	assert.True(t, errors.Is(err, ErrEmptyInput))

	rs := scenario()
	rs.Fights = nil
	_, err = Assemble(context.Background(), rs, DefaultOptions(), nil)
	assert.True(t, errors.Is(err, ErrEmptyInput))

	rs = scenario()
	rs.Fights[1].EventID = ""
	res, err := Assemble(context.Background(), rs, DefaultOptions(), nil)
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Nil(t, res)

	opts := DefaultOptions()
	opts.Orientation = "sideways"
	_, err = Assemble(context.Background(), scenario(), opts, nil)
	assert.Error(t, err)
}

func TestAssemble_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Assemble(ctx, scenario(), DefaultOptions(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestAssemble_Deterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.Mirror = true
	opts.Workers = 1
	first := assemble(t, scenario(), opts)
	opts.Workers = 8
	second := assemble(t, scenario(), opts)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestDiagnostics_HighMissingRows(t *testing.T) {
	var d Diagnostics
	full := make([]model.Float, features.NumColumns)
	for i := range full {
		full[i] = model.Some(1.0)
	}
	half := append([]model.Float(nil), full...)
	for i := 0; i < features.NumColumns/2+1; i++ {
		half[i] = model.Float{}
	}

	d.observeRow(model.FeatureRow{Features: full}, 0.5)
	d.observeRow(model.FeatureRow{Features: half}, 0.5)

	assert.Equal(t, 2, d.RowsOut)
	assert.Equal(t, 1, d.HighMissingRows)
	assert.Equal(t, 1, d.MissingByColumn[0])
	assert.Equal(t, 0, d.MissingByColumn[features.NumColumns-1])
}
