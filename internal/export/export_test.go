package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pable/go-fight-metrics/internal/dataset"
	"github.com/pable/go-fight-metrics/internal/features"
	"github.com/pable/go-fight-metrics/internal/model"
)

func sampleRows() []model.FeatureRow {
	feats := make([]model.Float, features.NumColumns)
	feats[features.HeightDiff] = model.Some(-2.0)
	feats[features.SLpMDiff] = model.Some(1.0 / 3.0)
	return []model.FeatureRow{
		{
			FightID:    "b1",
			FighterAID: "f1",
			FighterBID: "f2",
			EventID:    "e1",
			EventDate:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			Label:      model.Some(1),
			Features:   feats,
		},
		{
			FightID:    "b2",
			FighterAID: "f2",
			FighterBID: "f3",
			EventID:    "e2",
			EventDate:  time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
			Mirrored:   true,
			Features:   make([]model.Float, features.NumColumns),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)

	header := recs[0]
	assert.Equal(t, Header(), header)
	assert.Len(t, header, 7+features.NumColumns)

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %s missing", name)
		return -1
	}
	assert.Equal(t, "1", recs[1][col("label")])
	assert.Equal(t, "-2.000000", recs[1][col("height_diff")])
	assert.Equal(t, "0.333333", recs[1][col("slpm_diff")])
	assert.Equal(t, Missing, recs[1][col("reach_diff")])
	assert.Equal(t, Missing, recs[2][col("label")])
	assert.Equal(t, "1", recs[2][col("mirrored")])
	assert.Equal(t, "2023-03-01", recs[2][col("event_date")])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleRows()))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)

	assert.Equal(t, float64(1), out[0]["label"])
	assert.Nil(t, out[1]["label"])
	feats := out[0]["features"].(map[string]any)
	assert.Len(t, feats, features.NumColumns)
	assert.Equal(t, -2.0, feats["height_diff"])
	assert.Nil(t, feats["reach_diff"])
}

func TestWriteXLSX(t *testing.T) {
	diag := &dataset.Diagnostics{RowsOut: 2}
	diag.MissingByColumn[features.ReachDiff] = 2

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRows(), diag))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetData)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "fight_id", rows[0][0])
	assert.Equal(t, "b1", rows[1][0])
	assert.Equal(t, Missing, rows[2][6], "missing label")

	diagRows, err := f.GetRows(sheetDiag)
	require.NoError(t, err)
	require.Len(t, diagRows, 1+features.NumColumns)
	assert.Equal(t, "reach_diff", diagRows[1+features.ReachDiff][0])
	assert.Equal(t, "2", diagRows[1+features.ReachDiff][1])
	assert.Equal(t, "1", diagRows[1+features.ReachDiff][2])
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{"out.csv": FormatCSV, "a/b.JSON": FormatJSON, "x.xlsx": FormatXLSX} {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := FormatFromPath("out.parquet")
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	require.NoError(t, WriteFile(path, FormatCSV, sampleRows(), nil))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "fight_id,fighter_a,"))

	assert.Error(t, WriteFile(filepath.Join(dir, "rows.bin"), Format("bin"), sampleRows(), nil))
}

func TestWriteFileFailureKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	require.Error(t, WriteFile(path, Format("bin"), sampleRows(), nil))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file left behind")
}

func scenario() model.RecordSet {
	day := func(s string) time.Time {
		d, _ := time.Parse(dateLayout, s)
		return d
	}
	st := func(id string, landed int) model.CornerStats {
		return model.CornerStats{
			FighterID:       id,
			Knockdowns:      model.Some(0),
			SigStrLanded:    model.Some(landed),
			SigStrAttempted: model.Some(100),
			TDLanded:        model.Some(1),
			TDAttempted:     model.Some(4),
			SubAttempts:     model.Some(1),
			ControlSec:      model.Some(45),
		}
	}
	return model.RecordSet{
		Fighters: []model.Fighter{{ID: "f1", HeightIn: model.Some(70.0)}, {ID: "f2"}, {ID: "f3", HeightIn: model.Some(72.0)}},
		Events:   []model.Event{{ID: "e1", Date: day("2023-01-01")}, {ID: "e2", Date: day("2023-03-01")}, {ID: "e3", Date: day("2023-06-01")}},
		Fights: []model.Fight{
			{ID: "b1", EventID: "e1", Red: st("f1", 40), Blue: st("f2", 30), Result: model.ResultWin, WinnerID: "f1", DurationSec: model.Some(900)},
			{ID: "b2", EventID: "e2", Red: st("f2", 35), Blue: st("f3", 33), Result: model.ResultWin, WinnerID: "f2", DurationSec: model.Some(600)},
			{ID: "b3", EventID: "e3", Red: st("f1", 51), Blue: st("f3", 22), Result: model.ResultWin, WinnerID: "f1", DurationSec: model.Some(300)},
		},
	}
}

func TestCSVIsByteIdenticalAcrossRuns(t *testing.T) {
	opts := dataset.DefaultOptions()
	opts.Mirror = true

	var outs [2]bytes.Buffer
	for i, workers := range []int{1, 4} {
		opts.Workers = workers
		res, err := dataset.Assemble(context.Background(), scenario(), opts, nil)
		require.NoError(t, err)
		require.NoError(t, WriteCSV(&outs[i], res.Rows))
	}
	assert.NotZero(t, outs[0].Len())
	assert.Equal(t, outs[0].String(), outs[1].String())
}
