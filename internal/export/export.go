// Package export writes assembled feature rows to CSV, JSON or XLSX.
//
// Every format carries the same columns in the same order: the row keys, the
// label, then one column per feature. Missing values are written as NA in CSV
// and XLSX and as null in JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pable/go-fight-metrics/internal/dataset"
	"github.com/pable/go-fight-metrics/internal/features"
	"github.com/pable/go-fight-metrics/internal/model"
)

// Missing is the sentinel for absent values in text formats.
const Missing = "NA"

// precision is the number of decimals written for feature values.
const precision = 6

const dateLayout = "2006-01-02"

// Format names an output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown output format for %q (want .csv, .json or .xlsx)", path)
}

var keyColumns = []string{"fight_id", "fighter_a", "fighter_b", "event_id", "event_date", "mirrored", "label"}

// Header returns the column names in output order.
func Header() []string {
	h := make([]string, 0, len(keyColumns)+features.NumColumns)
	h = append(h, keyColumns...)
	h = append(h, features.Columns[:]...)
	return h
}

func record(r model.FeatureRow) []string {
	rec := make([]string, 0, len(keyColumns)+len(r.Features))
	mirrored := "0"
	if r.Mirrored {
		mirrored = "1"
	}
	rec = append(rec,
		r.FightID, r.FighterAID, r.FighterBID, r.EventID,
		r.EventDate.Format(dateLayout), mirrored, r.Label.Format(0, Missing),
	)
	for _, f := range r.Features {
		rec = append(rec, f.Format(precision, Missing))
	}
	return rec
}

// WriteCSV writes rows as CSV with a header line.
func WriteCSV(w io.Writer, rows []model.FeatureRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonRow struct {
	FightID   string              `json:"fight_id"`
	FighterA  string              `json:"fighter_a"`
	FighterB  string              `json:"fighter_b"`
	EventID   string              `json:"event_id"`
	EventDate string              `json:"event_date"`
	Mirrored  bool                `json:"mirrored"`
	Label     *int                `json:"label"`
	Features  map[string]*float64 `json:"features"`
}

// WriteJSON writes rows as an indented JSON array.
func WriteJSON(w io.Writer, rows []model.FeatureRow) error {
	out := make([]jsonRow, len(rows))
	for i, r := range rows {
		feats := make(map[string]*float64, len(r.Features))
		for c, f := range r.Features {
			feats[features.Columns[c]] = f.Ptr()
		}
		out[i] = jsonRow{
			FightID:   r.FightID,
			FighterA:  r.FighterAID,
			FighterB:  r.FighterBID,
			EventID:   r.EventID,
			EventDate: r.EventDate.Format(dateLayout),
			Mirrored:  r.Mirrored,
			Label:     r.Label.Ptr(),
			Features:  feats,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

const (
	sheetData  = "dataset"
	sheetDiag  = "diagnostics"
	sheetFirst = "Sheet1"
)

// WriteXLSX writes rows to a "dataset" sheet. When diag is non-nil a
// "diagnostics" sheet with per-column missing rates is added.
func WriteXLSX(w io.Writer, rows []model.FeatureRow, diag *dataset.Diagnostics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(sheetFirst, sheetData); err != nil {
		return err
	}
	if err := setRow(f, sheetData, 1, toAny(Header())); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, sheetData, i+2, xlsxRecord(r)); err != nil {
			return err
		}
	}

	if diag != nil {
		if _, err := f.NewSheet(sheetDiag); err != nil {
			return err
		}
		if err := setRow(f, sheetDiag, 1, []any{"column", "missing", "missing_rate"}); err != nil {
			return err
		}
		rates := diag.MissingRate()
		for c, name := range features.Columns {
			if err := setRow(f, sheetDiag, c+2, []any{name, diag.MissingByColumn[c], rates[c]}); err != nil {
				return err
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}

// xlsxRecord keeps numbers numeric so spreadsheets can compute on them.
func xlsxRecord(r model.FeatureRow) []any {
	rec := []any{r.FightID, r.FighterAID, r.FighterBID, r.EventID, r.EventDate.Format(dateLayout), r.Mirrored}
	if r.Label.Valid {
		rec = append(rec, r.Label.Val)
	} else {
		rec = append(rec, Missing)
	}
	for _, v := range r.Features {
		if v.Valid {
			rec = append(rec, v.Val)
		} else {
			rec = append(rec, Missing)
		}
	}
	return rec
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// WriteFile writes rows to path in the given format. The data goes to a
// temporary file in the same directory that replaces path only once it is
// complete; on error path is left as it was.
func WriteFile(path string, format Format, rows []model.FeatureRow, diag *dataset.Diagnostics) error {
	out, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmp := out.Name()
	if err = out.Chmod(0o644); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("create %s: %w", path, err)
	}
	switch format {
	case FormatCSV:
		err = WriteCSV(out, rows)
	case FormatJSON:
		err = WriteJSON(out, rows)
	case FormatXLSX:
		err = WriteXLSX(out, rows, diag)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
