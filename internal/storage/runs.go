package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pable/go-fight-metrics/internal/dataset"
	"github.com/pable/go-fight-metrics/internal/features"
	"github.com/pable/go-fight-metrics/internal/model"
)

// runTimeLayout sorts lexically in time order.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z"

// RunInfo describes one persisted dataset build.
type RunInfo struct {
	ID        string `db:"id"`
	CreatedAt string `db:"created_at"`
	Options   string `db:"options"`
	RowsOut   int    `db:"rows_out"`
}

type runRow struct {
	RunID     string `db:"run_id"`
	RowIdx    int    `db:"row_idx"`
	FightID   string `db:"fight_id"`
	FighterA  string `db:"fighter_a"`
	FighterB  string `db:"fighter_b"`
	EventID   string `db:"event_id"`
	EventDate string `db:"event_date"`
	Mirrored  int    `db:"mirrored"`
	Label     *int   `db:"label"`
}

type runValue struct {
	RunID  string   `db:"run_id"`
	RowIdx int      `db:"row_idx"`
	ColIdx int      `db:"col_idx"`
	Value  *float64 `db:"value"`
}

// SaveRun stores a dataset build under a new run id and returns the id.
func (db *DB) SaveRun(res *dataset.Result, opts dataset.Options) (string, error) {
	optJSON, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("encode options: %w", err)
	}
	diagJSON, err := json.Marshal(res.Diagnostics)
	if err != nil {
		return "", fmt.Errorf("encode diagnostics: %w", err)
	}
	id := uuid.NewString()

	err = db.inTx(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO runs(id, created_at, options, rows_out, diagnostics)
			VALUES (?, ?, ?, ?, ?)`),
			id, time.Now().UTC().Format(runTimeLayout), string(optJSON), len(res.Rows), string(diagJSON),
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		rowStmt, err := tx.PrepareNamed(`
			INSERT INTO run_rows(run_id, row_idx, fight_id, fighter_a, fighter_b, event_id, event_date, mirrored, label)
			VALUES (:run_id, :row_idx, :fight_id, :fighter_a, :fighter_b, :event_id, :event_date, :mirrored, :label)`)
		if err != nil {
			return err
		}
		defer rowStmt.Close()

		valStmt, err := tx.PrepareNamed(`
			INSERT INTO run_values(run_id, row_idx, col_idx, value)
			VALUES (:run_id, :row_idx, :col_idx, :value)`)
		if err != nil {
			return err
		}
		defer valStmt.Close()

		for i, r := range res.Rows {
			row := runRow{
				RunID:     id,
				RowIdx:    i,
				FightID:   r.FightID,
				FighterA:  r.FighterAID,
				FighterB:  r.FighterBID,
				EventID:   r.EventID,
				EventDate: r.EventDate.Format(dateLayout),
				Mirrored:  boolInt(r.Mirrored),
				Label:     r.Label.Ptr(),
			}
			if _, err := rowStmt.Exec(row); err != nil {
				return fmt.Errorf("insert run row %d: %w", i, err)
			}
			for c, v := range r.Features {
				if _, err := valStmt.Exec(runValue{RunID: id, RowIdx: i, ColIdx: c, Value: v.Ptr()}); err != nil {
					return fmt.Errorf("insert run value %d/%d: %w", i, c, err)
				}
			}
		}

		for seq, is := range res.Diagnostics.Issues {
			if _, err := tx.Exec(tx.Rebind(`
				INSERT INTO run_issues(run_id, seq, kind, entity, message) VALUES (?, ?, ?, ?, ?)`),
				id, seq, string(is.Kind), is.Entity, is.Message,
			); err != nil {
				return fmt.Errorf("insert run issue: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListRuns returns stored runs, newest first.
func (db *DB) ListRuns() ([]RunInfo, error) {
	var out []RunInfo
	err := db.conn.Select(&out, `SELECT id, created_at, options, rows_out FROM runs ORDER BY created_at DESC, id`)
	return out, err
}

// LatestRun returns the most recent run.
func (db *DB) LatestRun() (*RunInfo, error) {
	var ri RunInfo
	err := db.conn.Get(&ri, `SELECT id, created_at, options, rows_out FROM runs ORDER BY created_at DESC, id LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ri, nil
}

// RunDiagnostics returns the diagnostics stored with a run.
func (db *DB) RunDiagnostics(runID string) (*dataset.Diagnostics, error) {
	var raw string
	err := db.conn.Get(&raw, db.conn.Rebind(`SELECT diagnostics FROM runs WHERE id = ?`), runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var d dataset.Diagnostics
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode diagnostics: %w", err)
	}
	return &d, nil
}

// LoadRunRows rebuilds the feature rows of a run in their stored order.
func (db *DB) LoadRunRows(runID string) ([]model.FeatureRow, error) {
	var rows []runRow
	if err := db.conn.Select(&rows, db.conn.Rebind(`
		SELECT run_id, row_idx, fight_id, fighter_a, fighter_b, event_id, event_date, mirrored, label
		FROM run_rows WHERE run_id = ? ORDER BY row_idx`), runID); err != nil {
		return nil, fmt.Errorf("load run rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	out := make([]model.FeatureRow, len(rows))
	for i, r := range rows {
		d, _ := parseDate(&r.EventDate)
		out[i] = model.FeatureRow{
			FightID:    r.FightID,
			FighterAID: r.FighterA,
			FighterBID: r.FighterB,
			EventID:    r.EventID,
			EventDate:  d,
			Mirrored:   r.Mirrored != 0,
			Label:      model.FromPtr(r.Label),
			Features:   make([]model.Float, features.NumColumns),
		}
	}

	var vals []runValue
	if err := db.conn.Select(&vals, db.conn.Rebind(`
		SELECT run_id, row_idx, col_idx, value FROM run_values WHERE run_id = ?`), runID); err != nil {
		return nil, fmt.Errorf("load run values: %w", err)
	}
	for _, v := range vals {
		if v.RowIdx < 0 || v.RowIdx >= len(out) || v.ColIdx < 0 || v.ColIdx >= features.NumColumns {
			return nil, fmt.Errorf("run %s: value out of range (%d, %d)", runID, v.RowIdx, v.ColIdx)
		}
		out[v.RowIdx].Features[v.ColIdx] = model.FromPtr(v.Value)
	}
	return out, nil
}

// RunIssues returns the issues recorded for a run.
func (db *DB) RunIssues(runID string) ([]model.Issue, error) {
	var rows []struct {
		Kind    string `db:"kind"`
		Entity  string `db:"entity"`
		Message string `db:"message"`
	}
	if err := db.conn.Select(&rows, db.conn.Rebind(`
		SELECT kind, entity, message FROM run_issues WHERE run_id = ? ORDER BY seq`), runID); err != nil {
		return nil, err
	}
	out := make([]model.Issue, len(rows))
	for i, r := range rows {
		out[i] = model.Issue{Kind: model.IssueKind(r.Kind), Entity: r.Entity, Message: r.Message}
	}
	return out, nil
}

// DeleteRun removes a run and its rows.
func (db *DB) DeleteRun(runID string) error {
	return db.inTx(func(tx *sqlx.Tx) error {
		for _, table := range []string{"run_values", "run_rows", "run_issues"} {
			if _, err := tx.Exec(tx.Rebind(`DELETE FROM `+table+` WHERE run_id = ?`), runID); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		res, err := tx.Exec(tx.Rebind(`DELETE FROM runs WHERE id = ?`), runID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil
	})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
