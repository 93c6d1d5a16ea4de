package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pable/go-fight-metrics/internal/model"
)

type fighterRow struct {
	ID        string   `db:"id"`
	Name      string   `db:"name"`
	HeightIn  *float64 `db:"height_in"`
	ReachIn   *float64 `db:"reach_in"`
	WeightLbs *float64 `db:"weight_lbs"`
	Stance    string   `db:"stance"`
	DOB       *string  `db:"dob"`
}

func (r fighterRow) model() model.Fighter {
	f := model.Fighter{
		ID:        r.ID,
		Name:      r.Name,
		HeightIn:  model.FromPtr(r.HeightIn),
		ReachIn:   model.FromPtr(r.ReachIn),
		WeightLbs: model.FromPtr(r.WeightLbs),
		Stance:    r.Stance,
	}
	if t, ok := parseDate(r.DOB); ok {
		f.DOB = &t
	}
	return f
}

type eventRow struct {
	ID       string  `db:"id"`
	Name     string  `db:"name"`
	Date     *string `db:"event_date"`
	Location string  `db:"location"`
}

type fightRow struct {
	ID          string `db:"id"`
	EventID     string `db:"event_id"`
	BoutOrder   int    `db:"bout_order"`
	Result      int    `db:"result"`
	WinnerID    string `db:"winner_id"`
	Method      string `db:"method"`
	WeightClass string `db:"weight_class"`
	EndRound    *int   `db:"end_round"`
	EndTimeSec  *int   `db:"end_time_sec"`
	DurationSec *int   `db:"duration_sec"`

	RedID         string `db:"red_id"`
	RedKD         *int   `db:"red_kd"`
	RedSigLanded  *int   `db:"red_sig_landed"`
	RedSigAtt     *int   `db:"red_sig_att"`
	RedTDLanded   *int   `db:"red_td_landed"`
	RedTDAtt      *int   `db:"red_td_att"`
	RedSubAtt     *int   `db:"red_sub_att"`
	RedCtrlSec    *int   `db:"red_ctrl_sec"`
	BlueID        string `db:"blue_id"`
	BlueKD        *int   `db:"blue_kd"`
	BlueSigLanded *int   `db:"blue_sig_landed"`
	BlueSigAtt    *int   `db:"blue_sig_att"`
	BlueTDLanded  *int   `db:"blue_td_landed"`
	BlueTDAtt     *int   `db:"blue_td_att"`
	BlueSubAtt    *int   `db:"blue_sub_att"`
	BlueCtrlSec   *int   `db:"blue_ctrl_sec"`
}

func newFightRow(f model.Fight) fightRow {
	return fightRow{
		ID:          f.ID,
		EventID:     f.EventID,
		BoutOrder:   f.BoutOrder,
		Result:      int(f.Result),
		WinnerID:    f.WinnerID,
		Method:      f.Method,
		WeightClass: f.WeightClass,
		EndRound:    f.EndRound.Ptr(),
		EndTimeSec:  f.EndTimeSec.Ptr(),
		DurationSec: f.DurationSec.Ptr(),

		RedID:        f.Red.FighterID,
		RedKD:        f.Red.Knockdowns.Ptr(),
		RedSigLanded: f.Red.SigStrLanded.Ptr(),
		RedSigAtt:    f.Red.SigStrAttempted.Ptr(),
		RedTDLanded:  f.Red.TDLanded.Ptr(),
		RedTDAtt:     f.Red.TDAttempted.Ptr(),
		RedSubAtt:    f.Red.SubAttempts.Ptr(),
		RedCtrlSec:   f.Red.ControlSec.Ptr(),

		BlueID:        f.Blue.FighterID,
		BlueKD:        f.Blue.Knockdowns.Ptr(),
		BlueSigLanded: f.Blue.SigStrLanded.Ptr(),
		BlueSigAtt:    f.Blue.SigStrAttempted.Ptr(),
		BlueTDLanded:  f.Blue.TDLanded.Ptr(),
		BlueTDAtt:     f.Blue.TDAttempted.Ptr(),
		BlueSubAtt:    f.Blue.SubAttempts.Ptr(),
		BlueCtrlSec:   f.Blue.ControlSec.Ptr(),
	}
}

func (r fightRow) model() model.Fight {
	return model.Fight{
		ID:          r.ID,
		EventID:     r.EventID,
		BoutOrder:   r.BoutOrder,
		Result:      model.Result(r.Result),
		WinnerID:    r.WinnerID,
		Method:      r.Method,
		WeightClass: r.WeightClass,
		EndRound:    model.FromPtr(r.EndRound),
		EndTimeSec:  model.FromPtr(r.EndTimeSec),
		DurationSec: model.FromPtr(r.DurationSec),
		Red:         cornerStats(r.RedID, r.RedKD, r.RedSigLanded, r.RedSigAtt, r.RedTDLanded, r.RedTDAtt, r.RedSubAtt, r.RedCtrlSec),
		Blue:        cornerStats(r.BlueID, r.BlueKD, r.BlueSigLanded, r.BlueSigAtt, r.BlueTDLanded, r.BlueTDAtt, r.BlueSubAtt, r.BlueCtrlSec),
	}
}

func cornerStats(id string, kd, sigLanded, sigAtt, tdLanded, tdAtt, subAtt, ctrl *int) model.CornerStats {
	return model.CornerStats{
		FighterID:       id,
		Knockdowns:      model.FromPtr(kd),
		SigStrLanded:    model.FromPtr(sigLanded),
		SigStrAttempted: model.FromPtr(sigAtt),
		TDLanded:        model.FromPtr(tdLanded),
		TDAttempted:     model.FromPtr(tdAtt),
		SubAttempts:     model.FromPtr(subAtt),
		ControlSec:      model.FromPtr(ctrl),
	}
}

// UpsertFighters inserts fighters in a transaction. For fighters already
// stored only the name is updated; physical attributes are filled in when
// missing and never overwritten.
func (db *DB) UpsertFighters(fighters []model.Fighter) error {
	return db.inTx(func(tx *sqlx.Tx) error { return upsertFighters(tx, fighters) })
}

func upsertFighters(tx *sqlx.Tx, fighters []model.Fighter) error {
	stmt, err := tx.PrepareNamed(`
		INSERT INTO fighters(id, name, height_in, reach_in, weight_lbs, stance, dob)
		VALUES (:id, :name, :height_in, :reach_in, :weight_lbs, :stance, :dob)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			height_in = COALESCE(fighters.height_in, excluded.height_in),
			reach_in = COALESCE(fighters.reach_in, excluded.reach_in),
			weight_lbs = COALESCE(fighters.weight_lbs, excluded.weight_lbs),
			stance = CASE WHEN fighters.stance = '' THEN excluded.stance ELSE fighters.stance END,
			dob = COALESCE(fighters.dob, excluded.dob)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range fighters {
		row := fighterRow{
			ID:        f.ID,
			Name:      f.Name,
			HeightIn:  f.HeightIn.Ptr(),
			ReachIn:   f.ReachIn.Ptr(),
			WeightLbs: f.WeightLbs.Ptr(),
			Stance:    f.Stance,
		}
		if f.DOB != nil {
			s := f.DOB.Format(dateLayout)
			row.DOB = &s
		}
		if _, err := stmt.Exec(row); err != nil {
			return fmt.Errorf("upsert fighter %s: %w", f.ID, err)
		}
	}
	return nil
}

// InsertEvents stores events in a transaction and returns how many were new.
// Stored events are immutable; a record whose id is already present is
// skipped.
func (db *DB) InsertEvents(events []model.Event) (int, error) {
	var n int
	err := db.inTx(func(tx *sqlx.Tx) (err error) {
		n, err = insertEvents(tx, events)
		return err
	})
	return n, err
}

func insertEvents(tx *sqlx.Tx, events []model.Event) (int, error) {
	stmt, err := tx.PrepareNamed(`
		INSERT INTO events(id, name, event_date, location)
		VALUES (:id, :name, :event_date, :location)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range events {
		row := eventRow{ID: e.ID, Name: e.Name, Location: e.Location}
		if !e.Date.IsZero() {
			s := e.Date.Format(dateLayout)
			row.Date = &s
		}
		res, err := stmt.Exec(row)
		if err != nil {
			return 0, fmt.Errorf("insert event %s: %w", e.ID, err)
		}
		inserted += affected(res)
	}
	return inserted, nil
}

// InsertFights stores fights in a transaction and returns how many were new.
// Stored fights are immutable; a record whose id is already present is
// skipped, so the first copy ever stored is the one that stays.
func (db *DB) InsertFights(fights []model.Fight) (int, error) {
	var n int
	err := db.inTx(func(tx *sqlx.Tx) (err error) {
		n, err = insertFights(tx, fights)
		return err
	})
	return n, err
}

func insertFights(tx *sqlx.Tx, fights []model.Fight) (int, error) {
	stmt, err := tx.PrepareNamed(`
		INSERT INTO fights(
			id, event_id, bout_order, result, winner_id, method, weight_class,
			end_round, end_time_sec, duration_sec,
			red_id, red_kd, red_sig_landed, red_sig_att, red_td_landed, red_td_att, red_sub_att, red_ctrl_sec,
			blue_id, blue_kd, blue_sig_landed, blue_sig_att, blue_td_landed, blue_td_att, blue_sub_att, blue_ctrl_sec
		) VALUES (
			:id, :event_id, :bout_order, :result, :winner_id, :method, :weight_class,
			:end_round, :end_time_sec, :duration_sec,
			:red_id, :red_kd, :red_sig_landed, :red_sig_att, :red_td_landed, :red_td_att, :red_sub_att, :red_ctrl_sec,
			:blue_id, :blue_kd, :blue_sig_landed, :blue_sig_att, :blue_td_landed, :blue_td_att, :blue_sub_att, :blue_ctrl_sec
		)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, f := range fights {
		res, err := stmt.Exec(newFightRow(f))
		if err != nil {
			return 0, fmt.Errorf("insert fight %s: %w", f.ID, err)
		}
		inserted += affected(res)
	}
	return inserted, nil
}

func affected(res sql.Result) int {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return int(n)
}

// LoadRecordSet reads every stored record, ordered by id.
func (db *DB) LoadRecordSet() (model.RecordSet, error) {
	var rs model.RecordSet

	var fighters []fighterRow
	if err := db.conn.Select(&fighters, `SELECT id, name, height_in, reach_in, weight_lbs, stance, dob FROM fighters ORDER BY id`); err != nil {
		return rs, fmt.Errorf("load fighters: %w", err)
	}
	for _, r := range fighters {
		rs.Fighters = append(rs.Fighters, r.model())
	}

	var events []eventRow
	if err := db.conn.Select(&events, `SELECT id, name, event_date, location FROM events ORDER BY id`); err != nil {
		return rs, fmt.Errorf("load events: %w", err)
	}
	for _, r := range events {
		e := model.Event{ID: r.ID, Name: r.Name, Location: r.Location}
		if t, ok := parseDate(r.Date); ok {
			e.Date = t
		}
		rs.Events = append(rs.Events, e)
	}

	var fights []fightRow
	if err := db.conn.Select(&fights, `SELECT * FROM fights ORDER BY id`); err != nil {
		return rs, fmt.Errorf("load fights: %w", err)
	}
	for _, r := range fights {
		rs.Fights = append(rs.Fights, r.model())
	}
	return rs, nil
}

// EventSummary is one row of the event listing.
type EventSummary struct {
	ID     string  `db:"id"`
	Name   string  `db:"name"`
	Date   *string `db:"event_date"`
	Fights int     `db:"fights"`
}

// ListEvents returns events with their fight counts, newest first.
func (db *DB) ListEvents() ([]EventSummary, error) {
	var out []EventSummary
	err := db.conn.Select(&out, `
		SELECT e.id, e.name, e.event_date, COUNT(f.id) AS fights
		FROM events e
		LEFT JOIN fights f ON f.event_id = e.id
		GROUP BY e.id, e.name, e.event_date
		ORDER BY e.event_date DESC, e.id`)
	return out, err
}

// FighterSummary is one row of the fighter listing.
type FighterSummary struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Fights int    `db:"fights"`
}

// ListFighters returns fighters with their stored fight counts, most active first.
func (db *DB) ListFighters() ([]FighterSummary, error) {
	var out []FighterSummary
	err := db.conn.Select(&out, `
		SELECT p.id, p.name, COUNT(f.id) AS fights
		FROM fighters p
		LEFT JOIN fights f ON f.red_id = p.id OR f.blue_id = p.id
		GROUP BY p.id, p.name
		ORDER BY fights DESC, p.name`)
	return out, err
}

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// FindFighter returns the fighter whose id equals query, or failing that the
// first fighter whose id starts with query or whose name contains it.
func (db *DB) FindFighter(query string) (*model.Fighter, error) {
	var row fighterRow
	err := db.conn.Get(&row, db.conn.Rebind(`
		SELECT id, name, height_in, reach_in, weight_lbs, stance, dob FROM fighters
		WHERE id = ? OR id LIKE ? OR LOWER(name) LIKE LOWER(?)
		ORDER BY CASE WHEN id = ? THEN 0 ELSE 1 END, name
		LIMIT 1`), query, query+"%", "%"+query+"%", query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fighter %q: %w", query, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	f := row.model()
	return &f, nil
}

// QueryRaw runs an arbitrary query and returns column names and rows as text.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Queryx(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, nil, err
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				rec[i] = "NULL"
			case []byte:
				rec[i] = string(x)
			default:
				rec[i] = fmt.Sprint(x)
			}
		}
		out = append(out, rec)
	}
	return cols, out, rows.Err()
}

func parseDate(s *string) (time.Time, bool) {
	if s == nil || *s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
