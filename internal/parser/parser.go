// Package parser reads the scraper's tabular output (fighters, events and
// fights as CSV) into model records.
//
// Column names follow the scraper. Alternative names are accepted where the
// scraper has used more than one (for example fight_url as the fight id).
// A missing required column is a schema error; an unreadable cell is a missing
// value.
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pable/go-fight-metrics/internal/model"
)

// ErrSchema is returned when a table lacks a required column.
var ErrSchema = errors.New("schema mismatch")

// DefaultRoundSeconds is the round length assumed when a fight's time format
// is unknown.
const DefaultRoundSeconds = 300

// table is a CSV file with its header indexed.
type table struct {
	name   string
	header map[string]int
	rows   [][]string
}

func readTable(name string, r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no header", ErrSchema, name)
	}
	t := &table{name: name, header: make(map[string]int), rows: records[1:]}
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := t.header[h]; !dup {
			t.header[h] = i
		}
	}
	return t, nil
}

// require checks that one of each alias group is present.
func (t *table) require(groups ...[]string) error {
	var missing []string
	for _, g := range groups {
		if t.col(g...) < 0 {
			missing = append(missing, strings.Join(g, "|"))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing column(s) %s", ErrSchema, t.name, strings.Join(missing, ", "))
	}
	return nil
}

func (t *table) col(names ...string) int {
	for _, n := range names {
		if i, ok := t.header[n]; ok {
			return i
		}
	}
	return -1
}

// get returns the first present alias's cell in row, trimmed.
func (t *table) get(row []string, names ...string) string {
	i := t.col(names...)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

var (
	colFighterID = []string{"fighter_id", "fighter_url", "id"}
	colEventID   = []string{"event_id", "event_url"}
	colFightID   = []string{"fight_id", "fight_url"}
	colRedID     = []string{"red_fighter_id", "red_fighter"}
	colBlueID    = []string{"blue_fighter_id", "blue_fighter"}
)

// ParseFighters reads the fighters table.
func ParseFighters(r io.Reader) ([]model.Fighter, error) {
	t, err := readTable("fighters", r)
	if err != nil {
		return nil, err
	}
	if err := t.require(colFighterID, []string{"name"}); err != nil {
		return nil, err
	}
	out := make([]model.Fighter, 0, len(t.rows))
	for _, row := range t.rows {
		f := model.Fighter{
			ID:        t.get(row, colFighterID...),
			Name:      t.get(row, "name"),
			HeightIn:  ParseHeight(t.get(row, "height")),
			ReachIn:   ParseReach(t.get(row, "reach")),
			WeightLbs: ParseWeight(t.get(row, "weight")),
			Stance:    t.get(row, "stance"),
		}
		if blank(f.Stance) {
			f.Stance = ""
		}
		if dob, ok := ParseDate(t.get(row, "dob", "date_of_birth")); ok {
			f.DOB = &dob
		}
		out = append(out, f)
	}
	return out, nil
}

// ParseEvents reads the events table. Events whose date cannot be parsed keep
// a zero Date.
func ParseEvents(r io.Reader) ([]model.Event, error) {
	t, err := readTable("events", r)
	if err != nil {
		return nil, err
	}
	if err := t.require(colEventID, []string{"date", "event_date"}); err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(t.rows))
	for _, row := range t.rows {
		e := model.Event{
			ID:       t.get(row, colEventID...),
			Name:     t.get(row, "name", "event_name"),
			Location: t.get(row, "location"),
		}
		if d, ok := ParseDate(t.get(row, "date", "event_date")); ok {
			e.Date = d
		}
		out = append(out, e)
	}
	return out, nil
}

// ParseFights reads the fights table. roundSeconds is used for fights whose
// time format is unknown.
func ParseFights(r io.Reader, roundSeconds int) ([]model.Fight, error) {
	t, err := readTable("fights", r)
	if err != nil {
		return nil, err
	}
	if err := t.require(colFightID, colEventID, colRedID, colBlueID, []string{"winner"}); err != nil {
		return nil, err
	}
	if roundSeconds <= 0 {
		roundSeconds = DefaultRoundSeconds
	}
	out := make([]model.Fight, 0, len(t.rows))
	for i, row := range t.rows {
		f := model.Fight{
			ID:          t.get(row, colFightID...),
			EventID:     t.get(row, colEventID...),
			Method:      t.get(row, "method"),
			WeightClass: t.get(row, "weight_class"),
			EndRound:    ParseInt(t.get(row, "round")),
			EndTimeSec:  ParseClock(t.get(row, "time")),
		}
		f.BoutOrder = ParseInt(t.get(row, "bout_order")).Or(i)
		f.Red = t.corner(row, "red", t.get(row, colRedID...))
		f.Blue = t.corner(row, "blue", t.get(row, colBlueID...))
		f.DurationSec = FightDuration(f.EndRound, f.EndTimeSec, t.get(row, "time_format"), roundSeconds)

		result, side := ParseResult(t.get(row, "winner"), f.Method)
		f.Result = result
		switch side {
		case "red":
			f.WinnerID = f.Red.FighterID
		case "blue":
			f.WinnerID = f.Blue.FighterID
		}
		out = append(out, f)
	}
	return out, nil
}

// corner reads one side's bout totals. Split columns (red_sig_str_landed,
// red_sig_str_attempted) win over the combined "X of Y" column (red_sig_str).
func (t *table) corner(row []string, side, fighterID string) model.CornerStats {
	c := model.CornerStats{
		FighterID:   fighterID,
		Knockdowns:  ParseInt(t.get(row, side+"_kd")),
		SubAttempts: ParseInt(t.get(row, side+"_sub_att", side+"_sub")),
		ControlSec:  ParseClock(t.get(row, side+"_ctrl")),
	}
	c.SigStrLanded, c.SigStrAttempted = t.madeOf(row, side+"_sig_str")
	c.TDLanded, c.TDAttempted = t.madeOf(row, side+"_td")
	return c
}

func (t *table) madeOf(row []string, prefix string) (made, attempted model.Int) {
	if t.col(prefix+"_landed") >= 0 || t.col(prefix+"_attempted") >= 0 {
		made = ParseInt(t.get(row, prefix+"_landed"))
		attempted = ParseInt(t.get(row, prefix+"_attempted"))
		if made.Valid && attempted.Valid && made.Val > attempted.Val {
			return model.Int{}, model.Int{}
		}
		return made, attempted
	}
	return ParseMadeOf(t.get(row, prefix))
}
