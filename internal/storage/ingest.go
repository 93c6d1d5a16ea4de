package storage

import (
	"github.com/jmoiron/sqlx"

	"github.com/pable/go-fight-metrics/internal/model"
)

// IngestReport summarises one Ingest call.
type IngestReport struct {
	Fighters int // fighters written, new or with attributes filled in
	Events   int // events newly stored
	Fights   int // fights newly stored

	// Skipped counts events and fights whose id was already stored.
	Skipped int

	DuplicateFighters int
	DuplicateEvents   int
	DuplicateFights   int
	Issues            []model.Issue
}

// Ingest stores a parsed batch in a single transaction. Within the batch the
// first record of each id is kept; later copies are reported as integrity
// issues and never reach the store. Events and fights already stored are left
// untouched.
func (db *DB) Ingest(rs model.RecordSet) (*IngestReport, error) {
	rep := &IngestReport{}
	fighters := firstByID(rs.Fighters, func(f model.Fighter) string { return f.ID }, "fighter", &rep.DuplicateFighters, &rep.Issues)
	events := firstByID(rs.Events, func(e model.Event) string { return e.ID }, "event", &rep.DuplicateEvents, &rep.Issues)
	fights := firstByID(rs.Fights, func(f model.Fight) string { return f.ID }, "fight", &rep.DuplicateFights, &rep.Issues)

	err := db.inTx(func(tx *sqlx.Tx) error {
		if err := upsertFighters(tx, fighters); err != nil {
			return err
		}
		n, err := insertEvents(tx, events)
		if err != nil {
			return err
		}
		rep.Events = n
		if n, err = insertFights(tx, fights); err != nil {
			return err
		}
		rep.Fights = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	rep.Fighters = len(fighters)
	rep.Skipped = len(events) - rep.Events + len(fights) - rep.Fights
	return rep, nil
}

// firstByID drops every record whose id was already seen earlier in items.
func firstByID[T any](items []T, id func(T) string, kind string, dups *int, issues *[]model.Issue) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		key := id(it)
		if _, dup := seen[key]; dup {
			*dups++
			*issues = append(*issues, model.Issue{
				Kind:    model.IssueIntegrity,
				Entity:  key,
				Message: "duplicate " + kind + " record in batch; later copy discarded",
			})
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
