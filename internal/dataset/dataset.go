// Package dataset assembles the labeled feature table for every historical
// fight.
//
// Assembly runs in two phases separated by a barrier: first every fighter's
// timeline is folded (independently, in parallel), then every fight looks up
// its two pre-fight snapshots and is synthesized. Fights are never re-scanned
// per row.
package dataset

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-fight-metrics/internal/aggregator"
	"github.com/pable/go-fight-metrics/internal/features"
	"github.com/pable/go-fight-metrics/internal/model"
)

// Result is the output of one assembly run.
type Result struct {
	Rows        []model.FeatureRow
	Timelines   map[string]*aggregator.Timeline
	Diagnostics Diagnostics
}

// datedFight is a fight that passed integrity checks, with its event date.
type datedFight struct {
	fight model.Fight
	date  time.Time
}

func (d datedFight) less(o datedFight) bool {
	if !d.date.Equal(o.date) {
		return d.date.Before(o.date)
	}
	if d.fight.EventID != o.fight.EventID {
		return d.fight.EventID < o.fight.EventID
	}
	if d.fight.BoutOrder != o.fight.BoutOrder {
		return d.fight.BoutOrder < o.fight.BoutOrder
	}
	return d.fight.ID < o.fight.ID
}

// Assemble builds the feature table. Integrity problems drop the offending
// record and are reported in the diagnostics; ErrEmptyInput and ErrSchema
// abort the run with no partial result.
func Assemble(ctx context.Context, records model.RecordSet, opts Options, log *zap.SugaredLogger) (*Result, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	if err := checkStructure(records); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers == 0 {
		workers = DefaultOptions().Workers
	}

	diag := Diagnostics{
		FightersIn: len(records.Fighters),
		EventsIn:   len(records.Events),
		FightsIn:   len(records.Fights),
	}

	fighters, events := indexRecords(records, &diag)
	accepted := acceptFights(records.Fights, fighters, events, &diag)
	log.Infow("records indexed",
		"fighters", len(fighters), "events", len(events),
		"fights_in", diag.FightsIn, "fights_accepted", len(accepted))

	// ---- Phase 1: one timeline per fighter. ----

	entries := make(map[string][]aggregator.Entry)
	for i := range accepted {
		df := &accepted[i]
		for _, id := range []string{df.fight.Red.FighterID, df.fight.Blue.FighterID} {
			e, _ := aggregator.EntryFor(&df.fight, id, df.date)
			entries[id] = append(entries[id], e)
		}
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	timelines := make([]*aggregator.Timeline, len(ids))
	tlIssues := make([][]model.Issue, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			timelines[i], tlIssues[i] = aggregator.BuildTimeline(fighters[id], entries[id])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build timelines: %w", err)
	}

	byFighter := make(map[string]*aggregator.Timeline, len(ids))
	for i, id := range ids {
		byFighter[id] = timelines[i]
		for _, is := range tlIssues[i] {
			if is.Kind == model.IssueOrdering {
				diag.SameDateConflicts++
			}
			diag.addIssue(is)
		}
	}
	log.Infow("timelines built", "fighters", len(ids))

	// ---- Phase 2: one synthesis per fight. ----

	sort.SliceStable(accepted, func(i, j int) bool { return accepted[i].less(accepted[j]) })

	slots := make([][]model.FeatureRow, len(accepted))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range accepted {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := synthesizeFight(&accepted[i], fighters, byFighter, opts)
			if err != nil {
				return err
			}
			slots[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("synthesize fights: %w", err)
	}

	res := &Result{Timelines: byFighter}
	debuts := make(map[string]struct{})
	for i, rows := range slots {
		if len(rows) == 0 {
			diag.UnlabeledDropped++
			continue
		}
		if !accepted[i].fight.HasWinner() {
			diag.UnlabeledKept++
		}
		for _, r := range rows {
			diag.observeRow(r, opts.MissingThreshold)
			res.Rows = append(res.Rows, r)
		}
		for _, id := range []string{accepted[i].fight.Red.FighterID, accepted[i].fight.Blue.FighterID} {
			if s, _ := byFighter[id].At(accepted[i].fight.ID); s.IsDebut() {
				debuts[id] = struct{}{}
			}
		}
	}
	diag.FightsUsed = len(accepted) - diag.UnlabeledDropped
	diag.DebutFighters = len(debuts)
	res.Diagnostics = diag

	log.Infow("dataset assembled",
		"rows", diag.RowsOut, "high_missing_rows", diag.HighMissingRows,
		"debut_fighters", diag.DebutFighters, "issues", len(diag.Issues))
	for _, is := range diag.Issues {
		if is.Kind == model.IssueIntegrity {
			log.Warnw("integrity issue", "entity", is.Entity, "message", is.Message)
		} else {
			log.Debugw("ordering issue", "entity", is.Entity, "message", is.Message)
		}
	}
	return res, nil
}

// checkStructure rejects input that cannot form a dataset at all.
func checkStructure(records model.RecordSet) error {
	if len(records.Fighters) == 0 {
		return fmt.Errorf("%w: no fighters", ErrEmptyInput)
	}
	if len(records.Fights) == 0 {
		return fmt.Errorf("%w: no fights", ErrEmptyInput)
	}
	for i, f := range records.Fighters {
		if f.ID == "" {
			return fmt.Errorf("%w: fighter #%d has no id", ErrSchema, i)
		}
	}
	for i, e := range records.Events {
		if e.ID == "" {
			return fmt.Errorf("%w: event #%d has no id", ErrSchema, i)
		}
	}
	for i, f := range records.Fights {
		if f.ID == "" || f.EventID == "" || f.Red.FighterID == "" || f.Blue.FighterID == "" {
			return fmt.Errorf("%w: fight #%d is missing an id or reference", ErrSchema, i)
		}
	}
	return nil
}

// indexRecords keys fighters and events by id, keeping the first of any
// duplicate.
func indexRecords(records model.RecordSet, diag *Diagnostics) (map[string]model.Fighter, map[string]model.Event) {
	fighters := make(map[string]model.Fighter, len(records.Fighters))
	for _, f := range records.Fighters {
		if _, dup := fighters[f.ID]; dup {
			diag.DuplicateFighters++
			diag.addIssue(model.Issue{Kind: model.IssueIntegrity, Entity: f.ID, Message: "duplicate fighter record; later copy discarded"})
			continue
		}
		fighters[f.ID] = f
	}
	events := make(map[string]model.Event, len(records.Events))
	for _, e := range records.Events {
		if _, dup := events[e.ID]; dup {
			diag.addIssue(model.Issue{Kind: model.IssueIntegrity, Entity: e.ID, Message: "duplicate event record; later copy discarded"})
			continue
		}
		events[e.ID] = e
	}
	return fighters, events
}

// acceptFights applies the per-fight integrity rules in input order.
func acceptFights(fights []model.Fight, fighters map[string]model.Fighter, events map[string]model.Event, diag *Diagnostics) []datedFight {
	seen := make(map[string]struct{}, len(fights))
	out := make([]datedFight, 0, len(fights))
	reject := func(f model.Fight, msg string) {
		diag.addIssue(model.Issue{Kind: model.IssueIntegrity, Entity: f.ID, Message: msg})
	}
	for _, f := range fights {
		if _, dup := seen[f.ID]; dup {
			diag.DuplicateFights++
			reject(f, "duplicate fight record; later copy discarded")
			continue
		}
		seen[f.ID] = struct{}{}

		ev, ok := events[f.EventID]
		if !ok {
			diag.UnknownRefs++
			reject(f, fmt.Sprintf("unknown event %s", f.EventID))
			continue
		}
		if _, ok := fighters[f.Red.FighterID]; !ok {
			diag.UnknownRefs++
			reject(f, fmt.Sprintf("unknown fighter %s", f.Red.FighterID))
			continue
		}
		if _, ok := fighters[f.Blue.FighterID]; !ok {
			diag.UnknownRefs++
			reject(f, fmt.Sprintf("unknown fighter %s", f.Blue.FighterID))
			continue
		}
		if f.Red.FighterID == f.Blue.FighterID {
			diag.SelfPairings++
			reject(f, fmt.Sprintf("fighter %s paired with itself", f.Red.FighterID))
			continue
		}
		if f.Result == model.ResultWin && f.WinnerID != f.Red.FighterID && f.WinnerID != f.Blue.FighterID {
			diag.UnknownRefs++
			reject(f, fmt.Sprintf("winner %q is not in the fight", f.WinnerID))
			continue
		}
		if ev.Date.IsZero() {
			diag.UndatedFights++
			diag.addIssue(model.Issue{
				Kind: model.IssueOrdering, Entity: f.ID,
				Message: fmt.Sprintf("event %s has no date; fight cannot be placed in time", f.EventID),
			})
			continue
		}
		out = append(out, datedFight{fight: f, date: ev.Date})
	}
	return out
}

// synthesizeFight produces the rows for one fight: none when the fight is
// unlabeled and unlabeled rows are not kept, one or two otherwise.
func synthesizeFight(df *datedFight, fighters map[string]model.Fighter, timelines map[string]*aggregator.Timeline, opts Options) ([]model.FeatureRow, error) {
	f := &df.fight
	if !f.HasWinner() && !opts.KeepUnlabeled {
		return nil, nil
	}

	aID, bID := f.Red.FighterID, f.Blue.FighterID
	if opts.Orientation == OrientHashed && flipped(f.ID) {
		aID, bID = bID, aID
	}
	sa, ok := timelines[aID].At(f.ID)
	if !ok {
		return nil, fmt.Errorf("no snapshot for fighter %s in fight %s", aID, f.ID)
	}
	sb, ok := timelines[bID].At(f.ID)
	if !ok {
		return nil, fmt.Errorf("no snapshot for fighter %s in fight %s", bID, f.ID)
	}

	row := model.FeatureRow{
		FightID:    f.ID,
		FighterAID: aID,
		FighterBID: bID,
		EventID:    f.EventID,
		EventDate:  df.date,
		Features:   features.Synthesize(sa, sb, fighters[aID], fighters[bID]),
	}
	if f.HasWinner() {
		if f.WinnerID == aID {
			row.Label = model.Some(1)
		} else {
			row.Label = model.Some(0)
		}
	}
	rows := []model.FeatureRow{row}
	if opts.Mirror {
		rows = append(rows, features.Mirror(row))
	}
	return rows, nil
}

// flipped reports whether the hashed orientation puts the blue corner in A.
func flipped(fightID string) bool {
	h := fnv.New32a()
	h.Write([]byte(fightID))
	return h.Sum32()&1 == 1
}
