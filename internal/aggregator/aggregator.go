// Package aggregator builds per-fighter timelines of pre-fight snapshots.
//
// A timeline is a left fold over the fighter's fights in chronological order.
// Each snapshot is emitted from the accumulator before the fight it belongs to
// is folded in, so no snapshot can see its own fight or anything later.
package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/pable/go-fight-metrics/internal/model"
)

// Rolling form windows, in decisive fights.
const (
	ShortWindow = 3
	LongWindow  = 5
)

const (
	secondsPerMinute = 60.0
	secondsPer15     = 900.0
	daysPerYear      = 365.25
)

// Entry is one fight seen from a single fighter's side.
type Entry struct {
	FightID     string
	EventID     string
	BoutOrder   int
	Date        time.Time
	Own         model.CornerStats
	Opp         model.CornerStats
	Outcome     model.Outcome
	Finish      bool // fight ended by KO/TKO or submission
	DurationSec model.Int
}

// EntryFor projects a fight onto fighterID. ok is false when the fighter did
// not take part in it.
func EntryFor(f *model.Fight, fighterID string, date time.Time) (Entry, bool) {
	own, opp, ok := f.Corners(fighterID)
	if !ok {
		return Entry{}, false
	}
	return Entry{
		FightID:     f.ID,
		EventID:     f.EventID,
		BoutOrder:   f.BoutOrder,
		Date:        date,
		Own:         own,
		Opp:         opp,
		Outcome:     f.OutcomeFor(fighterID),
		Finish:      f.IsFinish(),
		DurationSec: f.DurationSec,
	}, true
}

// Timeline is a fighter's chronological list of pre-fight snapshots.
type Timeline struct {
	FighterID string
	Snapshots []model.Snapshot
	index     map[string]int
}

// At returns the pre-fight snapshot for fightID.
func (t *Timeline) At(fightID string) (model.Snapshot, bool) {
	if t == nil {
		return model.Snapshot{}, false
	}
	i, ok := t.index[fightID]
	if !ok {
		return model.Snapshot{}, false
	}
	return t.Snapshots[i], true
}

// Len returns the number of snapshots.
func (t *Timeline) Len() int { return len(t.Snapshots) }

// SortEntries orders entries by date, then event id, then bout order, then
// fight id. Every temporal computation in this package relies on this order.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entryLess(entries[i], entries[j])
	})
}

func entryLess(a, b Entry) bool {
	if !sameDay(a.Date, b.Date) {
		return a.Date.Before(b.Date)
	}
	if a.EventID != b.EventID {
		return a.EventID < b.EventID
	}
	if a.BoutOrder != b.BoutOrder {
		return a.BoutOrder < b.BoutOrder
	}
	return a.FightID < b.FightID
}

// BuildTimeline folds the fighter's entries into a timeline. Entries may be in
// any order. Duplicate fight ids keep the first entry by input order; undated
// entries are skipped. Both are reported as issues.
func BuildTimeline(fighter model.Fighter, entries []Entry) (*Timeline, []model.Issue) {
	var issues []model.Issue

	seen := make(map[string]struct{}, len(entries))
	clean := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.FightID]; dup {
			issues = append(issues, model.Issue{
				Kind:    model.IssueIntegrity,
				Entity:  e.FightID,
				Message: fmt.Sprintf("duplicate fight in timeline of fighter %s; later copy discarded", fighter.ID),
			})
			continue
		}
		seen[e.FightID] = struct{}{}
		if e.Date.IsZero() {
			issues = append(issues, model.Issue{
				Kind:    model.IssueOrdering,
				Entity:  e.FightID,
				Message: fmt.Sprintf("fight of fighter %s has no date; skipped", fighter.ID),
			})
			continue
		}
		clean = append(clean, e)
	}
	SortEntries(clean)

	tl := &Timeline{
		FighterID: fighter.ID,
		Snapshots: make([]model.Snapshot, 0, len(clean)),
		index:     make(map[string]int, len(clean)),
	}

	var acc accumulator
	for i := 0; i < len(clean); {
		// Fights on the same day form one group: all of them see the same
		// pre-day state and none of them sees another.
		j := i + 1
		for j < len(clean) && sameDay(clean[j].Date, clean[i].Date) {
			j++
		}
		if j-i > 1 {
			issues = append(issues, model.Issue{
				Kind:   model.IssueOrdering,
				Entity: fighter.ID,
				Message: fmt.Sprintf("%d fights on %s; excluded from each other's snapshots",
					j-i, clean[i].Date.Format("2006-01-02")),
			})
		}
		for _, e := range clean[i:j] {
			tl.index[e.FightID] = len(tl.Snapshots)
			tl.Snapshots = append(tl.Snapshots, acc.snapshot(fighter, e))
		}
		for _, e := range clean[i:j] {
			acc.fold(e)
		}
		i = j
	}
	return tl, issues
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// daysBetween returns the number of calendar days from a to b.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
