package model

import "time"

// Snapshot is a fighter's career state immediately before one fight. It only
// reflects fights dated strictly earlier than Date.
type Snapshot struct {
	FighterID string
	FightID   string
	Date      time.Time

	FightCount int
	Wins       int
	Losses     int
	Draws      int
	NoContests int

	SLpM         Float // significant strikes landed per minute
	SApM         Float // significant strikes absorbed per minute
	StrAcc       Float
	StrDef       Float
	DamageMargin Float // (landed − absorbed) per fight
	KDAvg        Float // knockdowns per 15 minutes

	TDAvg      Float // takedowns landed per 15 minutes
	TDAttPer15 Float
	TDAcc      Float
	TDDef      Float
	SubAvg     Float // submission attempts per 15 minutes
	ControlPct Float

	FinishRate   Float
	Last3WinRate Float
	Last5WinRate Float
	WinStreak    int

	DaysSinceLast Float
	AgeYears      Float
}

// IsDebut reports whether the snapshot has no prior fights behind it.
func (s Snapshot) IsDebut() bool { return s.FightCount == 0 }

// FeatureRow is one labeled dataset row. Features align with the column list
// of the feature synthesizer.
type FeatureRow struct {
	FightID    string
	FighterAID string
	FighterBID string
	EventID    string
	EventDate  time.Time
	Mirrored   bool
	Label      Int // 1 if A won, 0 if B won, missing otherwise
	Features   []Float
}

// MissingCount returns the number of missing features in the row.
func (r FeatureRow) MissingCount() int {
	n := 0
	for _, f := range r.Features {
		if !f.Valid {
			n++
		}
	}
	return n
}
