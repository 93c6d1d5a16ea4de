package model

import "time"

// Result is the recorded result of a fight as a whole.
type Result int

const (
	ResultUnknown   Result = 0
	ResultWin       Result = 1
	ResultDraw      Result = 2
	ResultNoContest Result = 3
)

func (r Result) String() string {
	switch r {
	case ResultWin:
		return "win"
	case ResultDraw:
		return "draw"
	case ResultNoContest:
		return "nc"
	default:
		return "?"
	}
}

// Outcome is a fight result from one fighter's point of view.
type Outcome int

const (
	OutcomeNoContest Outcome = 0 // also used for unknown results
	OutcomeWin       Outcome = 1
	OutcomeLoss      Outcome = 2
	OutcomeDraw      Outcome = 3
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "W"
	case OutcomeLoss:
		return "L"
	case OutcomeDraw:
		return "D"
	default:
		return "NC"
	}
}

// Decisive reports whether the outcome counts toward the win/loss record.
func (o Outcome) Decisive() bool {
	return o == OutcomeWin || o == OutcomeLoss || o == OutcomeDraw
}

// ---- Raw records produced by the scraper ----

// Fighter holds identity and physical attributes. Physical attributes never
// change after ingestion; career statistics come from the fight history.
type Fighter struct {
	ID        string
	Name      string
	HeightIn  Float
	ReachIn   Float
	WeightLbs Float
	Stance    string
	DOB       *time.Time
}

// Event is a dated card of fights.
type Event struct {
	ID       string
	Name     string
	Date     time.Time // zero when the scraper could not parse it
	Location string
}

// CornerStats are one fighter's bout totals. Every counter may be missing
// independently when the scraper could not read it.
type CornerStats struct {
	FighterID       string
	Knockdowns      Int
	SigStrLanded    Int
	SigStrAttempted Int
	TDLanded        Int
	TDAttempted     Int
	SubAttempts     Int
	ControlSec      Int
}

// Fight is one bout on an event card. Red and Blue follow the scraper's
// corner order.
type Fight struct {
	ID          string
	EventID     string
	BoutOrder   int
	Red         CornerStats
	Blue        CornerStats
	Result      Result
	WinnerID    string // set only when Result == ResultWin
	Method      string
	WeightClass string
	EndRound    Int
	EndTimeSec  Int
	DurationSec Int
}

// OutcomeFor returns the fight outcome seen from fighterID.
func (f *Fight) OutcomeFor(fighterID string) Outcome {
	switch f.Result {
	case ResultWin:
		if f.WinnerID == fighterID {
			return OutcomeWin
		}
		return OutcomeLoss
	case ResultDraw:
		return OutcomeDraw
	default:
		return OutcomeNoContest
	}
}

// HasWinner reports whether the fight has a well-defined winner.
func (f *Fight) HasWinner() bool { return f.Result == ResultWin }

// Corners returns (own, opponent) stats for fighterID. ok is false when the
// fighter did not take part in the fight.
func (f *Fight) Corners(fighterID string) (own, opp CornerStats, ok bool) {
	switch fighterID {
	case f.Red.FighterID:
		return f.Red, f.Blue, true
	case f.Blue.FighterID:
		return f.Blue, f.Red, true
	}
	return CornerStats{}, CornerStats{}, false
}

// IsFinish reports whether the method ended the fight before the judges.
func (f *Fight) IsFinish() bool {
	switch methodClass(f.Method) {
	case "KO", "SUB":
		return true
	}
	return false
}

// RecordSet is the full raw input of one pipeline run. All values are copies;
// nothing aliases the store.
type RecordSet struct {
	Fighters []Fighter
	Events   []Event
	Fights   []Fight
}
