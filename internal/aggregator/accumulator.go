package aggregator

import (
	"time"

	"github.com/pable/go-fight-metrics/internal/model"
)

// rate is a running numerator/denominator pair. Both sides only grow when
// both inputs of a fight are present, so partial records never dilute it.
type rate struct {
	num, den float64
}

func (r *rate) add(num, den model.Int) {
	if !num.Valid || !den.Valid {
		return
	}
	r.num += float64(num.Val)
	r.den += float64(den.Val)
}

// value returns num/den*scale, missing when den is zero.
func (r rate) value(scale float64) model.Float {
	if r.den == 0 {
		return model.Float{}
	}
	return model.SomeFloat(r.num / r.den * scale)
}

// complement returns 1 − num/den, missing when den is zero.
func (r rate) complement() model.Float {
	if r.den == 0 {
		return model.Float{}
	}
	return model.SomeFloat(1 - r.num/r.den)
}

// accumulator is the career state of one fighter. It is a plain value owned
// by a single BuildTimeline call.
type accumulator struct {
	fights     int
	wins       int
	losses     int
	draws      int
	noContests int
	finishWins int
	winStreak  int

	landedPerMin   rate
	absorbedPerMin rate
	strAcc         rate
	strDef         rate // opponent landed / opponent attempted
	damage         rate // (landed − absorbed) per fight
	kdPer15        rate
	tdPer15        rate
	tdAttPer15     rate
	tdAcc          rate
	tdDef          rate // opponent td landed / opponent td attempted
	subPer15       rate
	control        rate

	recent   []bool // last LongWindow decisive outcomes, oldest first, true = win
	lastDate time.Time
}

func (a *accumulator) fold(e Entry) {
	a.fights++
	switch e.Outcome {
	case model.OutcomeWin:
		a.wins++
		a.winStreak++
		if e.Finish {
			a.finishWins++
		}
	case model.OutcomeLoss:
		a.losses++
		a.winStreak = 0
	case model.OutcomeDraw:
		a.draws++
		a.winStreak = 0
	default:
		a.noContests++
	}
	if e.Outcome.Decisive() {
		a.recent = append(a.recent, e.Outcome == model.OutcomeWin)
		if len(a.recent) > LongWindow {
			a.recent = a.recent[len(a.recent)-LongWindow:]
		}
	}

	// No-contests still contribute their raw statistics.
	dur := e.DurationSec
	a.landedPerMin.add(e.Own.SigStrLanded, dur)
	a.absorbedPerMin.add(e.Opp.SigStrLanded, dur)
	a.strAcc.add(e.Own.SigStrLanded, e.Own.SigStrAttempted)
	a.strDef.add(e.Opp.SigStrLanded, e.Opp.SigStrAttempted)
	if e.Own.SigStrLanded.Valid && e.Opp.SigStrLanded.Valid {
		a.damage.add(model.Some(e.Own.SigStrLanded.Val-e.Opp.SigStrLanded.Val), model.Some(1))
	}
	a.kdPer15.add(e.Own.Knockdowns, dur)
	a.tdPer15.add(e.Own.TDLanded, dur)
	a.tdAttPer15.add(e.Own.TDAttempted, dur)
	a.tdAcc.add(e.Own.TDLanded, e.Own.TDAttempted)
	a.tdDef.add(e.Opp.TDLanded, e.Opp.TDAttempted)
	a.subPer15.add(e.Own.SubAttempts, dur)
	a.control.add(e.Own.ControlSec, dur)

	if e.Date.After(a.lastDate) {
		a.lastDate = e.Date
	}
}

// snapshot renders the current state as the pre-fight snapshot for e.
func (a *accumulator) snapshot(f model.Fighter, e Entry) model.Snapshot {
	s := model.Snapshot{
		FighterID:  f.ID,
		FightID:    e.FightID,
		Date:       e.Date,
		FightCount: a.fights,
		Wins:       a.wins,
		Losses:     a.losses,
		Draws:      a.draws,
		NoContests: a.noContests,
		WinStreak:  a.winStreak,

		SLpM:         a.landedPerMin.value(secondsPerMinute),
		SApM:         a.absorbedPerMin.value(secondsPerMinute),
		StrAcc:       a.strAcc.value(1),
		StrDef:       a.strDef.complement(),
		DamageMargin: a.damage.value(1),
		KDAvg:        a.kdPer15.value(secondsPer15),
		TDAvg:        a.tdPer15.value(secondsPer15),
		TDAttPer15:   a.tdAttPer15.value(secondsPer15),
		TDAcc:        a.tdAcc.value(1),
		TDDef:        a.tdDef.complement(),
		SubAvg:       a.subPer15.value(secondsPer15),
		ControlPct:   a.control.value(1),

		Last3WinRate: a.winRate(ShortWindow),
		Last5WinRate: a.winRate(LongWindow),
	}
	if a.wins > 0 {
		s.FinishRate = model.SomeFloat(float64(a.finishWins) / float64(a.wins))
	}
	if !a.lastDate.IsZero() {
		s.DaysSinceLast = model.Some(float64(daysBetween(a.lastDate, e.Date)))
	}
	if f.DOB != nil && !f.DOB.IsZero() {
		s.AgeYears = model.SomeFloat(float64(daysBetween(*f.DOB, e.Date)) / daysPerYear)
	}
	return s
}

// winRate is the share of wins over the last n decisive outcomes, or over all
// of them when fewer than n exist.
func (a *accumulator) winRate(n int) model.Float {
	if len(a.recent) == 0 {
		return model.Float{}
	}
	window := a.recent
	if len(window) > n {
		window = window[len(window)-n:]
	}
	wins := 0
	for _, w := range window {
		if w {
			wins++
		}
	}
	return model.SomeFloat(float64(wins) / float64(len(window)))
}
