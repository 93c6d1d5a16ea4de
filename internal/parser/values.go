package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pable/go-fight-metrics/internal/model"
)

// blank reports whether a scraped cell carries no value. The scraper writes
// "--" for unknown attributes.
func blank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "--" || s == "---" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none")
}

// ParseInt parses a plain integer cell.
func ParseInt(s string) model.Int {
	if blank(s) {
		return model.Int{}
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		// pandas writes integer columns with missing values as floats ("12.0").
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if ferr != nil || f != float64(int(f)) {
			return model.Int{}
		}
		return model.Some(int(f))
	}
	return model.Some(n)
}

// ParseMadeOf parses "20 of 45" into (20, 45). Either side is missing when
// the cell cannot be read.
func ParseMadeOf(s string) (made, attempted model.Int) {
	if blank(s) {
		return
	}
	parts := strings.Split(s, "of")
	if len(parts) != 2 {
		return
	}
	m := ParseInt(parts[0])
	a := ParseInt(parts[1])
	if !m.Valid || !a.Valid {
		return
	}
	return m, a
}

// ParseClock parses "M:SS" into seconds.
func ParseClock(s string) model.Int {
	if blank(s) {
		return model.Int{}
	}
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return model.Int{}
	}
	m, err1 := strconv.Atoi(parts[0])
	sec, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || m < 0 || sec < 0 || sec >= 60 {
		return model.Int{}
	}
	return model.Some(m*60 + sec)
}

var heightRe = regexp.MustCompile(`^(\d+)'\s*(\d+(?:\.\d+)?)?"?$`)

// ParseHeight parses `5' 11"` into inches. A bare number is taken as inches.
func ParseHeight(s string) model.Float {
	if blank(s) {
		return model.Float{}
	}
	s = strings.TrimSpace(s)
	if m := heightRe.FindStringSubmatch(s); m != nil {
		ft, _ := strconv.ParseFloat(m[1], 64)
		in := 0.0
		if m[2] != "" {
			in, _ = strconv.ParseFloat(m[2], 64)
		}
		return model.SomeFloat(ft*12 + in)
	}
	return parseNumberWithUnit(s)
}

// ParseReach parses `72"` or `72.0` into inches.
func ParseReach(s string) model.Float { return parseNumberWithUnit(s) }

// ParseWeight parses "155 lbs." into pounds.
func ParseWeight(s string) model.Float { return parseNumberWithUnit(s) }

var numberRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)

func parseNumberWithUnit(s string) model.Float {
	if blank(s) {
		return model.Float{}
	}
	m := numberRe.FindStringSubmatch(s)
	if m == nil {
		return model.Float{}
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return model.Float{}
	}
	return model.SomeFloat(v)
}

var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	time.RFC3339,
}

// ParseDate parses the date formats the scraper emits. ok is false when none
// of them match.
func ParseDate(s string) (time.Time, bool) {
	if blank(s) {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseResult maps the winner cell to a result. The scraper writes "Red" or
// "Blue" for the winning corner and leaves the cell empty otherwise.
func ParseResult(winner, method string) (model.Result, string) {
	w := strings.ToLower(strings.TrimSpace(winner))
	switch w {
	case "red", "r":
		return model.ResultWin, "red"
	case "blue", "b":
		return model.ResultWin, "blue"
	case "draw", "d":
		return model.ResultDraw, ""
	case "nc", "no contest", "no-contest":
		return model.ResultNoContest, ""
	}
	m := strings.ToLower(method)
	switch {
	case strings.Contains(m, "overturned"), strings.Contains(m, "no contest"), m == "nc":
		return model.ResultNoContest, ""
	case strings.Contains(m, "draw"):
		return model.ResultDraw, ""
	}
	return model.ResultUnknown, ""
}

var roundListRe = regexp.MustCompile(`\(([\d\-]+)\)`)

// roundLengths returns per-round lengths in seconds from a time format such
// as "3 Rnd (5-5-5)". ok is false when the format carries no schedule.
func roundLengths(format string) ([]int, bool) {
	m := roundListRe.FindStringSubmatch(format)
	if m == nil {
		return nil, false
	}
	var out []int
	for _, p := range strings.Split(m[1], "-") {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return nil, false
		}
		out = append(out, n*60)
	}
	return out, len(out) > 0
}

// FightDuration returns the elapsed fight time in seconds: full rounds before
// the final one plus the final round's clock. roundSeconds is used when the
// time format has no schedule.
func FightDuration(round, clock model.Int, timeFormat string, roundSeconds int) model.Int {
	if !round.Valid || !clock.Valid || round.Val < 1 {
		return model.Int{}
	}
	total := clock.Val
	lengths, ok := roundLengths(timeFormat)
	if ok && round.Val > len(lengths) {
		return model.Int{}
	}
	for r := 1; r < round.Val; r++ {
		if ok {
			total += lengths[r-1]
		} else {
			total += roundSeconds
		}
	}
	return model.Some(total)
}
