// Package calendar holds the week/day arithmetic shared by the tracker,
// detailed and report views.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
	ClockLayout = "15:04"

	DefaultZone = "Europe/Berlin"
)

var ErrInvalidClock = errors.New("calendar: invalid wall clock")

// FirstDay is the weekday a user's week starts on.
type FirstDay time.Weekday

const (
	Sunday   = FirstDay(time.Sunday)
	Monday   = FirstDay(time.Monday)
	Saturday = FirstDay(time.Saturday)
)

// ParseFirstDay accepts monday, sunday or saturday. Anything else is Monday.
func ParseFirstDay(s string) FirstDay {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday":
		return Sunday
	case "saturday":
		return Saturday
	default:
		return Monday
	}
}

func (f FirstDay) String() string {
	return strings.ToLower(time.Weekday(f).String())
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart returns the first day of the week containing date.
func WeekStart(date time.Time, first FirstDay) time.Time {
	day := Midnight(date)
	diff := (int(day.Weekday()) - int(first) + 7) % 7
	return day.AddDate(0, 0, -diff)
}

// Days expands start into n consecutive calendar dates.
func Days(start time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	base := Midnight(start)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.AddDate(0, 0, i)
	}
	return out
}

func DateKey(t time.Time) string  { return t.Format(DayLayout) }
func MonthKey(t time.Time) string { return t.Format(MonthLayout) }

// ParseDay parses a YYYY-MM-DD key as midnight UTC.
func ParseDay(key string) (time.Time, error) {
	return time.Parse(DayLayout, strings.TrimSpace(key))
}

// Range is a fixed run of calendar days used as table columns.
type Range struct {
	Start time.Time
	Days  int
}

func WeekOf(date time.Time, first FirstDay) Range {
	return Range{Start: WeekStart(date, first), Days: 7}
}

// MonthOf covers every day of date's calendar month.
func MonthOf(date time.Time) Range {
	day := Midnight(date)
	first := day.AddDate(0, 0, 1-day.Day())
	return Range{Start: first, Days: first.AddDate(0, 1, -1).Day()}
}

func (r Range) Dates() []time.Time { return Days(r.Start, r.Days) }

// End is the last day inside the range.
func (r Range) End() time.Time {
	if r.Days <= 0 {
		return Midnight(r.Start)
	}
	return Midnight(r.Start).AddDate(0, 0, r.Days-1)
}

func (r Range) Keys() []string {
	dates := r.Dates()
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = DateKey(d)
	}
	return out
}

// Index returns the column of a YYYY-MM-DD key, or -1 outside the range.
func (r Range) Index(dayKey string) int {
	for i, k := range r.Keys() {
		if k == dayKey {
			return i
		}
	}
	return -1
}

func (r Range) Contains(dayKey string) bool { return r.Index(dayKey) >= 0 }

// Shift moves the range by whole ranges (e.g. previous/next week).
func (r Range) Shift(n int) Range {
	return Range{Start: Midnight(r.Start).AddDate(0, 0, n*r.Days), Days: r.Days}
}

// LoadZone resolves an IANA zone name; empty means DefaultZone.
func LoadZone(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("calendar: load zone %q: %w", name, err)
	}
	return loc, nil
}

// WallClock interprets date and HH:MM as a wall clock reading in loc.
func WallClock(loc *time.Location, date, clock string) (time.Time, error) {
	day, err := ParseDay(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: parse date %q: %w", date, err)
	}
	hm, err := time.Parse(ClockLayout, normalizeClock(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, hm.Hour(), hm.Minute(), 0, 0, loc), nil
}

// Span resolves a same-day start/end pair; an end before the start
// belongs to the following day.
func Span(loc *time.Location, date, start, end string) (time.Time, time.Time, error) {
	from, err := WallClock(loc, date, start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := WallClock(loc, date, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		y, m, d := to.Date()
		to = time.Date(y, m, d+1, to.Hour(), to.Minute(), 0, 0, loc)
	}
	return from, to, nil
}

// normalizeClock pads "9:05" to "09:05".
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 4 && s[1] == ':' {
		return "0" + s
	}
	return s
}
