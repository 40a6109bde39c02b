package grouping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/model"
)

var ErrInvalidMode = errors.New("grouping: invalid mode")

type Mode string

const (
	ModeDay     Mode = "day"
	ModeWeek    Mode = "week"
	ModeMonth   Mode = "month"
	ModeProject Mode = "project"
)

var modeOrder = []Mode{ModeDay, ModeWeek, ModeMonth, ModeProject}

func (m Mode) IsValid() bool {
	switch m {
	case ModeDay, ModeWeek, ModeMonth, ModeProject:
		return true
	default:
		return false
	}
}

func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Next cycles day -> week -> month -> project -> day.
func (m Mode) Next() Mode {
	for i, candidate := range modeOrder {
		if candidate == m {
			return modeOrder[(i+1)%len(modeOrder)]
		}
	}
	return ModeDay
}

// Bucket is one group of records with its summed duration in seconds.
type Bucket struct {
	Key       string
	UserID    string
	ProjectID string
	Period    string
	Records   []model.TimeRecord
	Total     int64
}

// Key computes the bucket key of rec for mode.
func Key(rec model.TimeRecord, mode Mode, first calendar.FirstDay) string {
	user := rec.UserID
	switch mode {
	case ModeWeek:
		return user + "_week_" + weekPeriod(rec, first)
	case ModeMonth:
		return user + "_month_" + monthPeriod(rec)
	case ModeProject:
		return user + "_" + rec.ProjectKey()
	default:
		return user + "_" + rec.ProjectKey() + "_" + rec.Day()
	}
}

func period(rec model.TimeRecord, mode Mode, first calendar.FirstDay) string {
	switch mode {
	case ModeWeek:
		return weekPeriod(rec, first)
	case ModeMonth:
		return monthPeriod(rec)
	case ModeProject:
		return ""
	default:
		return rec.Day()
	}
}

func weekPeriod(rec model.TimeRecord, first calendar.FirstDay) string {
	day, err := calendar.ParseDay(rec.Day())
	if err != nil {
		return rec.Day()
	}
	return calendar.DateKey(calendar.WeekStart(day, first))
}

func monthPeriod(rec model.TimeRecord) string {
	day := rec.Day()
	if len(day) >= len(calendar.MonthLayout) {
		return day[:len(calendar.MonthLayout)]
	}
	return day
}

// Group buckets records by mode. Buckets appear in first-seen order.
func Group(records []model.TimeRecord, mode Mode, first calendar.FirstDay) []Bucket {
	if !mode.IsValid() {
		mode = ModeDay
	}
	index := make(map[string]int)
	out := make([]Bucket, 0)
	for _, rec := range records {
		key := Key(rec, mode, first)
		i, ok := index[key]
		if !ok {
			b := Bucket{
				Key:    key,
				UserID: rec.UserID,
				Period: period(rec, mode, first),
			}
			if mode == ModeDay || mode == ModeProject {
				b.ProjectID = rec.ProjectKey()
			}
			out = append(out, b)
			i = len(out) - 1
			index[key] = i
		}
		out[i].Records = append(out[i].Records, rec)
		out[i].Total += rec.Seconds()
	}
	return out
}

// Total sums record durations, counting negative values as zero.
func Total(records []model.TimeRecord) int64 {
	var sum int64
	for _, rec := range records {
		sum += rec.Seconds()
	}
	return sum
}

func GrandTotal(buckets []Bucket) int64 {
	var sum int64
	for _, b := range buckets {
		sum += b.Total
	}
	return sum
}

// Filter keeps the records whose day lies inside rng.
func Filter(records []model.TimeRecord, rng calendar.Range) []model.TimeRecord {
	keys := make(map[string]bool, rng.Days)
	for _, k := range rng.Keys() {
		keys[k] = true
	}
	out := make([]model.TimeRecord, 0, len(records))
	for _, rec := range records {
		if keys[rec.Day()] {
			out = append(out, rec)
		}
	}
	return out
}
