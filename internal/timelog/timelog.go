// Package timelog keeps the start, end and duration fields of a manual
// time log consistent while the user edits them.
package timelog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/model"
)

const minutesPerDay = 24 * 60

const draftPrefix = "draft-"

// ErrDurationTooLong rejects a log of a full day or more; start and end
// are clock readings and cannot span it.
var ErrDurationTooLong = errors.New("timelog: duration must be under 24:00")

// ParseClock reads HH:MM (or H:MM) as minutes after midnight.
func ParseClock(s string) (int, bool) {
	h, m, ok := splitHM(s)
	if !ok || h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatClock renders minutes after midnight as HH:MM, wrapping at 24h.
func FormatClock(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDuration reads H:MM as minutes. Malformed input counts as zero.
func ParseDuration(s string) int {
	h, m, ok := splitHM(s)
	if !ok {
		return 0
	}
	return h*60 + m
}

// FormatDuration renders minutes as H:MM with unbounded hours.
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// CalcDuration returns the minutes from start to end; an end before the
// start is read as the next day.
func CalcDuration(start, end string) int {
	from, ok := ParseClock(start)
	if !ok {
		return 0
	}
	to, ok := ParseClock(end)
	if !ok {
		return 0
	}
	diff := to - from
	if diff < 0 {
		diff += minutesPerDay
	}
	return diff
}

// AddMinutes shifts a clock reading, wrapping around midnight.
func AddMinutes(clock string, minutes int) string {
	from, ok := ParseClock(clock)
	if !ok {
		from = 9 * 60
	}
	return FormatClock(from + minutes)
}

func splitHM(s string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// Editor is the state of one time log being created or edited.
type Editor struct {
	EntryID   string
	Date      string
	Start     string
	End       string
	Duration  string
	ProjectID string
	TaskID    string
	Notes     string
}

// NewEditor starts a draft log for date with the default 09:00-10:00 slot.
func NewEditor(date string) Editor {
	return Editor{
		EntryID:  draftPrefix + uuid.NewString(),
		Date:     date,
		Start:    "09:00",
		End:      "10:00",
		Duration: "1:00",
	}
}

// FromRecord seeds an editor from a fetched record, reading its clock
// times in loc.
func FromRecord(rec model.TimeRecord, loc *time.Location) Editor {
	e := Editor{
		EntryID:   rec.ID,
		Date:      rec.DayIn(loc),
		Start:     "09:00",
		End:       "10:00",
		Duration:  FormatDuration(int(rec.Seconds() / 60)),
		ProjectID: rec.ProjectID,
		TaskID:    rec.TaskID,
		Notes:     rec.Notes,
	}
	if !rec.StartTime.IsZero() {
		e.Start = rec.StartTime.In(loc).Format(calendar.ClockLayout)
	}
	if !rec.EndTime.IsZero() {
		e.End = rec.EndTime.In(loc).Format(calendar.ClockLayout)
	}
	return e
}

func (e Editor) IsNew() bool {
	return e.EntryID == "" || strings.HasPrefix(e.EntryID, draftPrefix)
}

func (e *Editor) SetStart(v string) {
	e.Start = v
	if e.Start != "" && e.End != "" {
		e.Duration = FormatDuration(CalcDuration(e.Start, e.End))
	}
}

func (e *Editor) SetEnd(v string) {
	e.End = v
	if e.Start != "" && e.End != "" {
		e.Duration = FormatDuration(CalcDuration(e.Start, e.End))
	}
}

func (e *Editor) SetDuration(v string) {
	e.Duration = v
	if e.Start != "" && e.Duration != "" {
		e.End = AddMinutes(e.Start, ParseDuration(e.Duration))
	}
}

func (e Editor) Minutes() int { return ParseDuration(e.Duration) }

// Entry validates the editor and converts it into a backend payload with
// instants resolved in loc.
func (e Editor) Entry(loc *time.Location) (model.ManualEntry, error) {
	if strings.TrimSpace(e.ProjectID) == "" {
		return model.ManualEntry{}, model.ErrProjectRequired
	}
	if e.Minutes() >= minutesPerDay {
		return model.ManualEntry{}, fmt.Errorf("%w: %s", ErrDurationTooLong, e.Duration)
	}
	start, end, err := calendar.Span(loc, e.Date, e.Start, e.End)
	if err != nil {
		return model.ManualEntry{}, err
	}
	entry := model.ManualEntry{
		ProjectID: e.ProjectID,
		TaskID:    model.OptionalID(e.TaskID),
		StartTime: start,
		EndTime:   end,
		Duration:  int64(e.Minutes()) * 60,
		Notes:     e.Notes,
	}
	return entry, entry.Validate()
}
