package timelog

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/punchcard/internal/model"
)

func TestCalcDurationOvernight(t *testing.T) {
	if got := CalcDuration("23:30", "00:15"); got != 45 {
		t.Fatalf("CalcDuration overnight = %d, want 45", got)
	}
	if got := CalcDuration("09:00", "10:30"); got != 90 {
		t.Fatalf("CalcDuration = %d, want 90", got)
	}
	if got := CalcDuration("bad", "10:30"); got != 0 {
		t.Fatalf("CalcDuration with bad start = %d, want 0", got)
	}
}

func TestFormattingHelpers(t *testing.T) {
	if FormatDuration(0) != "0:00" || FormatDuration(90) != "1:30" || FormatDuration(1500) != "25:00" {
		t.Fatalf("unexpected duration formatting")
	}
	if FormatClock(1445) != "00:05" || FormatClock(-15) != "23:45" {
		t.Fatalf("unexpected clock wrap: %s %s", FormatClock(1445), FormatClock(-15))
	}
	if ParseDuration("1:30") != 90 || ParseDuration("x") != 0 || ParseDuration("1:75") != 0 {
		t.Fatal("unexpected duration parsing")
	}
	if AddMinutes("23:00", 90) != "00:30" {
		t.Fatalf("AddMinutes wrap = %s", AddMinutes("23:00", 90))
	}
}

func TestEditorDurationAndEndStayConsistent(t *testing.T) {
	e := NewEditor("2026-02-09")
	e.SetStart("09:00")
	e.SetDuration("1:30")
	if e.End != "10:30" {
		t.Fatalf("end after duration edit = %s, want 10:30", e.End)
	}

	e.SetEnd("10:30")
	if e.Duration != "1:30" {
		t.Fatalf("duration after end edit = %s, want 1:30", e.Duration)
	}

	e.SetStart("10:00")
	if e.Duration != "0:30" || e.End != "10:30" {
		t.Fatalf("start edit must recompute duration only: %+v", e)
	}

	e.SetStart("23:30")
	e.SetEnd("00:15")
	if e.Duration != "0:45" {
		t.Fatalf("overnight duration = %s, want 0:45", e.Duration)
	}
}

func TestEditorEntryRequiresProject(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Berlin")
	e := NewEditor("2026-02-09")
	if !e.IsNew() || !strings.HasPrefix(e.EntryID, "draft-") {
		t.Fatalf("expected draft id, got %q", e.EntryID)
	}
	if _, err := e.Entry(loc); !errors.Is(err, model.ErrProjectRequired) {
		t.Fatalf("expected ErrProjectRequired, got %v", err)
	}

	e.ProjectID = "p1"
	e.SetStart("23:30")
	e.SetEnd("00:15")
	entry, err := e.Entry(loc)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if entry.Duration != 45*60 {
		t.Fatalf("payload duration = %d, want 2700", entry.Duration)
	}
	if entry.EndTime.Sub(entry.StartTime) != 45*time.Minute {
		t.Fatalf("payload span = %s", entry.EndTime.Sub(entry.StartTime))
	}
	if entry.TaskID != nil {
		t.Fatalf("expected null task id, got %v", *entry.TaskID)
	}
	if got := entry.StartTime.UTC().Format(time.RFC3339); got != "2026-02-09T22:30:00Z" {
		t.Fatalf("start in Berlin winter = %s", got)
	}
}

func TestEntryRejectsFullDayDuration(t *testing.T) {
	e := NewEditor("2026-02-09")
	e.ProjectID = "p1"
	e.SetStart("09:00")
	e.SetDuration("25:00")
	if e.End != "10:00" {
		t.Fatalf("end wraps to %s, want 10:00", e.End)
	}
	if _, err := e.Entry(time.UTC); !errors.Is(err, ErrDurationTooLong) {
		t.Fatalf("expected ErrDurationTooLong, got %v", err)
	}

	e.SetDuration("23:59")
	entry, err := e.Entry(time.UTC)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if time.Duration(entry.Duration)*time.Second != entry.EndTime.Sub(entry.StartTime) {
		t.Fatalf("payload duration %d disagrees with span %s", entry.Duration, entry.EndTime.Sub(entry.StartTime))
	}
}

func TestFromRecordReadsZoneClock(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Berlin")
	rec := model.TimeRecord{
		ID:        "rec-1",
		ProjectID: "p1",
		StartTime: time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 2, 9, 9, 30, 0, 0, time.UTC),
		Duration:  5400,
		Date:      "2026-02-09",
	}
	e := FromRecord(rec, loc)
	if e.IsNew() {
		t.Fatal("record-backed editor must not be new")
	}
	if e.Start != "09:00" || e.End != "10:30" || e.Duration != "1:30" {
		t.Fatalf("unexpected editor fields: %+v", e)
	}
}
