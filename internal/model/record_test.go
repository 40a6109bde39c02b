package model

import (
	"errors"
	"testing"
	"time"
)

func TestTimeRecordDayPrefersDateField(t *testing.T) {
	rec := TimeRecord{
		Date:      "2026-02-02T00:00:00",
		StartTime: time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC),
	}
	if got := rec.Day(); got != "2026-02-02" {
		t.Fatalf("expected date field day, got %q", got)
	}

	rec.Date = "garbage"
	if got := rec.Day(); got != "2026-02-03" {
		t.Fatalf("expected start time fallback, got %q", got)
	}

	if got := (TimeRecord{}).Day(); got != "" {
		t.Fatalf("expected empty day for zero record, got %q", got)
	}
}

func TestTimeRecordDayInZone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	rec := TimeRecord{StartTime: time.Date(2026, 2, 9, 23, 30, 0, 0, time.UTC)}
	if got := rec.DayIn(berlin); got != "2026-02-10" {
		t.Fatalf("expected berlin day, got %q", got)
	}
	if got := rec.Day(); got != "2026-02-09" {
		t.Fatalf("expected instant zone day, got %q", got)
	}
	rec.Date = "2026-02-09"
	if got := rec.DayIn(berlin); got != "2026-02-09" {
		t.Fatalf("date field must win, got %q", got)
	}
}

func TestTimeRecordKeysUseSentinels(t *testing.T) {
	rec := TimeRecord{Duration: -30}
	if rec.ProjectKey() != NoProject || rec.TaskKey() != NoTask {
		t.Fatalf("unexpected keys: %q %q", rec.ProjectKey(), rec.TaskKey())
	}
	if rec.Seconds() != 0 {
		t.Fatalf("expected negative duration clamped, got %d", rec.Seconds())
	}
	if rec.Status() != TimesheetDraft {
		t.Fatalf("expected draft status default, got %q", rec.Status())
	}
}

func TestManualEntryValidate(t *testing.T) {
	start := time.Date(2026, 2, 9, 8, 0, 0, 0, time.UTC)
	entry := ManualEntry{
		ProjectID: "p1",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Duration:  3600,
	}
	if err := entry.Validate(); err != nil {
		t.Fatalf("expected valid entry, got %v", err)
	}

	entry.ProjectID = " "
	if err := entry.Validate(); !errors.Is(err, ErrProjectRequired) {
		t.Fatalf("expected ErrProjectRequired, got %v", err)
	}

	entry.ProjectID = "p1"
	entry.Duration = -1
	if err := entry.Validate(); !errors.Is(err, ErrNegativeDuration) {
		t.Fatalf("expected ErrNegativeDuration, got %v", err)
	}
}

func TestReviewValidate(t *testing.T) {
	if err := (Review{Status: TimesheetApproved}).Validate(); err != nil {
		t.Fatalf("approve without comment should pass: %v", err)
	}
	if err := (Review{Status: TimesheetDenied}).Validate(); !errors.Is(err, ErrCommentRequired) {
		t.Fatalf("expected ErrCommentRequired, got %v", err)
	}
	if err := (Review{Status: TimesheetDraft}).Validate(); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestCatalogLookups(t *testing.T) {
	c := Catalog{
		Projects: []Project{{ID: "p1", Name: "Website"}},
		Tasks:    []Task{{ID: "t1", ProjectID: "p1", Name: "Design"}, {ID: "t2", ProjectID: "p2", Name: "Design"}},
	}
	if c.ProjectName(NoProject) != "No project" || c.ProjectName("p1") != "Website" {
		t.Fatalf("unexpected project names")
	}
	p, ok := c.FindProject("website")
	if !ok || p.ID != "p1" {
		t.Fatalf("expected case-insensitive project match, got %+v", p)
	}
	task, ok := c.FindTask("p1", "design")
	if !ok || task.ID != "t1" {
		t.Fatalf("expected task t1, got %+v", task)
	}
	if got := len(c.TasksFor("p2")); got != 1 {
		t.Fatalf("expected 1 task for p2, got %d", got)
	}
}
