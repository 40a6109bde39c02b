package views

import (
	"strings"
	"testing"
	"time"
)

func TestHours(t *testing.T) {
	cases := map[int64]string{
		0:     "0:00",
		59:    "0:00",
		60:    "0:01",
		5400:  "1:30",
		36000: "10:00",
		-30:   "0:00",
	}
	for in, want := range cases {
		if got := Hours(in); got != want {
			t.Fatalf("Hours(%d) = %q, want %q", in, got, want)
		}
	}
	if HoursCell(0) != "" || HoursCell(900) != "0:15" {
		t.Fatalf("unexpected cells: %q %q", HoursCell(0), HoursCell(900))
	}
}

func TestSyncLabel(t *testing.T) {
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)
	if got := SyncLabel(time.Time{}, now, false, true); got != "never synced | loading" {
		t.Fatalf("unexpected label %q", got)
	}
	got := SyncLabel(now.Add(-3*time.Minute), now, true, false)
	if got != "synced 3 minutes ago (cached)" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestRangeLabel(t *testing.T) {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	if got := RangeLabel(start, start.AddDate(0, 0, 6)); got != "Feb 02 - Feb 08 2026" {
		t.Fatalf("unexpected label %q", got)
	}
	start = time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)
	if got := RangeLabel(start, start.AddDate(0, 0, 6)); got != "Dec 29 2025 - Jan 04 2026" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestDayColumns(t *testing.T) {
	cols := DayColumns("Project", 18, []string{"Mon", "Tue", "Wed"})
	if len(cols) != 5 {
		t.Fatalf("expected label, 3 days and total, got %d", len(cols))
	}
	if cols[0].Title != "Project" || cols[0].Width != 18 || cols[4].Title != "Total" {
		t.Fatalf("unexpected columns: %+v", cols)
	}
}

func TestRenderTrackerPanel(t *testing.T) {
	out := RenderTrackerPanel(TrackerPanelData{
		TimerLine:  "timer: 0:05:00",
		Project:    "Alpha",
		Task:       "Build",
		RangeLabel: "Feb 02 - Feb 08 2026",
		DayLabel:   "Wed Feb 04",
		DayTotal:   "1:30",
		WeekTotal:  "4:00",
		Entries: []EntryLine{
			{Start: "09:00", End: "10:30", Duration: "1:30", Project: "Alpha", Status: "submitted"},
		},
	})
	for _, want := range []string{"on: Alpha / Build", "total 4:00", "Wed Feb 04 (1:30)", "> 09:00-10:30", "[submitted]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("tracker panel missing %q:\n%s", want, out)
		}
	}

	empty := RenderTrackerPanel(TrackerPanelData{DayLabel: "Thu Feb 05", DayTotal: "0:00"})
	if !strings.Contains(empty, "(no entries)") {
		t.Fatalf("expected empty day marker:\n%s", empty)
	}
}

func TestRenderMessagesPanel(t *testing.T) {
	admin := RenderMessagesPanel(MessagesPanelData{
		Admin:  true,
		Cursor: 1,
		Conversations: []ConversationLine{
			{Name: "Uma"},
			{Name: "Ben", Unread: 2, LastMessage: "done"},
		},
	})
	if !strings.Contains(admin, "> Ben (2): done") {
		t.Fatalf("unexpected admin panel:\n%s", admin)
	}
	employee := RenderMessagesPanel(MessagesPanelData{Unread: 3})
	if !strings.Contains(employee, "unread: 3") {
		t.Fatalf("unexpected employee panel:\n%s", employee)
	}
}

func TestRenderAppOmitsEmptyRightPane(t *testing.T) {
	out := RenderApp(AppData{Header: "punchcard", LeftPane: "left", StatusLine: "status: ok"})
	if strings.Count(out, "╭") != 1 {
		t.Fatalf("expected a single panel:\n%s", out)
	}
	if RenderCommandPalette(false, "x") != "" || RenderCommandPalette(true, "log") != "command: /log" {
		t.Fatal("unexpected palette rendering")
	}
	if RenderNotification("info", " ") != "" {
		t.Fatal("blank notification should render nothing")
	}
}
