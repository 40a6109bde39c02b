package grouping

import (
	"testing"
	"time"

	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/model"
)

func TestBuildSheetParentsEqualChildren(t *testing.T) {
	rng := calendar.WeekOf(time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC), calendar.Monday)
	records := []model.TimeRecord{
		rec("A", "P1", "T1", "2026-02-02", 3600),
		rec("A", "P1", "T2", "2026-02-02", 1800),
		rec("A", "", "", "2026-02-03", 900),
		rec("B", "P1", "T1", "2026-02-08", 600),
		rec("B", "P1", "T1", "2026-02-09", 99999),
	}
	sheet := BuildSheet(records, rng)

	if len(sheet.Columns) != 7 || sheet.Columns[0] != "2026-02-02" {
		t.Fatalf("unexpected columns: %v", sheet.Columns)
	}
	if sheet.GrandTotal() != 3600+1800+900+600 {
		t.Fatalf("out-of-range record leaked into totals: %d", sheet.GrandTotal())
	}
	if len(sheet.Users) != 2 || sheet.Users[0].ID != "A" {
		t.Fatalf("unexpected users: %+v", sheet.Users)
	}

	var usersSum int64
	for _, u := range sheet.Users {
		usersSum += u.Total()
		var projectsSum int64
		for _, p := range u.Children {
			projectsSum += p.Total()
			var tasksSum int64
			for _, task := range p.Children {
				tasksSum += task.Total()
			}
			if tasksSum != p.Total() {
				t.Fatalf("project %s total %d != tasks %d", p.ID, p.Total(), tasksSum)
			}
		}
		if projectsSum != u.Total() {
			t.Fatalf("user %s total %d != projects %d", u.ID, u.Total(), projectsSum)
		}
	}
	if usersSum != sheet.GrandTotal() {
		t.Fatalf("grand total %d != users %d", sheet.GrandTotal(), usersSum)
	}

	a := sheet.Users[0]
	if a.Children[1].ID != model.NoProject || a.Children[1].Children[0].ID != model.NoTask {
		t.Fatalf("expected sentinel ids for unassigned record: %+v", a.Children[1])
	}
	if a.Days[0] != 5400 || a.Days[1] != 900 {
		t.Fatalf("unexpected day columns for A: %v", a.Days)
	}
}

func TestSheetFlattenDepths(t *testing.T) {
	rng := calendar.Range{Start: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), Days: 1}
	sheet := BuildSheet([]model.TimeRecord{rec("A", "P1", "T1", "2026-02-02", 60)}, rng)
	flat := sheet.Flatten()
	if len(flat) != 3 {
		t.Fatalf("expected 3 flat rows, got %d", len(flat))
	}
	for i, want := range []int{0, 1, 2} {
		if flat[i].Depth != want {
			t.Fatalf("row %d depth %d, want %d", i, flat[i].Depth, want)
		}
	}
	if flat[2].Path[0] != "A" || flat[2].Path[2] != "T1" {
		t.Fatalf("unexpected path: %v", flat[2].Path)
	}
}

func TestBuildSheetEmpty(t *testing.T) {
	rng := calendar.Range{Start: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), Days: 7}
	sheet := BuildSheet(nil, rng)
	if len(sheet.Users) != 0 || sheet.GrandTotal() != 0 || len(sheet.Totals) != 7 {
		t.Fatalf("unexpected empty sheet: %+v", sheet)
	}
}
