package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/grouping"
	"github.com/sandeepkv93/punchcard/internal/model"
	"github.com/sandeepkv93/punchcard/internal/timer"
	"github.com/sandeepkv93/punchcard/internal/views"
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...)
}

func rangeTitle(rng calendar.Range) string {
	return views.RangeLabel(rng.Start, rng.End())
}

func writeBuckets(w io.Writer, catalog model.Catalog, buckets []grouping.Bucket) {
	if len(buckets) == 0 {
		fmt.Fprintln(w, "no entries")
		return
	}
	t := newTable("Period", "User", "Project", "Entries", "Total")
	for _, b := range buckets {
		project := "all projects"
		if b.ProjectID != "" {
			project = catalog.ProjectName(b.ProjectID)
		}
		t.Row(b.Period, catalog.UserName(b.UserID), project, fmt.Sprint(len(b.Records)), views.Hours(b.Total))
	}
	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "total %s\n", views.Hours(grouping.GrandTotal(buckets)))
}

// writeReport prints the sheet tree with one column per day of its range.
func writeReport(w io.Writer, catalog model.Catalog, sheet grouping.Sheet) {
	headers := []string{"User / Project / Task"}
	for _, d := range sheet.Range.Dates() {
		headers = append(headers, d.Format("Mon 02"))
	}
	headers = append(headers, "Total")

	t := newTable(headers...)
	for _, fr := range sheet.Flatten() {
		var name string
		switch fr.Depth {
		case 0:
			name = catalog.UserName(fr.Row.ID)
		case 1:
			name = catalog.ProjectName(fr.Row.ID)
		default:
			name = catalog.TaskName(fr.Row.ID)
		}
		t.Row(reportRow(strings.Repeat("  ", fr.Depth)+name, fr.Row.Days)...)
	}
	t.Row(reportRow("Total", sheet.Totals)...)
	fmt.Fprintln(w, t.String())
}

func reportRow(label string, days []int64) []string {
	row := make([]string, 0, len(days)+2)
	row = append(row, label)
	var sum int64
	for _, secs := range days {
		row = append(row, views.HoursCell(secs))
		sum += secs
	}
	return append(row, views.Hours(sum))
}

func writeTimesheets(w io.Writer, catalog model.Catalog, items []model.Timesheet) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no timesheets")
		return
	}
	t := newTable("ID", "Week", "User", "Status", "Hours", "Comment")
	for _, ts := range items {
		t.Row(ts.ID, ts.WeekStart+" - "+ts.WeekEnd, catalog.UserName(ts.UserID), string(ts.Status), fmt.Sprintf("%.2f", ts.TotalHours), ts.AdminComment)
	}
	fmt.Fprintln(w, t.String())
}

// writeDashboard prints the admin totals followed by every running timer.
func writeDashboard(w io.Writer, catalog model.Catalog, stats model.DashboardStats, running []model.ActiveTimerSummary, now time.Time, loc *time.Location) {
	fmt.Fprintf(w, "today %s | week %s | running %d | pending reviews %d\n",
		views.Hours(stats.TodaySeconds), views.Hours(stats.WeekSeconds), stats.ActiveTimers, stats.PendingReviews)
	if len(running) == 0 {
		fmt.Fprintln(w, "no timers running")
		return
	}
	t := newTable("User", "Project", "Since", "Elapsed")
	for _, r := range running {
		user := r.UserName
		if user == "" {
			user = catalog.UserName(r.UserID)
		}
		elapsed := int64(now.Sub(r.StartTime) / time.Second)
		t.Row(user, catalog.ProjectName(r.ProjectID), r.StartTime.In(loc).Format(calendar.ClockLayout), timer.Format(elapsed))
	}
	fmt.Fprintln(w, t.String())
}
