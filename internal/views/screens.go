package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
)

type EntryLine struct {
	ID       string
	Date     string
	Start    string
	End      string
	Duration string
	Project  string
	Task     string
	Notes    string
	Status   string
}

type TrackerPanelData struct {
	TimerLine  string
	Project    string
	Task       string
	RangeLabel string
	TableView  string
	DayLabel   string
	DayTotal   string
	WeekTotal  string
	Entries    []EntryLine
	Cursor     int
	Viewing    string
}

type BucketLine struct {
	Period  string
	User    string
	Project string
	Total   string
}

type DetailedPanelData struct {
	Mode       string
	Span       string
	RangeLabel string
	TableView  string
	Total      string
	Selected   *BucketLine
	Records    []EntryLine
}

type ReportPanelData struct {
	RangeLabel string
	TableView  string
	Total      string
	Users      int
}

type TimesheetLine struct {
	ID        string
	User      string
	Week      string
	Status    string
	Hours     string
	Submitted string
	Comment   string
}

type TimesheetsPanelData struct {
	Status    string
	Admin     bool
	TableView string
	Selected  *TimesheetLine
	Entries   []EntryLine
	Loading   bool
}

type ConversationLine struct {
	Name        string
	Unread      int
	LastMessage string
}

type MessagesPanelData struct {
	Admin         bool
	Peer          string
	Conversations []ConversationLine
	Cursor        int
	ThreadView    string
	Unread        int
}

type ActiveTimerLine struct {
	User    string
	Project string
	Since   string
	Elapsed string
}

// DashboardData is the summary shown under the selected entry. Timers is
// only filled for admins.
type DashboardData struct {
	Today          string
	Week           string
	ActiveTimers   int
	PendingReviews int
	Admin          bool
	Timers         []ActiveTimerLine
}

type HelpPanelData struct {
	CurrentView string
	Bindings    []string
	HelpView    string
}

// DayColumns builds one narrow column per day after the leading label
// column.
func DayColumns(label string, labelWidth int, days []string) []table.Column {
	cols := make([]table.Column, 0, len(days)+2)
	cols = append(cols, table.Column{Title: label, Width: labelWidth})
	for _, d := range days {
		cols = append(cols, table.Column{Title: d, Width: 5})
	}
	return append(cols, table.Column{Title: "Total", Width: 6})
}

func RenderTrackerPanel(data TrackerPanelData) string {
	var b strings.Builder
	b.WriteString("tracker:\n")
	b.WriteString(data.TimerLine + "\n")
	if data.Project != "" {
		b.WriteString(fmt.Sprintf("on: %s", data.Project))
		if data.Task != "" {
			b.WriteString(" / " + data.Task)
		}
		b.WriteString("\n")
	}
	if data.Viewing != "" {
		b.WriteString(fmt.Sprintf("viewing: %s\n", data.Viewing))
	}
	b.WriteString(fmt.Sprintf("week: %s | total %s\n", data.RangeLabel, data.WeekTotal))
	b.WriteString("actions: [h/l]day [j/k]entry [H/L]week [n]log [e]edit [c]copy [d]delete [x]stop\n")
	b.WriteString(data.TableView + "\n")
	b.WriteString(fmt.Sprintf("\n%s (%s):\n", data.DayLabel, data.DayTotal))
	if len(data.Entries) == 0 {
		b.WriteString("  (no entries)")
		return b.String()
	}
	for i, e := range data.Entries {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s-%s %6s %s", cursor, e.Start, e.End, e.Duration, e.Project))
		if e.Task != "" {
			b.WriteString(" / " + e.Task)
		}
		if e.Status != "" {
			b.WriteString(fmt.Sprintf(" [%s]", e.Status))
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderEntryDetail(e *EntryLine) string {
	if e == nil {
		return "entry:\n(no selection)"
	}
	notes := e.Notes
	if strings.TrimSpace(notes) == "" {
		notes = "_No notes_"
	}
	return fmt.Sprintf("entry:\nid: %s\nwhen: %s-%s (%s)\nproject: %s\ntask: %s\nstatus: %s\n\n%s",
		e.ID, e.Start, e.End, e.Duration, e.Project, e.Task, e.Status, RenderMarkdown(notes))
}

func RenderDashboard(data DashboardData) string {
	var b strings.Builder
	b.WriteString("dashboard:\n")
	b.WriteString(fmt.Sprintf("today %s | week %s\n", data.Today, data.Week))
	if !data.Admin {
		return strings.TrimSpace(b.String())
	}
	b.WriteString(fmt.Sprintf("running timers: %d | pending reviews: %d\n", data.ActiveTimers, data.PendingReviews))
	for _, t := range data.Timers {
		b.WriteString(fmt.Sprintf("  %s on %s since %s (%s)\n", t.User, t.Project, t.Since, t.Elapsed))
	}
	return strings.TrimSpace(b.String())
}

func RenderDetailedPanel(data DetailedPanelData) string {
	var b strings.Builder
	b.WriteString("detailed:\n")
	b.WriteString(fmt.Sprintf("group: %s | span: %s | %s\n", data.Mode, data.Span, data.RangeLabel))
	b.WriteString("actions: [g]group [v]week/month [h/l]period [j/k]bucket\n")
	b.WriteString(data.TableView + "\n")
	b.WriteString("total: " + data.Total)
	return b.String()
}

func RenderBucketDetail(selected *BucketLine, records []EntryLine) string {
	if selected == nil {
		return "bucket:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("bucket: %s\nuser: %s\nproject: %s\ntotal: %s\n", selected.Period, selected.User, selected.Project, selected.Total))
	for _, r := range records {
		b.WriteString(fmt.Sprintf("- %s %s-%s %s", r.Date, r.Start, r.End, r.Duration))
		if r.Task != "" {
			b.WriteString(" " + r.Task)
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderReportPanel(data ReportPanelData) string {
	var b strings.Builder
	b.WriteString("report:\n")
	b.WriteString(fmt.Sprintf("range: %s | users: %d | total: %s\n", data.RangeLabel, data.Users, data.Total))
	b.WriteString("actions: [h/l]period [v]week/month [u]user\n")
	b.WriteString(data.TableView)
	return b.String()
}

func RenderTimesheetsPanel(data TimesheetsPanelData) string {
	var b strings.Builder
	b.WriteString("timesheets:\n")
	b.WriteString(fmt.Sprintf("status: %s\n", data.Status))
	if data.Admin {
		b.WriteString("actions: [tab]status [j/k]move [enter]entries [a]approve [/review id deny why]\n")
	} else {
		b.WriteString("actions: [tab]status [j/k]move [enter]entries [s]submit [r]reopen\n")
	}
	if data.Loading {
		b.WriteString("(loading)\n")
	}
	b.WriteString(data.TableView)
	return b.String()
}

func RenderTimesheetDetail(selected *TimesheetLine, entries []EntryLine) string {
	if selected == nil {
		return "timesheet:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("timesheet: %s\nuser: %s\nweek: %s\nstatus: %s\nhours: %s\n", selected.ID, selected.User, selected.Week, selected.Status, selected.Hours))
	if selected.Submitted != "" {
		b.WriteString("submitted: " + selected.Submitted + "\n")
	}
	if selected.Comment != "" {
		b.WriteString("\n" + RenderMarkdown("> "+selected.Comment) + "\n")
	}
	if len(entries) > 0 {
		b.WriteString("\nentries:\n")
		for _, e := range entries {
			b.WriteString(fmt.Sprintf("- %s-%s %s %s\n", e.Start, e.End, e.Duration, e.Project))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderMessagesPanel(data MessagesPanelData) string {
	var b strings.Builder
	b.WriteString("messages:\n")
	if data.Admin {
		b.WriteString("actions: [j/k]conversation [enter]open [/msg text]send\n")
		if len(data.Conversations) == 0 {
			b.WriteString("(no conversations)")
			return b.String()
		}
		for i, c := range data.Conversations {
			cursor := " "
			if i == data.Cursor {
				cursor = ">"
			}
			b.WriteString(fmt.Sprintf("%s %s", cursor, c.Name))
			if c.Unread > 0 {
				b.WriteString(fmt.Sprintf(" (%d)", c.Unread))
			}
			if c.LastMessage != "" {
				b.WriteString(": " + c.LastMessage)
			}
			b.WriteString("\n")
		}
		return strings.TrimSpace(b.String())
	}
	b.WriteString("actions: [/msg text]send [r]refresh\n")
	b.WriteString(fmt.Sprintf("unread: %d", data.Unread))
	return b.String()
}

func RenderThread(peer, viewport string) string {
	if peer == "" {
		return "thread:\n(none open)"
	}
	return fmt.Sprintf("thread with %s:\n%s", peer, viewport)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s view:\n%s\n\nall keys:\n%s",
		strings.ToLower(data.CurrentView),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}
