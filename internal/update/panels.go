package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/grouping"
	"github.com/sandeepkv93/punchcard/internal/model"
	"github.com/sandeepkv93/punchcard/internal/timer"
	"github.com/sandeepkv93/punchcard/internal/views"
)

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

func (m Model) entryLine(rec model.TimeRecord) views.EntryLine {
	line := views.EntryLine{
		ID:       rec.ID,
		Date:     rec.Day(),
		Start:    "--:--",
		End:      "--:--",
		Duration: views.Hours(rec.Seconds()),
		Project:  m.Catalog.ProjectName(rec.ProjectID),
		Notes:    rec.Notes,
		Status:   rec.ApprovalStatus,
	}
	if rec.TaskID != "" {
		line.Task = m.Catalog.TaskName(rec.TaskID)
	}
	if !rec.StartTime.IsZero() {
		line.Start = rec.StartTime.In(m.loc).Format(calendar.ClockLayout)
	}
	if !rec.EndTime.IsZero() {
		line.End = rec.EndTime.In(m.loc).Format(calendar.ClockLayout)
	}
	return line
}

func (m Model) entryLines(records []model.TimeRecord) []views.EntryLine {
	out := make([]views.EntryLine, 0, len(records))
	for _, rec := range records {
		out = append(out, m.entryLine(rec))
	}
	return out
}

func (m Model) rangeLabel() string {
	rng := m.Range.Range
	if rng.Days == 0 {
		return ""
	}
	return views.RangeLabel(rng.Start, rng.End())
}

func (m Model) renderTrackerView() string {
	entries := m.dayEntries()
	keys := m.Range.Range.Keys()
	dayLabel := "day"
	if len(keys) > 0 {
		if d, err := calendar.ParseDay(keys[clampCursor(m.Range.DayCursor, len(keys))]); err == nil {
			dayLabel = d.Format("Monday, Jan 02")
		}
	}
	data := views.TrackerPanelData{
		TimerLine:  views.RenderTimer(m.Timer.Running, timer.Format(m.Timer.Elapsed)),
		RangeLabel: m.rangeLabel(),
		TableView:  m.sheetTable.View(),
		DayLabel:   dayLabel,
		DayTotal:   views.Hours(grouping.Total(entries)),
		WeekTotal:  views.Hours(grouping.Total(m.rangeRecords())),
		Entries:    m.entryLines(entries),
		Cursor:     clampCursor(m.Range.RowCursor, len(entries)),
	}
	if m.Timer.Running {
		data.Project = m.Catalog.ProjectName(m.Timer.ProjectID)
		if m.Timer.TaskID != "" {
			data.Task = m.Catalog.TaskName(m.Timer.TaskID)
		}
	}
	if m.isAdmin() {
		data.Viewing = "all users"
		if m.Range.UserID != "" {
			data.Viewing = m.Catalog.UserName(m.Range.UserID)
		}
	}
	return views.RenderTrackerPanel(data)
}

func (m Model) renderEntryPane() string {
	detail := views.RenderEntryDetail(nil)
	if rec, ok := m.selectedEntry(); ok {
		line := m.entryLine(rec)
		detail = views.RenderEntryDetail(&line)
	}
	if m.User.ID == "" {
		return detail
	}
	return detail + "\n\n" + m.renderDashboard()
}

func (m Model) renderDashboard() string {
	data := views.DashboardData{
		Today:          views.Hours(m.Stats.TodaySeconds),
		Week:           views.Hours(m.Stats.WeekSeconds),
		ActiveTimers:   m.Stats.ActiveTimers,
		PendingReviews: m.Stats.PendingReviews,
		Admin:          m.isAdmin(),
	}
	now := m.now()
	for _, t := range m.Running {
		name := t.UserName
		if name == "" {
			name = m.Catalog.UserName(t.UserID)
		}
		data.Timers = append(data.Timers, views.ActiveTimerLine{
			User:    name,
			Project: m.Catalog.ProjectName(t.ProjectID),
			Since:   t.StartTime.In(m.loc).Format(calendar.ClockLayout),
			Elapsed: timer.Format(int64(now.Sub(t.StartTime) / time.Second)),
		})
	}
	return views.RenderDashboard(data)
}

func (m Model) renderDetailedView() string {
	return views.RenderDetailedPanel(views.DetailedPanelData{
		Mode:       string(m.Detailed.Mode),
		Span:       string(m.Range.Span),
		RangeLabel: m.rangeLabel(),
		TableView:  m.bucketTable.View(),
		Total:      views.Hours(grouping.Total(m.rangeRecords())),
	})
}

func (m Model) renderBucketPane() string {
	buckets := m.buckets()
	if len(buckets) == 0 {
		return views.RenderBucketDetail(nil, nil)
	}
	b := buckets[clampCursor(m.Detailed.Cursor, len(buckets))]
	return views.RenderBucketDetail(&views.BucketLine{
		Period:  b.Period,
		User:    m.Catalog.UserName(b.UserID),
		Project: m.bucketProject(b),
		Total:   views.Hours(b.Total),
	}, m.entryLines(b.Records))
}

func (m Model) renderReportView() string {
	sheet := grouping.BuildSheet(m.Range.Records, m.Range.Range)
	return views.RenderReportPanel(views.ReportPanelData{
		RangeLabel: m.rangeLabel(),
		TableView:  m.reportTable.View(),
		Total:      views.Hours(sheet.GrandTotal()),
		Users:      len(sheet.Users),
	})
}

func (m Model) renderTimesheetsView() string {
	return views.RenderTimesheetsPanel(views.TimesheetsPanelData{
		Status:    string(m.Timesheets.Status),
		Admin:     m.isAdmin(),
		TableView: m.sheetsTable.View(),
		Loading:   m.Timesheets.Loading,
	})
}

func (m Model) renderTimesheetPane() string {
	ts, ok := m.selectedTimesheet()
	if !ok {
		return views.RenderTimesheetDetail(nil, nil)
	}
	line := views.TimesheetLine{
		ID:      ts.ID,
		User:    m.Catalog.UserName(ts.UserID),
		Week:    ts.WeekStart + " - " + ts.WeekEnd,
		Status:  string(ts.Status),
		Hours:   fmt.Sprintf("%.2f", ts.TotalHours),
		Comment: ts.AdminComment,
	}
	if ts.SubmittedAt != nil {
		line.Submitted = ts.SubmittedAt.In(m.loc).Format("Jan 02 15:04")
	}
	return views.RenderTimesheetDetail(&line, m.entryLines(m.Timesheets.Entries))
}

func (m Model) renderMessagesView() string {
	convs := make([]views.ConversationLine, 0, len(m.Chat.Conversations))
	for _, c := range m.Chat.Conversations {
		convs = append(convs, views.ConversationLine{
			Name:        c.UserName,
			Unread:      c.UnreadCount,
			LastMessage: truncate(c.LastMessage, 30),
		})
	}
	return views.RenderMessagesPanel(views.MessagesPanelData{
		Admin:         m.isAdmin(),
		Peer:          m.Chat.Peer.Name,
		Conversations: convs,
		Cursor:        m.Chat.Cursor,
		Unread:        m.Chat.Unread,
	})
}

func (m Model) renderThreadPane() string {
	return views.RenderThread(m.Chat.Peer.Name, m.chatViewport.View())
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    m.now().UTC(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
	if m.DesktopEnabled && m.notifier != nil {
		if err := m.notifier.Send(n); err != nil {
			m.logger.Debug("desktop notification failed", "err", err)
		}
	}
}

// fail reports an error the user caused or must act on.
func (m *Model) fail(context string, err error) {
	m.LastError = err
	text := context + ": " + errorText(err)
	m.Status = StatusBar{Text: text, IsError: true}
	m.notify("Error", text, "error")
	m.logger.Error(context, "err", err)
}

func (m Model) syncLabel() string {
	return views.SyncLabel(m.LastSync, m.now(), m.Range.FromCache && !m.Range.LiveLoaded, m.Range.Loading)
}
