package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/model"
	"github.com/sandeepkv93/punchcard/internal/timelog"
)

func (m Model) handleTrackerKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	days := m.Range.Range.Days
	switch msg.String() {
	case "h", "left":
		if m.Range.DayCursor > 0 {
			m.Range.DayCursor--
			m.Range.RowCursor = 0
		}
	case "l", "right":
		if m.Range.DayCursor < days-1 {
			m.Range.DayCursor++
			m.Range.RowCursor = 0
		}
	case "j", "down":
		if m.Range.RowCursor < len(m.dayEntries())-1 {
			m.Range.RowCursor++
		}
	case "k", "up":
		if m.Range.RowCursor > 0 {
			m.Range.RowCursor--
		}
	case "H":
		return m, m.moveRange(-1)
	case "L":
		return m, m.moveRange(1)
	case "t":
		return m, m.moveRange(0)
	case "u":
		return m.cycleUser()
	case "x":
		if !m.Timer.Running {
			m.Status = StatusBar{Text: "no timer running", IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: "stopping timer"}
		return m, m.stopTimerCmd("")
	case "n":
		editor := timelog.NewEditor(m.selectedDay())
		m.openPalette(fmt.Sprintf("log %s %s %s ", editor.Date, editor.Start, editor.End))
	case "e":
		rec, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		if err := editable(rec); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		editor := timelog.FromRecord(rec, m.loc)
		m.openPalette(strings.TrimSpace(fmt.Sprintf("edit %s %s %s %s %s %s", rec.ID, editor.Date, editor.Start, editor.End, editor.ProjectID, editor.TaskID)))
	case "c":
		rec, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		editor := timelog.FromRecord(rec, m.loc)
		m.openPalette(strings.TrimSpace(fmt.Sprintf("log today %s %s %s %s", editor.Start, editor.End, editor.ProjectID, editor.TaskID)))
	case "d":
		rec, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		if rec.Status() == model.TimesheetApproved || rec.Status() == model.TimesheetSubmitted {
			m.Status = StatusBar{Text: fmt.Sprintf("entry is %s and cannot be deleted", rec.Status()), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: "deleting entry"}
		return m, m.deleteEntryCmd(rec.ID)
	}
	return m, nil
}

func (m Model) selectedDay() string {
	keys := m.Range.Range.Keys()
	if len(keys) == 0 {
		return calendar.DateKey(m.today())
	}
	return keys[clampCursor(m.Range.DayCursor, len(keys))]
}

// cycleUser steps an admin through "all users" and each known user.
func (m Model) cycleUser() (Model, tea.Cmd) {
	if !m.isAdmin() {
		return m, nil
	}
	ids := []string{""}
	for _, u := range m.Catalog.Users {
		ids = append(ids, u.ID)
	}
	next := 0
	for i, id := range ids {
		if id == m.Range.UserID {
			next = (i + 1) % len(ids)
			break
		}
	}
	m.Range.UserID = ids[next]
	label := "all users"
	if m.Range.UserID != "" {
		label = m.Catalog.UserName(m.Range.UserID)
	}
	m.Status = StatusBar{Text: "viewing " + label}
	return m, m.reloadRange(true)
}

func (m Model) handleDetailedKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "g":
		m.Detailed.Mode = m.Detailed.Mode.Next()
		m.Detailed.Cursor = 0
		m.savePrefs()
		m.Status = StatusBar{Text: "grouped by " + string(m.Detailed.Mode)}
	case "v":
		return m, m.toggleSpan()
	case "h", "left":
		return m, m.moveRange(-1)
	case "l", "right":
		return m, m.moveRange(1)
	case "t":
		return m, m.moveRange(0)
	case "u":
		return m.cycleUser()
	case "j", "down":
		if m.Detailed.Cursor < len(m.buckets())-1 {
			m.Detailed.Cursor++
		}
	case "k", "up":
		if m.Detailed.Cursor > 0 {
			m.Detailed.Cursor--
		}
	}
	return m, nil
}

func (m Model) handleReportKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "v":
		return m, m.toggleSpan()
	case "h", "left":
		return m, m.moveRange(-1)
	case "l", "right":
		return m, m.moveRange(1)
	case "t":
		return m, m.moveRange(0)
	case "u":
		return m.cycleUser()
	case "j", "down", "k", "up":
		var cmd tea.Cmd
		m.reportTable.Focus()
		m.reportTable, cmd = m.reportTable.Update(msg)
		return m, cmd
	}
	return m, nil
}

var timesheetStatusOrder = []model.TimesheetStatus{
	model.TimesheetDraft,
	model.TimesheetSubmitted,
	model.TimesheetApproved,
	model.TimesheetDenied,
}

func (m Model) handleTimesheetsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		next := model.TimesheetDraft
		for i, st := range timesheetStatusOrder {
			if st == m.Timesheets.Status {
				next = timesheetStatusOrder[(i+1)%len(timesheetStatusOrder)]
				break
			}
		}
		m.Timesheets.Status = next
		m.Timesheets.Items = nil
		m.Timesheets.Entries = nil
		m.Timesheets.Cursor = 0
		m.Timesheets.Loading = true
		return m, m.loadTimesheetsCmd()
	case "j", "down":
		if m.Timesheets.Cursor < len(m.Timesheets.Items)-1 {
			m.Timesheets.Cursor++
			m.Timesheets.Entries = nil
		}
	case "k", "up":
		if m.Timesheets.Cursor > 0 {
			m.Timesheets.Cursor--
			m.Timesheets.Entries = nil
		}
	case "enter":
		if ts, ok := m.selectedTimesheet(); ok {
			return m, m.loadTimesheetEntriesCmd(ts.ID)
		}
	case "s":
		ts, ok := m.selectedTimesheet()
		if !ok || m.isAdmin() {
			return m, nil
		}
		if ts.Status != model.TimesheetDraft && ts.Status != model.TimesheetDenied {
			m.Status = StatusBar{Text: fmt.Sprintf("timesheet is %s", ts.Status), IsError: true}
			return m, nil
		}
		return m, m.submitCmd(ts.ID)
	case "r":
		ts, ok := m.selectedTimesheet()
		if !ok || m.isAdmin() {
			return m, nil
		}
		return m, m.reopenCmd(ts.ID)
	case "a":
		ts, ok := m.selectedTimesheet()
		if !ok || !m.isAdmin() {
			return m, nil
		}
		return m, m.reviewCmd(ts.ID, model.Review{Status: model.TimesheetApproved})
	}
	return m, nil
}

func (m Model) submitCmd(id string) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return m.timesheetActionCmd("submitted", id, func() error { return backend.SubmitTimesheet(ctx, id) })
}

func (m Model) reopenCmd(id string) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return m.timesheetActionCmd("reopened", id, func() error { return backend.ReopenTimesheet(ctx, id) })
}

func (m Model) reviewCmd(id string, review model.Review) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return m.timesheetActionCmd(string(review.Status), id, func() error { return backend.ReviewTimesheet(ctx, id, review) })
}

func (m Model) handleMessagesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.isAdmin() && m.Chat.Cursor < len(m.Chat.Conversations)-1 {
			m.Chat.Cursor++
		}
	case "k", "up":
		if m.isAdmin() && m.Chat.Cursor > 0 {
			m.Chat.Cursor--
		}
	case "enter":
		conv, ok := m.selectedConversation()
		if !ok {
			return m, nil
		}
		m.Chat.Peer = model.User{ID: conv.UserID, Name: conv.UserName}
		m.setThread(nil)
		return m, m.loadMessagesCmd(m.Chat.Peer, false)
	case "r":
		if m.backend == nil {
			return m, nil
		}
		if m.isAdmin() && m.Chat.Peer.ID == "" {
			return m, m.loadConversationsCmd()
		}
		return m, m.loadMessagesCmd(m.Chat.Peer, false)
	case "m":
		m.openPalette("msg ")
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.chatViewport, cmd = m.chatViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}
