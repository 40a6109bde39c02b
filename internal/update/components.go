package update

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/punchcard/internal/grouping"
	"github.com/sandeepkv93/punchcard/internal/model"
	"github.com/sandeepkv93/punchcard/internal/views"
)

func (m *Model) initBubbleComponents() {
	m.sheetTable = table.New(table.WithRows([]table.Row{}), table.WithHeight(8))
	m.reportTable = table.New(table.WithRows([]table.Row{}), table.WithHeight(10))

	m.bucketTable = table.New(table.WithColumns([]table.Column{
		{Title: "Period", Width: 11},
		{Title: "User", Width: 12},
		{Title: "Project", Width: 18},
		{Title: "Total", Width: 7},
	}), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(10))

	m.sheetsTable = table.New(table.WithColumns([]table.Column{
		{Title: "Week", Width: 11},
		{Title: "User", Width: 14},
		{Title: "Status", Width: 10},
		{Title: "Hours", Width: 7},
	}), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(10))

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
	m.chatViewport = viewport.New(54, 12)
}

func (m *Model) syncBubbleData() {
	tableHeight, viewportHeight := densityDimensions(m.uiDensity)
	m.sheetTable.SetHeight(tableHeight - 2)
	m.reportTable.SetHeight(tableHeight)
	m.bucketTable.SetHeight(tableHeight)
	m.sheetsTable.SetHeight(tableHeight)
	m.chatViewport.Height = viewportHeight

	sheet := grouping.BuildSheet(m.Range.Records, m.Range.Range)
	m.syncTrackerTable(sheet)
	m.syncReportTable(sheet)

	buckets := m.buckets()
	rows := make([]table.Row, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, table.Row{b.Period, m.Catalog.UserName(b.UserID), m.bucketProject(b), views.Hours(b.Total)})
	}
	m.bucketTable.SetRows(rows)
	if len(rows) > 0 {
		m.Detailed.Cursor = clampCursor(m.Detailed.Cursor, len(rows))
		m.bucketTable.SetCursor(m.Detailed.Cursor)
	}

	sheetRows := make([]table.Row, 0, len(m.Timesheets.Items))
	for _, ts := range m.Timesheets.Items {
		sheetRows = append(sheetRows, table.Row{ts.WeekStart, m.Catalog.UserName(ts.UserID), string(ts.Status), fmt.Sprintf("%.2f", ts.TotalHours)})
	}
	m.sheetsTable.SetRows(sheetRows)
	if len(sheetRows) > 0 {
		m.Timesheets.Cursor = clampCursor(m.Timesheets.Cursor, len(sheetRows))
		m.sheetsTable.SetCursor(m.Timesheets.Cursor)
	}

	m.commandInput.SetValue(m.Palette.Input)
	if m.Palette.Active {
		m.commandInput.Focus()
	}
}

// syncTrackerTable shows one row per project and task with a column per
// day of the range.
func (m *Model) syncTrackerTable(sheet grouping.Sheet) {
	labels := make([]string, 0, len(sheet.Columns))
	for _, d := range m.Range.Range.Dates() {
		labels = append(labels, d.Format("Mon"))
	}
	setColumns(&m.sheetTable, views.DayColumns("Project / Task", 18, labels))

	multiUser := len(sheet.Users) > 1
	rows := make([]table.Row, 0)
	for _, fr := range sheet.Flatten() {
		if fr.Depth != 2 {
			continue
		}
		label := m.Catalog.ProjectName(fr.Path[1]) + " / " + m.Catalog.TaskName(fr.Path[2])
		if multiUser {
			label = m.Catalog.UserName(fr.Path[0]) + ": " + label
		}
		rows = append(rows, sheetRow(truncate(label, 18), fr.Row))
	}
	totals := &grouping.Row{ID: "total", Days: sheet.Totals}
	rows = append(rows, sheetRow("Total", totals))
	m.sheetTable.SetRows(rows)
}

// syncReportTable shows the whole user -> project -> task tree.
func (m *Model) syncReportTable(sheet grouping.Sheet) {
	labels := make([]string, 0, len(sheet.Columns))
	for _, d := range m.Range.Range.Dates() {
		labels = append(labels, d.Format("02"))
	}
	setColumns(&m.reportTable, views.DayColumns("User / Project / Task", 22, labels))

	rows := make([]table.Row, 0)
	for _, fr := range sheet.Flatten() {
		var name string
		switch fr.Depth {
		case 0:
			name = m.Catalog.UserName(fr.Row.ID)
		case 1:
			name = m.Catalog.ProjectName(fr.Row.ID)
		default:
			name = m.Catalog.TaskName(fr.Row.ID)
		}
		label := strings.Repeat("  ", fr.Depth) + name
		rows = append(rows, sheetRow(truncate(label, 22), fr.Row))
	}
	rows = append(rows, sheetRow("Total", &grouping.Row{ID: "total", Days: sheet.Totals}))
	m.reportTable.SetRows(rows)
}

// setColumns swaps the columns of t, clearing rows first when the column
// count changes so no row is rendered against the wrong layout.
func setColumns(t *table.Model, cols []table.Column) {
	if len(t.Columns()) != len(cols) {
		t.SetRows(nil)
	}
	t.SetColumns(cols)
}

func sheetRow(label string, r *grouping.Row) table.Row {
	row := make(table.Row, 0, len(r.Days)+2)
	row = append(row, label)
	for _, secs := range r.Days {
		row = append(row, views.HoursCell(secs))
	}
	return append(row, views.Hours(r.Total()))
}

func densityDimensions(level int) (tableHeight int, viewportHeight int) {
	switch level {
	case 2:
		return 14, 16
	case 3:
		return 18, 20
	default:
		return 10, 12
	}
}

func (m *Model) cycleDensity() {
	m.uiDensity++
	if m.uiDensity > 3 {
		m.uiDensity = 1
	}
	m.Status = StatusBar{
		Text:    fmt.Sprintf("density level: %d", m.uiDensity),
		IsError: false,
	}
}

func (m Model) rangeRecords() []model.TimeRecord {
	return grouping.Filter(m.Range.Records, m.Range.Range)
}

func (m Model) buckets() []grouping.Bucket {
	return grouping.Group(m.rangeRecords(), m.Detailed.Mode, m.firstDay())
}

// Week and month buckets span every project.
func (m Model) bucketProject(b grouping.Bucket) string {
	if b.ProjectID == "" {
		return "all projects"
	}
	return m.Catalog.ProjectName(b.ProjectID)
}

// dayEntries lists the records on the selected day of the range, earliest
// first.
func (m Model) dayEntries() []model.TimeRecord {
	keys := m.Range.Range.Keys()
	if len(keys) == 0 {
		return nil
	}
	day := keys[clampCursor(m.Range.DayCursor, len(keys))]
	out := make([]model.TimeRecord, 0)
	for _, rec := range m.Range.Records {
		if rec.Day() == day {
			out = append(out, rec)
		}
	}
	slices.SortStableFunc(out, func(a, b model.TimeRecord) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out
}

func (m Model) selectedEntry() (model.TimeRecord, bool) {
	entries := m.dayEntries()
	if len(entries) == 0 {
		return model.TimeRecord{}, false
	}
	return entries[clampCursor(m.Range.RowCursor, len(entries))], true
}

func (m Model) selectedTimesheet() (model.Timesheet, bool) {
	if len(m.Timesheets.Items) == 0 {
		return model.Timesheet{}, false
	}
	return m.Timesheets.Items[clampCursor(m.Timesheets.Cursor, len(m.Timesheets.Items))], true
}

func (m Model) selectedConversation() (model.Conversation, bool) {
	if len(m.Chat.Conversations) == 0 {
		return model.Conversation{}, false
	}
	return m.Chat.Conversations[clampCursor(m.Chat.Cursor, len(m.Chat.Conversations))], true
}

// setThread renders the open conversation into the chat viewport.
func (m *Model) setThread(msgs []model.Message) {
	m.Chat.Messages = msgs
	var b strings.Builder
	for _, msg := range msgs {
		who := m.Catalog.UserName(msg.SenderID)
		if msg.SenderID == m.User.ID {
			who = "You"
		} else if msg.SenderID == m.Chat.Peer.ID && m.Chat.Peer.Name != "" {
			who = m.Chat.Peer.Name
		}
		b.WriteString(fmt.Sprintf("**%s** _%s_\n\n%s\n\n", who, msg.CreatedAt.In(m.loc).Format("Jan 02 15:04"), msg.Content))
	}
	content := views.RenderMarkdown(b.String())
	if content == "" {
		content = "(no messages yet)"
	}
	m.chatViewport.SetContent(content)
	m.chatViewport.GotoBottom()
}
