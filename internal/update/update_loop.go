package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/model"
	"github.com/sandeepkv93/punchcard/internal/scheduler"
	"github.com/sandeepkv93/punchcard/internal/timer"
	"github.com/sandeepkv93/punchcard/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForStopCmd(m.stopped)}
	if m.backend == nil {
		return tea.Batch(cmds...)
	}
	cmds = append(cmds,
		m.cachedBootstrapCmd(),
		m.bootstrapCmd(),
		m.resumeCmd(),
		m.loadRangeCmd(),
		m.syncSpinner.Tick,
	)
	cmds = append(cmds, m.startPolls()...)
	return tea.Batch(cmds...)
}

var pollKinds = []scheduler.Kind{
	scheduler.KindHeartbeat,
	scheduler.KindUnread,
	scheduler.KindMessages,
	scheduler.KindSync,
}

func (m Model) pollInterval(kind scheduler.Kind) time.Duration {
	switch kind {
	case scheduler.KindHeartbeat:
		return m.intervals.Heartbeat
	case scheduler.KindMessages:
		return m.intervals.MessagePoll
	case scheduler.KindUnread:
		return m.intervals.UnreadPoll
	default:
		return m.intervals.Sync
	}
}

// startPolls registers every poll with the engine, which re-arms them on
// its own. Without an engine each poll runs on a plain tick.
func (m Model) startPolls() []tea.Cmd {
	if m.engine == nil {
		cmds := make([]tea.Cmd, 0, len(pollKinds))
		for _, kind := range pollKinds {
			cmds = append(cmds, m.rearmPoll(kind))
		}
		return cmds
	}
	for _, kind := range pollKinds {
		if err := m.engine.Every(kind, m.pollInterval(kind)); err != nil {
			m.logger.Warn("schedule poll failed", "kind", kind, "err", err)
		}
	}
	return []tea.Cmd{waitForPollCmd(m.engine.C())}
}

// rearmPoll is only needed for tick-driven polls.
func (m Model) rearmPoll(kind scheduler.Kind) tea.Cmd {
	if m.engine != nil {
		return nil
	}
	return tea.Tick(m.pollInterval(kind), func(t time.Time) tea.Msg {
		return PollDueMsg{Event: scheduler.Event{Kind: kind, TriggerAt: t}}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncBubbleData()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			if typed.String() == "ctrl+c" {
				m.Quitting = true
				return m, tea.Quit
			}
			return m.handlePaletteKey(typed)
		}

		switch typed.String() {
		case "/":
			m.openPalette("")
			return m, nil
		case m.Keys.Tracker:
			return m.setView(ViewTracker)
		case m.Keys.Detailed:
			return m.setView(ViewDetailed)
		case m.Keys.Report:
			return m.setView(ViewReport)
		case m.Keys.Timesheets:
			return m.setView(ViewTimesheets)
		case m.Keys.Messages:
			return m.setView(ViewMessages)
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown", IsError: false}
			} else {
				m.Status = StatusBar{Text: "help hidden", IsError: false}
			}
			return m, nil
		case "S":
			return m.refreshAll()
		case "D":
			m.cycleDensity()
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}
		switch m.CurrentView {
		case ViewTracker:
			return m.handleTrackerKey(typed)
		case ViewDetailed:
			return m.handleDetailedKey(typed)
		case ViewReport:
			return m.handleReportKey(typed)
		case ViewTimesheets:
			return m.handleTimesheetsKey(typed)
		case ViewMessages:
			return m.handleMessagesKey(typed)
		}
	case spinner.TickMsg:
		if m.spinnerActive {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SwitchViewMsg:
		if isKnownView(typed.View) {
			return m.setView(typed.View)
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		m.notify("Status", typed.Text, levelFromError(typed.IsError))
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		if typed.Err != nil {
			m.fail("error", typed.Err)
		}
		return m, nil

	case BootstrapMsg:
		return m.onBootstrap(typed)
	case TimerResumedMsg:
		if typed.Err != nil {
			return m, nil
		}
		return m, m.syncTimer()
	case TimerStartedMsg:
		if typed.Err != nil {
			m.fail("start timer", typed.Err)
			return m, nil
		}
		m.Status = StatusBar{Text: "timer started on " + m.Catalog.ProjectName(typed.Active.ProjectID)}
		return m, m.syncTimer()
	case TimerStopResultMsg:
		if typed.Err != nil {
			m.fail("stop timer", typed.Err)
			return m, nil
		}
		return m, nil
	case TimerStoppedSignalMsg:
		m.syncTimer()
		m.Status = StatusBar{Text: "timer stopped, entry saved"}
		m.notify("Timer", "timer stopped", "info")
		return m, tea.Batch(m.reloadRange(false), waitForStopCmd(m.stopped))
	case TimerTickMsg:
		if m.reconcile == nil || !m.reconcile.State().Running {
			m.ticking = false
			m.Timer = TimerView{}
			return m, nil
		}
		m.Timer.Elapsed = m.reconcile.Tick()
		return m, timerTickCmd(m.intervals.Tick)
	case PollDueMsg:
		return m.onPoll(typed.Event)

	case RecordsLoadedMsg:
		return m.onRecords(typed)
	case EntrySavedMsg:
		if typed.Err != nil {
			m.fail("save entry", typed.Err)
			return m, nil
		}
		verb := "logged"
		if typed.Updated {
			verb = "updated"
		}
		m.Status = StatusBar{Text: fmt.Sprintf("%s %s on %s", verb, views.Hours(typed.Record.Seconds()), typed.Record.Day())}
		return m, m.reloadRange(false)
	case EntryDeletedMsg:
		if typed.Err != nil {
			m.fail("delete entry", typed.Err)
			return m, nil
		}
		m.Status = StatusBar{Text: "entry deleted"}
		return m, m.reloadRange(false)

	case TimesheetsLoadedMsg:
		if typed.Status != m.Timesheets.Status {
			return m, nil
		}
		m.Timesheets.Loading = false
		if typed.Err != nil {
			m.fail("load timesheets", typed.Err)
			return m, nil
		}
		m.Timesheets.Items = typed.Items
		m.Timesheets.Cursor = clampCursor(m.Timesheets.Cursor, len(typed.Items))
		m.Timesheets.Entries = nil
		return m, nil
	case TimesheetEntriesMsg:
		if typed.Err != nil {
			m.fail("load timesheet entries", typed.Err)
			return m, nil
		}
		if ts, ok := m.selectedTimesheet(); ok && ts.ID == typed.ID {
			m.Timesheets.Entries = typed.Entries
		}
		return m, nil
	case TimesheetActionMsg:
		if typed.Err != nil {
			m.fail(typed.Action+" timesheet", typed.Err)
			return m, nil
		}
		m.Status = StatusBar{Text: fmt.Sprintf("timesheet %s: %s", typed.ID, typed.Action)}
		m.notify("Timesheet", m.Status.Text, "info")
		m.Timesheets.Loading = true
		return m, m.loadTimesheetsCmd()

	case ConversationsLoadedMsg:
		if typed.Err != nil {
			m.logger.Warn("load conversations failed", "err", typed.Err)
			return m, nil
		}
		m.Chat.Conversations = typed.Conversations
		m.Chat.Cursor = clampCursor(m.Chat.Cursor, len(typed.Conversations))
		return m, nil
	case MessagesLoadedMsg:
		if typed.Err != nil {
			if typed.Background {
				m.logger.Warn("message poll failed", "peer", typed.Peer.ID, "err", typed.Err)
				return m, nil
			}
			m.fail("load messages", typed.Err)
			return m, nil
		}
		if m.Chat.Peer.ID != "" && typed.Peer.ID != m.Chat.Peer.ID {
			return m, nil
		}
		m.Chat.Peer = typed.Peer
		m.setThread(typed.Messages)
		return m, nil
	case MessageSentMsg:
		if typed.Err != nil {
			m.fail("send message", typed.Err)
			return m, nil
		}
		m.setThread(append(m.Chat.Messages, typed.Message))
		m.Status = StatusBar{Text: "message sent"}
		return m, nil
	case DashboardMsg:
		m.applyDashboard(typed)
		return m, nil
	case UnreadCountMsg:
		if typed.Err != nil {
			m.logger.Debug("unread poll failed", "err", typed.Err)
			return m, nil
		}
		if typed.Count > m.Chat.Unread {
			m.notify("Messages", fmt.Sprintf("%d unread message(s)", typed.Count), "info")
		}
		m.Chat.Unread = typed.Count
		return m, nil
	}

	return m, nil
}

func (m Model) onBootstrap(msg BootstrapMsg) (Model, tea.Cmd) {
	if msg.FromCache {
		if m.User.ID != "" {
			return m, nil
		}
		m.Catalog = msg.Catalog
		m.Settings = msg.Settings
		return m, nil
	}
	if msg.Err != nil {
		m.fail("connect", msg.Err)
		return m, nil
	}
	m.User = msg.User
	m.Settings = msg.Settings
	m.Catalog = msg.Catalog
	m.applyDashboard(msg.Dashboard)

	// The first week day and the admin scope are only known now.
	rng := m.rangeFor(m.today())
	if rng != m.Range.Range || m.isAdmin() {
		m.Range.Range = rng
		return m, m.reloadRange(true)
	}
	return m, nil
}

// applyDashboard keeps the last good numbers when a refresh fails.
func (m *Model) applyDashboard(msg DashboardMsg) {
	if msg.Err != nil {
		m.logger.Warn("dashboard refresh failed", "err", msg.Err)
		if msg.Stats == (model.DashboardStats{}) {
			return
		}
	}
	m.Stats = msg.Stats
	if m.isAdmin() && msg.Err == nil {
		m.Running = msg.Timers
	}
}

// syncTimer copies the reconciler state into the view and starts the tick
// loop if the timer runs and no loop is active.
func (m *Model) syncTimer() tea.Cmd {
	if m.reconcile == nil {
		return nil
	}
	st := m.reconcile.State()
	m.Timer = TimerView{Running: st.Running, Elapsed: st.Elapsed, ProjectID: st.ProjectID, TaskID: st.TaskID}
	if !st.Running || m.ticking {
		return nil
	}
	m.ticking = true
	return timerTickCmd(m.intervals.Tick)
}

func (m Model) onPoll(ev scheduler.Event) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.engine != nil {
		cmds = append(cmds, waitForPollCmd(m.engine.C()))
	}
	switch ev.Kind {
	case scheduler.KindHeartbeat:
		if m.Timer.Running {
			cmds = append(cmds, m.heartbeatCmd())
		}
	case scheduler.KindMessages:
		if m.CurrentView == ViewMessages && m.User.ID != "" {
			if m.Chat.Peer.ID != "" || !m.isAdmin() {
				cmds = append(cmds, m.loadMessagesCmd(m.Chat.Peer, true))
			}
			if m.isAdmin() {
				cmds = append(cmds, m.loadConversationsCmd())
			}
		}
	case scheduler.KindUnread:
		if m.User.ID != "" && m.CurrentView != ViewMessages {
			cmds = append(cmds, m.unreadCmd())
		}
	case scheduler.KindSync:
		if m.User.ID != "" && !m.Range.Loading {
			cmds = append(cmds, m.syncRange(), m.dashboardCmd())
		}
	}
	cmds = append(cmds, m.rearmPoll(ev.Kind))
	return m, tea.Batch(cmds...)
}

// syncRange reloads the shown range quietly: no spinner, no cleared
// records, and a failure leaves the view as it is.
func (m *Model) syncRange() tea.Cmd {
	if m.backend == nil {
		return nil
	}
	m.Range.Gen++
	return m.liveRangeCmd(true)
}

func (m Model) onRecords(msg RecordsLoadedMsg) (Model, tea.Cmd) {
	if msg.Gen != m.Range.Gen {
		m.logger.Debug("dropping stale records", "gen", msg.Gen, "current", m.Range.Gen)
		return m, nil
	}
	if msg.FromCache {
		if m.Range.LiveLoaded {
			return m, nil
		}
		m.Range.Records = msg.Records
		m.Range.FromCache = true
		if !msg.SyncedAt.IsZero() {
			m.LastSync = msg.SyncedAt
		}
		return m, nil
	}
	if msg.Background && msg.Err != nil {
		m.logger.Warn("background sync failed", "range", calendar.DateKey(msg.Range.Start), "err", msg.Err)
		return m, nil
	}
	m.Range.Loading = false
	m.spinnerActive = false
	if msg.Err != nil {
		m.logger.Warn("load entries failed", "range", calendar.DateKey(msg.Range.Start), "err", msg.Err)
		m.LastError = msg.Err
		m.Status = StatusBar{Text: "could not refresh entries: " + errorText(msg.Err), IsError: true}
		return m, nil
	}
	m.Range.Records = msg.Records
	m.Range.LiveLoaded = true
	m.Range.FromCache = false
	m.LastSync = msg.SyncedAt
	m.Range.RowCursor = clampCursor(m.Range.RowCursor, len(m.dayEntries()))
	return m, nil
}

// reloadRange starts a new generation for the current range. Responses of
// earlier generations are dropped on arrival. When reset is set the shown
// records belong to another range or user and are cleared.
func (m *Model) reloadRange(reset bool) tea.Cmd {
	if m.backend == nil {
		return nil
	}
	m.Range.Gen++
	m.Range.Loading = true
	m.Range.LiveLoaded = false
	if reset {
		m.Range.Records = nil
		m.Range.FromCache = false
		m.Range.RowCursor = 0
	}
	cmds := []tea.Cmd{m.loadRangeCmd()}
	if !m.spinnerActive {
		m.spinnerActive = true
		cmds = append(cmds, m.syncSpinner.Tick)
	}
	return tea.Batch(cmds...)
}

// moveRange shifts the shown range by offset spans, or back to today for 0.
func (m *Model) moveRange(offset int) tea.Cmd {
	switch {
	case offset == 0:
		m.Range.Range = m.rangeFor(m.today())
	case m.Range.Span == SpanMonth:
		m.Range.Range = calendar.MonthOf(m.Range.Range.Start.AddDate(0, offset, 0))
	default:
		m.Range.Range = m.Range.Range.Shift(offset)
	}
	m.Range.DayCursor = 0
	if idx := m.Range.Range.Index(calendar.DateKey(m.today())); idx >= 0 {
		m.Range.DayCursor = idx
	}
	return m.reloadRange(true)
}

func (m *Model) toggleSpan() tea.Cmd {
	anchor := m.Range.Range.Start
	if idx := m.Range.Range.Index(calendar.DateKey(m.today())); idx >= 0 {
		anchor = m.today()
	}
	if m.Range.Span == SpanWeek {
		m.Range.Span = SpanMonth
	} else {
		m.Range.Span = SpanWeek
	}
	m.Range.Range = m.rangeFor(anchor)
	m.savePrefs()
	m.Status = StatusBar{Text: "span: " + string(m.Range.Span)}
	return m.reloadRange(true)
}

func (m Model) setView(v View) (Model, tea.Cmd) {
	m.CurrentView = v
	m.savePrefs()
	var cmd tea.Cmd
	switch v {
	case ViewTracker:
		if m.Range.Span == SpanMonth {
			m.Range.Span = SpanWeek
			m.Range.Range = m.rangeFor(m.today())
			cmd = m.reloadRange(true)
		}
	case ViewTimesheets:
		if m.backend != nil && m.Timesheets.Items == nil {
			m.Timesheets.Loading = true
			cmd = m.loadTimesheetsCmd()
		}
	case ViewMessages:
		if m.backend == nil {
			break
		}
		if m.isAdmin() {
			cmd = m.loadConversationsCmd()
		} else {
			m.Chat.Unread = 0
			cmd = m.loadMessagesCmd(m.Chat.Peer, false)
		}
	}
	return m, cmd
}

func (m Model) refreshAll() (Model, tea.Cmd) {
	m.Status = StatusBar{Text: "sync started"}
	cmds := []tea.Cmd{m.reloadRange(false)}
	if m.backend != nil {
		cmds = append(cmds, m.bootstrapCmd())
	}
	if m.CurrentView == ViewTimesheets && m.backend != nil {
		m.Timesheets.Loading = true
		cmds = append(cmds, m.loadTimesheetsCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}
	leftPane := ""
	rightPane := ""
	switch m.CurrentView {
	case ViewTracker:
		leftPane = m.renderTrackerView()
		rightPane = m.renderEntryPane()
	case ViewDetailed:
		leftPane = m.renderDetailedView()
		rightPane = m.renderBucketPane()
	case ViewReport:
		leftPane = m.renderReportView()
	case ViewTimesheets:
		leftPane = m.renderTimesheetsView()
		rightPane = m.renderTimesheetPane()
	case ViewMessages:
		leftPane = m.renderMessagesView()
		rightPane = m.renderThreadPane()
	}
	if palette := m.renderCommandPalette(); palette != "" {
		rightPane = strings.TrimSpace(palette + "\n\n" + rightPane)
	}
	rightPane += m.renderHelpIfVisible()

	notificationView := ""
	if m.spinnerActive {
		notificationView = "sync: " + m.syncSpinner.View() + " running"
	}
	notificationView = strings.TrimSpace(strings.Join([]string{
		notificationView,
		strings.TrimSpace(m.renderNotificationsView()),
	}, "\n"))

	who := m.User.Name
	if who == "" {
		who = "connecting"
	}
	timerLabel := "stopped"
	if m.Timer.Running {
		timerLabel = timer.Format(m.Timer.Elapsed)
	}
	unread := ""
	if m.Chat.Unread > 0 {
		unread = fmt.Sprintf(" | %d unread", m.Chat.Unread)
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("punchcard | %s | %s | timer %s | %s%s", who, m.CurrentView, timerLabel, m.syncLabel(), unread),
		LeftPane:     leftPane,
		RightPane:    rightPane,
		StatusLine:   status,
		Notification: notificationView,
		Footer: fmt.Sprintf("keys: %s tracker | %s detailed | %s report | %s timesheets | %s messages | / cmd | S sync | %s help | %s quit",
			m.Keys.Tracker, m.Keys.Detailed, m.Keys.Report, m.Keys.Timesheets, m.Keys.Messages, m.Keys.Help, m.Keys.Quit),
	})
}
