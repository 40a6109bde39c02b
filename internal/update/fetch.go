package update

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/punchcard/internal/api"
	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/model"
	"github.com/sandeepkv93/punchcard/internal/scheduler"
	"github.com/sandeepkv93/punchcard/internal/storage"
	"github.com/sandeepkv93/punchcard/internal/timelog"
	"github.com/sandeepkv93/punchcard/internal/timer"
)

type SwitchViewMsg struct {
	View View
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type TimerTickMsg struct{}

type PollDueMsg struct {
	Event scheduler.Event
}

// TimerStoppedSignalMsg arrives after any successful stop, from the
// reconciler's stop callback.
type TimerStoppedSignalMsg struct{}

type BootstrapMsg struct {
	User      model.User
	Settings  model.Settings
	Catalog   model.Catalog
	Dashboard DashboardMsg
	FromCache bool
	Err       error
}

// DashboardMsg carries the summary numbers and, for admins, every running
// timer. Its errors are only logged.
type DashboardMsg struct {
	Stats  model.DashboardStats
	Timers []model.ActiveTimerSummary
	Err    error
}

type TimerResumedMsg struct {
	State timer.State
	Err   error
}

type TimerStartedMsg struct {
	Active model.ActiveTimer
	Err    error
}

type TimerStopResultMsg struct {
	Err error
}

// RecordsLoadedMsg answers a range load. Background loads come from the
// sync poll and never surface their errors.
type RecordsLoadedMsg struct {
	Gen        uint64
	Range      calendar.Range
	Records    []model.TimeRecord
	FromCache  bool
	Background bool
	SyncedAt   time.Time
	Err        error
}

type EntrySavedMsg struct {
	Record  model.TimeRecord
	Updated bool
	Err     error
}

type EntryDeletedMsg struct {
	ID  string
	Err error
}

type TimesheetsLoadedMsg struct {
	Status model.TimesheetStatus
	Items  []model.Timesheet
	Err    error
}

type TimesheetEntriesMsg struct {
	ID      string
	Entries []model.TimeRecord
	Err     error
}

type TimesheetActionMsg struct {
	Action string
	ID     string
	Err    error
}

type ConversationsLoadedMsg struct {
	Conversations []model.Conversation
	Err           error
}

type MessagesLoadedMsg struct {
	Peer       model.User
	Messages   []model.Message
	Background bool
	Err        error
}

type MessageSentMsg struct {
	Message model.Message
	Err     error
}

type UnreadCountMsg struct {
	Count int
	Err   error
}

func waitForPollCmd(ch <-chan scheduler.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return PollDueMsg{Event: ev}
	}
}

func waitForStopCmd(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return TimerStoppedSignalMsg{}
	}
}

func timerTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return TimerTickMsg{} })
}

func (m Model) bootstrapCmd() tea.Cmd {
	backend, ctx, cache, logger := m.backend, m.ctx, m.cache, m.logger
	return func() tea.Msg {
		user, err := backend.Me(ctx)
		if err != nil {
			return BootstrapMsg{Err: fmt.Errorf("load profile: %w", err)}
		}
		settings, err := backend.Settings(ctx)
		if err != nil {
			logger.Warn("load settings failed, using defaults", "err", err)
			settings = model.DefaultSettings()
		}
		catalog, err := backend.ReferenceData(ctx, user.IsAdmin())
		if err != nil {
			return BootstrapMsg{User: user, Settings: settings, Err: fmt.Errorf("load projects: %w", err)}
		}
		dash := fetchDashboard(ctx, backend, user.IsAdmin())
		if dash.Err != nil {
			logger.Warn("load dashboard failed", "err", dash.Err)
		}
		if cache != nil {
			writeCatalog(m, catalog, settings, user)
		}
		return BootstrapMsg{User: user, Settings: settings, Catalog: catalog, Dashboard: dash}
	}
}

func fetchDashboard(ctx context.Context, backend Backend, admin bool) DashboardMsg {
	stats, err := backend.DashboardStats(ctx)
	if err != nil {
		return DashboardMsg{Err: fmt.Errorf("dashboard stats: %w", err)}
	}
	out := DashboardMsg{Stats: stats}
	if admin {
		timers, err := backend.ActiveTimers(ctx)
		if err != nil {
			out.Err = fmt.Errorf("active timers: %w", err)
			return out
		}
		out.Timers = timers
	}
	return out
}

func (m Model) dashboardCmd() tea.Cmd {
	backend, ctx, admin := m.backend, m.ctx, m.isAdmin()
	return func() tea.Msg {
		return fetchDashboard(ctx, backend, admin)
	}
}

func writeCatalog(m Model, catalog model.Catalog, settings model.Settings, user model.User) {
	ctx, cache, logger := m.ctx, m.cache, m.logger
	errs := []error{
		cache.ReplaceProjects(ctx, catalog.Projects),
		cache.ReplaceTasks(ctx, catalog.Tasks),
		cache.ReplaceUsers(ctx, catalog.Users),
		cache.SaveSettings(ctx, settings),
		cache.SetMeta(ctx, storage.MetaUserID, user.ID),
	}
	if err := errors.Join(errs...); err != nil {
		logger.Warn("cache reference data failed", "err", err)
	}
}

// cachedBootstrapCmd reads the last known reference data so the views have
// names to show before the server answers.
func (m Model) cachedBootstrapCmd() tea.Cmd {
	if m.cache == nil {
		return nil
	}
	ctx, cache := m.ctx, m.cache
	return func() tea.Msg {
		projects, err := cache.ListProjects(ctx)
		if err != nil {
			return nil
		}
		tasks, _ := cache.ListTasks(ctx, "")
		users, _ := cache.ListUsers(ctx)
		settings, err := cache.LoadSettings(ctx)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			settings = model.DefaultSettings()
		}
		return BootstrapMsg{
			Settings:  settings,
			Catalog:   model.Catalog{Projects: projects, Tasks: tasks, Users: users},
			FromCache: true,
		}
	}
}

func (m Model) resumeCmd() tea.Cmd {
	if m.reconcile == nil {
		return nil
	}
	r, ctx := m.reconcile, m.ctx
	return func() tea.Msg {
		err := r.Resume(ctx)
		return TimerResumedMsg{State: r.State(), Err: err}
	}
}

func (m Model) startTimerCmd(projectID, taskID string) tea.Cmd {
	r, ctx := m.reconcile, m.ctx
	return func() tea.Msg {
		active, err := r.Start(ctx, projectID, taskID)
		return TimerStartedMsg{Active: active, Err: err}
	}
}

func (m Model) stopTimerCmd(notes string) tea.Cmd {
	r, ctx := m.reconcile, m.ctx
	return func() tea.Msg {
		return TimerStopResultMsg{Err: r.Stop(ctx, notes)}
	}
}

func (m Model) heartbeatCmd() tea.Cmd {
	r, ctx := m.reconcile, m.ctx
	return func() tea.Msg {
		r.Heartbeat(ctx)
		return nil
	}
}

// liveRangeCmd fetches the current range from the server and refreshes the
// cache with it.
func (m Model) liveRangeCmd(background bool) tea.Cmd {
	gen, rng, userID, scope := m.Range.Gen, m.Range.Range, m.Range.UserID, m.scope()
	backend, cache, ctx, logger, now := m.backend, m.cache, m.ctx, m.logger, m.now
	start, end := calendar.DateKey(rng.Start), calendar.DateKey(rng.End())

	return func() tea.Msg {
		records, err := backend.TimeEntries(ctx, api.EntryFilter{StartDate: start, EndDate: end, UserID: userID})
		if err != nil {
			return RecordsLoadedMsg{Gen: gen, Range: rng, Background: background, Err: err}
		}
		syncedAt := now()
		if cache != nil {
			if err := cache.ReplaceRecords(ctx, scope, start, end, records); err != nil {
				logger.Warn("cache records failed", "scope", scope, "err", err)
			} else if err := cache.MarkSynced(ctx, syncedAt); err != nil {
				logger.Warn("record sync time failed", "err", err)
			}
		}
		return RecordsLoadedMsg{Gen: gen, Range: rng, Records: records, Background: background, SyncedAt: syncedAt}
	}
}

// loadRangeCmd emits the cached snapshot (when there is one) and the live
// records for the current range, both tagged with the current generation.
func (m Model) loadRangeCmd() tea.Cmd {
	gen, rng, scope := m.Range.Gen, m.Range.Range, m.scope()
	cache, ctx, logger := m.cache, m.ctx, m.logger
	start, end := calendar.DateKey(rng.Start), calendar.DateKey(rng.End())

	live := m.liveRangeCmd(false)
	if cache == nil {
		return live
	}
	cached := func() tea.Msg {
		records, err := cache.ListRecords(ctx, storage.RecordFilter{Scope: scope, StartDay: start, EndDay: end})
		if err != nil {
			logger.Warn("read cached records failed", "err", err)
			return nil
		}
		msg := RecordsLoadedMsg{Gen: gen, Range: rng, Records: records, FromCache: true}
		if at, err := cache.LastSync(ctx); err == nil {
			msg.SyncedAt = at
		}
		return msg
	}
	return tea.Batch(cached, live)
}

// saveEntryCmd creates the entry for a draft editor and replaces the
// existing one otherwise.
func (m Model) saveEntryCmd(editor timelog.Editor, entry model.ManualEntry) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	if editor.IsNew() {
		return func() tea.Msg {
			rec, err := backend.CreateEntry(ctx, entry)
			return EntrySavedMsg{Record: rec, Err: err}
		}
	}
	id := editor.EntryID
	return func() tea.Msg {
		rec, err := backend.UpdateEntry(ctx, id, entry)
		return EntrySavedMsg{Record: rec, Updated: true, Err: err}
	}
}

func (m Model) deleteEntryCmd(id string) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		return EntryDeletedMsg{ID: id, Err: backend.DeleteEntry(ctx, id)}
	}
}

func (m Model) loadTimesheetsCmd() tea.Cmd {
	backend, ctx, status := m.backend, m.ctx, m.Timesheets.Status
	return func() tea.Msg {
		items, err := backend.Timesheets(ctx, status)
		return TimesheetsLoadedMsg{Status: status, Items: items, Err: err}
	}
}

func (m Model) loadTimesheetEntriesCmd(id string) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		entries, err := backend.TimesheetEntries(ctx, id)
		return TimesheetEntriesMsg{ID: id, Entries: entries, Err: err}
	}
}

func (m Model) timesheetActionCmd(action, id string, run func() error) tea.Cmd {
	return func() tea.Msg {
		return TimesheetActionMsg{Action: action, ID: id, Err: run()}
	}
}

func (m Model) loadConversationsCmd() tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		list, err := backend.Conversations(ctx)
		return ConversationsLoadedMsg{Conversations: list, Err: err}
	}
}

// loadMessagesCmd fetches the thread with peer, or with the administrator
// when peer is empty, and marks it read. Polls pass background.
func (m Model) loadMessagesCmd(peer model.User, background bool) tea.Cmd {
	backend, ctx, logger := m.backend, m.ctx, m.logger
	return func() tea.Msg {
		if peer.ID == "" {
			admin, err := backend.Admin(ctx)
			if err != nil {
				return MessagesLoadedMsg{Background: background, Err: err}
			}
			peer = admin
		}
		msgs, err := backend.Messages(ctx, peer.ID)
		if err != nil {
			return MessagesLoadedMsg{Peer: peer, Background: background, Err: err}
		}
		if err := backend.MarkRead(ctx, peer.ID); err != nil {
			logger.Warn("mark messages read failed", "peer", peer.ID, "err", err)
		}
		return MessagesLoadedMsg{Peer: peer, Messages: msgs, Background: background}
	}
}

func (m Model) sendMessageCmd(receiverID, content string) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		msg, err := backend.SendMessage(ctx, receiverID, content)
		return MessageSentMsg{Message: msg, Err: err}
	}
}

// unreadCmd counts unread messages: across conversations for admins, in
// the administrator thread for everyone else.
func (m Model) unreadCmd() tea.Cmd {
	backend, ctx, admin, userID := m.backend, m.ctx, m.isAdmin(), m.User.ID
	return func() tea.Msg {
		if admin {
			list, err := backend.Conversations(ctx)
			if err != nil {
				return UnreadCountMsg{Err: err}
			}
			total := 0
			for _, c := range list {
				total += c.UnreadCount
			}
			return UnreadCountMsg{Count: total}
		}
		peer, err := backend.Admin(ctx)
		if err != nil {
			return UnreadCountMsg{Err: err}
		}
		msgs, err := backend.Messages(ctx, peer.ID)
		if err != nil {
			return UnreadCountMsg{Err: err}
		}
		count := 0
		for _, msg := range msgs {
			if !msg.Read && msg.SenderID != userID {
				count++
			}
		}
		return UnreadCountMsg{Count: count}
	}
}
