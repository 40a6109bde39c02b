package update

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/punchcard/internal/api"
	"github.com/sandeepkv93/punchcard/internal/grouping"
	"github.com/sandeepkv93/punchcard/internal/model"
	"github.com/sandeepkv93/punchcard/internal/scheduler"
	"github.com/sandeepkv93/punchcard/internal/storage"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

type fakeBackend struct {
	clock    *testClock
	user     model.User
	admin    model.User
	catalog  model.Catalog
	entries  []model.TimeRecord
	messages []model.Message

	created  []model.ManualEntry
	updated  map[string]model.ManualEntry
	deleted  []string
	reviews  map[string]model.Review
	sent     []string
	marked   []string
	startErr error
	stopped  int

	messagesErr error
	entriesErr  error
	stats       model.DashboardStats
	running     []model.ActiveTimerSummary
}

func newFakeBackend(clock *testClock) *fakeBackend {
	return &fakeBackend{
		clock: clock,
		user:  model.User{ID: "u1", Name: "Uma", Role: "employee"},
		admin: model.User{ID: "adm", Name: "Ada", Role: "admin"},
		catalog: model.Catalog{
			Projects: []model.Project{{ID: "p1", Name: "Alpha"}},
			Tasks:    []model.Task{{ID: "t1", ProjectID: "p1", Name: "Build"}},
		},
		reviews: make(map[string]model.Review),
		updated: make(map[string]model.ManualEntry),
	}
}

func (f *fakeBackend) StartTimer(_ context.Context, projectID, taskID string) (model.ActiveTimer, error) {
	if f.startErr != nil {
		return model.ActiveTimer{}, f.startErr
	}
	return model.ActiveTimer{ID: "timer-1", StartTime: f.clock.Now(), ProjectID: projectID, TaskID: taskID}, nil
}

func (f *fakeBackend) StopTimer(context.Context, string) error {
	f.stopped++
	return nil
}

func (f *fakeBackend) ActiveTimer(context.Context) (*model.ActiveTimer, error) { return nil, nil }
func (f *fakeBackend) Heartbeat(context.Context) error                       { return nil }
func (f *fakeBackend) Me(context.Context) (model.User, error)                { return f.user, nil }

func (f *fakeBackend) TimeEntries(_ context.Context, filter api.EntryFilter) ([]model.TimeRecord, error) {
	if f.entriesErr != nil {
		return nil, f.entriesErr
	}
	out := make([]model.TimeRecord, 0)
	for _, rec := range f.entries {
		if rec.Day() >= filter.StartDate && rec.Day() <= filter.EndDate {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeBackend) CreateEntry(_ context.Context, entry model.ManualEntry) (model.TimeRecord, error) {
	f.created = append(f.created, entry)
	return model.TimeRecord{ID: "new", ProjectID: entry.ProjectID, StartTime: entry.StartTime, EndTime: entry.EndTime, Duration: entry.Duration}, nil
}

func (f *fakeBackend) UpdateEntry(_ context.Context, id string, entry model.ManualEntry) (model.TimeRecord, error) {
	f.updated[id] = entry
	return model.TimeRecord{ID: id, ProjectID: entry.ProjectID, StartTime: entry.StartTime, EndTime: entry.EndTime, Duration: entry.Duration}, nil
}

func (f *fakeBackend) DeleteEntry(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) Settings(context.Context) (model.Settings, error) {
	return model.DefaultSettings(), nil
}

func (f *fakeBackend) ReferenceData(context.Context, bool) (model.Catalog, error) {
	return f.catalog, nil
}

func (f *fakeBackend) Timesheets(context.Context, model.TimesheetStatus) ([]model.Timesheet, error) {
	return nil, nil
}

func (f *fakeBackend) TimesheetEntries(context.Context, string) ([]model.TimeRecord, error) {
	return nil, nil
}

func (f *fakeBackend) SubmitTimesheet(context.Context, string) error { return nil }
func (f *fakeBackend) ReopenTimesheet(context.Context, string) error { return nil }

func (f *fakeBackend) ReviewTimesheet(_ context.Context, id string, review model.Review) error {
	f.reviews[id] = review
	return nil
}

func (f *fakeBackend) Conversations(context.Context) ([]model.Conversation, error) { return nil, nil }
func (f *fakeBackend) Admin(context.Context) (model.User, error)                  { return f.admin, nil }

func (f *fakeBackend) Messages(context.Context, string) ([]model.Message, error) {
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	return f.messages, nil
}

func (f *fakeBackend) SendMessage(_ context.Context, receiverID, content string) (model.Message, error) {
	f.sent = append(f.sent, receiverID+":"+content)
	return model.Message{ID: "m-new", SenderID: f.user.ID, RecipientID: receiverID, Content: content, CreatedAt: f.clock.Now()}, nil
}

func (f *fakeBackend) MarkRead(_ context.Context, userID string) error {
	f.marked = append(f.marked, userID)
	return nil
}

func (f *fakeBackend) DashboardStats(context.Context) (model.DashboardStats, error) {
	return f.stats, nil
}

func (f *fakeBackend) ActiveTimers(context.Context) ([]model.ActiveTimerSummary, error) {
	return f.running, nil
}

// Wednesday.
var testNow = time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (Model, *fakeBackend, *testClock) {
	t.Helper()
	clock := &testClock{t: testNow}
	backend := newFakeBackend(clock)
	m := NewModel(Deps{Backend: backend, Now: clock.Now, Location: time.UTC})
	m.Catalog = backend.catalog
	return m, backend, clock
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return out, cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func runPalette(t *testing.T, m Model, input string) (Model, tea.Cmd) {
	t.Helper()
	m, _ = send(t, m, keyRunes("/"))
	if !m.Palette.Active {
		t.Fatal("expected palette to open")
	}
	m, _ = send(t, m, keyRunes(input))
	return send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(Deps{Now: func() time.Time { return testNow }, Location: time.UTC})
	if m.CurrentView != ViewTracker {
		t.Fatalf("expected default view %q, got %q", ViewTracker, m.CurrentView)
	}
	if m.Keys.Quit != "q" {
		t.Fatalf("expected quit key q, got %q", m.Keys.Quit)
	}
	if m.Detailed.Mode != grouping.ModeDay || m.Range.Span != SpanWeek {
		t.Fatalf("unexpected defaults: mode=%s span=%s", m.Detailed.Mode, m.Range.Span)
	}
	if m.Range.Range.Days != 7 || m.Range.Range.Start.Weekday() != time.Monday {
		t.Fatalf("expected a monday-first week, got %+v", m.Range.Range)
	}
	if m.Range.DayCursor != 2 {
		t.Fatalf("expected cursor on wednesday, got %d", m.Range.DayCursor)
	}
}

func TestUpdateKeySwitchesView(t *testing.T) {
	m := NewModel(Deps{})
	m, _ = send(t, m, keyRunes("2"))
	if m.CurrentView != ViewDetailed {
		t.Fatalf("expected detailed view, got %q", m.CurrentView)
	}
	m, _ = send(t, m, keyRunes("3"))
	if m.CurrentView != ViewReport {
		t.Fatalf("expected report view, got %q", m.CurrentView)
	}
}

func TestUpdateSwitchViewMsg(t *testing.T) {
	m := NewModel(Deps{})
	m, _ = send(t, m, SwitchViewMsg{View: ViewTimesheets})
	if m.CurrentView != ViewTimesheets {
		t.Fatalf("expected timesheets view, got %q", m.CurrentView)
	}
	m, _ = send(t, m, SwitchViewMsg{View: View("Unknown")})
	if m.CurrentView != ViewTimesheets {
		t.Fatalf("expected view unchanged for unknown view, got %q", m.CurrentView)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m := NewModel(Deps{})
	m, _ = send(t, m, SetStatusMsg{Text: "ready"})
	if m.Status.Text != "ready" || m.Status.IsError {
		t.Fatalf("unexpected status: %+v", m.Status)
	}

	m, _ = send(t, m, AppErrorMsg{Err: errors.New("boom")})
	if m.LastError == nil || m.LastError.Error() != "boom" {
		t.Fatalf("expected last error boom, got: %v", m.LastError)
	}
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "boom") {
		t.Fatalf("unexpected error status: %+v", m.Status)
	}

	m, _ = send(t, m, ClearStatusMsg{})
	if m.Status.Text != "" || m.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", m.Status)
	}
}

func TestStaleRecordsAreDropped(t *testing.T) {
	m, _, _ := newTestModel(t)
	oldGen := m.Range.Gen
	oldRange := m.Range.Range

	m, cmd := send(t, m, keyRunes("L"))
	if cmd == nil || m.Range.Gen != oldGen+1 {
		t.Fatalf("expected next week to start generation %d, got %d", oldGen+1, m.Range.Gen)
	}
	if !m.Range.Loading {
		t.Fatal("expected loading state")
	}

	stale := RecordsLoadedMsg{Gen: oldGen, Range: oldRange, Records: []model.TimeRecord{
		{ID: "old", UserID: "u1", ProjectID: "p1", Date: "2026-02-04", Duration: 3600},
	}}
	m, _ = send(t, m, stale)
	if len(m.Range.Records) != 0 || !m.Range.Loading {
		t.Fatalf("stale response was applied: %+v", m.Range)
	}

	fresh := RecordsLoadedMsg{Gen: m.Range.Gen, Range: m.Range.Range, SyncedAt: testNow, Records: []model.TimeRecord{
		{ID: "new", UserID: "u1", ProjectID: "p1", Date: "2026-02-10", Duration: 1800},
	}}
	m, _ = send(t, m, fresh)
	if len(m.Range.Records) != 1 || m.Range.Records[0].ID != "new" || m.Range.Loading || !m.Range.LiveLoaded {
		t.Fatalf("fresh response not applied: %+v", m.Range)
	}

	late := RecordsLoadedMsg{Gen: m.Range.Gen, Range: m.Range.Range, FromCache: true}
	m, _ = send(t, m, late)
	if len(m.Range.Records) != 1 {
		t.Fatal("cached snapshot overwrote live data")
	}
}

func TestLoadErrorKeepsCachedRecords(t *testing.T) {
	m, _, _ := newTestModel(t)
	cached := RecordsLoadedMsg{Gen: m.Range.Gen, FromCache: true, Records: []model.TimeRecord{
		{ID: "c1", UserID: "u1", Date: "2026-02-03", Duration: 600},
	}}
	m, _ = send(t, m, cached)
	if !m.Range.FromCache || len(m.Range.Records) != 1 {
		t.Fatalf("expected cached records, got %+v", m.Range)
	}
	m, _ = send(t, m, RecordsLoadedMsg{Gen: m.Range.Gen, Err: &api.APIError{Status: 502, Detail: "bad gateway"}})
	if len(m.Range.Records) != 1 || !m.Status.IsError || !strings.Contains(m.Status.Text, "bad gateway") {
		t.Fatalf("expected cached records and error status, got %+v %+v", m.Range.Records, m.Status)
	}
}

func TestLoadRangeWritesCache(t *testing.T) {
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer repo.Close()

	clock := &testClock{t: testNow}
	backend := newFakeBackend(clock)
	backend.entries = []model.TimeRecord{
		{ID: "r1", UserID: "u1", ProjectID: "p1", Date: "2026-02-04", Duration: 3600},
		{ID: "r2", UserID: "u1", ProjectID: "p1", Date: "2026-03-01", Duration: 60},
	}
	m := NewModel(Deps{Backend: backend, Cache: repo, Now: clock.Now, Location: time.UTC})

	batch, ok := m.loadRangeCmd()().(tea.BatchMsg)
	if !ok || len(batch) != 2 {
		t.Fatalf("expected cached and live loads, got %T", batch)
	}
	live, ok := batch[1]().(RecordsLoadedMsg)
	if !ok || live.FromCache || live.Err != nil || len(live.Records) != 1 {
		t.Fatalf("unexpected live result: %+v", live)
	}

	again, ok := m.loadRangeCmd()().(tea.BatchMsg)
	if !ok {
		t.Fatal("expected batch")
	}
	cached, ok := again[0]().(RecordsLoadedMsg)
	if !ok || !cached.FromCache || len(cached.Records) != 1 || cached.Records[0].ID != "r1" {
		t.Fatalf("expected record served from cache, got %+v", cached)
	}
	if cached.SyncedAt.IsZero() {
		t.Fatal("expected last sync time from cache")
	}
}

func TestPaletteLogCreatesEntry(t *testing.T) {
	m, backend, _ := newTestModel(t)
	m, cmd := runPalette(t, m, "log 2026-02-09 09:00 +1:30 Alpha Build")
	if m.Palette.Active {
		t.Fatal("expected palette to close")
	}
	if m.Status.IsError || cmd == nil {
		t.Fatalf("expected pending save, status=%+v", m.Status)
	}
	saved, ok := cmd().(EntrySavedMsg)
	if !ok || saved.Err != nil {
		t.Fatalf("unexpected save result: %+v", saved)
	}
	if len(backend.created) != 1 {
		t.Fatalf("expected one created entry, got %d", len(backend.created))
	}
	entry := backend.created[0]
	wantStart := time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)
	if !entry.StartTime.Equal(wantStart) || entry.Duration != 5400 || entry.ProjectID != "p1" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.TaskID == nil || *entry.TaskID != "t1" {
		t.Fatalf("expected task t1, got %v", entry.TaskID)
	}

	gen := m.Range.Gen
	m, cmd = send(t, m, saved)
	if cmd == nil || m.Range.Gen != gen+1 {
		t.Fatal("expected a reload after saving")
	}
}

func TestPaletteErrors(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, cmd := runPalette(t, m, "start Gamma")
	if cmd != nil || !m.Status.IsError || !strings.Contains(m.Status.Text, "unknown project") {
		t.Fatalf("expected unknown project error, got %+v", m.Status)
	}

	m, _ = runPalette(t, m, "review ts-1 deny")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "comment") {
		t.Fatalf("expected comment error, got %+v", m.Status)
	}

	m, _ = runPalette(t, m, "stop")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "no timer running") {
		t.Fatalf("expected stop error, got %+v", m.Status)
	}
}

func TestTimerStartTickAndStop(t *testing.T) {
	m, backend, clock := newTestModel(t)

	m, cmd := runPalette(t, m, "start alpha build")
	if cmd == nil {
		t.Fatalf("expected start command, status=%+v", m.Status)
	}
	started, ok := cmd().(TimerStartedMsg)
	if !ok || started.Err != nil {
		t.Fatalf("unexpected start result: %+v", started)
	}
	m, cmd = send(t, m, started)
	if !m.Timer.Running || m.Timer.ProjectID != "p1" || m.Timer.TaskID != "t1" || cmd == nil {
		t.Fatalf("expected running timer with tick loop, got %+v", m.Timer)
	}

	clock.t = clock.t.Add(65 * time.Second)
	m, cmd = send(t, m, TimerTickMsg{})
	if m.Timer.Elapsed != 65 || cmd == nil {
		t.Fatalf("expected 65s elapsed, got %d", m.Timer.Elapsed)
	}

	m, cmd = send(t, m, keyRunes("x"))
	if cmd == nil {
		t.Fatal("expected stop command")
	}
	if res, ok := cmd().(TimerStopResultMsg); !ok || res.Err != nil {
		t.Fatalf("unexpected stop result: %+v", res)
	}
	if backend.stopped != 1 {
		t.Fatalf("expected one stop call, got %d", backend.stopped)
	}

	signal := waitForStopCmd(m.stopped)()
	if _, ok := signal.(TimerStoppedSignalMsg); !ok {
		t.Fatalf("expected stop signal, got %T", signal)
	}
	gen := m.Range.Gen
	m, _ = send(t, m, signal)
	if m.Timer.Running || m.Range.Gen != gen+1 {
		t.Fatalf("expected stopped timer and reload, got %+v gen=%d", m.Timer, m.Range.Gen)
	}

	m, cmd = send(t, m, TimerTickMsg{})
	if cmd != nil || m.ticking {
		t.Fatal("tick loop should end once the timer stops")
	}
}

func TestTimerStartFailureShowsError(t *testing.T) {
	m, backend, _ := newTestModel(t)
	backend.startErr = &api.APIError{Status: 409, Detail: "timer already running"}
	started, _ := m.startTimerCmd("p1", "")().(TimerStartedMsg)
	m, cmd := send(t, m, started)
	if m.Timer.Running || cmd != nil {
		t.Fatal("failed start must not run the timer")
	}
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "timer already running") {
		t.Fatalf("expected server detail in status, got %+v", m.Status)
	}
}

func TestBootstrapAppliesProfile(t *testing.T) {
	m, backend, _ := newTestModel(t)
	msg, ok := m.bootstrapCmd()().(BootstrapMsg)
	if !ok || msg.Err != nil {
		t.Fatalf("unexpected bootstrap: %+v", msg)
	}
	m, cmd := send(t, m, msg)
	if m.User.ID != "u1" || len(m.Catalog.Projects) != 1 {
		t.Fatalf("profile not applied: %+v", m.User)
	}
	if cmd != nil {
		t.Fatal("employee with unchanged week should not reload")
	}

	backend.user = model.User{ID: "adm", Name: "Ada", Role: "admin"}
	msg, _ = m.bootstrapCmd()().(BootstrapMsg)
	gen := m.Range.Gen
	m, cmd = send(t, m, msg)
	if cmd == nil || m.Range.Gen != gen+1 || m.scope() != storage.ScopeAll {
		t.Fatalf("admin bootstrap should reload all users, scope=%s", m.scope())
	}
}

func TestDetailedGroupingAndSpan(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = send(t, m, keyRunes("2"))
	m.Range.Records = []model.TimeRecord{
		{ID: "a", UserID: "u1", ProjectID: "p1", Date: "2026-02-02", Duration: 3600},
		{ID: "b", UserID: "u1", ProjectID: "p1", Date: "2026-02-03", Duration: 1800},
	}
	if got := len(m.buckets()); got != 2 {
		t.Fatalf("expected 2 day buckets, got %d", got)
	}
	m, _ = send(t, m, keyRunes("g"))
	if m.Detailed.Mode != grouping.ModeWeek || len(m.buckets()) != 1 {
		t.Fatalf("expected one week bucket, mode=%s", m.Detailed.Mode)
	}

	m, cmd := send(t, m, keyRunes("v"))
	if m.Range.Span != SpanMonth || m.Range.Range.Days != 28 || cmd == nil {
		t.Fatalf("expected february month span, got %+v", m.Range.Range)
	}
	m, _ = send(t, m, keyRunes("l"))
	if m.Range.Range.Start.Month() != time.March || m.Range.Range.Days != 31 {
		t.Fatalf("expected march, got %+v", m.Range.Range)
	}

	m, _ = send(t, m, keyRunes("1"))
	if m.Range.Span != SpanWeek || m.Range.Range.Days != 7 {
		t.Fatalf("tracker should fall back to week span, got %s", m.Range.Span)
	}
}

func TestPrefsSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui", "state.json")
	m := NewModel(Deps{StatePath: path})
	m, _ = send(t, m, keyRunes("2"))
	m, _ = send(t, m, keyRunes("g"))
	m, _ = send(t, m, keyRunes("v"))

	restored := NewModel(Deps{StatePath: path})
	if restored.CurrentView != ViewDetailed || restored.Detailed.Mode != grouping.ModeWeek || restored.Range.Span != SpanMonth {
		t.Fatalf("prefs not restored: view=%s mode=%s span=%s", restored.CurrentView, restored.Detailed.Mode, restored.Range.Span)
	}
}

func TestAdminApprovesTimesheet(t *testing.T) {
	m, backend, _ := newTestModel(t)
	m.User = backend.admin
	m.Timesheets.Items = []model.Timesheet{{ID: "ts-1", UserID: "u1", Status: model.TimesheetSubmitted}}
	m.CurrentView = ViewTimesheets

	m, cmd := send(t, m, keyRunes("a"))
	if cmd == nil {
		t.Fatal("expected review command")
	}
	res, ok := cmd().(TimesheetActionMsg)
	if !ok || res.Err != nil {
		t.Fatalf("unexpected review result: %+v", res)
	}
	if backend.reviews["ts-1"].Status != model.TimesheetApproved {
		t.Fatalf("expected approval, got %+v", backend.reviews)
	}
	m, cmd = send(t, m, res)
	if cmd == nil || !m.Timesheets.Loading {
		t.Fatal("expected timesheets reload after review")
	}
}

func TestEmployeeMessagesThread(t *testing.T) {
	m, backend, _ := newTestModel(t)
	m.User = backend.user
	backend.messages = []model.Message{
		{ID: "m1", SenderID: "adm", RecipientID: "u1", Content: "please submit", CreatedAt: testNow},
	}

	count, ok := m.unreadCmd()().(UnreadCountMsg)
	if !ok || count.Count != 1 {
		t.Fatalf("expected one unread message, got %+v", count)
	}
	m, _ = send(t, m, count)
	if m.Chat.Unread != 1 || len(m.Notifications) == 0 {
		t.Fatalf("expected unread badge and notification, got %+v", m.Chat)
	}

	m, cmd := send(t, m, keyRunes("5"))
	if cmd == nil || m.Chat.Unread != 0 {
		t.Fatal("opening messages should load the thread and clear the badge")
	}
	loaded, ok := cmd().(MessagesLoadedMsg)
	if !ok || loaded.Peer.ID != "adm" {
		t.Fatalf("expected admin thread, got %+v", loaded)
	}
	if len(backend.marked) != 1 || backend.marked[0] != "adm" {
		t.Fatalf("expected thread marked read, got %v", backend.marked)
	}
	m, _ = send(t, m, loaded)
	if m.Chat.Peer.ID != "adm" || len(m.Chat.Messages) != 1 {
		t.Fatalf("thread not applied: %+v", m.Chat)
	}

	m, cmd = runPalette(t, m, "msg on it")
	if cmd == nil {
		t.Fatalf("expected send command, status=%+v", m.Status)
	}
	sent, _ := cmd().(MessageSentMsg)
	m, _ = send(t, m, sent)
	if len(backend.sent) != 1 || backend.sent[0] != "adm:on it" || len(m.Chat.Messages) != 2 {
		t.Fatalf("message not sent: %v", backend.sent)
	}
}

func TestDeleteApprovedEntryRefused(t *testing.T) {
	m, backend, _ := newTestModel(t)
	m.Range.Records = []model.TimeRecord{
		{ID: "locked", UserID: "u1", ProjectID: "p1", Date: "2026-02-04", Duration: 600, ApprovalStatus: "approved"},
	}
	m, cmd := send(t, m, keyRunes("d"))
	if cmd != nil || !m.Status.IsError {
		t.Fatalf("expected refusal, got %+v", m.Status)
	}

	m.Range.Records[0].ApprovalStatus = "draft"
	m, cmd = send(t, m, keyRunes("d"))
	if cmd == nil {
		t.Fatal("expected delete command")
	}
	if res, ok := cmd().(EntryDeletedMsg); !ok || res.ID != "locked" || len(backend.deleted) != 1 {
		t.Fatalf("unexpected delete: %+v", res)
	}
}

func TestHelpToggleAndQuit(t *testing.T) {
	m := NewModel(Deps{})
	m, _ = send(t, m, keyRunes("?"))
	if !m.HelpVisible || !strings.Contains(m.View(), "help:") {
		t.Fatal("expected help panel")
	}
	m, cmd := send(t, m, keyRunes("q"))
	if !m.Quitting || cmd == nil {
		t.Fatal("expected quit")
	}
}

func TestViewRendersTrackerGrid(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = send(t, m, RecordsLoadedMsg{Gen: m.Range.Gen, SyncedAt: testNow, Records: []model.TimeRecord{
		{ID: "a", UserID: "u1", ProjectID: "p1", TaskID: "t1", Date: "2026-02-04", Duration: 5400,
			StartTime: time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 2, 4, 10, 30, 0, 0, time.UTC)},
	}})
	out := m.View()
	for _, want := range []string{"punchcard", "tracker:", "Alpha", "1:30", "09:00-10:30"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestEditEntrySendsUpdate(t *testing.T) {
	m, backend, _ := newTestModel(t)
	m, _ = send(t, m, RecordsLoadedMsg{Gen: m.Range.Gen, SyncedAt: testNow, Records: []model.TimeRecord{
		{ID: "e1", UserID: "u1", ProjectID: "p1", Date: "2026-02-04", Duration: 3600, Notes: "standup",
			StartTime: time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2026, 2, 4, 10, 0, 0, 0, time.UTC)},
	}})

	m, _ = send(t, m, keyRunes("e"))
	if !m.Palette.Active || m.Palette.Input != "edit e1 2026-02-04 09:00 10:00 p1" {
		t.Fatalf("unexpected edit prefill %q", m.Palette.Input)
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	m, cmd := runPalette(t, m, "edit e1 2026-02-04 09:00 11:30 Alpha Build")
	if cmd == nil || m.Status.IsError {
		t.Fatalf("expected pending update, status=%+v", m.Status)
	}
	saved, ok := cmd().(EntrySavedMsg)
	if !ok || saved.Err != nil || !saved.Updated {
		t.Fatalf("unexpected save result: %+v", saved)
	}
	if len(backend.created) != 0 {
		t.Fatalf("edit must not create entries, got %d", len(backend.created))
	}
	entry, ok := backend.updated["e1"]
	if !ok {
		t.Fatalf("expected PUT for e1, got %v", backend.updated)
	}
	if entry.Duration != 9000 || entry.TaskID == nil || *entry.TaskID != "t1" || entry.Notes != "standup" {
		t.Fatalf("unexpected update payload: %+v", entry)
	}

	gen := m.Range.Gen
	m, cmd = send(t, m, saved)
	if cmd == nil || m.Range.Gen != gen+1 || !strings.HasPrefix(m.Status.Text, "updated 2:30") {
		t.Fatalf("expected reload after update, status=%+v", m.Status)
	}

	m, _ = runPalette(t, m, "edit missing 2026-02-04 09:00 10:00 Alpha")
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "unknown entry") {
		t.Fatalf("expected unknown entry error, got %+v", m.Status)
	}
}

func TestEditSubmittedEntryRefused(t *testing.T) {
	m, backend, _ := newTestModel(t)
	m.Range.Records = []model.TimeRecord{
		{ID: "s1", UserID: "u1", ProjectID: "p1", Date: "2026-02-04", Duration: 600, ApprovalStatus: "submitted"},
	}
	m, _ = send(t, m, keyRunes("e"))
	if m.Palette.Active || !m.Status.IsError {
		t.Fatalf("expected refusal, got %+v", m.Status)
	}
	m, cmd := runPalette(t, m, "edit s1 2026-02-04 09:00 10:00 Alpha")
	if cmd != nil || !m.Status.IsError || len(backend.updated) != 0 {
		t.Fatalf("submitted entry must not be updated: %+v", m.Status)
	}
}

func TestMessagePollFailureIsLoggedOnly(t *testing.T) {
	m, backend, _ := newTestModel(t)
	m.User = backend.user
	m.CurrentView = ViewMessages
	backend.messagesErr = errors.New("connection reset")

	m, cmd := send(t, m, PollDueMsg{Event: scheduler.Event{Kind: scheduler.KindMessages, TriggerAt: testNow}})
	if cmd == nil {
		t.Fatal("expected poll to load the thread")
	}
	loaded := m.loadMessagesCmd(m.Chat.Peer, true)()
	notes := len(m.Notifications)
	m, _ = send(t, m, loaded)
	if m.Status.IsError || len(m.Notifications) != notes {
		t.Fatalf("poll failure surfaced: status=%+v notifications=%d", m.Status, len(m.Notifications)-notes)
	}

	m, cmd = send(t, m, keyRunes("r"))
	if cmd == nil {
		t.Fatal("expected manual refresh")
	}
	m, _ = send(t, m, cmd())
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "connection reset") {
		t.Fatalf("manual refresh failure should show, got %+v", m.Status)
	}
}

func TestSyncPollRefreshesQuietly(t *testing.T) {
	m, backend, _ := newTestModel(t)
	m.User = backend.user
	m, _ = send(t, m, RecordsLoadedMsg{Gen: m.Range.Gen, SyncedAt: testNow, Records: []model.TimeRecord{
		{ID: "a", UserID: "u1", ProjectID: "p1", Date: "2026-02-04", Duration: 600},
	}})
	if m.Range.Loading {
		t.Fatal("expected loaded range")
	}

	backend.entriesErr = errors.New("timeout")
	gen := m.Range.Gen
	m, cmd := send(t, m, PollDueMsg{Event: scheduler.Event{Kind: scheduler.KindSync, TriggerAt: testNow}})
	if cmd == nil || m.Range.Gen != gen+1 || m.Range.Loading {
		t.Fatalf("expected quiet reload, gen=%d loading=%v", m.Range.Gen, m.Range.Loading)
	}
	failed, ok := m.liveRangeCmd(true)().(RecordsLoadedMsg)
	if !ok || !failed.Background || failed.Err == nil {
		t.Fatalf("unexpected background result %+v", failed)
	}
	m, _ = send(t, m, failed)
	if m.Status.IsError || len(m.Range.Records) != 1 {
		t.Fatalf("background failure must be silent: %+v", m.Status)
	}

	backend.entriesErr = nil
	backend.entries = []model.TimeRecord{
		{ID: "a", UserID: "u1", ProjectID: "p1", Date: "2026-02-04", Duration: 600},
		{ID: "b", UserID: "u1", ProjectID: "p1", Date: "2026-02-05", Duration: 1200},
	}
	fresh, _ := m.liveRangeCmd(true)().(RecordsLoadedMsg)
	m, _ = send(t, m, fresh)
	if len(m.Range.Records) != 2 {
		t.Fatalf("expected synced records, got %d", len(m.Range.Records))
	}

	m.Range.Loading = true
	if _, cmd := send(t, m, PollDueMsg{Event: scheduler.Event{Kind: scheduler.KindSync}}); cmd == nil {
		t.Fatal("expected tick re-arm even while loading")
	}
}

func TestAdminDashboardShowsRunningTimers(t *testing.T) {
	m, backend, _ := newTestModel(t)
	backend.user = backend.admin
	backend.stats = model.DashboardStats{TodaySeconds: 5400, WeekSeconds: 36000, ActiveTimers: 1, PendingReviews: 2}
	backend.running = []model.ActiveTimerSummary{
		{UserID: "u2", UserName: "Bo", ProjectID: "p1", StartTime: testNow.Add(-30 * time.Minute)},
	}
	msg, ok := m.bootstrapCmd()().(BootstrapMsg)
	if !ok || msg.Err != nil {
		t.Fatalf("unexpected bootstrap %+v", msg)
	}
	m, _ = send(t, m, msg)
	if len(m.Running) != 1 || m.Stats.PendingReviews != 2 {
		t.Fatalf("dashboard not applied: %+v %+v", m.Stats, m.Running)
	}
	out := m.View()
	for _, want := range []string{"dashboard:", "today 1:30", "pending reviews: 2", "Bo on Alpha since 09:30 (00:30:00)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}

	m, _ = send(t, m, DashboardMsg{Err: errors.New("offline")})
	if len(m.Running) != 1 || m.Status.IsError {
		t.Fatalf("failed refresh must keep the dashboard quietly: %+v", m.Status)
	}
}

func TestPollsRunOnEngine(t *testing.T) {
	clock := &testClock{t: testNow}
	engine := scheduler.NewEngine(4)
	m := NewModel(Deps{Backend: newFakeBackend(clock), Scheduler: engine, Now: clock.Now, Location: time.UTC})

	cmds := m.startPolls()
	if len(cmds) != 1 || engine.Pending() != len(pollKinds) {
		t.Fatalf("expected one waiter and %d queued polls, got %d/%d", len(pollKinds), len(cmds), engine.Pending())
	}
	if m.rearmPoll(scheduler.KindUnread) != nil {
		t.Fatal("engine polls must not be re-armed by the model")
	}
	m.startPolls()
	if engine.Pending() != len(pollKinds) {
		t.Fatalf("restarting polls must not duplicate them, got %d", engine.Pending())
	}
}
