package update

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/punchcard/internal/api"
	"github.com/sandeepkv93/punchcard/internal/calendar"
	"github.com/sandeepkv93/punchcard/internal/grouping"
	"github.com/sandeepkv93/punchcard/internal/logging"
	"github.com/sandeepkv93/punchcard/internal/model"
	"github.com/sandeepkv93/punchcard/internal/scheduler"
	"github.com/sandeepkv93/punchcard/internal/storage"
	"github.com/sandeepkv93/punchcard/internal/timer"
)

type View string

const (
	ViewTracker    View = "Tracker"
	ViewDetailed   View = "Detailed"
	ViewReport     View = "Report"
	ViewTimesheets View = "Timesheets"
	ViewMessages   View = "Messages"
)

var viewOrder = []View{ViewTracker, ViewDetailed, ViewReport, ViewTimesheets, ViewMessages}

// Span is the length of the range the range-based views show.
type Span string

const (
	SpanWeek  Span = "week"
	SpanMonth Span = "month"
)

// Backend is everything the TUI asks of the server. *api.Client implements it.
type Backend interface {
	timer.API
	Me(ctx context.Context) (model.User, error)
	TimeEntries(ctx context.Context, filter api.EntryFilter) ([]model.TimeRecord, error)
	CreateEntry(ctx context.Context, entry model.ManualEntry) (model.TimeRecord, error)
	UpdateEntry(ctx context.Context, id string, entry model.ManualEntry) (model.TimeRecord, error)
	DeleteEntry(ctx context.Context, id string) error
	Settings(ctx context.Context) (model.Settings, error)
	ReferenceData(ctx context.Context, withUsers bool) (model.Catalog, error)
	Timesheets(ctx context.Context, status model.TimesheetStatus) ([]model.Timesheet, error)
	TimesheetEntries(ctx context.Context, id string) ([]model.TimeRecord, error)
	SubmitTimesheet(ctx context.Context, id string) error
	ReopenTimesheet(ctx context.Context, id string) error
	ReviewTimesheet(ctx context.Context, id string, review model.Review) error
	Conversations(ctx context.Context) ([]model.Conversation, error)
	Admin(ctx context.Context) (model.User, error)
	Messages(ctx context.Context, userID string) ([]model.Message, error)
	SendMessage(ctx context.Context, receiverID, content string) (model.Message, error)
	MarkRead(ctx context.Context, userID string) error
	DashboardStats(ctx context.Context) (model.DashboardStats, error)
	ActiveTimers(ctx context.Context) ([]model.ActiveTimerSummary, error)
}

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Tracker    string
	Detailed   string
	Report     string
	Timesheets string
	Messages   string
	Help       string
	Quit       string
}

type Intervals struct {
	Tick        time.Duration
	Heartbeat   time.Duration
	MessagePoll time.Duration
	UnreadPoll  time.Duration
	// Sync refreshes the shown range and the dashboard in the background.
	Sync time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		Tick:        time.Second,
		Heartbeat:   30 * time.Second,
		MessagePoll: 5 * time.Second,
		UnreadPoll:  10 * time.Second,
		Sync:        2 * time.Minute,
	}
}

// Deps wires the model to the outside world. Only Backend is required.
type Deps struct {
	Backend        Backend
	Timer          *timer.Reconciler
	Cache          storage.Repository
	Scheduler      *scheduler.Engine
	Logger         *log.Logger
	Notifier       DesktopNotifier
	DesktopEnabled bool
	Location       *time.Location
	StatePath      string
	Intervals      Intervals
	Now            func() time.Time
	Context        context.Context
}

type TimerView struct {
	Running   bool
	Elapsed   int64
	ProjectID string
	TaskID    string
}

// RangeState is the date range shown by the tracker, detailed and report
// views. Gen increases every time the range or its filter changes; a
// response carrying an older Gen is stale and dropped.
type RangeState struct {
	Span       Span
	Range      calendar.Range
	UserID     string
	Gen        uint64
	Records    []model.TimeRecord
	Loading    bool
	FromCache  bool
	LiveLoaded bool
	DayCursor  int
	RowCursor  int
}

type DetailedState struct {
	Mode   grouping.Mode
	Cursor int
}

type TimesheetState struct {
	Status  model.TimesheetStatus
	Items   []model.Timesheet
	Cursor  int
	Entries []model.TimeRecord
	Loading bool
}

type MessageState struct {
	Conversations []model.Conversation
	Cursor        int
	Peer          model.User
	Messages      []model.Message
	Unread        int
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type Model struct {
	CurrentView View
	User        model.User
	Catalog     model.Catalog
	Settings    model.Settings
	Stats       model.DashboardStats
	Running     []model.ActiveTimerSummary
	Timer       TimerView
	Range       RangeState
	Detailed    DetailedState
	Timesheets  TimesheetState
	Chat        MessageState
	LastSync    time.Time

	Palette        CommandPaletteState
	HelpVisible    bool
	Notifications  []Notification
	DesktopEnabled bool
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error

	backend   Backend
	reconcile *timer.Reconciler
	cache     storage.Repository
	engine    *scheduler.Engine
	logger    *log.Logger
	notifier  DesktopNotifier
	loc       *time.Location
	now       func() time.Time
	ctx       context.Context
	intervals Intervals
	stopped   chan struct{}
	ticking   bool

	stateFilePath string

	// Bubble components used for rich TUI controls
	sheetTable    table.Model
	bucketTable   table.Model
	reportTable   table.Model
	sheetsTable   table.Model
	commandInput  textinput.Model
	syncSpinner   spinner.Model
	helpModel     help.Model
	chatViewport  viewport.Model
	spinnerActive bool
	uiDensity     int
}

func NewModel(deps Deps) Model {
	m := Model{
		CurrentView: ViewTracker,
		Settings:    model.DefaultSettings(),
		Range: RangeState{
			Span: SpanWeek,
		},
		Detailed:       DetailedState{Mode: grouping.ModeDay},
		Timesheets:     TimesheetState{Status: model.TimesheetDraft},
		DesktopEnabled: deps.DesktopEnabled,
		Keys: GlobalKeyMap{
			Tracker:    "1",
			Detailed:   "2",
			Report:     "3",
			Timesheets: "4",
			Messages:   "5",
			Help:       "?",
			Quit:       "q",
		},
		backend:       deps.Backend,
		reconcile:     deps.Timer,
		cache:         deps.Cache,
		engine:        deps.Scheduler,
		logger:        deps.Logger,
		notifier:      deps.Notifier,
		loc:           deps.Location,
		now:           deps.Now,
		ctx:           deps.Context,
		intervals:     deps.Intervals,
		stopped:       make(chan struct{}, 1),
		stateFilePath: strings.TrimSpace(deps.StatePath),
		uiDensity:     1,
	}
	if m.logger == nil {
		m.logger = logging.Discard()
	}
	if m.notifier == nil {
		m.notifier = NoopDesktopNotifier{}
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	defaults := DefaultIntervals()
	if m.intervals.Tick <= 0 {
		m.intervals.Tick = defaults.Tick
	}
	if m.intervals.Heartbeat <= 0 {
		m.intervals.Heartbeat = defaults.Heartbeat
	}
	if m.intervals.MessagePoll <= 0 {
		m.intervals.MessagePoll = defaults.MessagePoll
	}
	if m.intervals.UnreadPoll <= 0 {
		m.intervals.UnreadPoll = defaults.UnreadPoll
	}
	if m.intervals.Sync <= 0 {
		m.intervals.Sync = defaults.Sync
	}
	if m.reconcile == nil && m.backend != nil {
		m.reconcile = timer.New(m.backend, timer.WithClock(m.now), timer.WithLogger(m.logger))
	}
	if m.reconcile != nil {
		stopped := m.stopped
		logger := m.logger
		m.reconcile.OnStop(func() {
			logger.Info("timer stopped")
			select {
			case stopped <- struct{}{}:
			default:
			}
		})
	}

	if m.stateFilePath != "" {
		if prefs, err := loadPrefs(m.stateFilePath); err == nil {
			m.applyPrefs(prefs)
		} else {
			m.logger.Warn("load ui state failed", "path", m.stateFilePath, "err", err)
		}
	}
	m.Range.Range = m.rangeFor(m.today())
	if idx := m.Range.Range.Index(calendar.DateKey(m.today())); idx >= 0 {
		m.Range.DayCursor = idx
	}
	if m.backend != nil {
		m.Range.Loading = true
		m.spinnerActive = true
	}

	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func (m Model) today() time.Time {
	return calendar.Midnight(m.now().In(m.loc))
}

func (m Model) firstDay() calendar.FirstDay {
	return calendar.ParseFirstDay(m.Settings.FirstDayOfWeek)
}

// rangeFor returns the span-sized range containing date.
func (m Model) rangeFor(date time.Time) calendar.Range {
	if m.Range.Span == SpanMonth {
		return calendar.MonthOf(date)
	}
	return calendar.WeekOf(date, m.firstDay())
}

func (m Model) isAdmin() bool { return m.User.IsAdmin() }

func (m Model) scope() string {
	return storage.ScopeFor(m.Range.UserID, m.isAdmin())
}

func isKnownView(v View) bool {
	for _, known := range viewOrder {
		if known == v {
			return true
		}
	}
	return false
}
