// Package timer keeps the local readout of the server-owned running timer.
// Elapsed time is always recomputed from the anchor and the clock, so a
// suspended process shows the right value as soon as it ticks again.
package timer

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/punchcard/internal/logging"
	"github.com/sandeepkv93/punchcard/internal/model"
)

// API is the slice of the backend the reconciler talks to.
type API interface {
	StartTimer(ctx context.Context, projectID, taskID string) (model.ActiveTimer, error)
	StopTimer(ctx context.Context, notes string) error
	ActiveTimer(ctx context.Context) (*model.ActiveTimer, error)
	Heartbeat(ctx context.Context) error
}

type State struct {
	Running   bool
	Anchor    time.Time
	Elapsed   int64
	TimerID   string
	ProjectID string
	TaskID    string
}

type Option func(*Reconciler)

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

type Reconciler struct {
	api    API
	now    func() time.Time
	logger *log.Logger

	mu        sync.Mutex
	state     State
	callbacks map[int]func()
	nextID    int
}

func New(api API, opts ...Option) *Reconciler {
	r := &Reconciler{
		api:       api,
		now:       time.Now,
		logger:    logging.Discard(),
		callbacks: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start asks the server to open a timer. State only changes on success.
func (r *Reconciler) Start(ctx context.Context, projectID, taskID string) (model.ActiveTimer, error) {
	active, err := r.api.StartTimer(ctx, projectID, taskID)
	if err != nil {
		return model.ActiveTimer{}, fmt.Errorf("start timer: %w", err)
	}
	if active.ProjectID == "" {
		active.ProjectID = projectID
	}
	if active.TaskID == "" {
		active.TaskID = taskID
	}
	r.adopt(active)
	return active, nil
}

// Stop closes the server timer, resets local state and runs the stop
// callbacks. A failing request leaves the timer running.
func (r *Reconciler) Stop(ctx context.Context, notes string) error {
	if err := r.api.StopTimer(ctx, notes); err != nil {
		return fmt.Errorf("stop timer: %w", err)
	}

	r.mu.Lock()
	r.state = State{}
	ids := make([]int, 0, len(r.callbacks))
	for id := range r.callbacks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, r.callbacks[id])
	}
	r.mu.Unlock()

	for _, fn := range fns {
		r.runCallback(fn)
	}
	return nil
}

func (r *Reconciler) runCallback(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("stop callback panicked", "panic", rec)
		}
	}()
	fn()
}

// OnStop registers fn to run after every successful Stop, in registration order.
func (r *Reconciler) OnStop(fn func()) (unregister func()) {
	if fn == nil {
		return func() {}
	}
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.callbacks[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.callbacks, id)
		r.mu.Unlock()
	}
}

// Tick recomputes elapsed seconds from the anchor.
func (r *Reconciler) Tick() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.state.Running {
		return 0
	}
	r.state.Elapsed = elapsedSince(r.state.Anchor, r.now())
	return r.state.Elapsed
}

// Heartbeat is best effort: failures are logged and never change state.
func (r *Reconciler) Heartbeat(ctx context.Context) {
	if !r.State().Running {
		return
	}
	if err := r.api.Heartbeat(ctx); err != nil {
		r.logger.Warn("timer heartbeat failed", "err", err)
	}
}

// Resume adopts a timer already running on the server. On error the
// reconciler stays stopped.
func (r *Reconciler) Resume(ctx context.Context) error {
	active, err := r.api.ActiveTimer(ctx)
	if err != nil {
		r.logger.Warn("resume active timer failed", "err", err)
		return fmt.Errorf("resume timer: %w", err)
	}
	if active == nil {
		return nil
	}
	r.adopt(*active)
	return nil
}

func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) adopt(active model.ActiveTimer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = State{
		Running:   true,
		Anchor:    active.StartTime,
		TimerID:   active.ID,
		ProjectID: active.ProjectID,
		TaskID:    active.TaskID,
	}
	r.state.Elapsed = elapsedSince(active.StartTime, r.now())
}

func elapsedSince(anchor, now time.Time) int64 {
	if anchor.IsZero() {
		return 0
	}
	secs := int64(now.Sub(anchor) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// Format renders seconds as HH:MM:SS. Hours do not wrap at 24.
func Format(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
