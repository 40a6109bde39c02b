// Package scheduler runs the client's background polls. Each Kind has at
// most one queued event; kinds registered with Every re-arm themselves
// every time they fire, whether or not the consumer kept up.
package scheduler

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")

var ErrStopped = errors.New("scheduler: engine stopped")

var ErrInvalidKind = errors.New("scheduler: kind is required")

// Kind names a background job.
type Kind string

const (
	KindHeartbeat Kind = "heartbeat"
	KindMessages  Kind = "messages"
	KindUnread    Kind = "unread"
	KindSync      Kind = "sync"
)

type Event struct {
	Kind      Kind
	TriggerAt time.Time
	// Seq counts how often this kind has fired, starting at 1.
	Seq uint64
}

type slot struct {
	event Event
	index int
}

type slotHeap []*slot

func (h slotHeap) Len() int { return len(h) }

func (h slotHeap) Less(i, j int) bool {
	return h[i].event.TriggerAt.Before(h[j].event.TriggerAt)
}

func (h slotHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *slotHeap) Push(x any) {
	s := x.(*slot)
	s.index = len(*h)
	*h = append(*h, s)
}

func (h *slotHeap) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	s.index = -1
	*h = old[:n-1]
	return s
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type Engine struct {
	mu       sync.Mutex
	queue    slotHeap
	byKind   map[Kind]*slot
	every    map[Kind]time.Duration
	fired    map[Kind]uint64
	now      func() time.Time
	out      chan Event
	wakeup   chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	stopped  bool
	dropped  uint64
	dropKind sync.Map
}

func NewEngine(bufferSize int, opts ...Option) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	e := &Engine{
		queue:  make(slotHeap, 0),
		byKind: make(map[Kind]*slot),
		every:  make(map[Kind]time.Duration),
		fired:  make(map[Kind]uint64),
		now:    time.Now,
		out:    make(chan Event, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) C() <-chan Event {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule queues kind to fire at. When kind is already queued the earlier
// of the two trigger times wins, so asking twice never fires twice.
func (e *Engine) Schedule(kind Kind, at time.Time) error {
	if kind == "" {
		return ErrInvalidKind
	}
	if at.IsZero() {
		return ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.queueLocked(kind, at.UTC())
	return nil
}

// After schedules a one-shot run of kind d from now.
func (e *Engine) After(kind Kind, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTriggerTime, d)
	}
	return e.Schedule(kind, e.now().Add(d))
}

// Every makes kind periodic: it fires interval from now and is re-armed
// interval after each firing until Cancel. Calling it again changes the
// interval and restarts the countdown.
func (e *Engine) Every(kind Kind, interval time.Duration) error {
	if kind == "" {
		return ErrInvalidKind
	}
	if interval <= 0 {
		return fmt.Errorf("%w: every %s", ErrInvalidTriggerTime, interval)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.every[kind] = interval
	if s, ok := e.byKind[kind]; ok {
		heap.Remove(&e.queue, s.index)
		delete(e.byKind, kind)
	}
	e.queueLocked(kind, e.now().UTC().Add(interval))
	return nil
}

// Cancel removes kind from the queue and stops it from re-arming.
func (e *Engine) Cancel(kind Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.every, kind)
	if s, ok := e.byKind[kind]; ok {
		heap.Remove(&e.queue, s.index)
		delete(e.byKind, kind)
		e.signalWakeup()
	}
}

// Pending reports how many kinds are queued.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Next reports when kind fires next.
func (e *Engine) Next(kind Kind) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.byKind[kind]
	if !ok {
		return time.Time{}, false
	}
	return s.event.TriggerAt, true
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

// DroppedKind reports the events of kind lost to a full channel.
func (e *Engine) DroppedKind(kind Kind) uint64 {
	v, ok := e.dropKind.Load(kind)
	if !ok {
		return 0
	}
	return atomic.LoadUint64(v.(*uint64))
}

func (e *Engine) queueLocked(kind Kind, at time.Time) {
	if s, ok := e.byKind[kind]; ok {
		if at.Before(s.event.TriggerAt) {
			s.event.TriggerAt = at
			heap.Fix(&e.queue, s.index)
			e.signalWakeup()
		}
		return
	}
	s := &slot{event: Event{Kind: kind, TriggerAt: at}}
	heap.Push(&e.queue, s)
	e.byKind[kind] = s
	e.signalWakeup()
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := next.Sub(e.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, ev := range e.popDue(e.now().UTC()) {
				select {
				case e.out <- ev:
				default:
					atomic.AddUint64(&e.dropped, 1)
					counter, _ := e.dropKind.LoadOrStore(ev.Kind, new(uint64))
					atomic.AddUint64(counter.(*uint64), 1)
				}
			}
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) peek() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return time.Time{}, false
	}
	return e.queue[0].event.TriggerAt, true
}

// popDue removes every event due at now and re-arms the periodic ones
// before anything is handed to the consumer.
func (e *Engine) popDue(now time.Time) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Event
	for len(e.queue) > 0 && !e.queue[0].event.TriggerAt.After(now) {
		s := heap.Pop(&e.queue).(*slot)
		delete(e.byKind, s.event.Kind)
		e.fired[s.event.Kind]++
		ev := s.event
		ev.Seq = e.fired[ev.Kind]
		out = append(out, ev)
	}
	for _, ev := range out {
		if interval, ok := e.every[ev.Kind]; ok {
			e.queueLocked(ev.Kind, now.Add(interval))
		}
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
