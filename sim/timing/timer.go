package timing

import "github.com/sarchlab/pktflow/sim/id"

// A TimerHandler owns timers and is called back when one of them fires.
type TimerHandler interface {
	HandleTimer(t *Timer)
}

// A Timer is a named future callback owned by exactly one TimerHandler.
// A timer has at most one pending instance. Scheduling a pending timer moves
// it, and cancelling makes the pending instance a no-op when it fires.
type Timer struct {
	name      string
	engine    EventScheduler
	owner     TimerHandler
	gen       uint64
	scheduled bool
	fired     bool
	arrival   VTimeInSec
}

// NewTimer creates a timer owned by the given handler.
func NewTimer(name string, engine EventScheduler, owner TimerHandler) *Timer {
	return &Timer{
		name:   name,
		engine: engine,
		owner:  owner,
	}
}

// Name returns the name of the timer.
func (t *Timer) Name() string {
	return t.name
}

// Schedule arms the timer to fire at the given time, replacing any pending
// instance.
func (t *Timer) Schedule(at VTimeInSec) {
	t.gen++
	t.scheduled = true
	t.arrival = at

	t.engine.Schedule(timerEvent{
		EventBase: EventBase{
			ID:      id.Generate(),
			time:    at,
			handler: t,
		},
		gen: t.gen,
	})
}

// ScheduleAfter arms the timer to fire after the given delay.
func (t *Timer) ScheduleAfter(delay VTimeInSec) {
	t.Schedule(t.engine.Now() + delay)
}

// Cancel disarms the timer. Cancelling an idle timer does nothing.
func (t *Timer) Cancel() {
	if !t.scheduled {
		return
	}

	t.gen++
	t.scheduled = false
}

// IsScheduled tells if the timer has a pending instance.
func (t *Timer) IsScheduled() bool {
	return t.scheduled
}

// ArrivalTime returns the time of the pending instance, or of the last
// instance if the timer is idle.
func (t *Timer) ArrivalTime() VTimeInSec {
	return t.arrival
}

// HasFired tells if the timer has fired at least once.
func (t *Timer) HasFired() bool {
	return t.fired
}

// Handle fires the timer if the event belongs to the pending instance.
func (t *Timer) Handle(e Event) error {
	evt, ok := e.(timerEvent)
	if !ok || evt.gen != t.gen || !t.scheduled {
		return nil
	}

	t.scheduled = false
	t.fired = true
	t.owner.HandleTimer(t)

	return nil
}

type timerEvent struct {
	EventBase
	gen uint64
}
