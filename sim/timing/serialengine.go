package timing

import (
	"reflect"
	"sync"

	"github.com/sarchlab/pktflow/sim/hooking"
	"github.com/sirupsen/logrus"
)

// SerialEngine fires events one at a time in EventQueue order. Handlers run
// on the goroutine that called Run or RunUntil.
type SerialEngine struct {
	hooking.HookableBase

	clockMu sync.RWMutex
	now     VTimeInSec

	events EventQueue

	// runMu serializes Run and RunUntil. stepMu is held while an event is
	// being handled and for as long as the engine is paused.
	runMu    sync.Mutex
	stepMu   sync.Mutex
	pausedMu sync.Mutex
	paused   bool
}

// NewSerialEngine returns an engine at time zero with nothing scheduled.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{events: NewEventQueue()}
}

func (e *SerialEngine) Name() string {
	return "SerialEngine"
}

// Schedule queues an event. Scheduling before the current time is a
// programming error and panics.
func (e *SerialEngine) Schedule(evt Event) {
	if now := e.Now(); evt.Time() < now {
		logrus.Panicf("event %s scheduled at %.10f, before now (%.10f)",
			reflect.TypeOf(evt), evt.Time(), now)
	}

	e.events.Push(evt)
}

// Now returns the time of the event being handled, or of the last one.
func (e *SerialEngine) Now() VTimeInSec {
	e.clockMu.RLock()
	defer e.clockMu.RUnlock()

	return e.now
}

func (e *SerialEngine) setNow(t VTimeInSec) {
	e.clockMu.Lock()
	e.now = t
	e.clockMu.Unlock()
}

// NumPendingEvents returns how many events are still queued.
func (e *SerialEngine) NumPendingEvents() int {
	return e.events.Len()
}

// Run handles events until none are left.
func (e *SerialEngine) Run() error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	for e.events.Len() > 0 {
		e.step()
	}

	return nil
}

// RunUntil handles the events due no later than t and then moves the clock
// to t. Later events stay queued.
func (e *SerialEngine) RunUntil(t VTimeInSec) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	for e.events.Len() > 0 && e.events.Peek().Time() <= t {
		e.step()
	}

	if e.Now() < t {
		e.setNow(t)
	}

	return nil
}

func (e *SerialEngine) step() {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	evt := e.events.Pop()
	e.setNow(evt.Time())

	ctx := hooking.HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
	e.InvokeHook(ctx)

	if err := evt.Handler().Handle(evt); err != nil {
		logrus.WithFields(logrus.Fields{
			"time":  evt.Time(),
			"event": reflect.TypeOf(evt).String(),
		}).WithError(err).Error("event handler failed")
	}

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)
}

// Pause blocks the engine before its next event. Pausing twice is a no-op.
func (e *SerialEngine) Pause() {
	e.pausedMu.Lock()
	defer e.pausedMu.Unlock()

	if !e.paused {
		e.stepMu.Lock()
		e.paused = true
	}
}

// Continue releases a paused engine.
func (e *SerialEngine) Continue() {
	e.pausedMu.Lock()
	defer e.pausedMu.Unlock()

	if e.paused {
		e.paused = false
		e.stepMu.Unlock()
	}
}
