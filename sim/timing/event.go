// Package timing provides the virtual-time kernel: events, the serial
// engine that fires them and the timers elements use to suspend themselves.
package timing

import (
	"github.com/sarchlab/pktflow/sim/hooking"
	"github.com/sarchlab/pktflow/sim/id"
)

// VTimeInSec is a point on the virtual time axis, in seconds.
type VTimeInSec = float64

// An Event is a piece of work bound to a virtual time and to the handler
// that performs it.
type Event interface {
	Time() VTimeInSec
	Handler() Handler

	// IsSecondary marks events that run after every non-secondary event
	// scheduled for the same time.
	IsSecondary() bool
}

// A Handler performs the events addressed to it. An event only mutates the
// state of its own handler.
type Handler interface {
	Handle(e Event) error
}

// Engine hook positions. The hook item is the event being handled.
var (
	HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &hooking.HookPos{Name: "AfterEvent"}
)

// EventBase carries the common event fields. Embed it in concrete events.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase returns a primary event for handler at time t.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	return &EventBase{
		ID:      id.Generate(),
		time:    t,
		handler: handler,
	}
}

// NewSecondaryEventBase returns an event that yields to every primary event
// of the same time.
func NewSecondaryEventBase(t VTimeInSec, handler Handler) *EventBase {
	e := NewEventBase(t, handler)
	e.secondary = true

	return e
}

func (e EventBase) Time() VTimeInSec { return e.time }

func (e EventBase) Handler() Handler { return e.handler }

func (e EventBase) IsSecondary() bool { return e.secondary }
