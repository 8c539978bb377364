// Package tracing turns the packet events of elements into traces.
package tracing

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/timing"
)

// EventKind tells what happened to a packet.
type EventKind string

// The kinds of packet events.
const (
	Pushed  EventKind = "pushed"
	Popped  EventKind = "popped"
	Removed EventKind = "removed"
	Created EventKind = "created"
	Dropped EventKind = "dropped"
)

// A PacketEvent is something that happened to a packet in an element.
type PacketEvent struct {
	Time    timing.VTimeInSec
	Kind    EventKind
	Element string
	Packet  *packet.Packet

	// Drop is only set for Dropped events.
	Drop flow.DropDetails
}

// A Tracer can collect packet events
type Tracer interface {
	Trace(evt PacketEvent)
}
