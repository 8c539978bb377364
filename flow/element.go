// Package flow defines how packets move between elements: the Consumer,
// Producer, Provider and Collector roles, the gates that link elements, and
// the base every element is built on.
package flow

import (
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/hooking"
	"github.com/sarchlab/pktflow/sim/naming"
	"github.com/sarchlab/pktflow/sim/timing"
	"github.com/sirupsen/logrus"
)

// An Element is a node of the packet flow graph.
type Element interface {
	naming.Named
	hooking.Hookable

	Gates() []*Gate
	SupportsPush(g *Gate) bool
	SupportsPop(g *Gate) bool
}

// A LinkChecker is an element with extra requirements on how its gates are
// linked. CheckLinks runs once after all links are made.
type LinkChecker interface {
	CheckLinks() error
}

// The hook positions of packet events.
var (
	HookPosPacketPushed  = &hooking.HookPos{Name: "PacketPushed"}
	HookPosPacketPopped  = &hooking.HookPos{Name: "PacketPopped"}
	HookPosPacketRemoved = &hooking.HookPos{Name: "PacketRemoved"}
	HookPosPacketCreated = &hooking.HookPos{Name: "PacketCreated"}
	HookPosPacketDropped = &hooking.HookPos{Name: "PacketDropped"}
)

// ElementBase provides the name, hooks, gates and event emission shared by
// all elements.
type ElementBase struct {
	naming.NamedBase
	hooking.HookableBase

	engine timing.EventScheduler
	gates  []*Gate
}

// MakeElementBase creates an ElementBase. The engine may be nil for elements
// that never schedule events.
func MakeElementBase(name string, engine timing.EventScheduler) ElementBase {
	return ElementBase{
		NamedBase: naming.MakeNamedBase(name),
		engine:    engine,
	}
}

// Engine returns the scheduler the element uses.
func (b *ElementBase) Engine() timing.EventScheduler {
	return b.engine
}

// Now returns the current virtual time.
func (b *ElementBase) Now() timing.VTimeInSec {
	if b.engine == nil {
		return 0
	}

	return b.engine.Now()
}

// NewTimer creates a timer owned by the element.
func (b *ElementBase) NewTimer(
	name string,
	owner timing.TimerHandler,
) *timing.Timer {
	if b.engine == nil {
		logrus.Panicf("element %s needs an engine to own timers", b.Name())
	}

	return timing.NewTimer(naming.Join(b.Name(), name), b.engine, owner)
}

// AddGate creates a scalar gate.
func (b *ElementBase) AddGate(
	owner Element,
	name string,
	dir Direction,
	modes Mode,
) *Gate {
	return b.addGate(owner, name, -1, dir, modes)
}

// AddGateVector creates n gates sharing a name.
func (b *ElementBase) AddGateVector(
	owner Element,
	name string,
	n int,
	dir Direction,
	modes Mode,
) []*Gate {
	gates := make([]*Gate, n)
	for i := 0; i < n; i++ {
		gates[i] = b.addGate(owner, name, i, dir, modes)
	}

	return gates
}

func (b *ElementBase) addGate(
	owner Element,
	name string,
	index int,
	dir Direction,
	modes Mode,
) *Gate {
	g := &Gate{
		owner: owner,
		name:  name,
		index: index,
		dir:   dir,
		modes: modes,
	}
	b.gates = append(b.gates, g)

	return g
}

// Gates returns all the gates of the element.
func (b *ElementBase) Gates() []*Gate {
	return b.gates
}

// Gate finds a gate by name and index. Use -1 as the index of scalar gates.
func (b *ElementBase) Gate(name string, index int) *Gate {
	for _, g := range b.gates {
		if g.name == name && g.index == index {
			return g
		}
	}

	return nil
}

// SupportsPush tells if the gate can be part of a push link.
func (b *ElementBase) SupportsPush(g *Gate) bool {
	return g.modes&PushMode != 0
}

// SupportsPop tells if the gate can be part of a pop link.
func (b *ElementBase) SupportsPop(g *Gate) bool {
	return g.modes&PopMode != 0
}

// Log returns a logger that carries the element name and the current time.
func (b *ElementBase) Log() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"element": b.Name(),
		"time":    b.Now(),
	})
}

// LogPacket writes a debug line about a packet.
func (b *ElementBase) LogPacket(msg string, p *packet.Packet) {
	if !logrus.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	b.Log().WithField("packet", p.Name).Debug(msg)
}

// EmitPushed reports that a packet is pushed into the element.
func (b *ElementBase) EmitPushed(p *packet.Packet) {
	b.emit(HookPosPacketPushed, p, nil)
}

// EmitPopped reports that a packet is popped from the element.
func (b *ElementBase) EmitPopped(p *packet.Packet) {
	b.emit(HookPosPacketPopped, p, nil)
}

// EmitRemoved reports that a packet is removed from the element.
func (b *ElementBase) EmitRemoved(p *packet.Packet) {
	b.emit(HookPosPacketRemoved, p, nil)
}

// EmitCreated reports that the element created a packet.
func (b *ElementBase) EmitCreated(p *packet.Packet) {
	b.emit(HookPosPacketCreated, p, nil)
}

// EmitDropped reports that the element dropped a packet. A dropped packet is
// gone and must not be stored or forwarded anymore.
func (b *ElementBase) EmitDropped(p *packet.Packet, details DropDetails) {
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		b.Log().WithFields(logrus.Fields{
			"packet": p.Name,
			"reason": details.Reason,
			"limit":  details.Limit,
		}).Debug("dropped")
	}

	b.emit(HookPosPacketDropped, p, details)
}

func (b *ElementBase) emit(
	pos *hooking.HookPos,
	p *packet.Packet,
	detail interface{},
) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(hooking.HookCtx{
		Domain: b,
		Pos:    pos,
		Item:   p,
		Detail: detail,
	})
}
