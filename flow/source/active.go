package source

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/timing"
)

// An ActiveSource pushes a new packet every production interval, as long as
// its consumer accepts packets. When the consumer refuses, production stops
// until the consumer asks for more.
type ActiveSource struct {
	flow.ElementBase

	out *flow.Gate

	creator         PacketCreator
	interval        Interval
	productionTimer *timing.Timer
}

// Output returns the output gate.
func (s *ActiveSource) Output() *flow.Gate {
	return s.out
}

// NumCreated returns the number of packets produced.
func (s *ActiveSource) NumCreated() int {
	return s.creator.NumCreated()
}

// TotalLength returns the total length of the packets produced.
func (s *ActiveSource) TotalLength() int64 {
	return s.creator.TotalLength()
}

func (s *ActiveSource) produce() {
	p := s.creator.Create(s.Name(), s.Now())

	s.EmitCreated(p)
	s.LogPacket("produced", p)
	s.out.Push(p)
}

func (s *ActiveSource) scheduleProduction() {
	s.productionTimer.Schedule(s.Now() + s.interval.Next())
}

// HandleTimer produces a packet if the consumer accepts one.
func (s *ActiveSource) HandleTimer(_ *timing.Timer) {
	if !s.out.CanPushSome() {
		return
	}

	s.produce()
	s.scheduleProduction()
}

// HandleCanPush resumes production when the source is idle.
func (s *ActiveSource) HandleCanPush(_ *flow.Gate) {
	if s.productionTimer.IsScheduled() || !s.out.CanPushSome() {
		return
	}

	s.produce()
	s.scheduleProduction()
}

// A PassiveSource offers one new packet every providing interval to the
// collector that pops from it.
type PassiveSource struct {
	flow.ElementBase

	out *flow.Gate

	creator        PacketCreator
	interval       Interval
	providingTimer *timing.Timer
	nextPacket     *packet.Packet
}

// Output returns the output gate.
func (s *PassiveSource) Output() *flow.Gate {
	return s.out
}

// NumCreated returns the number of packets created.
func (s *PassiveSource) NumCreated() int {
	return s.creator.NumCreated()
}

// Start starts the first providing interval.
func (s *PassiveSource) Start() {
	s.scheduleProviding()
}

// A zero interval only delays the first packet.
func (s *PassiveSource) scheduleProviding() {
	interval := s.interval.Next()
	if interval != 0 || !s.providingTimer.HasFired() {
		s.providingTimer.Schedule(s.Now() + interval)
	}
}

// HandleTimer tells the collector that a packet is available.
func (s *PassiveSource) HandleTimer(_ *timing.Timer) {
	s.out.NotifyCanPop()
}

// CanPopSome tells if the providing interval has passed.
func (s *PassiveSource) CanPopSome(_ *flow.Gate) bool {
	return !s.providingTimer.IsScheduled()
}

// CanPop returns the packet that the next pop provides.
func (s *PassiveSource) CanPop(_ *flow.Gate) *packet.Packet {
	if s.providingTimer.IsScheduled() {
		return nil
	}

	if s.nextPacket == nil {
		s.nextPacket = s.create()
	}

	return s.nextPacket
}

func (s *PassiveSource) create() *packet.Packet {
	p := s.creator.Create(s.Name(), s.Now())
	s.EmitCreated(p)

	return p
}

// Pop provides a packet and starts the next providing interval.
func (s *PassiveSource) Pop(_ *flow.Gate) *packet.Packet {
	if s.providingTimer.IsScheduled() &&
		s.providingTimer.ArrivalTime() > s.Now() {
		flow.ProtocolViolation(s, "another packet is already being provided")
	}

	p := s.nextPacket
	s.nextPacket = nil

	if p == nil {
		p = s.create()
	}

	s.LogPacket("provided", p)
	s.EmitPopped(p)
	s.scheduleProviding()

	return p
}
