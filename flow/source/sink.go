package source

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/timing"
)

type consumedCounter struct {
	numConsumed int
	totalLength int64
}

// NumConsumed returns the number of packets consumed.
func (c *consumedCounter) NumConsumed() int {
	return c.numConsumed
}

// TotalLength returns the total length of the packets consumed.
func (c *consumedCounter) TotalLength() int64 {
	return c.totalLength
}

func (c *consumedCounter) count(p *packet.Packet) {
	c.numConsumed++
	c.totalLength += p.Length
}

// An ActiveSink pops a packet every collection interval, as long as its
// provider has packets. When the provider runs dry, collection stops until
// the provider announces new packets.
type ActiveSink struct {
	flow.ElementBase
	consumedCounter

	in *flow.Gate

	interval        Interval
	collectionTimer *timing.Timer
}

// Input returns the input gate.
func (s *ActiveSink) Input() *flow.Gate {
	return s.in
}

func (s *ActiveSink) collect() {
	p := s.in.Pop()

	s.count(p)
	s.LogPacket("collected", p)
	s.EmitDropped(p, flow.ConsumedDetails())
}

func (s *ActiveSink) scheduleCollection() {
	s.collectionTimer.Schedule(s.Now() + s.interval.Next())
}

// HandleTimer collects a packet if the provider has one.
func (s *ActiveSink) HandleTimer(_ *timing.Timer) {
	if !s.in.CanPopSome() {
		return
	}

	s.collect()
	s.scheduleCollection()
}

// HandleCanPop resumes collection when the sink is idle.
func (s *ActiveSink) HandleCanPop(_ *flow.Gate) {
	if s.collectionTimer.IsScheduled() || !s.in.CanPopSome() {
		return
	}

	s.collect()
	s.scheduleCollection()
}

// A PassiveSink consumes the packets pushed into it. After every packet it
// refuses new ones for the consumption interval.
type PassiveSink struct {
	flow.ElementBase
	consumedCounter

	in *flow.Gate

	interval         Interval
	consumptionTimer *timing.Timer
}

// Input returns the input gate.
func (s *PassiveSink) Input() *flow.Gate {
	return s.in
}

// Start starts the first consumption interval.
func (s *PassiveSink) Start() {
	s.scheduleConsumption()
}

// A zero interval only delays the first packet.
func (s *PassiveSink) scheduleConsumption() {
	interval := s.interval.Next()
	if interval != 0 || !s.consumptionTimer.HasFired() {
		s.consumptionTimer.Schedule(s.Now() + interval)
	}
}

// HandleTimer tells the producer that it may push.
func (s *PassiveSink) HandleTimer(_ *timing.Timer) {
	s.in.NotifyCanPush()
}

// CanPushSome tells if the consumption interval has passed.
func (s *PassiveSink) CanPushSome(_ *flow.Gate) bool {
	return !s.consumptionTimer.IsScheduled()
}

// CanPush tells if the consumption interval has passed.
func (s *PassiveSink) CanPush(_ *packet.Packet, g *flow.Gate) bool {
	return s.CanPushSome(g)
}

// Push consumes the packet and starts the next consumption interval.
func (s *PassiveSink) Push(p *packet.Packet, _ *flow.Gate) {
	if s.consumptionTimer.IsScheduled() &&
		s.consumptionTimer.ArrivalTime() > s.Now() {
		flow.ProtocolViolation(s, "another packet is already being consumed")
	}

	s.EmitPushed(p)
	s.count(p)
	s.LogPacket("consumed", p)
	s.EmitDropped(p, flow.ConsumedDetails())
	s.scheduleConsumption()
}
