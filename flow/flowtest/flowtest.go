// Package flowtest provides scripted elements for testing other elements.
package flowtest

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/hooking"
)

// NewPacket creates a packet with the given name and length in bits.
func NewPacket(name string, bits int64) *packet.Packet {
	return packet.MakeBuilder().WithName(name).WithLength(bits).Build()
}

// Names returns the names of the packets.
func Names(pkts []*packet.Packet) []string {
	names := make([]string, len(pkts))
	for i, p := range pkts {
		names[i] = p.Name
	}

	return names
}

// A Feeder is a producer that pushes the packets it is given as soon as the
// consumer accepts them.
type Feeder struct {
	flow.ElementBase

	Out *flow.Gate

	pending       []*packet.Packet
	NumCanPush    int
	StopOnCanPush bool
}

// NewFeeder creates a Feeder.
func NewFeeder(name string) *Feeder {
	f := &Feeder{ElementBase: flow.MakeElementBase(name, nil)}
	f.Out = f.AddGate(f, "out", flow.Output, flow.PushMode)

	return f
}

// Feed queues packets and pushes as many as the consumer accepts.
func (f *Feeder) Feed(pkts ...*packet.Packet) {
	f.pending = append(f.pending, pkts...)
	f.Flush()
}

// Flush pushes pending packets while the consumer accepts them.
func (f *Feeder) Flush() {
	for len(f.pending) > 0 && f.Out.CanPush(f.pending[0]) {
		p := f.pending[0]
		f.pending = f.pending[1:]
		f.Out.Push(p)
	}
}

// PushNow pushes a packet without asking the consumer first.
func (f *Feeder) PushNow(p *packet.Packet) {
	f.Out.Push(p)
}

// NumPending returns the number of packets not pushed yet.
func (f *Feeder) NumPending() int {
	return len(f.pending)
}

// HandleCanPush counts the notification and pushes pending packets.
func (f *Feeder) HandleCanPush(_ *flow.Gate) {
	f.NumCanPush++

	if !f.StopOnCanPush {
		f.Flush()
	}
}

// A Sink is a consumer that records the packets pushed into it.
type Sink struct {
	flow.ElementBase

	In *flow.Gate

	Received []*packet.Packet
	Blocked  bool
}

// NewSink creates a Sink.
func NewSink(name string) *Sink {
	s := &Sink{ElementBase: flow.MakeElementBase(name, nil)}
	s.In = s.AddGate(s, "in", flow.Input, flow.PushMode)

	return s
}

// CanPushSome tells if the sink is not blocked.
func (s *Sink) CanPushSome(_ *flow.Gate) bool {
	return !s.Blocked
}

// CanPush tells if the sink is not blocked.
func (s *Sink) CanPush(_ *packet.Packet, g *flow.Gate) bool {
	return s.CanPushSome(g)
}

// Push records the packet.
func (s *Sink) Push(p *packet.Packet, _ *flow.Gate) {
	if s.Blocked {
		flow.ProtocolViolation(s, "push into blocked sink")
	}

	s.EmitPushed(p)
	s.Received = append(s.Received, p)
}

// Unblock lets the sink accept packets again and tells the producer.
func (s *Sink) Unblock() {
	s.Blocked = false
	s.In.NotifyCanPush()
}

// A Store is a provider backed by a slice of packets. It is also an
// unbounded collection.
type Store struct {
	flow.ElementBase

	Out *flow.Gate

	Packets []*packet.Packet
	Popped  []*packet.Packet
}

// NewStore creates a Store.
func NewStore(name string) *Store {
	s := &Store{ElementBase: flow.MakeElementBase(name, nil)}
	s.Out = s.AddGate(s, "out", flow.Output, flow.PopMode)

	return s
}

// Add appends packets and tells the collector.
func (s *Store) Add(pkts ...*packet.Packet) {
	s.Packets = append(s.Packets, pkts...)
	s.Out.NotifyCanPop()
}

// CanPopSome tells if the store has a packet.
func (s *Store) CanPopSome(_ *flow.Gate) bool {
	return len(s.Packets) > 0
}

// CanPop returns the first packet.
func (s *Store) CanPop(_ *flow.Gate) *packet.Packet {
	if len(s.Packets) == 0 {
		return nil
	}

	return s.Packets[0]
}

// Pop removes the first packet.
func (s *Store) Pop(_ *flow.Gate) *packet.Packet {
	if len(s.Packets) == 0 {
		flow.ProtocolViolation(s, "pop from empty store")
	}

	p := s.Packets[0]
	s.Packets = s.Packets[1:]
	s.Popped = append(s.Popped, p)
	s.EmitPopped(p)

	return p
}

// NumPackets returns the number of stored packets.
func (s *Store) NumPackets() int {
	return len(s.Packets)
}

// TotalLength returns the length of all stored packets.
func (s *Store) TotalLength() int64 {
	return packet.TotalLength(s.Packets)
}

// MaxNumPackets returns Unbounded.
func (s *Store) MaxNumPackets() int {
	return flow.Unbounded
}

// MaxTotalLength returns Unbounded.
func (s *Store) MaxTotalLength() int64 {
	return flow.Unbounded
}

// Packet returns the i-th stored packet.
func (s *Store) Packet(i int) *packet.Packet {
	return s.Packets[i]
}

// IsEmpty tells if the store holds nothing.
func (s *Store) IsEmpty() bool {
	return len(s.Packets) == 0
}

// Remove deletes a packet from the store.
func (s *Store) Remove(p *packet.Packet) {
	for i, q := range s.Packets {
		if q == p {
			s.Packets = append(s.Packets[:i], s.Packets[i+1:]...)
			s.EmitRemoved(p)

			return
		}
	}
}

// A Puller is a collector that pops packets from its provider.
type Puller struct {
	flow.ElementBase

	In *flow.Gate

	Collected []*packet.Packet
	NumCanPop int
	AutoPull  bool
}

// NewPuller creates a Puller.
func NewPuller(name string) *Puller {
	p := &Puller{ElementBase: flow.MakeElementBase(name, nil)}
	p.In = p.AddGate(p, "in", flow.Input, flow.PopMode)

	return p
}

// PullOne pops one packet if the provider has one.
func (p *Puller) PullOne() *packet.Packet {
	if !p.In.CanPopSome() {
		return nil
	}

	pkt := p.In.Pop()
	p.Collected = append(p.Collected, pkt)

	return pkt
}

// PullAll pops packets until the provider has none.
func (p *Puller) PullAll() int {
	n := 0
	for p.PullOne() != nil {
		n++
	}

	return n
}

// HandleCanPop counts the notification and pulls if AutoPull is set.
func (p *Puller) HandleCanPop(_ *flow.Gate) {
	p.NumCanPop++

	if p.AutoPull {
		p.PullAll()
	}
}

// A Recorder is a hook that records the packet events it sees.
type Recorder struct {
	Events []hooking.HookCtx
}

// Func records the event.
func (r *Recorder) Func(ctx hooking.HookCtx) {
	r.Events = append(r.Events, ctx)
}

// Packets returns the packets of the events at the given position.
func (r *Recorder) Packets(pos *hooking.HookPos) []*packet.Packet {
	var pkts []*packet.Packet

	for _, e := range r.Events {
		if e.Pos == pos {
			pkts = append(pkts, e.Item.(*packet.Packet))
		}
	}

	return pkts
}

// Drops returns the details of all drop events.
func (r *Recorder) Drops() []flow.DropDetails {
	var drops []flow.DropDetails

	for _, e := range r.Events {
		if e.Pos == flow.HookPosPacketDropped {
			drops = append(drops, e.Detail.(flow.DropDetails))
		}
	}

	return drops
}

// Dropped returns the dropped packets.
func (r *Recorder) Dropped() []*packet.Packet {
	return r.Packets(flow.HookPosPacketDropped)
}
