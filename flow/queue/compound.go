package queue

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A CompoundQueue puts an admission limit in front of an inner network of
// elements. Pushed packets go to the inner consumer linked to the Enter
// gate. Popped packets come from the inner provider linked to the Leave
// gate, whose collection is what the compound queue reports.
type CompoundQueue struct {
	flow.ElementBase

	in    *flow.Gate
	out   *flow.Gate
	enter *flow.Gate
	leave *flow.Gate

	frameCapacity int
	dataCapacity  int64
}

// CompoundQueueBuilder can build compound queues.
type CompoundQueueBuilder struct {
	frameCapacity int
	dataCapacity  int64
}

// MakeCompoundQueueBuilder returns a builder for unbounded compound queues.
func MakeCompoundQueueBuilder() CompoundQueueBuilder {
	return CompoundQueueBuilder{
		frameCapacity: flow.Unbounded,
		dataCapacity:  flow.Unbounded,
	}
}

// WithFrameCapacity sets the maximum number of packets.
func (b CompoundQueueBuilder) WithFrameCapacity(n int) CompoundQueueBuilder {
	b.frameCapacity = n
	return b
}

// WithDataCapacity sets the maximum total length in bits.
func (b CompoundQueueBuilder) WithDataCapacity(
	bits int64,
) CompoundQueueBuilder {
	b.dataCapacity = bits
	return b
}

// Build creates a compound queue.
func (b CompoundQueueBuilder) Build(name string) *CompoundQueue {
	q := &CompoundQueue{
		ElementBase:   flow.MakeElementBase(name, nil),
		frameCapacity: b.frameCapacity,
		dataCapacity:  b.dataCapacity,
	}

	q.in = q.AddGate(q, "in", flow.Input, flow.PushMode)
	q.out = q.AddGate(q, "out", flow.Output, flow.PopMode)
	q.enter = q.AddGate(q, "enter", flow.Output, flow.PushMode)
	q.leave = q.AddGate(q, "leave", flow.Input, flow.PopMode)

	return q
}

// Input returns the gate packets are pushed into.
func (q *CompoundQueue) Input() *flow.Gate { return q.in }

// Output returns the gate packets are popped from.
func (q *CompoundQueue) Output() *flow.Gate { return q.out }

// Enter returns the gate linked to the inner consumer.
func (q *CompoundQueue) Enter() *flow.Gate { return q.enter }

// Leave returns the gate linked to the inner provider.
func (q *CompoundQueue) Leave() *flow.Gate { return q.leave }

// CheckLinks makes sure the inner provider reports its occupancy.
func (q *CompoundQueue) CheckLinks() error {
	if _, ok := q.leave.PeerCollection(); !ok && q.leave.IsConnected() {
		return flow.NewConfigurationError(q.Name(),
			"%s is not a collection", q.leave.Peer().FullName())
	}

	return nil
}

func (q *CompoundQueue) collection() flow.Collection {
	c, ok := q.leave.PeerCollection()
	if !ok {
		flow.ProtocolViolation(q, "inner provider is not a collection")
	}

	return c
}

// NumPackets returns the number of packets in the inner collection.
func (q *CompoundQueue) NumPackets() int {
	return q.collection().NumPackets()
}

// TotalLength sums the lengths of the packets in the inner collection.
func (q *CompoundQueue) TotalLength() int64 {
	c := q.collection()

	var l int64
	for i := 0; i < c.NumPackets(); i++ {
		l += c.Packet(i).Length
	}

	return l
}

// MaxNumPackets returns the frame capacity.
func (q *CompoundQueue) MaxNumPackets() int { return q.frameCapacity }

// MaxTotalLength returns the data capacity.
func (q *CompoundQueue) MaxTotalLength() int64 { return q.dataCapacity }

// Packet returns the i-th packet of the inner collection.
func (q *CompoundQueue) Packet(i int) *packet.Packet {
	return q.collection().Packet(i)
}

// IsEmpty tells if the inner collection is empty.
func (q *CompoundQueue) IsEmpty() bool {
	return q.collection().IsEmpty()
}

// Remove removes a packet from the inner collection.
func (q *CompoundQueue) Remove(p *packet.Packet) {
	q.collection().Remove(p)
	q.EmitRemoved(p)
}

// CanPushSome tells if the inner consumer accepts packets.
func (q *CompoundQueue) CanPushSome(_ *flow.Gate) bool {
	return q.enter.CanPushSome()
}

// CanPush tells if the inner consumer accepts the packet.
func (q *CompoundQueue) CanPush(p *packet.Packet, _ *flow.Gate) bool {
	return q.enter.CanPush(p)
}

// Push admits a packet into the inner network, or drops it if the compound
// queue is full.
func (q *CompoundQueue) Push(p *packet.Packet, _ *flow.Gate) {
	q.EmitPushed(p)

	full := (q.frameCapacity != flow.Unbounded &&
		q.NumPackets() >= q.frameCapacity) ||
		(q.dataCapacity != flow.Unbounded &&
			q.TotalLength()+p.Length > q.dataCapacity)
	if full {
		q.LogPacket("queue full", p)
		q.EmitDropped(p, flow.OverflowDetails(int64(q.frameCapacity)))

		return
	}

	q.enter.Push(p)
}

// HandleCanPush relays the inner consumer's wake-up to the producer.
func (q *CompoundQueue) HandleCanPush(_ *flow.Gate) {
	q.in.NotifyCanPush()
}

// CanPopSome tells if the inner provider has a packet.
func (q *CompoundQueue) CanPopSome(_ *flow.Gate) bool {
	return q.leave.CanPopSome()
}

// CanPop peeks the inner provider.
func (q *CompoundQueue) CanPop(_ *flow.Gate) *packet.Packet {
	return q.leave.CanPop()
}

// Pop takes a packet from the inner provider.
func (q *CompoundQueue) Pop(_ *flow.Gate) *packet.Packet {
	p := q.leave.Pop()
	q.EmitPopped(p)

	return p
}

// HandleCanPop relays the inner provider's notification to the collector.
func (q *CompoundQueue) HandleCanPop(_ *flow.Gate) {
	q.out.NotifyCanPop()
}
