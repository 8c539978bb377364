// Package queue provides packet queues, the buffers that queues can share,
// and the policies that order and evict their packets.
package queue

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/timing"
)

// A Queue stores pushed packets until they are popped.
//
// A push that would exceed the frame capacity is rejected and the arriving
// packet is dropped. Other overloads are resolved by the shared buffer, if
// the queue has one, or by the dropper.
type Queue struct {
	flow.ElementBase

	in  *flow.Gate
	out *flow.Gate

	frameCapacity int
	dataCapacity  int64
	comparator    Comparator
	dropper       Dropper
	buffer        *Buffer

	packets     []*packet.Packet
	totalLength int64

	wakeTimer *timing.Timer
}

// Builder can build queues.
type Builder struct {
	engine        timing.EventScheduler
	frameCapacity int
	dataCapacity  int64
	comparator    Comparator
	dropper       Dropper
	buffer        *Buffer
}

// MakeBuilder returns a Builder for unbounded FIFO queues.
func MakeBuilder() Builder {
	return Builder{
		frameCapacity: flow.Unbounded,
		dataCapacity:  flow.Unbounded,
	}
}

// WithEngine sets the engine that the queue uses.
func (b Builder) WithEngine(engine timing.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithFrameCapacity sets the maximum number of packets.
func (b Builder) WithFrameCapacity(n int) Builder {
	b.frameCapacity = n
	return b
}

// WithDataCapacity sets the maximum total length in bits.
func (b Builder) WithDataCapacity(bits int64) Builder {
	b.dataCapacity = bits
	return b
}

// WithComparator sets the order of the packets.
func (b Builder) WithComparator(c Comparator) Builder {
	b.comparator = c
	return b
}

// WithDropper sets the policy that evicts packets when the queue is
// overloaded.
func (b Builder) WithDropper(d Dropper) Builder {
	b.dropper = d
	return b
}

// WithBuffer makes the queue keep its packets in a shared buffer.
func (b Builder) WithBuffer(buffer *Buffer) Builder {
	b.buffer = buffer
	return b
}

// Build creates a queue. A queue that shares a buffer is registered as a
// buffer owner here, so build order decides the owner ordinals.
func (b Builder) Build(name string) *Queue {
	q := &Queue{
		ElementBase:   flow.MakeElementBase(name, b.engine),
		frameCapacity: b.frameCapacity,
		dataCapacity:  b.dataCapacity,
		comparator:    b.comparator,
		dropper:       b.dropper,
		buffer:        b.buffer,
	}

	q.in = q.AddGate(q, "in", flow.Input, flow.PushMode)
	q.out = q.AddGate(q, "out", flow.Output, flow.PopMode)

	if b.engine != nil {
		q.wakeTimer = q.NewTimer("Wake", q)
	}

	if q.buffer != nil {
		q.buffer.Register(q)
	}

	return q
}

// Input returns the gate packets are pushed into.
func (q *Queue) Input() *flow.Gate {
	return q.in
}

// Output returns the gate packets are popped from.
func (q *Queue) Output() *flow.Gate {
	return q.out
}

// CheckLinks makes sure that every overload can be resolved.
func (q *Queue) CheckLinks() error {
	if q.dataCapacity != flow.Unbounded &&
		q.buffer == nil && q.dropper == nil {
		return flow.NewConfigurationError(q.Name(),
			"data capacity is bounded but neither a buffer nor a dropper is set")
	}

	return nil
}

// Start tells the producer that the queue accepts packets.
func (q *Queue) Start() {
	if q.wakeTimer == nil {
		q.in.NotifyCanPush()
		return
	}

	q.wakeTimer.Schedule(q.Now())
}

// HandleTimer wakes up the producer.
func (q *Queue) HandleTimer(_ *timing.Timer) {
	q.in.NotifyCanPush()
}

// NumPackets returns the number of packets in the queue.
func (q *Queue) NumPackets() int {
	return len(q.packets)
}

// TotalLength returns the total length of the packets in bits.
func (q *Queue) TotalLength() int64 {
	return q.totalLength
}

// MaxNumPackets returns the frame capacity.
func (q *Queue) MaxNumPackets() int {
	return q.frameCapacity
}

// MaxTotalLength returns the data capacity.
func (q *Queue) MaxTotalLength() int64 {
	return q.dataCapacity
}

// Packet returns the i-th packet in pop order.
func (q *Queue) Packet(i int) *packet.Packet {
	return q.packets[i]
}

// IsEmpty tells if the queue holds no packet.
func (q *Queue) IsEmpty() bool {
	return len(q.packets) == 0
}

// CanPushSome tells if a push would be accepted without rejection. A queue
// with a dropper always accepts.
func (q *Queue) CanPushSome(_ *flow.Gate) bool {
	if q.dropper != nil {
		return true
	}

	return q.frameCapacity == flow.Unbounded ||
		len(q.packets) < q.frameCapacity
}

// CanPush tells if a push would be accepted without rejection.
func (q *Queue) CanPush(_ *packet.Packet, g *flow.Gate) bool {
	return q.CanPushSome(g)
}

// Push inserts a packet into the queue.
func (q *Queue) Push(p *packet.Packet, _ *flow.Gate) {
	q.EmitPushed(p)
	q.LogPacket("pushed", p)

	if q.frameCapacity != flow.Unbounded &&
		len(q.packets)+1 > q.frameCapacity {
		q.EmitDropped(p, flow.OverflowDetails(int64(q.frameCapacity)))
		return
	}

	q.insert(p)

	switch {
	case q.buffer != nil:
		q.buffer.AddPacket(p, q)
	case flow.IsOverloaded(q):
		if q.dropper == nil {
			flow.ProtocolViolation(q, "queue is overloaded and no dropper is set")
		}

		q.dropper(q)
	}

	if len(q.packets) != 0 {
		q.out.NotifyCanPop()
	}
}

func (q *Queue) insert(p *packet.Packet) {
	q.totalLength += p.Length

	i := len(q.packets)
	if q.comparator != nil {
		for i > 0 && q.comparator(p, q.packets[i-1]) < 0 {
			i--
		}
	}

	q.packets = append(q.packets, nil)
	copy(q.packets[i+1:], q.packets[i:])
	q.packets[i] = p
}

func (q *Queue) indexOf(p *packet.Packet) int {
	for i, e := range q.packets {
		if e == p {
			return i
		}
	}

	return -1
}

func (q *Queue) removeAt(i int) *packet.Packet {
	p := q.packets[i]
	q.packets = append(q.packets[:i], q.packets[i+1:]...)
	q.totalLength -= p.Length

	return p
}

// CanPopSome tells if the queue has a packet.
func (q *Queue) CanPopSome(_ *flow.Gate) bool {
	return len(q.packets) > 0
}

// CanPop returns the packet at the head of the queue.
func (q *Queue) CanPop(_ *flow.Gate) *packet.Packet {
	if len(q.packets) == 0 {
		return nil
	}

	return q.packets[0]
}

// Pop removes and returns the packet at the head of the queue.
func (q *Queue) Pop(_ *flow.Gate) *packet.Packet {
	if len(q.packets) == 0 {
		flow.ProtocolViolation(q, "pop from empty queue")
	}

	wasFull := !q.CanPushSome(q.in)

	p := q.removeAt(0)
	if q.buffer != nil {
		q.buffer.RemovePacket(p, q)
	}

	q.LogPacket("popped", p)
	q.EmitPopped(p)
	q.wakeProducerIf(wasFull)

	return p
}

// Remove takes a packet out of the queue regardless of its position.
func (q *Queue) Remove(p *packet.Packet) {
	i := q.indexOf(p)
	if i < 0 {
		flow.ProtocolViolation(q, "packet %s is not in the queue", p)
	}

	wasFull := !q.CanPushSome(q.in)

	q.removeAt(i)
	if q.buffer != nil {
		q.buffer.RemovePacket(p, q)
	}

	q.LogPacket("removed", p)
	q.EmitRemoved(p)
	q.wakeProducerIf(wasFull)
}

// HandlePacketRemoved forgets a packet that the shared buffer evicted.
func (q *Queue) HandlePacketRemoved(p *packet.Packet) {
	i := q.indexOf(p)
	if i < 0 {
		flow.ProtocolViolation(q, "packet %s is not in the queue", p)
	}

	wasFull := !q.CanPushSome(q.in)

	q.removeAt(i)
	q.LogPacket("removed", p)
	q.EmitRemoved(p)
	q.wakeProducerIf(wasFull)
}

// The producer is woken up by a separate event so that it never pushes into
// a queue that is still in the middle of a pop or an eviction.
func (q *Queue) wakeProducerIf(wasFull bool) {
	if !wasFull || q.wakeTimer == nil || q.wakeTimer.IsScheduled() {
		return
	}

	q.wakeTimer.Schedule(q.Now())
}
