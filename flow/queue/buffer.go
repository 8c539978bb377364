package queue

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// An Owner is a collection that keeps its packets in a shared buffer.
type Owner interface {
	flow.Collection
	flow.Callback
}

// A RoomPolicy evicts packets from an overloaded buffer. The owner and the
// packet are the ones whose arrival overloaded the buffer.
type RoomPolicy interface {
	MakeRoom(b *Buffer, owner Owner, p *packet.Packet)
}

type ledgerEntry struct {
	owner   Owner
	ordinal int
	packet  *packet.Packet
}

// A Buffer accounts for the packets of several queues against one shared
// capacity. The ledger lists packets in arrival order. Owners get ordinals
// in registration order, starting from 0.
type Buffer struct {
	flow.ElementBase

	frameCapacity int
	dataCapacity  int64
	policy        RoomPolicy

	owners      []Owner
	ledger      []ledgerEntry
	totalLength int64
}

// BufferBuilder can build buffers.
type BufferBuilder struct {
	frameCapacity int
	dataCapacity  int64
	policy        RoomPolicy
}

// MakeBufferBuilder returns a BufferBuilder for tail-drop buffers.
func MakeBufferBuilder() BufferBuilder {
	return BufferBuilder{
		frameCapacity: flow.Unbounded,
		dataCapacity:  flow.Unbounded,
		policy:        TailDropPolicy{},
	}
}

// WithFrameCapacity sets the maximum number of packets.
func (b BufferBuilder) WithFrameCapacity(n int) BufferBuilder {
	b.frameCapacity = n
	return b
}

// WithDataCapacity sets the maximum total length in bits.
func (b BufferBuilder) WithDataCapacity(bits int64) BufferBuilder {
	b.dataCapacity = bits
	return b
}

// WithPolicy sets how the buffer makes room.
func (b BufferBuilder) WithPolicy(p RoomPolicy) BufferBuilder {
	b.policy = p
	return b
}

// Build creates a buffer.
func (b BufferBuilder) Build(name string) *Buffer {
	if b.policy == nil {
		panic("buffer needs a room policy")
	}

	return &Buffer{
		ElementBase:   flow.MakeElementBase(name, nil),
		frameCapacity: b.frameCapacity,
		dataCapacity:  b.dataCapacity,
		policy:        b.policy,
	}
}

// Register adds an owner. Registering an owner twice has no effect.
func (b *Buffer) Register(owner Owner) {
	if b.ordinalOf(owner) >= 0 {
		return
	}

	b.owners = append(b.owners, owner)
}

// Owners returns the owners in registration order.
func (b *Buffer) Owners() []Owner {
	return b.owners
}

func (b *Buffer) ordinalOf(owner Owner) int {
	for i, o := range b.owners {
		if o == owner {
			return i
		}
	}

	return -1
}

// AddPacket records a packet that the owner has just stored and makes room
// if the buffer is now overloaded.
func (b *Buffer) AddPacket(p *packet.Packet, owner Owner) {
	ordinal := b.ordinalOf(owner)
	if ordinal < 0 {
		flow.ProtocolViolation(b, "owner %T is not registered", owner)
	}

	b.ledger = append(b.ledger, ledgerEntry{
		owner:   owner,
		ordinal: ordinal,
		packet:  p,
	})
	b.totalLength += p.Length
	b.EmitPushed(p)

	if flow.IsOverloaded(b) {
		b.policy.MakeRoom(b, owner, p)
	}
}

// RemovePacket forgets a packet that the owner has removed by itself.
func (b *Buffer) RemovePacket(p *packet.Packet, owner Owner) {
	i := b.indexOf(p, owner)
	if i < 0 {
		flow.ProtocolViolation(b, "packet %s is not in the buffer", p)
	}

	b.removeAt(i)
	b.EmitRemoved(p)
}

// Evict removes the i-th packet of the ledger, tells its owner and drops it.
func (b *Buffer) Evict(i int) {
	limit := exceededLimit(b)
	e := b.removeAt(i)

	e.owner.HandlePacketRemoved(e.packet)
	b.EmitDropped(e.packet, flow.OverflowDetails(limit))
}

func (b *Buffer) removeAt(i int) ledgerEntry {
	e := b.ledger[i]
	b.ledger = append(b.ledger[:i], b.ledger[i+1:]...)
	b.totalLength -= e.packet.Length

	return e
}

func (b *Buffer) indexOf(p *packet.Packet, owner Owner) int {
	for i, e := range b.ledger {
		if e.packet == p && e.owner == owner {
			return i
		}
	}

	return -1
}

// NumPackets returns the number of packets in the buffer.
func (b *Buffer) NumPackets() int {
	return len(b.ledger)
}

// TotalLength returns the total length of the packets in bits.
func (b *Buffer) TotalLength() int64 {
	return b.totalLength
}

// MaxNumPackets returns the frame capacity.
func (b *Buffer) MaxNumPackets() int {
	return b.frameCapacity
}

// MaxTotalLength returns the data capacity.
func (b *Buffer) MaxTotalLength() int64 {
	return b.dataCapacity
}

// Packet returns the i-th packet in arrival order.
func (b *Buffer) Packet(i int) *packet.Packet {
	return b.ledger[i].packet
}

// OwnerOf returns the owner of the i-th packet and its ordinal.
func (b *Buffer) OwnerOf(i int) (Owner, int) {
	return b.ledger[i].owner, b.ledger[i].ordinal
}

// IsEmpty tells if the buffer holds no packet.
func (b *Buffer) IsEmpty() bool {
	return len(b.ledger) == 0
}

// Remove takes a packet out through its owner.
func (b *Buffer) Remove(p *packet.Packet) {
	for _, e := range b.ledger {
		if e.packet == p {
			e.owner.Remove(p)
			return
		}
	}

	flow.ProtocolViolation(b, "packet %s is not in the buffer", p)
}

// TailDropPolicy evicts the most recent arrivals across all owners.
type TailDropPolicy struct{}

// MakeRoom evicts packets from the end of the ledger.
func (TailDropPolicy) MakeRoom(b *Buffer, _ Owner, _ *packet.Packet) {
	for !b.IsEmpty() && flow.IsOverloaded(b) {
		b.Evict(len(b.ledger) - 1)
	}
}

// HeadDropPolicy evicts the oldest packets across all owners.
type HeadDropPolicy struct{}

// MakeRoom evicts packets from the front of the ledger.
func (HeadDropPolicy) MakeRoom(b *Buffer, _ Owner, _ *packet.Packet) {
	for !b.IsEmpty() && flow.IsOverloaded(b) {
		b.Evict(0)
	}
}

// PriorityPolicy treats owners registered earlier as more important. It
// evicts the packets of the owner with the largest ordinal first, newest
// packet first, and moves towards the owner that overloaded the buffer. If
// that is not enough, the arriving packet itself is evicted. The result is a
// cheap approximation and not the globally best choice of victims.
type PriorityPolicy struct{}

// MakeRoom evicts packets of less important owners.
func (PriorityPolicy) MakeRoom(b *Buffer, owner Owner, p *packet.Packet) {
	ordinal := b.ordinalOf(owner)

	for victim := len(b.owners) - 1; victim > ordinal; victim-- {
		for i := len(b.ledger) - 1; i >= 0; i-- {
			if !flow.IsOverloaded(b) {
				return
			}

			if b.ledger[i].ordinal == victim {
				b.Evict(i)
			}
		}
	}

	if flow.IsOverloaded(b) {
		if i := b.indexOf(p, owner); i >= 0 {
			b.Evict(i)
		}
	}
}

var roomPolicies = flow.NewRegistry[RoomPolicy]("buffer policy")

// MustRegisterRoomPolicy registers a buffer policy constructor under a name.
func MustRegisterRoomPolicy(name string, c flow.Constructor[RoomPolicy]) {
	roomPolicies.MustRegister(name, c)
}

// NewRoomPolicyFromName creates the buffer policy registered under the name.
func NewRoomPolicyFromName(
	name string,
	params flow.Params,
) (RoomPolicy, error) {
	return roomPolicies.New(name, params)
}

func init() {
	MustRegisterRoomPolicy("TailDrop", func(flow.Params) (RoomPolicy, error) {
		return TailDropPolicy{}, nil
	})
	MustRegisterRoomPolicy("HeadDrop", func(flow.Params) (RoomPolicy, error) {
		return HeadDropPolicy{}, nil
	})
	MustRegisterRoomPolicy("Priority", func(flow.Params) (RoomPolicy, error) {
		return PriorityPolicy{}, nil
	})
}
