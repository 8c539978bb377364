package flow

import "github.com/sarchlab/pktflow/packet"

// A Consumer accepts packets pushed into one of its input gates.
//
// Push must only be called after CanPushSome or CanPush on the same gate has
// reported that the consumer can accept the packet.
type Consumer interface {
	CanPushSome(g *Gate) bool
	CanPush(p *packet.Packet, g *Gate) bool
	Push(p *packet.Packet, g *Gate)
}

// A Producer is told by a downstream Consumer that it can push again.
type Producer interface {
	HandleCanPush(g *Gate)
}

// A Provider holds packets that downstream Collectors may pop.
//
// Pop must only be called after CanPopSome returned true or CanPop returned a
// packet on the same gate.
type Provider interface {
	CanPopSome(g *Gate) bool

	// CanPop returns the packet that the next Pop would return, or nil. The
	// provider keeps the ownership of the packet.
	CanPop(g *Gate) *packet.Packet
	Pop(g *Gate) *packet.Packet
}

// A Collector is told by an upstream Provider that new packets are
// available.
type Collector interface {
	HandleCanPop(g *Gate)
}

// A Collection is an element that stores packets and reports its occupancy.
type Collection interface {
	NumPackets() int
	TotalLength() int64
	MaxNumPackets() int
	MaxTotalLength() int64
	Packet(i int) *packet.Packet
	IsEmpty() bool
	Remove(p *packet.Packet)
}

// A Callback is notified when a shared buffer removes one of the packets the
// callback owns.
type Callback interface {
	HandlePacketRemoved(p *packet.Packet)
}

// A Starter is an element that needs to schedule its first events once the
// network is wired.
type Starter interface {
	Start()
}

// Unbounded marks a capacity that has no limit.
const Unbounded = -1

// IsOverloaded tells if a collection holds more than its capacity allows.
func IsOverloaded(c Collection) bool {
	maxNum := c.MaxNumPackets()
	maxLen := c.MaxTotalLength()

	return (maxNum != Unbounded && c.NumPackets() > maxNum) ||
		(maxLen != Unbounded && c.TotalLength() > maxLen)
}
