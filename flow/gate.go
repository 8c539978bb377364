package flow

import (
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/naming"
)

// Direction tells if a gate receives or sends packets.
type Direction int

// Gate directions.
const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}

	return "output"
}

// Mode is the set of transfer modes a gate supports.
type Mode uint8

// Transfer modes. A link between two gates works in push mode or pop mode,
// and both endpoints must support the mode.
const (
	PushMode Mode = 1 << iota
	PopMode
	PushPopMode = PushMode | PopMode
)

// A Gate is a port of an element. An output gate connects to exactly one
// input gate of another element.
type Gate struct {
	owner    Element
	name     string
	index    int
	dir      Direction
	modes    Mode
	optional bool
	peer     *Gate
}

// Owner returns the element that the gate belongs to.
func (g *Gate) Owner() Element {
	return g.owner
}

// BaseName returns the name of the gate without the index.
func (g *Gate) BaseName() string {
	return g.name
}

// Name returns the name of the gate, including the index for gate vectors.
func (g *Gate) Name() string {
	if g.index < 0 {
		return g.name
	}

	return naming.Indexed(g.name, g.index)
}

// FullName returns the name of the gate prefixed by the owner's name.
func (g *Gate) FullName() string {
	return naming.Join(g.owner.Name(), g.Name())
}

// Index returns the position of the gate in its vector, or -1 for a scalar
// gate.
func (g *Gate) Index() int {
	return g.index
}

// Direction returns whether the gate is an input or an output.
func (g *Gate) Direction() Direction {
	return g.dir
}

// Modes returns the transfer modes that the gate supports.
func (g *Gate) Modes() Mode {
	return g.modes
}

// MarkOptional allows the gate to stay unconnected.
func (g *Gate) MarkOptional() *Gate {
	g.optional = true
	return g
}

// IsOptional tells if the gate may stay unconnected.
func (g *Gate) IsOptional() bool {
	return g.optional
}

// Peer returns the gate at the other end of the link, or nil.
func (g *Gate) Peer() *Gate {
	return g.peer
}

// IsConnected tells if the gate is linked to another gate.
func (g *Gate) IsConnected() bool {
	return g.peer != nil
}

// Connect links an output gate to an input gate.
func Connect(out, in *Gate) error {
	if out.dir != Output {
		return NewConfigurationError(out.owner.Name(),
			"gate %s is not an output gate", out.FullName())
	}

	if in.dir != Input {
		return NewConfigurationError(in.owner.Name(),
			"gate %s is not an input gate", in.FullName())
	}

	if out.peer != nil {
		return NewConfigurationError(out.owner.Name(),
			"gate %s is already connected to %s",
			out.FullName(), out.peer.FullName())
	}

	if in.peer != nil {
		return NewConfigurationError(in.owner.Name(),
			"gate %s is already connected to %s",
			in.FullName(), in.peer.FullName())
	}

	out.peer = in
	in.peer = out

	return nil
}

// MustConnect links two gates and panics if they cannot be linked.
func MustConnect(out, in *Gate) {
	if err := Connect(out, in); err != nil {
		panic(err)
	}
}

// CanPushSome asks the consumer behind an output gate if it can accept a
// packet.
func (g *Gate) CanPushSome() bool {
	if g.peer == nil {
		return false
	}

	return g.consumer().CanPushSome(g.peer)
}

// CanPush asks the consumer behind an output gate if it can accept the given
// packet.
func (g *Gate) CanPush(p *packet.Packet) bool {
	if g.peer == nil {
		return false
	}

	return g.consumer().CanPush(p, g.peer)
}

// Push hands the packet over to the consumer behind an output gate.
func (g *Gate) Push(p *packet.Packet) {
	g.mustBeConnected()
	g.consumer().Push(p, g.peer)
}

// CanPopSome asks the provider behind an input gate if it has a packet.
func (g *Gate) CanPopSome() bool {
	if g.peer == nil {
		return false
	}

	return g.provider().CanPopSome(g.peer)
}

// CanPop peeks the packet that the provider behind an input gate would
// return next.
func (g *Gate) CanPop() *packet.Packet {
	if g.peer == nil {
		return nil
	}

	return g.provider().CanPop(g.peer)
}

// Pop takes a packet from the provider behind an input gate.
func (g *Gate) Pop() *packet.Packet {
	g.mustBeConnected()

	return g.provider().Pop(g.peer)
}

// NotifyCanPush tells the producer behind an input gate that it may push
// again. Nothing happens if no producer is connected.
func (g *Gate) NotifyCanPush() {
	if g.peer == nil {
		return
	}

	if producer, ok := g.peer.owner.(Producer); ok {
		producer.HandleCanPush(g.peer)
	}
}

// NotifyCanPop tells the collector behind an output gate that packets are
// available. Nothing happens if no collector is connected.
func (g *Gate) NotifyCanPop() {
	if g.peer == nil {
		return
	}

	if collector, ok := g.peer.owner.(Collector); ok {
		collector.HandleCanPop(g.peer)
	}
}

// PeerCollection returns the peer element as a Collection, if it is one.
func (g *Gate) PeerCollection() (Collection, bool) {
	if g.peer == nil {
		return nil, false
	}

	c, ok := g.peer.owner.(Collection)

	return c, ok
}

func (g *Gate) mustBeConnected() {
	if g.peer == nil {
		ProtocolViolation(g.owner, "gate %s is not connected", g.FullName())
	}
}

func (g *Gate) consumer() Consumer {
	c, ok := g.peer.owner.(Consumer)
	if !ok {
		ProtocolViolation(g.owner,
			"%s is not a consumer", g.peer.FullName())
	}

	return c
}

func (g *Gate) provider() Provider {
	p, ok := g.peer.owner.(Provider)
	if !ok {
		ProtocolViolation(g.owner,
			"%s is not a provider", g.peer.FullName())
	}

	return p
}
