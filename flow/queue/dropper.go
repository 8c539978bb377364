package queue

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A DropTarget is a collection that can report the packets dropped from it.
type DropTarget interface {
	flow.Collection
	EmitDropped(p *packet.Packet, details flow.DropDetails)
}

// A Dropper evicts packets from an overloaded collection until it is back
// within its capacity.
type Dropper func(t DropTarget)

var droppers = flow.NewRegistry[Dropper]("dropper")

// MustRegisterDropper registers a dropper constructor under a name.
func MustRegisterDropper(name string, c flow.Constructor[Dropper]) {
	droppers.MustRegister(name, c)
}

// NewDropperFromName creates the dropper registered under the name.
func NewDropperFromName(name string, params flow.Params) (Dropper, error) {
	return droppers.New(name, params)
}

// DropperNames lists the registered droppers.
func DropperNames() []string {
	return droppers.Names()
}

// DropTail evicts the last packet until the collection fits.
func DropTail(t DropTarget) {
	for !t.IsEmpty() && flow.IsOverloaded(t) {
		dropPacket(t, t.NumPackets()-1)
	}
}

// DropHead evicts the first packet until the collection fits.
func DropHead(t DropTarget) {
	for !t.IsEmpty() && flow.IsOverloaded(t) {
		dropPacket(t, 0)
	}
}

func dropPacket(t DropTarget, i int) {
	limit := exceededLimit(t)
	p := t.Packet(i)
	t.Remove(p)
	t.EmitDropped(p, flow.OverflowDetails(limit))
}

func exceededLimit(c flow.Collection) int64 {
	maxNum := c.MaxNumPackets()
	if maxNum != flow.Unbounded && c.NumPackets() > maxNum {
		return int64(maxNum)
	}

	return c.MaxTotalLength()
}

func init() {
	MustRegisterDropper("DropTail", func(flow.Params) (Dropper, error) {
		return DropTail, nil
	})
	MustRegisterDropper("DropHead", func(flow.Params) (Dropper, error) {
		return DropHead, nil
	})
}
