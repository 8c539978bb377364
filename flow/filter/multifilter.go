package filter

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/relay"
	"github.com/sarchlab/pktflow/packet"
)

// A Rejector decides if the packet arriving on the i-th input of a
// MultiFilter is dropped.
type Rejector interface {
	Rejects(i int, p *packet.Packet) bool
}

// A MultiFilter has several independent input and output pairs that share
// one admission decision. The decision can depend on the collections linked
// to the outputs, which the MultiFilter sees as one.
type MultiFilter struct {
	flow.ElementBase

	inputs   []*flow.Gate
	outputs  []*flow.Gate
	rejector Rejector

	// The packets that passed on each pop path but are not popped yet.
	admitted []*packet.Packet
}

func (f *MultiFilter) init(owner flow.Element, n int, rejector Rejector) {
	f.rejector = rejector
	f.inputs = f.AddGateVector(owner, "in", n, flow.Input, flow.PushPopMode)
	f.outputs = f.AddGateVector(owner, "out", n, flow.Output, flow.PushPopMode)
	f.admitted = make([]*packet.Packet, n)
}

// NewMultiFilter creates a MultiFilter with n input and output pairs.
func NewMultiFilter(name string, n int, rejector Rejector) *MultiFilter {
	f := &MultiFilter{ElementBase: flow.MakeElementBase(name, nil)}
	f.init(f, n, rejector)

	return f
}

// Input returns the i-th input gate.
func (f *MultiFilter) Input(i int) *flow.Gate {
	return f.inputs[i]
}

// Output returns the i-th output gate.
func (f *MultiFilter) Output(i int) *flow.Gate {
	return f.outputs[i]
}

// NumGates returns the number of input and output pairs.
func (f *MultiFilter) NumGates() int {
	return len(f.inputs)
}

// CheckLinks makes sure every output leads to a collection.
func (f *MultiFilter) CheckLinks() error {
	for _, out := range f.outputs {
		if _, ok := collectionBehind(out); !ok {
			return flow.NewConfigurationError(f.Name(),
				"output %s does not lead to a collection", out.Name())
		}
	}

	return nil
}

// collectionBehind finds the collection an output is linked to. An output
// linked to a Multiplexer reports the collection behind the multiplexer.
// Only that single hop is looked through.
func collectionBehind(out *flow.Gate) (flow.Collection, bool) {
	if c, ok := out.PeerCollection(); ok {
		return c, true
	}

	if !out.IsConnected() {
		return nil, false
	}

	mux, ok := out.Peer().Owner().(*relay.Multiplexer)
	if !ok {
		return nil, false
	}

	return mux.Output().PeerCollection()
}

func (f *MultiFilter) collections() []flow.Collection {
	var cs []flow.Collection

	for _, out := range f.outputs {
		c, ok := collectionBehind(out)
		if !ok {
			continue
		}

		if containsCollection(cs, c) {
			continue
		}

		cs = append(cs, c)
	}

	return cs
}

func containsCollection(cs []flow.Collection, c flow.Collection) bool {
	for _, e := range cs {
		if e == c {
			return true
		}
	}

	return false
}

// NumPackets returns the number of packets in all the collections behind the
// outputs.
func (f *MultiFilter) NumPackets() int {
	n := 0
	for _, c := range f.collections() {
		n += c.NumPackets()
	}

	return n
}

// TotalLength returns the length of the packets in all the collections
// behind the outputs.
func (f *MultiFilter) TotalLength() int64 {
	var l int64
	for _, c := range f.collections() {
		l += c.TotalLength()
	}

	return l
}

func (f *MultiFilter) drop(p *packet.Packet) {
	f.LogPacket("filtered", p)
	f.EmitDropped(p, flow.FilteredDetails())
}

// CanPushSome tells if the consumer of the matching output accepts a packet.
func (f *MultiFilter) CanPushSome(g *flow.Gate) bool {
	return f.outputs[g.Index()].CanPushSome()
}

// CanPush tells if the consumer of the matching output accepts the packet.
func (f *MultiFilter) CanPush(p *packet.Packet, g *flow.Gate) bool {
	return f.outputs[g.Index()].CanPush(p)
}

// Push forwards the packet to the matching output unless it is rejected.
func (f *MultiFilter) Push(p *packet.Packet, g *flow.Gate) {
	i := g.Index()

	f.EmitPushed(p)

	if f.rejector.Rejects(i, p) {
		f.drop(p)
		return
	}

	f.LogPacket("passed", p)
	f.outputs[i].Push(p)
}

// HandleCanPush tells the producer of the matching input that it may push.
func (f *MultiFilter) HandleCanPush(g *flow.Gate) {
	f.inputs[g.Index()].NotifyCanPush()
}

// CanPopSome drops the leading packets of the matching provider that are
// rejected and tells if an admitted packet remains.
func (f *MultiFilter) CanPopSome(g *flow.Gate) bool {
	return f.CanPop(g) != nil
}

// CanPop drops the leading packets of the matching provider that are
// rejected and peeks the first admitted one. The decision is made once per
// packet.
func (f *MultiFilter) CanPop(g *flow.Gate) *packet.Packet {
	i := g.Index()
	in := f.inputs[i]

	for {
		p := in.CanPop()
		if p == nil {
			return nil
		}

		if p == f.admitted[i] {
			return p
		}

		if !f.rejector.Rejects(i, p) {
			f.admitted[i] = p
			return p
		}

		f.drop(in.Pop())
	}
}

// Pop takes the next admitted packet from the matching provider.
func (f *MultiFilter) Pop(g *flow.Gate) *packet.Packet {
	i := g.Index()

	if f.CanPop(g) == nil {
		flow.ProtocolViolation(f, "no admitted packet to pop on %s", g.Name())
	}

	p := f.inputs[i].Pop()
	f.admitted[i] = nil

	f.LogPacket("passed", p)
	f.EmitPopped(p)

	return p
}

// HandleCanPop tells the collector of the matching output that packets may
// be available.
func (f *MultiFilter) HandleCanPop(g *flow.Gate) {
	f.outputs[g.Index()].NotifyCanPop()
}
