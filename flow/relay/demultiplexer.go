package relay

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A Demultiplexer lets the collectors on any of its outputs pop from its
// single input.
type Demultiplexer struct {
	flow.ElementBase

	in      *flow.Gate
	outputs []*flow.Gate
}

// NewDemultiplexer creates a demultiplexer with n outputs.
func NewDemultiplexer(name string, n int) *Demultiplexer {
	d := &Demultiplexer{ElementBase: flow.MakeElementBase(name, nil)}
	d.in = d.AddGate(d, "in", flow.Input, flow.PopMode)
	d.outputs = d.AddGateVector(d, "out", n, flow.Output, flow.PopMode)

	return d
}

// Input returns the input gate.
func (d *Demultiplexer) Input() *flow.Gate {
	return d.in
}

// Output returns the i-th output gate.
func (d *Demultiplexer) Output(i int) *flow.Gate {
	return d.outputs[i]
}

// CanPopSome tells if the provider has a packet.
func (d *Demultiplexer) CanPopSome(_ *flow.Gate) bool {
	return d.in.CanPopSome()
}

// CanPop peeks the packet of the provider.
func (d *Demultiplexer) CanPop(_ *flow.Gate) *packet.Packet {
	return d.in.CanPop()
}

// Pop takes a packet from the provider.
func (d *Demultiplexer) Pop(_ *flow.Gate) *packet.Packet {
	p := d.in.Pop()
	d.LogPacket("forwarded", p)
	d.EmitPopped(p)

	return p
}

// HandleCanPop tells the collectors in turn that packets are available. The
// provider is asked again before every notification, as an earlier
// collector may have emptied it.
func (d *Demultiplexer) HandleCanPop(_ *flow.Gate) {
	for _, out := range d.outputs {
		if !d.in.CanPopSome() {
			return
		}

		out.NotifyCanPop()
	}
}
