// Package relay provides elements that pass packets along without storing
// them for long: multiplexers, demultiplexers, delayers and duplicators.
package relay

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A Multiplexer forwards packets pushed into any of its inputs to its single
// output.
type Multiplexer struct {
	flow.ElementBase

	inputs []*flow.Gate
	out    *flow.Gate
}

// NewMultiplexer creates a multiplexer with n inputs.
func NewMultiplexer(name string, n int) *Multiplexer {
	m := &Multiplexer{ElementBase: flow.MakeElementBase(name, nil)}
	m.inputs = m.AddGateVector(m, "in", n, flow.Input, flow.PushMode)
	m.out = m.AddGate(m, "out", flow.Output, flow.PushMode)

	return m
}

// Input returns the i-th input gate.
func (m *Multiplexer) Input(i int) *flow.Gate {
	return m.inputs[i]
}

// Output returns the output gate.
func (m *Multiplexer) Output() *flow.Gate {
	return m.out
}

// CanPushSome tells if the consumer accepts a packet.
func (m *Multiplexer) CanPushSome(_ *flow.Gate) bool {
	return m.out.CanPushSome()
}

// CanPush tells if the consumer accepts the packet.
func (m *Multiplexer) CanPush(p *packet.Packet, _ *flow.Gate) bool {
	return m.out.CanPush(p)
}

// Push forwards the packet.
func (m *Multiplexer) Push(p *packet.Packet, _ *flow.Gate) {
	m.EmitPushed(p)
	m.LogPacket("forwarded", p)
	m.out.Push(p)
}

// HandleCanPush tells the producers in turn that they may push. The consumer
// is asked again before every notification, as an earlier producer may have
// filled it up.
func (m *Multiplexer) HandleCanPush(_ *flow.Gate) {
	for _, in := range m.inputs {
		if !m.out.CanPushSome() {
			return
		}

		in.NotifyCanPush()
	}
}
