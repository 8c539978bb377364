// Package filter provides elements that let some packets through and drop
// the others: predicate filters, threshold droppers and RED.
package filter

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A Filter passes the packets that match its predicate and drops the others.
// It works both when packets are pushed through it and when they are popped
// through it.
type Filter struct {
	flow.ElementBase

	in  *flow.Gate
	out *flow.Gate

	predicate Predicate
}

// NewFilter creates a filter.
func NewFilter(name string, predicate Predicate) *Filter {
	f := &Filter{
		ElementBase: flow.MakeElementBase(name, nil),
		predicate:   predicate,
	}
	f.in = f.AddGate(f, "in", flow.Input, flow.PushPopMode)
	f.out = f.AddGate(f, "out", flow.Output, flow.PushPopMode)

	return f
}

// Input returns the input gate.
func (f *Filter) Input() *flow.Gate {
	return f.in
}

// Output returns the output gate.
func (f *Filter) Output() *flow.Gate {
	return f.out
}

// CheckLinks makes sure that packets flow in the same mode on both sides.
func (f *Filter) CheckLinks() error {
	if flow.IsPushLink(f.in) && flow.IsPushLink(f.out) {
		return nil
	}

	if flow.IsPopLink(f.in) && flow.IsPopLink(f.out) {
		return nil
	}

	return flow.NewConfigurationError(f.Name(),
		"input and output must both be pushed or both be popped")
}

func (f *Filter) drop(p *packet.Packet) {
	f.LogPacket("filtered", p)
	f.EmitDropped(p, flow.FilteredDetails())
}

// CanPushSome tells if the consumer accepts a packet.
func (f *Filter) CanPushSome(_ *flow.Gate) bool {
	return f.out.CanPushSome()
}

// CanPush tells if the packet can be pushed. Packets that will be dropped
// can always be pushed.
func (f *Filter) CanPush(p *packet.Packet, _ *flow.Gate) bool {
	if !f.predicate(p) {
		return true
	}

	return f.out.CanPush(p)
}

// Push forwards the packet if it matches and drops it otherwise.
func (f *Filter) Push(p *packet.Packet, _ *flow.Gate) {
	f.EmitPushed(p)

	if !f.predicate(p) {
		f.drop(p)
		return
	}

	f.LogPacket("passed", p)
	f.out.Push(p)
}

// HandleCanPush tells the producer that it may push again.
func (f *Filter) HandleCanPush(_ *flow.Gate) {
	f.in.NotifyCanPush()
}

// CanPopSome drops the leading packets of the provider that do not match and
// tells if a matching packet remains.
func (f *Filter) CanPopSome(g *flow.Gate) bool {
	return f.CanPop(g) != nil
}

// CanPop drops the leading packets of the provider that do not match and
// peeks the first one that does.
func (f *Filter) CanPop(_ *flow.Gate) *packet.Packet {
	for {
		p := f.in.CanPop()
		if p == nil || f.predicate(p) {
			return p
		}

		f.drop(f.in.Pop())
	}
}

// Pop pops from the provider until a packet matches, dropping the others.
func (f *Filter) Pop(_ *flow.Gate) *packet.Packet {
	for {
		if !f.in.CanPopSome() {
			flow.ProtocolViolation(f, "no matching packet to pop")
		}

		p := f.in.Pop()
		if f.predicate(p) {
			f.LogPacket("passed", p)
			f.EmitPopped(p)

			return p
		}

		f.drop(p)
	}
}

// HandleCanPop tells the collector that packets may be available.
func (f *Filter) HandleCanPop(_ *flow.Gate) {
	f.out.NotifyCanPop()
}
