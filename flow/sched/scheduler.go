// Package sched provides schedulers, the elements that merge several inputs
// into one output by deciding which input is served next.
package sched

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A Scheduler is popped from its output and pops the packet from the input
// that its function selects.
type Scheduler struct {
	flow.ElementBase

	inputs   []*flow.Gate
	out      *flow.Gate
	function Function
}

// Builder can build schedulers.
type Builder struct {
	numInputs int
	function  Function
}

// MakeBuilder returns a Builder for priority schedulers with one input.
func MakeBuilder() Builder {
	return Builder{
		numInputs: 1,
		function:  PriorityFunction{},
	}
}

// WithNumInputs sets the number of input gates.
func (b Builder) WithNumInputs(n int) Builder {
	b.numInputs = n
	return b
}

// WithFunction sets the scheduling function.
func (b Builder) WithFunction(f Function) Builder {
	b.function = f
	return b
}

// Build creates a scheduler.
func (b Builder) Build(name string) *Scheduler {
	s := &Scheduler{}
	s.init(s, name, b.numInputs, b.function)

	return s
}

func (s *Scheduler) init(
	owner flow.Element,
	name string,
	numInputs int,
	f Function,
) {
	s.ElementBase = flow.MakeElementBase(name, nil)
	s.function = f
	s.inputs = s.AddGateVector(owner, "in", numInputs, flow.Input, flow.PopMode)
	s.out = s.AddGate(owner, "out", flow.Output, flow.PopMode)
}

// Input returns the i-th input gate.
func (s *Scheduler) Input(i int) *flow.Gate {
	return s.inputs[i]
}

// Inputs returns all the input gates.
func (s *Scheduler) Inputs() []*flow.Gate {
	return s.inputs
}

// Output returns the output gate.
func (s *Scheduler) Output() *flow.Gate {
	return s.out
}

// Function returns the scheduling function.
func (s *Scheduler) Function() Function {
	return s.function
}

// CanPopSome tells if any input has a packet.
func (s *Scheduler) CanPopSome(_ *flow.Gate) bool {
	for _, in := range s.inputs {
		if in.CanPopSome() {
			return true
		}
	}

	return false
}

// CanPop peeks the packet that the next pop would return.
func (s *Scheduler) CanPop(_ *flow.Gate) *packet.Packet {
	i := s.function.Select(s.inputs)
	if i < 0 {
		return nil
	}

	return s.inputs[i].CanPop()
}

// Pop takes a packet from the selected input.
func (s *Scheduler) Pop(_ *flow.Gate) *packet.Packet {
	i := s.function.Select(s.inputs)
	if i < 0 {
		flow.ProtocolViolation(s, "pop while no input has a packet")
	}

	p := s.inputs[i].Pop()
	s.function.Commit(i)

	s.LogPacket("scheduled", p)
	s.EmitPopped(p)

	return p
}

// HandleCanPop tells the collector that packets are available.
func (s *Scheduler) HandleCanPop(_ *flow.Gate) {
	s.out.NotifyCanPop()
}
