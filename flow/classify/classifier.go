// Package classify provides classifiers, the elements that split one input
// into several outputs.
package classify

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A Classifier pushes every packet pushed into it to the output its function
// selects.
type Classifier struct {
	flow.ElementBase

	in       *flow.Gate
	outputs  []*flow.Gate
	function Function
}

// Builder can build classifiers.
type Builder struct {
	numOutputs int
	function   Function
}

// MakeBuilder returns a Builder for classifiers with one output that
// classify by priority.
func MakeBuilder() Builder {
	return Builder{
		numOutputs: 1,
		function:   ByPriority{},
	}
}

// WithNumOutputs sets the number of outputs.
func (b Builder) WithNumOutputs(n int) Builder {
	b.numOutputs = n
	return b
}

// WithFunction sets the classifier function.
func (b Builder) WithFunction(f Function) Builder {
	b.function = f
	return b
}

// Build creates a classifier.
func (b Builder) Build(name string) *Classifier {
	c := &Classifier{
		ElementBase: flow.MakeElementBase(name, nil),
		function:    b.function,
	}
	c.in = c.AddGate(c, "in", flow.Input, flow.PushMode)
	c.outputs = c.AddGateVector(c, "out", b.numOutputs,
		flow.Output, flow.PushMode)

	return c
}

// Input returns the input gate.
func (c *Classifier) Input() *flow.Gate {
	return c.in
}

// Output returns the i-th output gate.
func (c *Classifier) Output(i int) *flow.Gate {
	return c.outputs[i]
}

// CanPushSome tells if any output accepts a packet.
func (c *Classifier) CanPushSome(_ *flow.Gate) bool {
	for _, out := range c.outputs {
		if out.CanPushSome() {
			return true
		}
	}

	return false
}

// CanPush tells if the output of the packet accepts it.
func (c *Classifier) CanPush(p *packet.Packet, _ *flow.Gate) bool {
	i := c.function.Classify(p, len(c.outputs))
	return c.outputs[i].CanPush(p)
}

// Push forwards the packet to its output.
func (c *Classifier) Push(p *packet.Packet, _ *flow.Gate) {
	i := c.function.Classify(p, len(c.outputs))

	c.EmitPushed(p)
	c.Log().WithField("packet", p.Name).WithField("output", i).
		Debug("classified")

	c.function.Commit(i)
	c.outputs[i].Push(p)
}

// HandleCanPush tells the producer that it may push again.
func (c *Classifier) HandleCanPush(_ *flow.Gate) {
	c.in.NotifyCanPush()
}
