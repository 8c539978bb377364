package classify

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/markov"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/randstream"
	"github.com/sarchlab/pktflow/sim/timing"
)

// A MarkovClassifier lets packets be popped only from the output that
// matches the state of its Markov chain. The chain moves to a new state
// every time the wait interval of the current state expires.
type MarkovClassifier struct {
	flow.ElementBase

	in      *flow.Gate
	outputs []*flow.Gate

	chain     *markov.Chain
	waitTimer *timing.Timer
}

// MarkovBuilder can build Markov classifiers.
type MarkovBuilder struct {
	engine        timing.EventScheduler
	transitions   [][]float64
	waitIntervals []timing.VTimeInSec
	initialState  int
	rand          randstream.Source
}

// MakeMarkovBuilder returns a new MarkovBuilder.
func MakeMarkovBuilder() MarkovBuilder {
	return MarkovBuilder{}
}

// WithEngine sets the engine that drives the wait timer.
func (b MarkovBuilder) WithEngine(engine timing.EventScheduler) MarkovBuilder {
	b.engine = engine
	return b
}

// WithTransitions sets the transition probability matrix. Its size sets the
// number of outputs.
func (b MarkovBuilder) WithTransitions(m [][]float64) MarkovBuilder {
	b.transitions = m
	return b
}

// WithWaitIntervals sets how long the chain stays in each state.
func (b MarkovBuilder) WithWaitIntervals(
	intervals []timing.VTimeInSec,
) MarkovBuilder {
	b.waitIntervals = intervals
	return b
}

// WithInitialState sets the state the chain starts in.
func (b MarkovBuilder) WithInitialState(s int) MarkovBuilder {
	b.initialState = s
	return b
}

// WithRandSource sets the random numbers that drive the transitions.
func (b MarkovBuilder) WithRandSource(r randstream.Source) MarkovBuilder {
	b.rand = r
	return b
}

// Build creates a Markov classifier. It fails with a ConfigurationError if
// the chain parameters are invalid.
func (b MarkovBuilder) Build(name string) (*MarkovClassifier, error) {
	rand := b.rand
	if rand == nil {
		rand = randstream.New(name)
	}

	chain, err := markov.NewChain(
		b.transitions, b.waitIntervals, b.initialState, rand)
	if err != nil {
		return nil, flow.WrapConfigurationError(name, err, "invalid Markov chain")
	}

	c := &MarkovClassifier{
		ElementBase: flow.MakeElementBase(name, b.engine),
		chain:       chain,
	}
	c.in = c.AddGate(c, "in", flow.Input, flow.PopMode)
	c.outputs = c.AddGateVector(c, "out", chain.NumStates(),
		flow.Output, flow.PopMode)
	c.waitTimer = c.NewTimer("Wait", c)

	return c, nil
}

// Input returns the input gate.
func (c *MarkovClassifier) Input() *flow.Gate {
	return c.in
}

// Output returns the i-th output gate.
func (c *MarkovClassifier) Output(i int) *flow.Gate {
	return c.outputs[i]
}

// State returns the current state of the chain.
func (c *MarkovClassifier) State() int {
	return c.chain.State()
}

// Start starts the wait interval of the initial state.
func (c *MarkovClassifier) Start() {
	c.waitTimer.Schedule(c.Now() + c.chain.WaitInterval())
}

// HandleTimer moves the chain to its next state and tells the collector of
// the new state that packets may be available.
func (c *MarkovClassifier) HandleTimer(_ *timing.Timer) {
	from := c.chain.State()
	to := c.chain.Transit()

	c.Log().WithField("from", from).WithField("to", to).Debug("transit")

	c.waitTimer.Schedule(c.Now() + c.chain.WaitInterval())

	if c.in.CanPopSome() {
		c.outputs[to].NotifyCanPop()
	}
}

// CanPopSome tells if g is the output of the current state and the provider
// has a packet.
func (c *MarkovClassifier) CanPopSome(g *flow.Gate) bool {
	return g.Index() == c.chain.State() && c.in.CanPopSome()
}

// CanPop peeks the packet of the provider if g is the output of the current
// state.
func (c *MarkovClassifier) CanPop(g *flow.Gate) *packet.Packet {
	if g.Index() != c.chain.State() {
		return nil
	}

	return c.in.CanPop()
}

// Pop takes a packet from the provider for the output of the current state.
func (c *MarkovClassifier) Pop(g *flow.Gate) *packet.Packet {
	if g.Index() != c.chain.State() {
		flow.ProtocolViolation(c, "pop on %s while in state %d",
			g.Name(), c.chain.State())
	}

	p := c.in.Pop()
	c.LogPacket("classified", p)
	c.EmitPopped(p)

	return p
}

// HandleCanPop tells the collector of the current state that packets are
// available.
func (c *MarkovClassifier) HandleCanPop(_ *flow.Gate) {
	c.outputs[c.chain.State()].NotifyCanPop()
}
