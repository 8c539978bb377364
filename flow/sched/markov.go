package sched

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/flow/markov"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/randstream"
	"github.com/sarchlab/pktflow/sim/timing"
)

// A MarkovScheduler accepts pushes only on the input that matches the state
// of its Markov chain. The chain moves to a new state every time the wait
// interval of the current state expires.
type MarkovScheduler struct {
	flow.ElementBase

	inputs []*flow.Gate
	out    *flow.Gate

	chain     *markov.Chain
	waitTimer *timing.Timer
}

// MarkovBuilder can build Markov schedulers.
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
// number of inputs.
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

// WithRandSource sets the random numbers that drive the transitions. By
// default the scheduler uses a stream named after itself.
func (b MarkovBuilder) WithRandSource(r randstream.Source) MarkovBuilder {
	b.rand = r
	return b
}

// Build creates a Markov scheduler. It fails with a ConfigurationError if the
// chain parameters are invalid.
func (b MarkovBuilder) Build(name string) (*MarkovScheduler, error) {
	rand := b.rand
	if rand == nil {
		rand = randstream.New(name)
	}

	chain, err := markov.NewChain(
		b.transitions, b.waitIntervals, b.initialState, rand)
	if err != nil {
		return nil, flow.WrapConfigurationError(name, err, "invalid Markov chain")
	}

	s := &MarkovScheduler{
		ElementBase: flow.MakeElementBase(name, b.engine),
		chain:       chain,
	}
	s.inputs = s.AddGateVector(s, "in", chain.NumStates(),
		flow.Input, flow.PushMode)
	s.out = s.AddGate(s, "out", flow.Output, flow.PushMode)
	s.waitTimer = s.NewTimer("Wait", s)

	return s, nil
}

// Input returns the i-th input gate.
func (s *MarkovScheduler) Input(i int) *flow.Gate {
	return s.inputs[i]
}

// Output returns the output gate.
func (s *MarkovScheduler) Output() *flow.Gate {
	return s.out
}

// State returns the current state of the chain.
func (s *MarkovScheduler) State() int {
	return s.chain.State()
}

// Start starts the wait interval of the initial state.
func (s *MarkovScheduler) Start() {
	s.waitTimer.Schedule(s.Now() + s.chain.WaitInterval())
}

// HandleTimer moves the chain to its next state and tells the producer of the
// new state that it may push.
func (s *MarkovScheduler) HandleTimer(_ *timing.Timer) {
	from := s.chain.State()
	to := s.chain.Transit()

	s.Log().WithField("from", from).WithField("to", to).Debug("transit")

	s.waitTimer.Schedule(s.Now() + s.chain.WaitInterval())
	s.inputs[to].NotifyCanPush()
}

// CanPushSome tells if g is the input of the current state and the consumer
// accepts packets.
func (s *MarkovScheduler) CanPushSome(g *flow.Gate) bool {
	return g.Index() == s.chain.State() && s.out.CanPushSome()
}

// CanPush tells if g is the input of the current state and the consumer
// accepts the packet.
func (s *MarkovScheduler) CanPush(p *packet.Packet, g *flow.Gate) bool {
	return g.Index() == s.chain.State() && s.out.CanPush(p)
}

// Push forwards a packet pushed on the input of the current state.
func (s *MarkovScheduler) Push(p *packet.Packet, g *flow.Gate) {
	if g.Index() != s.chain.State() {
		flow.ProtocolViolation(s, "push on %s while in state %d",
			g.Name(), s.chain.State())
	}

	s.EmitPushed(p)
	s.LogPacket("scheduled", p)
	s.out.Push(p)
}

// HandleCanPush tells the producer of the current state that it may push.
func (s *MarkovScheduler) HandleCanPush(_ *flow.Gate) {
	s.inputs[s.chain.State()].NotifyCanPush()
}
