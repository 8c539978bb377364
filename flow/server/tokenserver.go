package server

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/timing"
)

// A TokenServer serves packets as long as it has the tokens they cost. One
// token is produced every production interval, up to a maximum.
type TokenServer struct {
	flow.ElementBase

	in  *flow.Gate
	out *flow.Gate

	productionInterval timing.VTimeInSec
	maxNumTokens       int
	perPacket          float64
	perBit             float64

	numTokens       int
	productionTimer *timing.Timer
	numServed       int
}

// TokenBuilder can build token servers.
type TokenBuilder struct {
	engine             timing.EventScheduler
	productionInterval timing.VTimeInSec
	initialNumTokens   int
	maxNumTokens       int
	perPacket          float64
	perBit             float64
}

// MakeTokenBuilder returns a TokenBuilder for servers that produce one token
// per second and charge one token per packet.
func MakeTokenBuilder() TokenBuilder {
	return TokenBuilder{
		productionInterval: 1,
		maxNumTokens:       flow.Unbounded,
		perPacket:          1,
	}
}

// WithEngine sets the engine that drives the production timer.
func (b TokenBuilder) WithEngine(engine timing.EventScheduler) TokenBuilder {
	b.engine = engine
	return b
}

// WithProductionInterval sets the time between two produced tokens.
func (b TokenBuilder) WithProductionInterval(t timing.VTimeInSec) TokenBuilder {
	b.productionInterval = t
	return b
}

// WithInitialNumTokens sets the tokens the server starts with.
func (b TokenBuilder) WithInitialNumTokens(n int) TokenBuilder {
	b.initialNumTokens = n
	return b
}

// WithMaxNumTokens sets the most tokens the server can hold.
func (b TokenBuilder) WithMaxNumTokens(n int) TokenBuilder {
	b.maxNumTokens = n
	return b
}

// WithConsumptionPerPacket sets the tokens every packet costs.
func (b TokenBuilder) WithConsumptionPerPacket(n float64) TokenBuilder {
	b.perPacket = n
	return b
}

// WithConsumptionPerBit sets the tokens every bit costs.
func (b TokenBuilder) WithConsumptionPerBit(n float64) TokenBuilder {
	b.perBit = n
	return b
}

// Build creates a token server. The production interval must be positive,
// the token counts and costs must not be negative, and the initial tokens
// must not exceed a bounded maximum.
func (b TokenBuilder) Build(name string) (*TokenServer, error) {
	if err := b.validate(name); err != nil {
		return nil, err
	}

	s := &TokenServer{
		ElementBase:        flow.MakeElementBase(name, b.engine),
		productionInterval: b.productionInterval,
		maxNumTokens:       b.maxNumTokens,
		perPacket:          b.perPacket,
		perBit:             b.perBit,
		numTokens:          b.initialNumTokens,
	}
	s.in = s.AddGate(s, "in", flow.Input, flow.PopMode)
	s.out = s.AddGate(s, "out", flow.Output, flow.PushMode)
	s.productionTimer = s.NewTimer("TokenProduction", s)

	return s, nil
}

func (b TokenBuilder) validate(name string) error {
	switch {
	case b.productionInterval <= 0:
		return flow.NewConfigurationError(name,
			"token production interval must be positive, got %v",
			b.productionInterval)
	case b.initialNumTokens < 0:
		return flow.NewConfigurationError(name,
			"initial number of tokens %d is negative", b.initialNumTokens)
	case b.maxNumTokens != flow.Unbounded && b.maxNumTokens < 0:
		return flow.NewConfigurationError(name,
			"maximum number of tokens %d is negative", b.maxNumTokens)
	case b.maxNumTokens != flow.Unbounded &&
		b.initialNumTokens > b.maxNumTokens:
		return flow.NewConfigurationError(name,
			"initial number of tokens %d exceeds the maximum %d",
			b.initialNumTokens, b.maxNumTokens)
	case b.perPacket < 0 || b.perBit < 0:
		return flow.NewConfigurationError(name,
			"token consumption must not be negative")
	}

	return nil
}

// Input returns the input gate.
func (s *TokenServer) Input() *flow.Gate {
	return s.in
}

// Output returns the output gate.
func (s *TokenServer) Output() *flow.Gate {
	return s.out
}

// NumTokens returns the tokens the server holds.
func (s *TokenServer) NumTokens() int {
	return s.numTokens
}

// NumServed returns the number of packets pushed downstream.
func (s *TokenServer) NumServed() int {
	return s.numServed
}

// Cost returns the tokens the packet costs. Fractions are truncated.
func (s *TokenServer) Cost(p *packet.Packet) int {
	return int(s.perPacket + s.perBit*float64(p.Length))
}

// Start starts producing tokens.
func (s *TokenServer) Start() {
	s.productionTimer.Schedule(s.Now() + s.productionInterval)
	s.process()
}

// HandleTimer produces a token and serves what the tokens allow.
func (s *TokenServer) HandleTimer(_ *timing.Timer) {
	if s.maxNumTokens == flow.Unbounded || s.numTokens < s.maxNumTokens {
		s.numTokens++
	}

	s.productionTimer.Schedule(s.Now() + s.productionInterval)
	s.process()
}

func (s *TokenServer) process() {
	for {
		p := s.in.CanPop()
		if p == nil {
			return
		}

		cost := s.Cost(p)
		if cost > s.numTokens || !s.out.CanPush(p) {
			return
		}

		p = s.in.Pop()
		s.numTokens -= cost
		s.numServed++

		s.Log().WithField("packet", p.Name).WithField("tokens", s.numTokens).
			Debug("served")
		s.EmitPopped(p)
		s.out.Push(p)
	}
}

// HandleCanPop serves what the tokens allow.
func (s *TokenServer) HandleCanPop(_ *flow.Gate) {
	s.process()
}

// HandleCanPush serves what the tokens allow.
func (s *TokenServer) HandleCanPush(_ *flow.Gate) {
	s.process()
}
