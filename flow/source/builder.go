package source

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/sim/timing"
)

// SourceBuilder can build active and passive sources.
type SourceBuilder struct {
	engine     timing.EventScheduler
	nameFormat string
	length     int64
	priority   int
	interval   Interval
}

// MakeSourceBuilder returns a SourceBuilder for sources of 1-byte packets
// with no time between them.
func MakeSourceBuilder() SourceBuilder {
	return SourceBuilder{
		nameFormat: DefaultNameFormat,
		length:     8,
		interval:   Constant(0),
	}
}

// WithEngine sets the engine that drives the source.
func (b SourceBuilder) WithEngine(engine timing.EventScheduler) SourceBuilder {
	b.engine = engine
	return b
}

// WithNameFormat sets how packets are named. %n stands for the name of the
// source and %c for the number of packets created before.
func (b SourceBuilder) WithNameFormat(format string) SourceBuilder {
	b.nameFormat = format
	return b
}

// WithPacketLength sets the length of the packets in bits.
func (b SourceBuilder) WithPacketLength(bits int64) SourceBuilder {
	b.length = bits
	return b
}

// WithUserPriority sets the user priority of the packets.
func (b SourceBuilder) WithUserPriority(priority int) SourceBuilder {
	b.priority = priority
	return b
}

// WithInterval sets the time between two packets.
func (b SourceBuilder) WithInterval(i Interval) SourceBuilder {
	b.interval = i
	return b
}

func (b SourceBuilder) creator(name string) (PacketCreator, error) {
	if err := ValidateNameFormat(b.nameFormat); err != nil {
		return PacketCreator{}, flow.WrapConfigurationError(name, err,
			"invalid packet name format")
	}

	if b.length < 0 {
		return PacketCreator{}, flow.NewConfigurationError(name,
			"packet length %d is negative", b.length)
	}

	return PacketCreator{
		nameFormat: b.nameFormat,
		length:     b.length,
		priority:   b.priority,
	}, nil
}

// BuildActive creates a source that pushes packets.
func (b SourceBuilder) BuildActive(name string) (*ActiveSource, error) {
	creator, err := b.creator(name)
	if err != nil {
		return nil, err
	}

	s := &ActiveSource{
		ElementBase: flow.MakeElementBase(name, b.engine),
		creator:     creator,
		interval:    b.interval,
	}
	s.out = s.AddGate(s, "out", flow.Output, flow.PushMode)
	s.productionTimer = s.NewTimer("Production", s)

	return s, nil
}

// BuildPassive creates a source that is popped from.
func (b SourceBuilder) BuildPassive(name string) (*PassiveSource, error) {
	creator, err := b.creator(name)
	if err != nil {
		return nil, err
	}

	s := &PassiveSource{
		ElementBase: flow.MakeElementBase(name, b.engine),
		creator:     creator,
		interval:    b.interval,
	}
	s.out = s.AddGate(s, "out", flow.Output, flow.PopMode)
	s.providingTimer = s.NewTimer("Providing", s)

	return s, nil
}

// SinkBuilder can build active and passive sinks.
type SinkBuilder struct {
	engine   timing.EventScheduler
	interval Interval
}

// MakeSinkBuilder returns a SinkBuilder for sinks with no time between two
// packets.
func MakeSinkBuilder() SinkBuilder {
	return SinkBuilder{interval: Constant(0)}
}

// WithEngine sets the engine that drives the sink.
func (b SinkBuilder) WithEngine(engine timing.EventScheduler) SinkBuilder {
	b.engine = engine
	return b
}

// WithInterval sets the time between two packets.
func (b SinkBuilder) WithInterval(i Interval) SinkBuilder {
	b.interval = i
	return b
}

// BuildActive creates a sink that pops packets.
func (b SinkBuilder) BuildActive(name string) *ActiveSink {
	s := &ActiveSink{
		ElementBase: flow.MakeElementBase(name, b.engine),
		interval:    b.interval,
	}
	s.in = s.AddGate(s, "in", flow.Input, flow.PopMode)
	s.collectionTimer = s.NewTimer("Collection", s)

	return s
}

// BuildPassive creates a sink that is pushed into.
func (b SinkBuilder) BuildPassive(name string) *PassiveSink {
	s := &PassiveSink{
		ElementBase: flow.MakeElementBase(name, b.engine),
		interval:    b.interval,
	}
	s.in = s.AddGate(s, "in", flow.Input, flow.PushMode)
	s.consumptionTimer = s.NewTimer("Consumption", s)

	return s
}
