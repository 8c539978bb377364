// Package server provides servers, the elements that pop packets from a
// provider, spend time on them and push them to a consumer.
package server

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/timing"
)

// A Server processes one packet at a time. Processing a packet takes the
// processing time plus the time to process its bits at the processing
// bitrate.
type Server struct {
	flow.ElementBase

	in  *flow.Gate
	out *flow.Gate

	processingTime timing.VTimeInSec
	bitrate        float64

	inService       *packet.Packet
	done            bool
	processingTimer *timing.Timer

	numServed int
}

// Builder can build servers.
type Builder struct {
	engine         timing.EventScheduler
	processingTime timing.VTimeInSec
	bitrate        float64
}

// MakeBuilder returns a Builder for servers that process packets instantly.
func MakeBuilder() Builder {
	return Builder{}
}

// WithEngine sets the engine that drives the processing timer.
func (b Builder) WithEngine(engine timing.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithProcessingTime sets the time spent on every packet.
func (b Builder) WithProcessingTime(t timing.VTimeInSec) Builder {
	b.processingTime = t
	return b
}

// WithProcessingBitrate sets the bits processed per second. Zero means the
// length of a packet does not matter.
func (b Builder) WithProcessingBitrate(bps float64) Builder {
	b.bitrate = bps
	return b
}

// Build creates a server.
func (b Builder) Build(name string) *Server {
	s := &Server{
		ElementBase:    flow.MakeElementBase(name, b.engine),
		processingTime: b.processingTime,
		bitrate:        b.bitrate,
	}
	s.in = s.AddGate(s, "in", flow.Input, flow.PopMode)
	s.out = s.AddGate(s, "out", flow.Output, flow.PushMode)
	s.processingTimer = s.NewTimer("Processing", s)

	return s
}

// Input returns the input gate.
func (s *Server) Input() *flow.Gate {
	return s.in
}

// Output returns the output gate.
func (s *Server) Output() *flow.Gate {
	return s.out
}

// IsBusy tells if a packet is in service.
func (s *Server) IsBusy() bool {
	return s.inService != nil
}

// NumServed returns the number of packets pushed downstream.
func (s *Server) NumServed() int {
	return s.numServed
}

// ServiceTime returns how long the server spends on the packet.
func (s *Server) ServiceTime(p *packet.Packet) timing.VTimeInSec {
	t := s.processingTime
	if s.bitrate > 0 {
		t += timing.VTimeInSec(float64(p.Length) / s.bitrate)
	}

	return t
}

// Start serves the packets that the provider already has.
func (s *Server) Start() {
	s.tryStart()
}

func (s *Server) tryStart() {
	if s.inService != nil || !s.in.CanPopSome() {
		return
	}

	s.startProcessing()
}

func (s *Server) startProcessing() {
	if s.inService != nil {
		flow.ProtocolViolation(s, "cannot start processing while serving %s",
			s.inService)
	}

	p := s.in.Pop()
	s.inService = p
	s.done = false

	s.LogPacket("processing started", p)
	s.processingTimer.Schedule(s.Now() + s.ServiceTime(p))
}

// HandleTimer ends the processing of the packet in service.
func (s *Server) HandleTimer(_ *timing.Timer) {
	s.done = true
	s.LogPacket("processing ended", s.inService)
	s.finish()
}

// The packet is kept until the consumer accepts it.
func (s *Server) finish() {
	if !s.done || !s.out.CanPush(s.inService) {
		return
	}

	p := s.inService
	s.inService = nil
	s.done = false
	s.numServed++

	s.EmitPopped(p)
	s.out.Push(p)
	s.tryStart()
}

// HandleCanPop starts serving if the server is idle.
func (s *Server) HandleCanPop(_ *flow.Gate) {
	s.tryStart()
}

// HandleCanPush hands over a processed packet that the consumer refused
// before.
func (s *Server) HandleCanPush(_ *flow.Gate) {
	s.finish()
}
