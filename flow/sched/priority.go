package sched

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A PriorityScheduler serves the first input that has a packet. Seen from
// its output it is one collection holding the packets of all its inputs in
// priority order.
type PriorityScheduler struct {
	Scheduler
}

// NewPriorityScheduler creates a priority scheduler with n inputs.
func NewPriorityScheduler(name string, n int) *PriorityScheduler {
	s := &PriorityScheduler{}
	s.init(s, name, n, PriorityFunction{})

	return s
}

// CheckLinks requires every input to be linked to a collection.
func (s *PriorityScheduler) CheckLinks() error {
	for _, in := range s.inputs {
		if _, ok := in.PeerCollection(); !ok {
			return flow.NewConfigurationError(s.Name(),
				"input %s is not linked to a collection", in.Name())
		}
	}

	return nil
}

func (s *PriorityScheduler) collections() []flow.Collection {
	cs := make([]flow.Collection, 0, len(s.inputs))
	for _, in := range s.inputs {
		if c, ok := in.PeerCollection(); ok {
			cs = append(cs, c)
		}
	}

	return cs
}

// NumPackets returns the number of packets in all inputs.
func (s *PriorityScheduler) NumPackets() int {
	n := 0
	for _, c := range s.collections() {
		n += c.NumPackets()
	}

	return n
}

// TotalLength returns the length of the packets in all inputs.
func (s *PriorityScheduler) TotalLength() int64 {
	var l int64
	for _, c := range s.collections() {
		l += c.TotalLength()
	}

	return l
}

// MaxNumPackets returns Unbounded.
func (s *PriorityScheduler) MaxNumPackets() int {
	return flow.Unbounded
}

// MaxTotalLength returns Unbounded.
func (s *PriorityScheduler) MaxTotalLength() int64 {
	return flow.Unbounded
}

// IsEmpty tells if no input holds a packet.
func (s *PriorityScheduler) IsEmpty() bool {
	return s.NumPackets() == 0
}

// Packet returns the i-th packet counting across inputs in priority order.
func (s *PriorityScheduler) Packet(i int) *packet.Packet {
	for _, c := range s.collections() {
		if i < c.NumPackets() {
			return c.Packet(i)
		}

		i -= c.NumPackets()
	}

	flow.ProtocolViolation(s, "packet index out of range")

	return nil
}

// Remove removes a packet from the input collection that holds it.
func (s *PriorityScheduler) Remove(p *packet.Packet) {
	for _, c := range s.collections() {
		for i := 0; i < c.NumPackets(); i++ {
			if c.Packet(i) == p {
				c.Remove(p)
				return
			}
		}
	}

	flow.ProtocolViolation(s, "packet %s is not in any input", p)
}
