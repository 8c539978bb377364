package sched

import (
	"github.com/sarchlab/pktflow/flow"
)

// A WrrScheduler serves its inputs in weighted round robin order. Over a
// long busy period input i gets weights[i] out of sum(weights) pops.
type WrrScheduler struct {
	Scheduler

	wrr *WeightedRoundRobinFunction
}

// NewWrrScheduler creates a weighted round robin scheduler with one input
// per weight.
func NewWrrScheduler(name string, weights []int) (*WrrScheduler, error) {
	f, err := NewWeightedRoundRobinFunction(weights)
	if err != nil {
		return nil, flow.WrapConfigurationError(name, err, "invalid weights")
	}

	s := &WrrScheduler{wrr: f}
	s.init(s, name, len(weights), f)

	return s, nil
}

// Buckets returns the tokens left for each input in the current round.
func (s *WrrScheduler) Buckets() []int {
	return s.wrr.Buckets()
}

// NumPackets returns the number of packets in the inputs that are linked to
// collections.
func (s *WrrScheduler) NumPackets() int {
	n := 0

	for _, in := range s.inputs {
		if c, ok := in.PeerCollection(); ok {
			n += c.NumPackets()
		}
	}

	return n
}

// TotalLength returns Unbounded as the length is not tracked.
func (s *WrrScheduler) TotalLength() int64 {
	return flow.Unbounded
}

// IsEmpty tells if no input has a packet.
func (s *WrrScheduler) IsEmpty() bool {
	return !s.CanPopSome(s.out)
}
