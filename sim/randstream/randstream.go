// Package randstream provides named, independent streams of uniform random
// numbers. Every element that draws random numbers owns its own stream so
// that adding an element does not perturb the draws of the others.
package randstream

import (
	"github.com/iti/rngstream"
)

// A Source produces uniform random numbers in [0, 1).
type Source interface {
	Float64() float64
}

type streamSource struct {
	stream *rngstream.RngStream
}

// New returns a new stream. Streams created in the same order get the same
// seeds across runs.
func New(name string) Source {
	return &streamSource{stream: rngstream.New(name)}
}

func (s *streamSource) Float64() float64 {
	return s.stream.RandU01()
}

// Fixed is a Source that always returns the same value.
type Fixed float64

// Float64 returns the fixed value.
func (f Fixed) Float64() float64 {
	return float64(f)
}

// Sequence is a Source that replays a list of values and wraps around when
// it reaches the end.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence creates a Sequence that replays the given values.
func NewSequence(values ...float64) *Sequence {
	if len(values) == 0 {
		panic("sequence source needs at least one value")
	}

	return &Sequence{values: values}
}

// Float64 returns the next value of the sequence.
func (s *Sequence) Float64() float64 {
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)

	return v
}
