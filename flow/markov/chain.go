// Package markov provides the discrete Markov chain that drives the
// Markov-modulated scheduler and classifier.
package markov

import (
	"fmt"
	"math"

	"github.com/sarchlab/pktflow/sim/randstream"
	"github.com/sarchlab/pktflow/sim/timing"
)

// RowSumTolerance is how far a row of transition probabilities may be from
// summing to one.
const RowSumTolerance = 1e-9

// A Chain is a Markov chain with one wait interval per state. The chain
// stays in a state for the state's wait interval and then moves according
// to the state's row of transition probabilities.
type Chain struct {
	transitions   [][]float64
	waitIntervals []timing.VTimeInSec
	state         int
	rand          randstream.Source
}

// NewChain validates the parameters and creates a chain.
func NewChain(
	transitions [][]float64,
	waitIntervals []timing.VTimeInSec,
	initialState int,
	rand randstream.Source,
) (*Chain, error) {
	if err := Validate(transitions, waitIntervals, initialState); err != nil {
		return nil, err
	}

	return &Chain{
		transitions:   transitions,
		waitIntervals: waitIntervals,
		state:         initialState,
		rand:          rand,
	}, nil
}

// Validate checks that the transitions form a square stochastic matrix that
// matches the positive wait intervals and the initial state.
func Validate(
	transitions [][]float64,
	waitIntervals []timing.VTimeInSec,
	initialState int,
) error {
	n := len(transitions)
	if n == 0 {
		return fmt.Errorf("the chain has no state")
	}

	for i, row := range transitions {
		if len(row) != n {
			return fmt.Errorf("row %d has %d entries, want %d", i, len(row), n)
		}

		sum := 0.0
		for j, p := range row {
			if p < 0 || math.IsNaN(p) {
				return fmt.Errorf("row %d has an invalid probability %v at %d",
					i, p, j)
			}

			sum += p
		}

		if math.Abs(sum-1) > RowSumTolerance {
			return fmt.Errorf("row %d sums to %v instead of 1", i, sum)
		}
	}

	if len(waitIntervals) != n {
		return fmt.Errorf("%d wait intervals for %d states",
			len(waitIntervals), n)
	}

	// A zero wait would let the chain transit forever without time passing.
	for i, w := range waitIntervals {
		if !(w > 0) {
			return fmt.Errorf("wait interval %d is %v, want a positive value",
				i, w)
		}
	}

	if initialState < 0 || initialState >= n {
		return fmt.Errorf("initial state %d is out of range", initialState)
	}

	return nil
}

// NumStates returns the number of states.
func (c *Chain) NumStates() int {
	return len(c.transitions)
}

// State returns the current state.
func (c *Chain) State() int {
	return c.state
}

// WaitInterval returns how long the chain stays in the current state.
func (c *Chain) WaitInterval() timing.VTimeInSec {
	return c.waitIntervals[c.state]
}

// Next returns the state that a uniform draw u in [0, 1) selects from the
// current state's row. State i covers the interval starting at the sum of
// the probabilities before it, so a state with probability zero is never
// selected. The last state takes any residue left by rounding.
func (c *Chain) Next(u float64) int {
	row := c.transitions[c.state]
	sum := 0.0

	for i, p := range row {
		sum += p
		if u < sum || i == len(row)-1 {
			return i
		}
	}

	return len(row) - 1
}

// Transit draws a random number, moves to the next state and returns it.
func (c *Chain) Transit() int {
	c.state = c.Next(c.rand.Float64())
	return c.state
}
