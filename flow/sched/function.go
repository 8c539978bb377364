package sched

import (
	"fmt"

	"github.com/sarchlab/pktflow/flow"
)

// A Function decides which input a scheduler serves next.
type Function interface {
	// Select returns the index of the input to serve next, or -1 if no input
	// can be served. Select does not commit to the choice.
	Select(inputs []*flow.Gate) int

	// Commit records that a packet was taken from input i.
	Commit(i int)
}

var functions = flow.NewRegistry[Function]("scheduling function")

// MustRegisterFunction registers a scheduling function constructor.
func MustRegisterFunction(name string, c flow.Constructor[Function]) {
	functions.MustRegister(name, c)
}

// NewFunctionFromName creates the scheduling function registered under the
// name.
func NewFunctionFromName(name string, params flow.Params) (Function, error) {
	return functions.New(name, params)
}

// FunctionNames lists the registered scheduling functions.
func FunctionNames() []string {
	return functions.Names()
}

// PriorityFunction serves the first input that has a packet. Inputs with a
// lower index always win, so later inputs can starve.
type PriorityFunction struct{}

// Select returns the first input with a packet.
func (PriorityFunction) Select(inputs []*flow.Gate) int {
	for i, in := range inputs {
		if in.CanPopSome() {
			return i
		}
	}

	return -1
}

// Commit does nothing.
func (PriorityFunction) Commit(int) {}

// RoundRobinFunction serves inputs with packets in turn.
type RoundRobinFunction struct {
	next int
}

// Select returns the next input in turn that has a packet.
func (f *RoundRobinFunction) Select(inputs []*flow.Gate) int {
	n := len(inputs)
	for k := 0; k < n; k++ {
		i := (f.next + k) % n
		if inputs[i].CanPopSome() {
			return i
		}
	}

	return -1
}

// Commit moves the turn past the served input.
func (f *RoundRobinFunction) Commit(i int) {
	f.next = i + 1
}

// WeightedRoundRobinFunction gives every input a bucket of tokens equal to
// its weight. An input is served while its bucket is not empty. When every
// input that has a packet has an empty bucket, all buckets are refilled.
type WeightedRoundRobinFunction struct {
	weights []int
	buckets []int
}

// NewWeightedRoundRobinFunction creates a weighted round robin function.
// Weights must be positive.
func NewWeightedRoundRobinFunction(
	weights []int,
) (*WeightedRoundRobinFunction, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("weighted round robin needs weights")
	}

	for i, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("weight %d of input %d is not positive", w, i)
		}
	}

	f := &WeightedRoundRobinFunction{
		weights: weights,
		buckets: make([]int, len(weights)),
	}
	copy(f.buckets, weights)

	return f, nil
}

// Buckets returns the tokens left for each input.
func (f *WeightedRoundRobinFunction) Buckets() []int {
	return f.buckets
}

// Select returns the first input that has a packet and tokens left.
func (f *WeightedRoundRobinFunction) Select(inputs []*flow.Gate) int {
	if len(inputs) != len(f.weights) {
		flow.ProtocolViolation(nil, "%d weights for %d inputs",
			len(f.weights), len(inputs))
	}

	i, anyReady := f.firstWithTokens(inputs)
	if i >= 0 || !anyReady {
		return i
	}

	copy(f.buckets, f.weights)
	i, _ = f.firstWithTokens(inputs)

	return i
}

func (f *WeightedRoundRobinFunction) firstWithTokens(
	inputs []*flow.Gate,
) (index int, anyReady bool) {
	for i, in := range inputs {
		if !in.CanPopSome() {
			continue
		}

		anyReady = true

		if f.buckets[i] > 0 {
			return i, true
		}
	}

	return -1, anyReady
}

// Commit takes a token from the served input.
func (f *WeightedRoundRobinFunction) Commit(i int) {
	f.buckets[i]--
}

func init() {
	MustRegisterFunction("Priority", func(flow.Params) (Function, error) {
		return PriorityFunction{}, nil
	})
	MustRegisterFunction("RoundRobin", func(flow.Params) (Function, error) {
		return &RoundRobinFunction{}, nil
	})
	MustRegisterFunction("WeightedRoundRobin",
		func(params flow.Params) (Function, error) {
			weights, err := params.Ints("weights")
			if err != nil {
				return nil, err
			}

			return NewWeightedRoundRobinFunction(weights)
		})
}
