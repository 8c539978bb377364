package classify

import (
	"fmt"

	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A Function decides which output a packet goes to.
type Function interface {
	// Classify returns the output index of the packet. It does not change
	// the state of the function.
	Classify(p *packet.Packet, numOutputs int) int

	// Commit records that a packet was sent to output i.
	Commit(i int)
}

var functions = flow.NewRegistry[Function]("classifier function")

// MustRegisterFunction registers a classifier function constructor.
func MustRegisterFunction(name string, c flow.Constructor[Function]) {
	functions.MustRegister(name, c)
}

// NewFunctionFromName creates the classifier function registered under the
// name.
func NewFunctionFromName(name string, params flow.Params) (Function, error) {
	return functions.New(name, params)
}

// FunctionNames lists the registered classifier functions.
func FunctionNames() []string {
	return functions.Names()
}

// ByPriority sends a packet to the output numbered after its user priority.
// Priorities beyond the last output go to the last output.
type ByPriority struct{}

// Classify returns the user priority clamped to the outputs.
func (ByPriority) Classify(p *packet.Packet, numOutputs int) int {
	switch {
	case p.UserPriority < 0:
		return 0
	case p.UserPriority >= numOutputs:
		return numOutputs - 1
	default:
		return p.UserPriority
	}
}

// Commit does nothing.
func (ByPriority) Commit(int) {}

// ByLength sends a packet to the first output whose threshold is above the
// packet length. Packets at least as long as every threshold go to the
// output after the last threshold.
type ByLength struct {
	Thresholds []int64
}

// Classify returns the output of the packet length.
func (f ByLength) Classify(p *packet.Packet, numOutputs int) int {
	i := 0
	for i < len(f.Thresholds) && p.Length >= f.Thresholds[i] {
		i++
	}

	if i >= numOutputs {
		return numOutputs - 1
	}

	return i
}

// Commit does nothing.
func (ByLength) Commit(int) {}

// RoundRobin sends packets to the outputs in turn.
type RoundRobin struct {
	next int
}

// Classify returns the output whose turn it is.
func (f *RoundRobin) Classify(_ *packet.Packet, numOutputs int) int {
	return f.next % numOutputs
}

// Commit passes the turn to the next output.
func (f *RoundRobin) Commit(i int) {
	f.next = i + 1
}

func init() {
	MustRegisterFunction("ByPriority", func(flow.Params) (Function, error) {
		return ByPriority{}, nil
	})
	MustRegisterFunction("ByLength", func(params flow.Params) (Function, error) {
		ts, err := params.Ints("thresholds")
		if err != nil {
			return nil, err
		}

		f := ByLength{Thresholds: make([]int64, len(ts))}
		for i, t := range ts {
			if i > 0 && ts[i-1] > t {
				return nil, fmt.Errorf("thresholds must not decrease")
			}

			f.Thresholds[i] = int64(t)
		}

		return f, nil
	})
	MustRegisterFunction("RoundRobin", func(flow.Params) (Function, error) {
		return &RoundRobin{}, nil
	})
}
