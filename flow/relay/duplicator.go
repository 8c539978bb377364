package relay

import (
	"fmt"

	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A DuplicateCounter tells how many copies of a packet to make.
type DuplicateCounter interface {
	NumDuplicates(p *packet.Packet) int
}

// Fixed makes the same number of copies of every packet.
type Fixed int

// NumDuplicates returns the fixed count.
func (f Fixed) NumDuplicates(_ *packet.Packet) int {
	return int(f)
}

var counters = flow.NewRegistry[DuplicateCounter]("duplicate counter")

// MustRegisterDuplicateCounter registers a duplicate counter constructor.
func MustRegisterDuplicateCounter(
	name string,
	c flow.Constructor[DuplicateCounter],
) {
	counters.MustRegister(name, c)
}

// NewDuplicateCounterFromName creates the duplicate counter registered under
// the name.
func NewDuplicateCounterFromName(
	name string,
	params flow.Params,
) (DuplicateCounter, error) {
	return counters.New(name, params)
}

func init() {
	MustRegisterDuplicateCounter("Fixed",
		func(params flow.Params) (DuplicateCounter, error) {
			n, err := params.Int("n", 1)
			if err != nil {
				return nil, err
			}

			if n < 0 {
				return nil, fmt.Errorf("cannot make %d copies", n)
			}

			return Fixed(n), nil
		})
}

// A Duplicator pushes copies of every pushed packet, followed by the packet
// itself. The copies are pushed without asking the consumer, so the consumer
// must accept every packet it is offered, as a queue with a dropper does.
type Duplicator struct {
	flow.ElementBase

	in  *flow.Gate
	out *flow.Gate

	counter DuplicateCounter
}

// NewDuplicator creates a duplicator.
func NewDuplicator(name string, counter DuplicateCounter) *Duplicator {
	d := &Duplicator{
		ElementBase: flow.MakeElementBase(name, nil),
		counter:     counter,
	}
	d.in = d.AddGate(d, "in", flow.Input, flow.PushMode)
	d.out = d.AddGate(d, "out", flow.Output, flow.PushMode)

	return d
}

// Input returns the input gate.
func (d *Duplicator) Input() *flow.Gate {
	return d.in
}

// Output returns the output gate.
func (d *Duplicator) Output() *flow.Gate {
	return d.out
}

// CanPushSome tells if the consumer accepts a packet.
func (d *Duplicator) CanPushSome(_ *flow.Gate) bool {
	return d.out.CanPushSome()
}

// CanPush tells if the consumer accepts the packet.
func (d *Duplicator) CanPush(p *packet.Packet, _ *flow.Gate) bool {
	return d.out.CanPush(p)
}

// Push forwards the copies and then the packet.
func (d *Duplicator) Push(p *packet.Packet, _ *flow.Gate) {
	d.EmitPushed(p)

	n := d.counter.NumDuplicates(p)
	for i := 0; i < n; i++ {
		dup := p.Dup()
		d.EmitCreated(dup)
		d.out.Push(dup)
	}

	d.out.Push(p)
}

// HandleCanPush tells the producer that it may push again.
func (d *Duplicator) HandleCanPush(_ *flow.Gate) {
	d.in.NotifyCanPush()
}
