package relay

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/timing"
)

type releaseEvent struct {
	*timing.EventBase

	pkt *packet.Packet
}

// A Delayer holds every pushed packet for a fixed delay and then pushes it
// on. Packets leave in the order they arrived. A packet whose delay has
// passed waits in the delayer until the consumer accepts it.
type Delayer struct {
	flow.ElementBase

	in  *flow.Gate
	out *flow.Gate

	delay    timing.VTimeInSec
	inFlight int
	ready    []*packet.Packet
}

// NewDelayer creates a delayer.
func NewDelayer(
	name string,
	engine timing.EventScheduler,
	delay timing.VTimeInSec,
) *Delayer {
	d := &Delayer{
		ElementBase: flow.MakeElementBase(name, engine),
		delay:       delay,
	}
	d.in = d.AddGate(d, "in", flow.Input, flow.PushMode)
	d.out = d.AddGate(d, "out", flow.Output, flow.PushMode)

	return d
}

// Input returns the input gate.
func (d *Delayer) Input() *flow.Gate {
	return d.in
}

// Output returns the output gate.
func (d *Delayer) Output() *flow.Gate {
	return d.out
}

// NumPackets returns the number of packets held by the delayer.
func (d *Delayer) NumPackets() int {
	return d.inFlight + len(d.ready)
}

// CanPushSome returns true. The delayer accepts any number of packets.
func (d *Delayer) CanPushSome(_ *flow.Gate) bool {
	return true
}

// CanPush returns true.
func (d *Delayer) CanPush(_ *packet.Packet, _ *flow.Gate) bool {
	return true
}

// Push starts delaying the packet.
func (d *Delayer) Push(p *packet.Packet, _ *flow.Gate) {
	d.EmitPushed(p)
	d.LogPacket("delaying", p)

	d.inFlight++
	d.Engine().Schedule(releaseEvent{
		EventBase: timing.NewEventBase(d.Now()+d.delay, d),
		pkt:       p,
	})
}

// Handle releases a packet whose delay has passed.
func (d *Delayer) Handle(e timing.Event) error {
	evt := e.(releaseEvent)

	d.inFlight--
	d.ready = append(d.ready, evt.pkt)
	d.flush()

	return nil
}

// HandleCanPush pushes the released packets that the consumer accepts and,
// once none are left waiting, wakes up the producer.
func (d *Delayer) HandleCanPush(_ *flow.Gate) {
	d.flush()

	if len(d.ready) == 0 {
		d.in.NotifyCanPush()
	}
}

func (d *Delayer) flush() {
	for len(d.ready) > 0 && d.out.CanPush(d.ready[0]) {
		p := d.ready[0]
		d.ready = d.ready[1:]

		d.LogPacket("released", p)
		d.out.Push(p)
	}
}
