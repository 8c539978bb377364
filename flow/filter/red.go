package filter

import (
	"fmt"
	"math"

	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
	"github.com/sarchlab/pktflow/sim/randstream"
	"github.com/sarchlab/pktflow/sim/timing"
)

// REDGateParams are the Random Early Detection thresholds of one input.
type REDGateParams struct {
	// The average queue length from which packets start being dropped.
	MinThreshold float64

	// The average queue length from which every packet is dropped.
	MaxThreshold float64

	// The drop probability when the average reaches MaxThreshold.
	MaxProbability float64

	// The expected packets per second, used to age the average while the
	// queue is idle.
	PacketRate float64
}

// Validate checks that the thresholds are consistent.
func (p REDGateParams) Validate() error {
	if p.MinThreshold < 0 || p.MaxThreshold <= p.MinThreshold {
		return fmt.Errorf("need 0 <= minth < maxth, got %v and %v",
			p.MinThreshold, p.MaxThreshold)
	}

	if p.MaxProbability < 0 || p.MaxProbability > 1 {
		return fmt.Errorf("maxp %v is not a probability", p.MaxProbability)
	}

	if p.PacketRate < 0 {
		return fmt.Errorf("packet rate %v is negative", p.PacketRate)
	}

	return nil
}

// A RedDropper drops arriving packets at random with a probability that
// grows with the average length of the collections behind its outputs.
//
// The average is an exponentially weighted moving average with weight wq.
// While the collections are empty the average decays as if packets had been
// arriving at the configured packet rate.
type RedDropper struct {
	MultiFilter

	wq     float64
	params []REDGateParams
	rand   randstream.Source

	avg   float64
	count []int
	idle  bool
	qTime timing.VTimeInSec
}

// REDBuilder can build RedDroppers.
type REDBuilder struct {
	engine timing.EventScheduler
	wq     float64
	params []REDGateParams
	rand   randstream.Source
}

// MakeREDBuilder returns a REDBuilder with the classic weight 0.002.
func MakeREDBuilder() REDBuilder {
	return REDBuilder{wq: 0.002}
}

// WithEngine sets the engine that tells the time.
func (b REDBuilder) WithEngine(engine timing.EventScheduler) REDBuilder {
	b.engine = engine
	return b
}

// WithWeight sets the weight of the moving average.
func (b REDBuilder) WithWeight(wq float64) REDBuilder {
	b.wq = wq
	return b
}

// WithGates sets the thresholds of each input. Their number sets the number
// of input and output pairs.
func (b REDBuilder) WithGates(params ...REDGateParams) REDBuilder {
	b.params = params
	return b
}

// WithRandSource sets the random numbers of the drop decisions. By default
// the dropper uses a stream named after itself.
func (b REDBuilder) WithRandSource(r randstream.Source) REDBuilder {
	b.rand = r
	return b
}

// Build creates a RedDropper. It fails with a ConfigurationError if the
// parameters are inconsistent.
func (b REDBuilder) Build(name string) (*RedDropper, error) {
	if b.wq <= 0 || b.wq > 1 {
		return nil, flow.NewConfigurationError(name,
			"weight %v is not in (0, 1]", b.wq)
	}

	if len(b.params) == 0 {
		return nil, flow.NewConfigurationError(name, "no gate parameters")
	}

	for i, p := range b.params {
		if err := p.Validate(); err != nil {
			return nil, flow.WrapConfigurationError(name, err,
				"invalid parameters of gate %d", i)
		}
	}

	rand := b.rand
	if rand == nil {
		rand = randstream.New(name)
	}

	d := &RedDropper{
		wq:     b.wq,
		params: b.params,
		rand:   rand,
		count:  make([]int, len(b.params)),
		idle:   true,
	}
	d.ElementBase = flow.MakeElementBase(name, b.engine)
	d.init(d, len(b.params), d)

	for i := range d.count {
		d.count[i] = -1
	}

	return d, nil
}

// Average returns the current average queue length.
func (d *RedDropper) Average() float64 {
	return d.avg
}

// Rejects updates the average and draws if the packet is dropped.
func (d *RedDropper) Rejects(i int, _ *packet.Packet) bool {
	params := d.params[i]

	d.updateAverage(params.PacketRate)

	switch {
	case d.avg >= params.MaxThreshold:
		d.count[i] = 0

		d.Log().WithField("avg", d.avg).Debug("average above maxth")

		return true
	case d.avg >= params.MinThreshold:
		d.count[i]++

		pb := params.MaxProbability * (d.avg - params.MinThreshold) /
			(params.MaxThreshold - params.MinThreshold)

		pa := 1.0
		if denom := 1 - float64(d.count[i])*pb; denom > 0 {
			pa = pb / denom
		}

		if d.rand.Float64() < pa {
			d.count[i] = 0

			d.Log().WithField("avg", d.avg).WithField("pa", pa).
				Debug("random early drop")

			return true
		}

		return false
	default:
		d.count[i] = -1
		return false
	}
}

func (d *RedDropper) updateAverage(pkrate float64) {
	n := d.NumPackets()

	if n > 0 {
		d.avg = (1-d.wq)*d.avg + d.wq*float64(n)
		d.idle = false

		return
	}

	if !d.idle {
		d.idle = true
		d.qTime = d.Now()
	}

	m := (d.Now() - d.qTime) * pkrate
	d.avg *= math.Pow(1-d.wq, m)
	d.qTime = d.Now()
}
