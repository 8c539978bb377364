package filter

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A ThresholdDropper drops arriving packets that would make the collections
// behind its outputs exceed a shared frame or data capacity.
type ThresholdDropper struct {
	MultiFilter

	frameCapacity int
	dataCapacity  int64
}

// NewThresholdDropper creates a ThresholdDropper with n input and output
// pairs. Either capacity may be Unbounded.
func NewThresholdDropper(
	name string,
	n int,
	frameCapacity int,
	dataCapacity int64,
) *ThresholdDropper {
	d := &ThresholdDropper{
		frameCapacity: frameCapacity,
		dataCapacity:  dataCapacity,
	}
	d.ElementBase = flow.MakeElementBase(name, nil)
	d.init(d, n, d)

	return d
}

// MaxNumPackets returns the frame capacity.
func (d *ThresholdDropper) MaxNumPackets() int {
	return d.frameCapacity
}

// MaxTotalLength returns the data capacity.
func (d *ThresholdDropper) MaxTotalLength() int64 {
	return d.dataCapacity
}

// Rejects tells if admitting the packet would exceed a capacity.
func (d *ThresholdDropper) Rejects(_ int, p *packet.Packet) bool {
	if d.frameCapacity != flow.Unbounded &&
		d.NumPackets()+1 > d.frameCapacity {
		return true
	}

	return d.dataCapacity != flow.Unbounded &&
		d.TotalLength()+p.Length > d.dataCapacity
}
