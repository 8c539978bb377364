package tracing

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/sim/hooking"
	"github.com/sarchlab/pktflow/sim/timing"
)

// OccupancyTracer measures the time-weighted average number of packets in a
// collection. It is an engine hook and samples the collection after every
// event, when the collection is settled.
type OccupancyTracer struct {
	collection flow.Collection

	lastTime timing.VTimeInSec
	lastLen  int
	area     float64
	maxLen   int
}

// NewOccupancyTracer creates an OccupancyTracer for a collection. Attach it
// to the engine with AcceptHook.
func NewOccupancyTracer(collection flow.Collection) *OccupancyTracer {
	return &OccupancyTracer{
		collection: collection,
		lastLen:    collection.NumPackets(),
		maxLen:     collection.NumPackets(),
	}
}

// Func samples the collection after each event.
func (t *OccupancyTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != timing.HookPosAfterEvent {
		return
	}

	now := ctx.Item.(timing.Event).Time()
	t.area += float64(t.lastLen) * (now - t.lastTime)
	t.lastTime = now

	t.lastLen = t.collection.NumPackets()
	if t.lastLen > t.maxLen {
		t.maxLen = t.lastLen
	}
}

// AverageLength returns the average number of packets from time 0 to now.
func (t *OccupancyTracer) AverageLength(now timing.VTimeInSec) float64 {
	if now <= 0 {
		return float64(t.lastLen)
	}

	area := t.area + float64(t.lastLen)*(now-t.lastTime)

	return area / now
}

// MaxLength returns the largest number of packets seen.
func (t *OccupancyTracer) MaxLength() int {
	return t.maxLen
}
