package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/pktflow/sim/hooking"
	"github.com/sarchlab/pktflow/sim/timing"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// SetFinished sets the finished amount.
func (b *ProgressBar) SetFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished = amount
}

// TimeProgress is an engine hook that shows how far the virtual time is from
// the end of the simulation, in milliseconds.
type TimeProgress struct {
	bar *ProgressBar
}

// NewTimeProgress creates a bar for a simulation that ends at until and the
// hook that moves it.
func (m *Monitor) NewTimeProgress(until timing.VTimeInSec) *TimeProgress {
	return &TimeProgress{
		bar: m.CreateProgressBar("Virtual time (ms)", toMillis(until)),
	}
}

// Bar returns the progress bar.
func (p *TimeProgress) Bar() *ProgressBar {
	return p.bar
}

// Func moves the bar after every event.
func (p *TimeProgress) Func(ctx hooking.HookCtx) {
	if ctx.Pos != timing.HookPosAfterEvent {
		return
	}

	finished := toMillis(ctx.Item.(timing.Event).Time())
	if finished > p.bar.Total {
		finished = p.bar.Total
	}

	p.bar.SetFinished(finished)
}

func toMillis(t timing.VTimeInSec) uint64 {
	if t <= 0 {
		return 0
	}

	return uint64(t * 1000)
}
