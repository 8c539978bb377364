package tracing

import (
	"sort"

	"github.com/sarchlab/pktflow/flow"
)

// DropCounter counts dropped packets by reason and by element.
type DropCounter struct {
	byReason  map[flow.DropReason]int
	byElement map[string]map[flow.DropReason]int
}

// NewDropCounter creates a DropCounter.
func NewDropCounter() *DropCounter {
	return &DropCounter{
		byReason:  make(map[flow.DropReason]int),
		byElement: make(map[string]map[flow.DropReason]int),
	}
}

// Trace counts drop events and ignores the others.
func (c *DropCounter) Trace(evt PacketEvent) {
	if evt.Kind != Dropped {
		return
	}

	c.byReason[evt.Drop.Reason]++

	counts, ok := c.byElement[evt.Element]
	if !ok {
		counts = make(map[flow.DropReason]int)
		c.byElement[evt.Element] = counts
	}

	counts[evt.Drop.Reason]++
}

// Count returns the number of packets dropped for the reason.
func (c *DropCounter) Count(reason flow.DropReason) int {
	return c.byReason[reason]
}

// CountAt returns the number of packets the element dropped for the reason.
func (c *DropCounter) CountAt(element string, reason flow.DropReason) int {
	return c.byElement[element][reason]
}

// Elements lists the elements that dropped packets, in alphabetical order.
func (c *DropCounter) Elements() []string {
	names := make([]string, 0, len(c.byElement))
	for name := range c.byElement {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
