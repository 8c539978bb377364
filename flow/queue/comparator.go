package queue

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A Comparator orders the packets of a queue. It returns a negative number
// if a should leave the queue before b, a positive number if b should leave
// first and zero if the order does not matter.
type Comparator func(a, b *packet.Packet) int

var comparators = flow.NewRegistry[Comparator]("comparator")

// MustRegisterComparator registers a comparator constructor under a name.
func MustRegisterComparator(name string, c flow.Constructor[Comparator]) {
	comparators.MustRegister(name, c)
}

// NewComparatorFromName creates the comparator registered under the name.
func NewComparatorFromName(
	name string,
	params flow.Params,
) (Comparator, error) {
	return comparators.New(name, params)
}

// ComparatorNames lists the registered comparators.
func ComparatorNames() []string {
	return comparators.Names()
}

// CompareCreationTime lets older packets leave first.
func CompareCreationTime(a, b *packet.Packet) int {
	switch {
	case a.CreationTime < b.CreationTime:
		return -1
	case a.CreationTime > b.CreationTime:
		return 1
	default:
		return 0
	}
}

// CompareUserPriority lets packets with a higher user priority leave first.
// Background priorities 1 and 2 rank below best effort 0.
func CompareUserPriority(a, b *packet.Packet) int {
	return userPriorityRank(b) - userPriorityRank(a)
}

func userPriorityRank(p *packet.Packet) int {
	switch p.UserPriority {
	case 1:
		return -2
	case 2:
		return -1
	default:
		return p.UserPriority
	}
}

func init() {
	MustRegisterComparator("CreationTime",
		func(flow.Params) (Comparator, error) {
			return CompareCreationTime, nil
		})
	MustRegisterComparator("UserPriority",
		func(flow.Params) (Comparator, error) {
			return CompareUserPriority, nil
		})
}
