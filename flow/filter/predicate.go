package filter

import (
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/packet"
)

// A Predicate tells if a packet passes a filter.
type Predicate func(p *packet.Packet) bool

var predicates = flow.NewRegistry[Predicate]("filter predicate")

// MustRegisterPredicate registers a predicate constructor.
func MustRegisterPredicate(name string, c flow.Constructor[Predicate]) {
	predicates.MustRegister(name, c)
}

// NewPredicateFromName creates the predicate registered under the name.
func NewPredicateFromName(name string, params flow.Params) (Predicate, error) {
	return predicates.New(name, params)
}

// PredicateNames lists the registered predicates.
func PredicateNames() []string {
	return predicates.Names()
}

// All lets every packet pass.
func All(*packet.Packet) bool {
	return true
}

// None lets no packet pass.
func None(*packet.Packet) bool {
	return false
}

// MaxLength lets packets of at most the given length in bits pass.
func MaxLength(bits int64) Predicate {
	return func(p *packet.Packet) bool {
		return p.Length <= bits
	}
}

// MinPriority lets packets with at least the given user priority pass.
func MinPriority(priority int) Predicate {
	return func(p *packet.Packet) bool {
		return p.UserPriority >= priority
	}
}

func init() {
	MustRegisterPredicate("All", func(flow.Params) (Predicate, error) {
		return All, nil
	})
	MustRegisterPredicate("None", func(flow.Params) (Predicate, error) {
		return None, nil
	})
	MustRegisterPredicate("MaxLength", func(params flow.Params) (Predicate, error) {
		bits, err := params.Int64("length", 0)
		if err != nil {
			return nil, err
		}

		return MaxLength(bits), nil
	})
	MustRegisterPredicate("MinPriority",
		func(params flow.Params) (Predicate, error) {
			priority, err := params.Int("priority", 0)
			if err != nil {
				return nil, err
			}

			return MinPriority(priority), nil
		})
}
