package topology

import (
	"github.com/hashicorp/go-multierror"
	"github.com/sarchlab/pktflow/flow"
	"github.com/sarchlab/pktflow/sim/naming"
	"github.com/sarchlab/pktflow/sim/timing"
	"github.com/sirupsen/logrus"
)

// A Network is a set of linked elements.
type Network struct {
	elements []flow.Element
	byName   map[string]flow.Element
}

// Element returns the element with the given name, or nil.
func (n *Network) Element(name string) flow.Element {
	return n.byName[name]
}

// Elements returns the elements in the order they were declared.
func (n *Network) Elements() []flow.Element {
	return n.elements
}

// Collections returns the elements that hold packets.
func (n *Network) Collections() []flow.Collection {
	var collections []flow.Collection

	for _, e := range n.elements {
		if c, ok := e.(flow.Collection); ok {
			collections = append(collections, c)
		}
	}

	return collections
}

// Validate checks that every gate is linked to a gate that can carry packets
// the same way.
func (n *Network) Validate() error {
	return flow.ValidateLinks(n.elements)
}

// Start lets the sources, sinks and timed elements schedule their first
// events.
func (n *Network) Start() {
	for _, e := range n.elements {
		if s, ok := e.(flow.Starter); ok {
			s.Start()
		}
	}
}

// Build creates the elements of the configuration and links them. Every
// problem found is reported in the returned error, which aggregates
// *flow.ConfigurationError values. Build schedules no event.
func Build(engine timing.EventScheduler, cfg *Config) (*Network, error) {
	var result *multierror.Error

	ctx := &BuildContext{
		Engine:   engine,
		elements: make(map[string]flow.Element),
	}
	n := &Network{byName: ctx.elements}

	for _, ec := range buildOrder(cfg.Elements) {
		e, err := buildElement(ctx, ec)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		ctx.elements[ec.Name] = e
	}

	for _, ec := range cfg.Elements {
		if e, ok := ctx.elements[ec.Name]; ok {
			n.elements = append(n.elements, e)
		}
	}

	for _, l := range cfg.Links {
		if err := n.link(l); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if result.ErrorOrNil() != nil {
		return nil, result.ErrorOrNil()
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"elements": len(n.elements),
		"links":    len(cfg.Links),
	}).Debug("network built")

	return n, nil
}

// buildOrder puts buffers first, keeping the declared order otherwise, so
// that queues can refer to buffers declared after them. Queues register with
// their buffer as they are built, so the owner ordinals follow the order the
// queues are declared in.
func buildOrder(elements []ElementConfig) []ElementConfig {
	ordered := make([]ElementConfig, 0, len(elements))

	for _, ec := range elements {
		if ec.Kind == "Buffer" {
			ordered = append(ordered, ec)
		}
	}

	for _, ec := range elements {
		if ec.Kind != "Buffer" {
			ordered = append(ordered, ec)
		}
	}

	return ordered
}

func buildElement(ctx *BuildContext, ec ElementConfig) (flow.Element, error) {
	if !naming.IsValid(ec.Name) {
		return nil, flow.NewConfigurationError(ec.Name,
			"%q is not a valid element name", ec.Name)
	}

	if _, ok := ctx.elements[ec.Name]; ok {
		return nil, flow.NewConfigurationError(ec.Name,
			"element name is used more than once")
	}

	factory, ok := kinds[ec.Kind]
	if !ok {
		return nil, flow.NewConfigurationError(ec.Name,
			"unknown element kind %q", ec.Kind)
	}

	return factory(ctx, ec)
}

func (n *Network) link(l LinkConfig) error {
	out, err := n.gate(l.From)
	if err != nil {
		return err
	}

	in, err := n.gate(l.To)
	if err != nil {
		return err
	}

	return flow.Connect(out, in)
}

func (n *Network) gate(s string) (*flow.Gate, error) {
	ref, err := ParseGateRef(s)
	if err != nil {
		return nil, flow.WrapConfigurationError("", err, "bad link")
	}

	e, ok := n.byName[ref.Element]
	if !ok {
		return nil, flow.NewConfigurationError("",
			"link refers to unknown element %s", ref.Element)
	}

	for _, g := range e.Gates() {
		if g.BaseName() == ref.Gate && g.Index() == ref.Index {
			return g, nil
		}
	}

	return nil, flow.NewConfigurationError(ref.Element,
		"has no gate %s", ref)
}
