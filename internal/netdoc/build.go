package netdoc

import (
	"fmt"

	"github.com/san-kum/eventsim/internal/dynamo"
	"github.com/san-kum/eventsim/internal/part"
	"github.com/san-kum/eventsim/internal/population"
	"github.com/san-kum/eventsim/internal/sampling"
)

// node is the built-in "node" part type: a bare population member with no
// behavior of its own, used as a connection endpoint when a network
// definition doesn't need anything richer than a live/dead slot.
type node struct {
	part.Base
	free bool
}

func newNode() part.Part {
	n := &node{}
	n.Bind(n)
	return n
}

func (n *node) IsFree() bool { return n.free }
func (n *node) Clear()       { n.free = false }
func (n *node) Die()         { n.free = true }

// PartFactory constructs one fresh part instance for a population.
type PartFactory func() part.Part

// DefaultRegistry maps the part_type names a network definition may name to
// their factories. "node" is the only built-in; a caller builds a larger
// registry to support richer part types (e.g. control.Pendulum) and passes
// it to Build instead.
var DefaultRegistry = map[string]PartFactory{
	"node": newNode,
}

// conn is a connection population's own part type: a candidate pairing
// between one A-side and one B-side endpoint, accepted with a fixed
// probability and tracking each endpoint's accepted degree so Amax/Bmax
// caps are enforceable.
type conn struct {
	part.Base
	p        float64
	a, b     part.Part
	degree   map[part.Part]int
	accepted *[]Edge
}

func (c *conn) SetPart(i int, pt part.Part) {
	if i == 0 {
		c.a = pt
	} else {
		c.b = pt
	}
}

func (c *conn) GetPart(i int) part.Part {
	if i == 0 {
		return c.a
	}
	return c.b
}

func (c *conn) GetCount(i int) int {
	if i == 0 {
		return c.degree[c.a]
	}
	return c.degree[c.b]
}

func (c *conn) GetP(sampling.Sampler) float64 { return c.p }

func (c *conn) EnterSimulation() {
	c.degree[c.a]++
	c.degree[c.b]++
	*c.accepted = append(*c.accepted, Edge{A: c.a, B: c.b})
}

// Edge is one accepted connection between an A-side and a B-side part.
type Edge struct {
	A, B part.Part
}

// Network is a built network: every plain population by name (keyed the
// way its NetworkConfig entry named it) plus the connection populations
// wiring them together, and the edges each connection pass accepted.
type Network struct {
	Populations map[string]*population.Population
	Connections map[string]*population.Population
	Accepted    map[string]*[]Edge
}

// Build constructs every population and connection population a
// NetworkConfig describes: plain populations are resized to their initial
// count, then each connection runs one Connect pass between its From/To
// populations. registry resolves part_type names; a nil registry falls
// back to DefaultRegistry.
func Build(cfg *NetworkConfig, registry map[string]PartFactory, sampler sampling.Sampler) (*Network, error) {
	if registry == nil {
		registry = DefaultRegistry
	}
	net := &Network{
		Populations: map[string]*population.Population{},
		Connections: map[string]*population.Population{},
		Accepted:    map[string]*[]Edge{},
	}

	for _, ps := range cfg.Populations {
		if _, dup := net.Populations[ps.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate population %q", dynamo.ErrMalformedNetwork, ps.Name)
		}
		factory, ok := registry[ps.PartType]
		if !ok {
			return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownPartType, ps.PartType)
		}
		pop := population.New(factory, sampler)
		pop.Resize(ps.Initial)
		net.Populations[ps.Name] = pop
	}

	for _, cs := range cfg.Connections {
		a, ok := net.Populations[cs.From]
		if !ok {
			return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownPopulation, cs.From)
		}
		b, ok := net.Populations[cs.To]
		if !ok {
			return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownPopulation, cs.To)
		}

		accepted := &[]Edge{}
		degree := map[part.Part]int{}
		cp := population.New(func() part.Part {
			c := &conn{p: cs.P, degree: degree, accepted: accepted}
			c.Bind(c)
			return c
		}, sampler)
		cp.TargetA, cp.TargetB = a, b
		cp.MaxA, cp.MaxB = cs.MaxA, cs.MaxB
		cp.Connect()

		net.Connections[cs.Name] = cp
		net.Accepted[cs.Name] = accepted
	}

	return net, nil
}
