package device

import (
	"math"
	"sort"

	"github.com/sarchlab/multiq/errs"
	"gonum.org/v1/gonum/graph/simple"
)

type linkSpec struct {
	a, b        int
	reliability float64
}

// A Builder can build device graphs.
type Builder struct {
	units []Unit
	links []linkSpec
}

// MakeBuilder returns a Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithUnit adds a unit with the given readout reliability. Unit IDs must
// cover 0 to n-1 without gaps.
func (b Builder) WithUnit(id int, readout float64) Builder {
	units := make([]Unit, len(b.units), len(b.units)+1)
	copy(units, b.units)
	b.units = append(units, Unit{ID: id, Readout: readout})

	return b
}

// WithLink adds a link between two units with the given two-unit operation
// reliability.
func (b Builder) WithLink(a, c int, reliability float64) Builder {
	links := make([]linkSpec, len(b.links), len(b.links)+1)
	copy(links, b.links)
	b.links = append(links, linkSpec{a: a, b: c, reliability: reliability})

	return b
}

// Build creates the device graph.
func (b Builder) Build(name string) (*Graph, error) {
	units, err := b.buildUnits()
	if err != nil {
		return nil, err
	}

	d := &Graph{
		name:  name,
		units: units,
		links: make(map[LinkKey]Link, len(b.links)),
		adj:   make([][]int, len(units)),
		g:     simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
	}

	for _, u := range units {
		d.g.AddNode(simple.Node(u.ID))
	}

	for i, l := range b.links {
		err := b.addLink(d, i, l)
		if err != nil {
			return nil, err
		}
	}

	for _, n := range d.adj {
		sort.Ints(n)
	}

	return d, nil
}

func (b Builder) buildUnits() ([]Unit, error) {
	if len(b.units) == 0 {
		return nil, errs.NewValidationError("units", "device has no units")
	}

	units := make([]Unit, len(b.units))
	seen := make([]bool, len(b.units))

	for _, u := range b.units {
		if u.ID < 0 || u.ID >= len(b.units) {
			return nil, errs.NewValidationError("units",
				"unit id %d is outside 0..%d", u.ID, len(b.units)-1)
		}

		if seen[u.ID] {
			return nil, errs.NewValidationError("units",
				"unit %d is defined twice", u.ID)
		}

		if !validReliability(u.Readout) {
			return nil, errs.NewValidationError("units",
				"unit %d readout reliability %g is outside (0, 1]",
				u.ID, u.Readout)
		}

		seen[u.ID] = true
		units[u.ID] = u
	}

	return units, nil
}

func (b Builder) addLink(d *Graph, index int, l linkSpec) error {
	n := len(d.units)

	switch {
	case l.a < 0 || l.a >= n || l.b < 0 || l.b >= n:
		return errs.NewValidationError("links",
			"link %d references unknown unit (%d, %d)", index, l.a, l.b)
	case l.a == l.b:
		return errs.NewValidationError("links",
			"link %d connects unit %d to itself", index, l.a)
	case !validReliability(l.reliability):
		return errs.NewValidationError("links",
			"link %d reliability %g is outside (0, 1]", index, l.reliability)
	}

	key := MakeLinkKey(l.a, l.b)
	if _, dup := d.links[key]; dup {
		return errs.NewValidationError("links",
			"link (%d, %d) is defined twice", key.A, key.B)
	}

	link := Link{Key: key, Reliability: l.reliability}
	d.links[key] = link
	d.adj[key.A] = append(d.adj[key.A], key.B)
	d.adj[key.B] = append(d.adj[key.B], key.A)
	d.g.SetWeightedEdge(d.g.NewWeightedEdge(
		simple.Node(key.A), simple.Node(key.B), link.SwapCost()))

	return nil
}

func validReliability(r float64) bool {
	return r > 0 && r <= 1
}

// Line creates a device whose units are connected in a line.
func Line(name string, n int, readout, link float64) (*Graph, error) {
	b := MakeBuilder()
	for i := 0; i < n; i++ {
		b = b.WithUnit(i, readout)
	}

	for i := 0; i+1 < n; i++ {
		b = b.WithLink(i, i+1, link)
	}

	return b.Build(name)
}

// Grid creates a device whose units form a rows by cols mesh. Unit IDs are
// assigned row by row.
func Grid(name string, rows, cols int, readout, link float64) (*Graph, error) {
	b := MakeBuilder()
	for i := 0; i < rows*cols; i++ {
		b = b.WithUnit(i, readout)
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			id := r*cols + c

			if c+1 < cols {
				b = b.WithLink(id, id+1, link)
			}

			if r+1 < rows {
				b = b.WithLink(id, id+cols, link)
			}
		}
	}

	return b.Build(name)
}
