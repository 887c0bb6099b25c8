// Package device models the physical device that tasks are placed on: a fixed
// set of units with readout reliabilities, connected by links with two-unit
// operation reliabilities.
package device

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// A Unit is a physical unit on the device.
type Unit struct {
	ID      int
	Readout float64
}

// LinkKey identifies a link. A is always smaller than B.
type LinkKey struct {
	A, B int
}

// MakeLinkKey normalizes an unordered pair of unit IDs into a LinkKey.
func MakeLinkKey(a, b int) LinkKey {
	if a > b {
		a, b = b, a
	}

	return LinkKey{A: a, B: b}
}

// Has returns true if the unit is one of the link's endpoints.
func (k LinkKey) Has(u int) bool {
	return k.A == u || k.B == u
}

// Other returns the endpoint that is not u.
func (k LinkKey) Other(u int) int {
	if k.A == u {
		return k.B
	}

	return k.A
}

// A Link connects two physical units.
type Link struct {
	Key         LinkKey
	Reliability float64
}

// SwapReliability is the reliability of moving a unit's state across the
// link, which takes three two-unit operations.
func SwapReliability(linkReliability float64) float64 {
	return math.Pow(linkReliability, 3)
}

// SwapCost is the negative log of the swap reliability.
func SwapCost(linkReliability float64) float64 {
	return -math.Log(SwapReliability(linkReliability))
}

// SwapCost returns the cost of a swap over the link.
func (l Link) SwapCost() float64 {
	return SwapCost(l.Reliability)
}

// A Graph is an immutable device topology.
type Graph struct {
	name  string
	units []Unit
	links map[LinkKey]Link
	adj   [][]int
	g     *simple.WeightedUndirectedGraph
}

// Name returns the name of the device.
func (d *Graph) Name() string {
	return d.name
}

// NumUnits returns the device capacity.
func (d *Graph) NumUnits() int {
	return len(d.units)
}

// Unit returns the unit with the given ID.
func (d *Graph) Unit(id int) Unit {
	d.mustHaveUnit(id)
	return d.units[id]
}

// Units returns all the units, ordered by ID.
func (d *Graph) Units() []Unit {
	units := make([]Unit, len(d.units))
	copy(units, d.units)

	return units
}

// Link returns the link between two units, if any.
func (d *Graph) Link(a, b int) (Link, bool) {
	l, ok := d.links[MakeLinkKey(a, b)]
	return l, ok
}

// Links returns all the links ordered by key.
func (d *Graph) Links() []Link {
	links := make([]Link, 0, len(d.links))
	for _, l := range d.links {
		links = append(links, l)
	}

	sort.Slice(links, func(i, j int) bool {
		return keyLess(links[i].Key, links[j].Key)
	})

	return links
}

// NumLinks returns the number of links.
func (d *Graph) NumLinks() int {
	return len(d.links)
}

// Neighbors returns the units directly linked to u, in ascending order.
func (d *Graph) Neighbors(u int) []int {
	d.mustHaveUnit(u)

	n := make([]int, len(d.adj[u]))
	copy(n, d.adj[u])

	return n
}

// Neighborhood returns the units within the given number of hops from u,
// including u itself, in ascending order.
func (d *Graph) Neighborhood(u int, hops int) []int {
	d.mustHaveUnit(u)

	found := []int{}

	var bf traverse.BreadthFirst
	bf.Walk(d.g, simple.Node(u), func(n graph.Node, depth int) bool {
		if depth > hops {
			return true
		}

		found = append(found, int(n.ID()))

		return false
	})

	sort.Ints(found)

	return found
}

// AdjacentLinks returns the links that are separated from the given link by
// exactly one other link. Operations on these links are the candidates for
// crosstalk with operations on the given link.
func (d *Graph) AdjacentLinks(k LinkKey) []LinkKey {
	if _, ok := d.links[k]; !ok {
		return nil
	}

	set := map[LinkKey]bool{}
	d.collectAdjacentLinks(k.A, k.B, set)
	d.collectAdjacentLinks(k.B, k.A, set)
	delete(set, k)

	keys := make([]LinkKey, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool { return keyLess(keys[i], keys[j]) })

	return keys
}

func (d *Graph) collectAdjacentLinks(from, other int, set map[LinkKey]bool) {
	for _, n := range d.adj[from] {
		if n == other {
			continue
		}

		for _, m := range d.adj[n] {
			if m == from {
				continue
			}

			set[MakeLinkKey(n, m)] = true
		}
	}
}

// Connected returns true if every unit can reach every other unit.
func (d *Graph) Connected() bool {
	if len(d.units) == 0 {
		return true
	}

	return len(topo.ConnectedComponents(d.g)) == 1
}

// WithoutFaulty returns a copy of the device without the faulty units and
// links. Only the largest connected component of the working units is kept.
// Units are renumbered consecutively in the order of their old IDs. The
// returned map translates old IDs to new IDs.
func (d *Graph) WithoutFaulty(
	faultyUnits []int,
	faultyLinks []LinkKey,
) (*Graph, map[int]int, error) {
	dead := map[int]bool{}
	for _, u := range faultyUnits {
		dead[u] = true
	}

	deadLinks := map[LinkKey]bool{}
	for _, k := range faultyLinks {
		deadLinks[MakeLinkKey(k.A, k.B)] = true
	}

	working := simple.NewUndirectedGraph()
	for _, u := range d.units {
		if !dead[u.ID] {
			working.AddNode(simple.Node(u.ID))
		}
	}

	for k := range d.links {
		if dead[k.A] || dead[k.B] || deadLinks[k] {
			continue
		}

		working.SetEdge(working.NewEdge(simple.Node(k.A), simple.Node(k.B)))
	}

	keep := largestComponent(topo.ConnectedComponents(working))

	renumber := make(map[int]int, len(keep))
	for i, old := range keep {
		renumber[old] = i
	}

	b := MakeBuilder()
	for _, old := range keep {
		b = b.WithUnit(renumber[old], d.units[old].Readout)
	}

	for _, l := range d.Links() {
		if deadLinks[l.Key] {
			continue
		}

		na, okA := renumber[l.Key.A]
		nb, okB := renumber[l.Key.B]

		if okA && okB {
			b = b.WithLink(na, nb, l.Reliability)
		}
	}

	g, err := b.Build(d.name)
	if err != nil {
		return nil, nil, err
	}

	return g, renumber, nil
}

func largestComponent(components [][]graph.Node) []int {
	best := []int{}

	for _, c := range components {
		ids := make([]int, 0, len(c))
		for _, n := range c {
			ids = append(ids, int(n.ID()))
		}

		sort.Ints(ids)

		if len(ids) > len(best) ||
			(len(ids) == len(best) && len(ids) > 0 && ids[0] < best[0]) {
			best = ids
		}
	}

	return best
}

func (d *Graph) mustHaveUnit(id int) {
	if id < 0 || id >= len(d.units) {
		panic("unit does not exist")
	}
}

func keyLess(a, b LinkKey) bool {
	if a.A != b.A {
		return a.A < b.A
	}

	return a.B < b.B
}
