// Package task defines the tasks that are packed onto a device, and the
// composite program that results from placing several of them together.
package task

import (
	"sort"
	"strings"

	"github.com/sarchlab/multiq/errs"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Common operation kinds.
const (
	KindCX      = "cx"
	KindBarrier = "barrier"
	KindMeasure = "measure"
)

// An Op is an operation on one or more of a task's virtual units. Kinds are
// lower case; New converts them.
type Op struct {
	Kind  string
	Units []int
}

// IsTwoUnit returns true if the operation acts on exactly two units.
func (o Op) IsTwoUnit() bool {
	return len(o.Units) == 2
}

func (o Op) clone() Op {
	units := make([]int, len(o.Units))
	copy(units, o.Units)

	return Op{Kind: o.Kind, Units: units}
}

// A VirtualLink is a pair of virtual units that interact. The weight is the
// number of two-unit operations between them.
type VirtualLink struct {
	A, B   int
	Weight int
}

// A Task is a program written against its own virtual units 0..n-1.
type Task struct {
	ID   string
	Name string

	numUnits int
	ops      []Op
	links    []VirtualLink
}

// New creates a validated task.
func New(id, name string, numUnits int, ops []Op) (*Task, error) {
	if numUnits <= 0 {
		return nil, errs.NewValidationError("units",
			"task %s has %d units", id, numUnits)
	}

	t := &Task{
		ID:       id,
		Name:     name,
		numUnits: numUnits,
		ops:      make([]Op, 0, len(ops)),
	}

	for i, op := range ops {
		err := t.validateOp(i, op)
		if err != nil {
			return nil, err
		}

		normalized := op.clone()
		normalized.Kind = strings.ToLower(normalized.Kind)
		t.ops = append(t.ops, normalized)
	}

	t.links = t.buildLinks()

	return t, nil
}

// MustNew is New, but panics on invalid input.
func MustNew(id, name string, numUnits int, ops []Op) *Task {
	t, err := New(id, name, numUnits, ops)
	if err != nil {
		panic(err)
	}

	return t
}

func (t *Task) validateOp(i int, op Op) error {
	if op.Kind == "" {
		return errs.NewValidationError("ops",
			"task %s op %d has no kind", t.ID, i)
	}

	if len(op.Units) == 0 {
		return errs.NewValidationError("ops",
			"task %s op %d acts on no unit", t.ID, i)
	}

	seen := map[int]bool{}
	for _, u := range op.Units {
		if u < 0 || u >= t.numUnits {
			return errs.NewValidationError("ops",
				"task %s op %d references unit %d, task has %d units",
				t.ID, i, u, t.numUnits)
		}

		if seen[u] {
			return errs.NewValidationError("ops",
				"task %s op %d uses unit %d twice", t.ID, i, u)
		}

		seen[u] = true
	}

	return nil
}

func (t *Task) buildLinks() []VirtualLink {
	weights := map[[2]int]int{}

	for _, op := range t.ops {
		if !op.IsTwoUnit() {
			continue
		}

		a, b := op.Units[0], op.Units[1]
		if a > b {
			a, b = b, a
		}

		weights[[2]int{a, b}]++
	}

	links := make([]VirtualLink, 0, len(weights))
	for k, w := range weights {
		links = append(links, VirtualLink{A: k[0], B: k[1], Weight: w})
	}

	SortLinks(links)

	return links
}

// SortLinks orders links by descending weight. Ties are broken by ascending
// endpoint IDs.
func SortLinks(links []VirtualLink) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].Weight != links[j].Weight {
			return links[i].Weight > links[j].Weight
		}

		if links[i].A != links[j].A {
			return links[i].A < links[j].A
		}

		return links[i].B < links[j].B
	})
}

// NumUnits returns the number of virtual units.
func (t *Task) NumUnits() int {
	return t.numUnits
}

// Ops returns a copy of the operations in program order.
func (t *Task) Ops() []Op {
	ops := make([]Op, len(t.ops))
	for i, op := range t.ops {
		ops[i] = op.clone()
	}

	return ops
}

// NumOps returns the number of operations.
func (t *Task) NumOps() int {
	return len(t.ops)
}

// VirtualLinks returns the interacting pairs, heaviest first.
func (t *Task) VirtualLinks() []VirtualLink {
	links := make([]VirtualLink, len(t.links))
	copy(links, t.links)

	return links
}

// CountOps returns the number of operations of each kind.
func (t *Task) CountOps() map[string]int {
	counts := map[string]int{}
	for _, op := range t.ops {
		counts[op.Kind]++
	}

	return counts
}

// NumTwoUnitOps returns the number of two-unit operations.
func (t *Task) NumTwoUnitOps() int {
	n := 0
	for _, l := range t.links {
		n += l.Weight
	}

	return n
}

// Depth returns the length of the critical path through the operations,
// where two operations depend on each other if they share a unit. Barriers
// synchronize units but do not add to the depth.
func (t *Task) Depth() int {
	layer := make([]int, t.numUnits)
	depth := 0

	for _, op := range t.ops {
		d := 0
		for _, u := range op.Units {
			if layer[u] > d {
				d = layer[u]
			}
		}

		if op.Kind != KindBarrier {
			d++
		}

		for _, u := range op.Units {
			layer[u] = d
		}

		if d > depth {
			depth = d
		}
	}

	return depth
}

// A Component is a connected part of a task's interaction graph.
type Component struct {
	Units  []int
	Links  []VirtualLink
	Weight int
}

// Components splits the interaction graph into connected components, ordered
// by total weight times the number of units, descending. Units that never
// interact are left out.
func (t *Task) Components() []Component {
	g := simple.NewUndirectedGraph()
	for _, l := range t.links {
		g.SetEdge(g.NewEdge(simple.Node(l.A), simple.Node(l.B)))
	}

	owner := map[int]int{}
	components := []Component{}

	for _, nodes := range topo.ConnectedComponents(g) {
		c := Component{}
		for _, n := range nodes {
			owner[int(n.ID())] = len(components)
			c.Units = append(c.Units, int(n.ID()))
		}

		sort.Ints(c.Units)
		components = append(components, c)
	}

	for _, l := range t.links {
		c := &components[owner[l.A]]
		c.Links = append(c.Links, l)
		c.Weight += l.Weight
	}

	sort.SliceStable(components, func(i, j int) bool {
		si := components[i].Weight * len(components[i].Units)
		sj := components[j].Weight * len(components[j].Units)

		if si != sj {
			return si > sj
		}

		return components[i].Units[0] < components[j].Units[0]
	})

	return components
}
