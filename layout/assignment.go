// Package layout places the virtual units of tasks onto the physical units of
// a device.
package layout

import (
	"fmt"
	"sort"
)

// A VirtualUnit identifies a virtual unit of a task.
type VirtualUnit struct {
	TaskID  string
	Virtual int
}

// A Placement maps one virtual unit to a physical unit.
type Placement struct {
	VirtualUnit
	Physical int
}

// An Assignment is an injective mapping from virtual units to physical units.
// It accumulates across the allocator calls of one fill cycle.
type Assignment struct {
	forward map[VirtualUnit]int
	reverse map[int]VirtualUnit
	order   []VirtualUnit
}

// NewAssignment creates an empty Assignment.
func NewAssignment() *Assignment {
	return &Assignment{
		forward: make(map[VirtualUnit]int),
		reverse: make(map[int]VirtualUnit),
	}
}

// Assign maps a virtual unit to a physical unit. Mapping a physical unit
// twice, or a virtual unit twice, panics.
func (a *Assignment) Assign(taskID string, virtual, physical int) {
	v := VirtualUnit{TaskID: taskID, Virtual: virtual}

	if owner, taken := a.reverse[physical]; taken {
		panic(fmt.Sprintf("physical unit %d is already assigned to %s/%d",
			physical, owner.TaskID, owner.Virtual))
	}

	if _, placed := a.forward[v]; placed {
		panic(fmt.Sprintf("virtual unit %s/%d is already assigned",
			taskID, virtual))
	}

	a.forward[v] = physical
	a.reverse[physical] = v
	a.order = append(a.order, v)
}

// Lookup returns the physical unit of a virtual unit.
func (a *Assignment) Lookup(taskID string, virtual int) (int, bool) {
	p, ok := a.forward[VirtualUnit{TaskID: taskID, Virtual: virtual}]
	return p, ok
}

// Owner returns the virtual unit that a physical unit hosts.
func (a *Assignment) Owner(physical int) (VirtualUnit, bool) {
	v, ok := a.reverse[physical]
	return v, ok
}

// Len returns the number of mapped units.
func (a *Assignment) Len() int {
	return len(a.order)
}

// Placements returns every mapping in the order it was made.
func (a *Assignment) Placements() []Placement {
	placements := make([]Placement, len(a.order))
	for i, v := range a.order {
		placements[i] = Placement{VirtualUnit: v, Physical: a.forward[v]}
	}

	return placements
}

// PhysicalUnits returns the occupied physical units in ascending order.
func (a *Assignment) PhysicalUnits() []int {
	units := make([]int, 0, len(a.reverse))
	for p := range a.reverse {
		units = append(units, p)
	}

	sort.Ints(units)

	return units
}

// TaskUnits returns the physical units of a task, indexed by virtual unit.
func (a *Assignment) TaskUnits(taskID string, numUnits int) ([]int, bool) {
	units := make([]int, numUnits)

	for v := 0; v < numUnits; v++ {
		p, ok := a.Lookup(taskID, v)
		if !ok {
			return nil, false
		}

		units[v] = p
	}

	return units, true
}

// Copy returns an independent copy.
func (a *Assignment) Copy() *Assignment {
	c := NewAssignment()
	for _, v := range a.order {
		p := a.forward[v]
		c.forward[v] = p
		c.reverse[p] = v
	}

	c.order = make([]VirtualUnit, len(a.order))
	copy(c.order, a.order)

	return c
}
