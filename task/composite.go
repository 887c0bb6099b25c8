package task

import "sort"

// A Register is the slice of the composite unit space owned by one task.
type Register struct {
	TaskID string
	Offset int
	Size   int
}

// A Composite is a single program built from several placed tasks. Each task
// gets its own register, and its operations are re-indexed into the
// composite unit space.
type Composite struct {
	registers []Register
	ops       []Op
	layout    map[int]int
}

// NewComposite creates an empty Composite.
func NewComposite() *Composite {
	return &Composite{
		layout: make(map[int]int),
	}
}

// Append adds a task to the composite. The physical slice maps each of the
// task's virtual units to a physical unit.
func (c *Composite) Append(t *Task, physical []int) {
	if len(physical) != t.NumUnits() {
		panic("every virtual unit must be placed")
	}

	for _, r := range c.registers {
		if r.TaskID == t.ID {
			panic("task " + t.ID + " is already in the composite")
		}
	}

	offset := c.NumUnits()
	c.registers = append(c.registers, Register{
		TaskID: t.ID,
		Offset: offset,
		Size:   t.NumUnits(),
	})

	for v, p := range physical {
		c.layout[offset+v] = p
	}

	for _, op := range t.ops {
		units := make([]int, len(op.Units))
		for i, u := range op.Units {
			units[i] = offset + u
		}

		c.ops = append(c.ops, Op{Kind: op.Kind, Units: units})
	}
}

// NumUnits returns the total number of composite units.
func (c *Composite) NumUnits() int {
	n := 0
	for _, r := range c.registers {
		n += r.Size
	}

	return n
}

// Registers returns the registers in insertion order.
func (c *Composite) Registers() []Register {
	regs := make([]Register, len(c.registers))
	copy(regs, c.registers)

	return regs
}

// Ops returns the operations in composite unit space.
func (c *Composite) Ops() []Op {
	ops := make([]Op, len(c.ops))
	for i, op := range c.ops {
		ops[i] = op.clone()
	}

	return ops
}

// Layout returns the composite unit to physical unit mapping.
func (c *Composite) Layout() map[int]int {
	layout := make(map[int]int, len(c.layout))
	for k, v := range c.layout {
		layout[k] = v
	}

	return layout
}

// PhysicalUnits returns the physical units in use, ascending.
func (c *Composite) PhysicalUnits() []int {
	units := make([]int, 0, len(c.layout))
	for _, p := range c.layout {
		units = append(units, p)
	}

	sort.Ints(units)

	return units
}

// PhysicalOps returns the operations with their units translated to physical
// units.
func (c *Composite) PhysicalOps() []Op {
	ops := make([]Op, len(c.ops))
	for i, op := range c.ops {
		units := make([]int, len(op.Units))
		for j, u := range op.Units {
			units[j] = c.layout[u]
		}

		ops[i] = Op{Kind: op.Kind, Units: units}
	}

	return ops
}

// TaskOps returns the operations of one task, translated back to the task's
// own virtual units.
func (c *Composite) TaskOps(taskID string) ([]Op, bool) {
	for _, r := range c.registers {
		if r.TaskID != taskID {
			continue
		}

		ops := []Op{}
		for _, op := range c.ops {
			if !r.owns(op.Units[0]) {
				continue
			}

			units := make([]int, len(op.Units))
			for i, u := range op.Units {
				units[i] = u - r.Offset
			}

			ops = append(ops, Op{Kind: op.Kind, Units: units})
		}

		return ops, true
	}

	return nil, false
}

func (r Register) owns(u int) bool {
	return u >= r.Offset && u < r.Offset+r.Size
}

// Clone returns a deep copy.
func (c *Composite) Clone() *Composite {
	clone := &Composite{
		registers: c.Registers(),
		ops:       c.Ops(),
		layout:    c.Layout(),
	}

	return clone
}
