package layout

import (
	"errors"

	"github.com/sarchlab/multiq/crosstalk"
	"github.com/sarchlab/multiq/device"
	"github.com/sarchlab/multiq/errs"
	"github.com/sarchlab/multiq/hooking"
	"github.com/sarchlab/multiq/task"
)

// State is the fill state of an allocator.
type State int

// The allocator states. An allocator starts empty, accumulates tasks, and
// becomes full when the device is used up or a task does not fit.
const (
	StateEmpty State = iota
	StateAccumulating
	StateFull
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateFull:
		return "full"
	default:
		return "unknown"
	}
}

// Hook positions of the allocator.
var (
	// HookPosTaskPlaced is triggered after a task is committed. The item is
	// a TaskPlaced.
	HookPosTaskPlaced = &hooking.HookPos{Name: "TaskPlaced"}

	// HookPosCrosstalk is triggered for every link degraded by a committed
	// task. The item is a crosstalk.Update.
	HookPosCrosstalk = &hooking.HookPos{Name: "Crosstalk"}

	// HookPosOverflow is triggered when a task does not fit. The item is a
	// TaskOverflow.
	HookPosOverflow = &hooking.HookPos{Name: "Overflow"}
)

// TaskPlaced describes a committed task.
type TaskPlaced struct {
	TaskID string
	Units  []int
}

// TaskOverflow describes a task that did not fit.
type TaskOverflow struct {
	TaskID    string
	Need      int
	Available int
}

// An Allocator places tasks one at a time onto a device, keeping the
// placements of earlier tasks until it is reset.
type Allocator struct {
	*hooking.HookableBase

	name  string
	dev   *device.Graph
	rules crosstalk.Rules
	hops  int
	split bool

	policy     crosstalk.Policy
	state      State
	model      *crosstalk.Model
	pool       unitPool
	assignment *Assignment
	composite  *task.Composite
	overflow   *task.Task
	taskIDs    []string
}

// Name returns the name of the allocator.
func (a *Allocator) Name() string {
	return a.name
}

// Device returns the device that the allocator places tasks on.
func (a *Allocator) Device() *device.Graph {
	return a.dev
}

// State returns the fill state.
func (a *Allocator) State() State {
	return a.state
}

// Overflow returns the task that did not fit, if any.
func (a *Allocator) Overflow() *task.Task {
	return a.overflow
}

// Assignment returns a copy of the accumulated assignment.
func (a *Allocator) Assignment() *Assignment {
	return a.assignment.Copy()
}

// Composite returns a copy of the accumulated composite program.
func (a *Allocator) Composite() *task.Composite {
	return a.composite.Clone()
}

// Available returns the physical units that are still free.
func (a *Allocator) Available() []int {
	return a.pool.list()
}

// Model returns the crosstalk model of the current fill cycle.
func (a *Allocator) Model() *crosstalk.Model {
	return a.model
}

// TaskIDs returns the IDs of the committed tasks in order.
func (a *Allocator) TaskIDs() []string {
	ids := make([]string, len(a.taskIDs))
	copy(ids, a.taskIDs)

	return ids
}

// Reset starts a new fill cycle.
func (a *Allocator) Reset() {
	a.state = StateEmpty
	a.model = crosstalk.NewModel(a.dev, a.rules, a.policy)
	a.pool = newUnitPool(a.dev.NumUnits())
	a.assignment = NewAssignment()
	a.composite = task.NewComposite()
	a.overflow = nil
	a.taskIDs = nil
}

// Run places the next task. The prior composite is the result of the
// previous call of the fill cycle, or nil on the first call. If the task
// does not fit, the allocator becomes full, keeps the task as Overflow, and
// returns prior with the bool set.
//
// On the first call of a fill cycle, a task that cannot be placed is an
// error instead.
func (a *Allocator) Run(
	next *task.Task,
	prior *task.Composite,
) (*task.Composite, bool, error) {
	if a.state == StateFull {
		panic("allocator is full, reset it before placing more tasks")
	}

	fresh := a.state == StateEmpty

	if next.NumUnits() > a.pool.len() {
		if fresh {
			return prior, false, &errs.CapacityError{
				TaskID:   next.ID,
				Need:     next.NumUnits(),
				Capacity: a.pool.len(),
			}
		}

		return a.overflowWith(next, prior), true, nil
	}

	p := a.newPlacer(next)

	err := p.place()
	if err != nil {
		var placeErr *errs.PlacementError
		if !fresh && errors.As(err, &placeErr) {
			return a.overflowWith(next, prior), true, nil
		}

		return prior, false, err
	}

	a.commit(p)

	return a.composite.Clone(), false, nil
}

func (a *Allocator) overflowWith(
	next *task.Task,
	prior *task.Composite,
) *task.Composite {
	a.state = StateFull
	a.overflow = next

	a.InvokeHook(hooking.HookCtx{
		Domain: a,
		Pos:    HookPosOverflow,
		Item: TaskOverflow{
			TaskID:    next.ID,
			Need:      next.NumUnits(),
			Available: a.pool.len(),
		},
	})

	return prior
}

func (a *Allocator) commit(p *placer) {
	units := make([]int, p.t.NumUnits())
	for v := range units {
		units[v] = p.prog2hw[v]
		a.assignment.Assign(p.t.ID, v, units[v])
	}

	a.composite.Append(p.t, units)
	a.model = p.model
	a.pool = p.pool
	a.taskIDs = append(a.taskIDs, p.t.ID)

	a.exclude(units)

	a.state = StateAccumulating
	if a.pool.len() == 0 {
		a.state = StateFull
	}

	a.InvokeHook(hooking.HookCtx{
		Domain: a,
		Pos:    HookPosTaskPlaced,
		Item:   TaskPlaced{TaskID: p.t.ID, Units: units},
	})

	for _, u := range p.updates {
		a.InvokeHook(hooking.HookCtx{
			Domain: a,
			Pos:    HookPosCrosstalk,
			Item:   u,
		})
	}
}

// exclude seals the committed units and their neighbourhood out of the swap
// graph, and takes the neighbourhood out of the pool.
func (a *Allocator) exclude(units []int) {
	sealed := []int{}

	for _, u := range units {
		for _, n := range a.dev.Neighborhood(u, a.hops) {
			a.pool.remove(n)
			sealed = append(sealed, n)
		}
	}

	a.model.Seal(sealed)
}
