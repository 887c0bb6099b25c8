// Package compiler turns a queue of tasks into programs, each of which runs
// several tasks on the device at the same time.
package compiler

import (
	"context"
	"fmt"
	"sync"

	"github.com/sarchlab/multiq/compose"
	"github.com/sarchlab/multiq/errs"
	"github.com/sarchlab/multiq/hooking"
	"github.com/sarchlab/multiq/idgen"
	"github.com/sarchlab/multiq/layout"
	"github.com/sarchlab/multiq/schedule"
	"github.com/sarchlab/multiq/task"
)

// HookPosProgramCompiled is triggered after a fill cycle is scheduled. The
// item is the Program.
var HookPosProgramCompiled = &hooking.HookPos{Name: "ProgramCompiled"}

// A Program is the result of one fill cycle.
type Program struct {
	ID         string
	TaskIDs    []string
	Composite  *task.Composite
	Assignment *layout.Assignment
	Schedule   *schedule.Schedule

	// Usage is the number of device units that the program occupies.
	Usage int
}

// Utilization returns the fraction of the device that the program occupies.
func (p Program) Utilization(numUnits int) float64 {
	if numUnits == 0 {
		return 0
	}

	return float64(p.Usage) / float64(numUnits)
}

// A Compiler runs fill cycles until every task is placed.
type Compiler struct {
	*hooking.HookableBase

	// lock is held while a fill cycle mutates the allocator or the composer.
	lock sync.Mutex

	name      string
	alloc     *layout.Allocator
	composer  compose.Composer
	scheduler *schedule.Scheduler
	sorted    bool
	gap       int
	idGen     idgen.IDGenerator
}

// Name returns the name of the compiler.
func (c *Compiler) Name() string {
	return c.name
}

// Allocator returns the allocator that places the tasks.
func (c *Compiler) Allocator() *layout.Allocator {
	return c.alloc
}

// Composer returns the composer that selects the tasks, or nil if tasks are
// drawn from the queue one at a time.
func (c *Compiler) Composer() compose.Composer {
	return c.composer
}

// Inspect runs f while no fill cycle is running, so that f can read the
// allocator and the composer. f must not call Compile.
func (c *Compiler) Inspect(f func()) {
	c.lock.Lock()
	defer c.lock.Unlock()

	f()
}

// Compile places all the tasks. The context is checked between fill
// cycles.
func (c *Compiler) Compile(
	ctx context.Context,
	queue []*task.Task,
) ([]Program, error) {
	err := c.checkCapacity(queue)
	if err != nil {
		return nil, err
	}

	c.lock.Lock()
	src, err := c.newSource(queue)
	c.lock.Unlock()

	if err != nil {
		return nil, err
	}

	programs := []Program{}

	for !c.drained(src) {
		if err := ctx.Err(); err != nil {
			return programs, err
		}

		c.lock.Lock()
		p, err := c.fill(src)
		c.lock.Unlock()

		if err != nil {
			return programs, err
		}

		programs = append(programs, p)
	}

	return programs, nil
}

func (c *Compiler) drained(src source) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	return src.empty()
}

func (c *Compiler) checkCapacity(queue []*task.Task) error {
	capacity := c.alloc.Device().NumUnits()

	for _, t := range queue {
		if t == nil {
			return errs.NewValidationError("task", "task is nil")
		}

		if t.NumUnits() > capacity {
			return &errs.CapacityError{
				TaskID:   t.ID,
				Need:     t.NumUnits(),
				Capacity: capacity,
			}
		}
	}

	return nil
}

func (c *Compiler) newSource(queue []*task.Task) (source, error) {
	if c.composer == nil {
		return newQueueSource(queue, c.sorted), nil
	}

	return newComposerSource(c.composer, queue, c.sorted)
}

func (c *Compiler) fill(src source) (Program, error) {
	c.alloc.Reset()

	var (
		comp     *task.Composite
		prevOps  int
		floaded  bool
		numTasks int
	)

	for !src.empty() && c.alloc.State() != layout.StateFull {
		t, err := src.next()
		if err != nil {
			return Program{}, err
		}

		numOps := t.NumTwoUnitOps()
		if numTasks > 0 && c.gap > 0 && numOps > prevOps+c.gap {
			src.requeue(t)
			break
		}

		comp, floaded, err = c.alloc.Run(t, comp)
		if err != nil {
			return Program{}, fmt.Errorf("placing task %s: %w", t.ID, err)
		}

		if floaded {
			src.requeue(c.alloc.Overflow())
			break
		}

		prevOps = numOps
		numTasks++
	}

	return c.finish(comp)
}

func (c *Compiler) finish(comp *task.Composite) (Program, error) {
	if comp == nil {
		comp = task.NewComposite()
	}

	sched, err := c.scheduler.Run(comp.PhysicalOps(), comp.PhysicalUnits())
	if err != nil {
		return Program{}, fmt.Errorf("scheduling: %w", err)
	}

	p := Program{
		ID:         c.idGen.Generate(),
		TaskIDs:    c.alloc.TaskIDs(),
		Composite:  comp,
		Assignment: c.alloc.Assignment().Copy(),
		Schedule:   sched,
		Usage:      comp.NumUnits(),
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosProgramCompiled,
		Item:   p,
	})

	return p, nil
}
