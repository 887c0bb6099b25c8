// Package compose decides which queued tasks are placed on the device
// together.
package compose

import (
	"github.com/sarchlab/multiq/errs"
	"github.com/sarchlab/multiq/hooking"
	"github.com/sarchlab/multiq/idgen"
	"github.com/sarchlab/multiq/task"
)

// HookPosBatchComposed is triggered after a composer emits a batch. The item
// is the Batch.
var HookPosBatchComposed = &hooking.HookPos{Name: "BatchComposed"}

// A Batch is a group of tasks selected to share the device.
type Batch struct {
	ID    string
	Tasks []*task.Task
	Cost  float64

	// Accepted is true if the batch was selected by the composer's policy,
	// and false if the composer fell back to emitting a single task.
	Accepted bool
}

// NumUnits returns the total number of virtual units of the batch.
func (b Batch) NumUnits() int {
	n := 0
	for _, t := range b.Tasks {
		n += t.NumUnits()
	}

	return n
}

// TaskIDs returns the IDs of the tasks in the batch.
func (b Batch) TaskIDs() []string {
	ids := make([]string, len(b.Tasks))
	for i, t := range b.Tasks {
		ids[i] = t.ID
	}

	return ids
}

// A Composer turns a queue of tasks into batches.
type Composer interface {
	hooking.NamedHookable

	// Push appends a task to the end of the queue.
	Push(t *task.Task) error

	// Len returns the number of queued tasks.
	Len() int

	// Compose removes the next batch from the queue. The bool is false if
	// the queue is empty.
	Compose() (Batch, bool, error)
}

type composerBase struct {
	*hooking.HookableBase

	name     string
	capacity int
	queue    []*task.Task
	idGen    idgen.IDGenerator
}

func newComposerBase(name string, capacity int, gen idgen.IDGenerator) composerBase {
	if capacity <= 0 {
		panic("capacity must be positive")
	}

	if gen == nil {
		gen = idgen.NewSequential()
	}

	return composerBase{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		capacity:     capacity,
		idGen:        gen,
	}
}

func (c *composerBase) Name() string {
	return c.name
}

func (c *composerBase) Len() int {
	return len(c.queue)
}

func (c *composerBase) Push(t *task.Task) error {
	if t == nil {
		return errs.NewValidationError("task", "task is nil")
	}

	if t.NumUnits() > c.capacity {
		return &errs.CapacityError{
			TaskID:   t.ID,
			Need:     t.NumUnits(),
			Capacity: c.capacity,
		}
	}

	c.queue = append(c.queue, t)

	return nil
}

// removeIndices removes the given ascending queue indices. Each removal
// shifts the later entries, so the i-th index is corrected by i.
func (c *composerBase) removeIndices(indices []int) []*task.Task {
	removed := make([]*task.Task, 0, len(indices))

	for i, index := range indices {
		corrected := index - i
		removed = append(removed, c.queue[corrected])
		c.queue = append(c.queue[:corrected], c.queue[corrected+1:]...)
	}

	return removed
}

func (c *composerBase) popFront() *task.Task {
	t := c.queue[0]
	c.queue = c.queue[1:]

	return t
}

func (c *composerBase) emit(domain hooking.Hookable, b Batch) Batch {
	b.ID = c.idGen.Generate()

	c.InvokeHook(hooking.HookCtx{
		Domain: domain,
		Pos:    HookPosBatchComposed,
		Item:   b,
	})

	return b
}

func (c *composerBase) single() Batch {
	return Batch{
		Tasks: []*task.Task{c.popFront()},
	}
}
