package compiler

import (
	"github.com/sarchlab/multiq/compose"
	"github.com/sarchlab/multiq/hooking"
	"github.com/sarchlab/multiq/idgen"
	"github.com/sarchlab/multiq/layout"
	"github.com/sarchlab/multiq/schedule"
)

// DefaultInteractionGap is the default largest increase of two-unit
// operation count between consecutive tasks of a fill cycle.
const DefaultInteractionGap = 10

// A Builder can build compilers.
type Builder struct {
	alloc     *layout.Allocator
	composer  compose.Composer
	durations schedule.DurationTable
	sorted    bool
	gap       int
	idGen     idgen.IDGenerator
}

// MakeBuilder returns a Builder.
func MakeBuilder() Builder {
	return Builder{
		sorted: true,
		gap:    DefaultInteractionGap,
	}
}

// WithAllocator sets the allocator that places the tasks.
func (b Builder) WithAllocator(a *layout.Allocator) Builder {
	b.alloc = a
	return b
}

// WithComposer sets the composer that selects the tasks. Without one, tasks
// are drawn from the queue one at a time.
func (b Builder) WithComposer(c compose.Composer) Builder {
	b.composer = c
	return b
}

// WithDurations sets the durations used to schedule the programs.
func (b Builder) WithDurations(d schedule.DurationTable) Builder {
	b.durations = d
	return b
}

// WithSortByInteractions sets whether the queue is ordered by the number of
// two-unit operations, fewest first.
func (b Builder) WithSortByInteractions(sorted bool) Builder {
	b.sorted = sorted
	return b
}

// WithInteractionGap sets the largest increase of two-unit operation count
// between consecutive tasks of a fill cycle. Zero disables the check.
func (b Builder) WithInteractionGap(gap int) Builder {
	if gap < 0 {
		panic("interaction gap cannot be negative")
	}

	b.gap = gap

	return b
}

// WithIDGenerator sets the generator of program IDs.
func (b Builder) WithIDGenerator(g idgen.IDGenerator) Builder {
	b.idGen = g
	return b
}

// Build creates a compiler.
func (b Builder) Build(name string) *Compiler {
	if b.alloc == nil {
		panic("allocator is not set")
	}

	durations := b.durations
	if durations == nil {
		durations = schedule.DefaultDurations()
	}

	gen := b.idGen
	if gen == nil {
		gen = idgen.NewSequential()
	}

	return &Compiler{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		alloc:        b.alloc,
		composer:     b.composer,
		scheduler:    schedule.NewScheduler(durations),
		sorted:       b.sorted,
		gap:          b.gap,
		idGen:        gen,
	}
}
