// Package tracing collects statistics of the programs that a compiler
// produces.
package tracing

import (
	"github.com/sarchlab/multiq/compiler"
	"github.com/sarchlab/multiq/hooking"
	"github.com/sarchlab/multiq/schedule"
)

// A Tracer is notified of every compiled program.
type Tracer interface {
	TraceProgram(p compiler.Program)
}

// An OpFilter selects the scheduled operations that a tracer counts.
type OpFilter func(e schedule.Slot) bool

// KindFilter selects the operations of the given kinds.
func KindFilter(kinds ...string) OpFilter {
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}

	return func(e schedule.Slot) bool {
		return set[e.Kind]
	}
}

func accept(filter OpFilter, e schedule.Slot) bool {
	return filter == nil || filter(e)
}

// A Hook forwards the programs that a compiler emits to tracers.
type Hook struct {
	tracers []Tracer
}

// NewHook creates a Hook.
func NewHook(tracers ...Tracer) *Hook {
	return &Hook{tracers: tracers}
}

// CollectTrace lets the compiler report programs to the tracer.
func CollectTrace(c *compiler.Compiler, tracers ...Tracer) {
	c.AcceptHook(NewHook(tracers...))
}

// Func forwards compiled programs.
func (h *Hook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != compiler.HookPosProgramCompiled {
		return
	}

	p := ctx.Item.(compiler.Program)
	for _, t := range h.tracers {
		t.TraceProgram(p)
	}
}
