package tracing

import (
	"sync"

	"github.com/sarchlab/multiq/compiler"
)

// TotalTimeTracer collects the total time of executing a kind of operation.
// If two operations overlap, this tracer simply adds the two durations
// together.
type TotalTimeTracer struct {
	filter    OpFilter
	lock      sync.Mutex
	totalTime float64
}

// NewTotalTimeTracer creates a new TotalTimeTracer.
func NewTotalTimeTracer(filter OpFilter) *TotalTimeTracer {
	return &TotalTimeTracer{filter: filter}
}

// TotalTime returns the total time that has been spent on the operations.
func (t *TotalTimeTracer) TotalTime() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totalTime
}

// TraceProgram adds the operation time of a program.
func (t *TotalTimeTracer) TraceProgram(p compiler.Program) {
	total := 0.0

	for _, e := range p.Schedule.Ops() {
		if accept(t.filter, e) {
			total += e.Duration
		}
	}

	t.lock.Lock()
	t.totalTime += total
	t.lock.Unlock()
}
