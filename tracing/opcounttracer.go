package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/multiq/compiler"
)

// OpCountTracer counts the operations of each kind, and the programs that
// contain each kind.
type OpCountTracer struct {
	filter           OpFilter
	lock             sync.Mutex
	opCount          map[string]uint64
	programWithCount map[string]uint64
}

// NewOpCountTracer creates a new OpCountTracer.
func NewOpCountTracer(filter OpFilter) *OpCountTracer {
	return &OpCountTracer{
		filter:           filter,
		opCount:          make(map[string]uint64),
		programWithCount: make(map[string]uint64),
	}
}

// Kinds returns the operation kinds collected, sorted.
func (t *OpCountTracer) Kinds() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	kinds := make([]string, 0, len(t.opCount))
	for k := range t.opCount {
		kinds = append(kinds, k)
	}

	sort.Strings(kinds)

	return kinds
}

// OpCount returns the number of operations of a kind.
func (t *OpCountTracer) OpCount(kind string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.opCount[kind]
}

// ProgramCount returns the number of programs that contain a kind.
func (t *OpCountTracer) ProgramCount(kind string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.programWithCount[kind]
}

// TraceProgram counts the operations of a program.
func (t *OpCountTracer) TraceProgram(p compiler.Program) {
	t.lock.Lock()
	defer t.lock.Unlock()

	seen := map[string]bool{}

	for _, e := range p.Schedule.Ops() {
		if !accept(t.filter, e) {
			continue
		}

		t.opCount[e.Kind]++

		if !seen[e.Kind] {
			seen[e.Kind] = true
			t.programWithCount[e.Kind]++
		}
	}
}
