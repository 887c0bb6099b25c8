package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/multiq/compiler"
)

type interval struct {
	start, end float64
}

// BusyTimeTracer traces the time that the device spends on a kind of
// operation. Programs run one after another. If operations overlap in time,
// the overlapped time is counted once.
type BusyTimeTracer struct {
	filter   OpFilter
	lock     sync.Mutex
	elapsed  float64
	busyTime float64
}

// NewBusyTimeTracer creates a new BusyTimeTracer. A nil filter counts every
// operation.
func NewBusyTimeTracer(filter OpFilter) *BusyTimeTracer {
	return &BusyTimeTracer{filter: filter}
}

// BusyTime returns the total time that has been spent on the operations.
func (t *BusyTimeTracer) BusyTime() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.busyTime
}

// Elapsed returns the total duration of the traced programs.
func (t *BusyTimeTracer) Elapsed() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.elapsed
}

// TraceProgram adds the busy time of a program.
func (t *BusyTimeTracer) TraceProgram(p compiler.Program) {
	intervals := []interval{}

	for _, e := range p.Schedule.Ops() {
		if e.Duration == 0 || !accept(t.filter, e) {
			continue
		}

		intervals = append(intervals, interval{start: e.Start, end: e.End()})
	}

	busy := mergedLength(intervals)

	t.lock.Lock()
	t.busyTime += busy
	t.elapsed += p.Schedule.Duration
	t.lock.Unlock()
}

func mergedLength(intervals []interval) float64 {
	if len(intervals) == 0 {
		return 0
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].start < intervals[j].start
	})

	total := 0.0
	ext := intervals[0]

	for _, iv := range intervals[1:] {
		if iv.start <= ext.end {
			if iv.end > ext.end {
				ext.end = iv.end
			}

			continue
		}

		total += ext.end - ext.start
		ext = iv
	}

	return total + ext.end - ext.start
}
