package tracing

import (
	"sync"

	"github.com/sarchlab/multiq/compiler"
)

// A ProgramSummary describes how well a program uses the device.
type ProgramSummary struct {
	ProgramID string
	NumTasks  int
	Usage     int
	Duration  float64

	// Utilization is the fraction of the device's units that the program
	// occupies.
	Utilization float64

	// Activity is the fraction of unit time, over the occupied units, that is
	// spent on operations instead of idling.
	Activity float64
}

// UtilizationTracer summarizes every program.
type UtilizationTracer struct {
	numUnits  int
	lock      sync.Mutex
	summaries []ProgramSummary
}

// NewUtilizationTracer creates a tracer for a device with the given number
// of units.
func NewUtilizationTracer(numUnits int) *UtilizationTracer {
	if numUnits <= 0 {
		panic("number of units must be positive")
	}

	return &UtilizationTracer{numUnits: numUnits}
}

// TraceProgram records the summary of a program.
func (t *UtilizationTracer) TraceProgram(p compiler.Program) {
	s := ProgramSummary{
		ProgramID:   p.ID,
		NumTasks:    len(p.TaskIDs),
		Usage:       p.Usage,
		Duration:    p.Schedule.Duration,
		Utilization: p.Utilization(t.numUnits),
	}

	units := p.Schedule.Units()
	if len(units) > 0 && s.Duration > 0 {
		busy := 0.0
		for _, u := range units {
			busy += p.Schedule.BusyTime(u)
		}

		s.Activity = busy / (s.Duration * float64(len(units)))
	}

	t.lock.Lock()
	t.summaries = append(t.summaries, s)
	t.lock.Unlock()
}

// Summaries returns the summaries in the order that the programs were
// compiled.
func (t *UtilizationTracer) Summaries() []ProgramSummary {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]ProgramSummary(nil), t.summaries...)
}

// AverageUtilization returns the mean utilization over all programs.
func (t *UtilizationTracer) AverageUtilization() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.summaries) == 0 {
		return 0
	}

	sum := 0.0
	for _, s := range t.summaries {
		sum += s.Utilization
	}

	return sum / float64(len(t.summaries))
}
