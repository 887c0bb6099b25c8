// Package schedule assigns start times to the operations of a placed program.
package schedule

import (
	"fmt"
	"strings"

	"github.com/sarchlab/multiq/errs"
	"github.com/sarchlab/multiq/task"
)

// A DurationTable tells how long an operation takes.
type DurationTable interface {
	Duration(op task.Op) (float64, error)
}

// InstructionDurations is a DurationTable with per-kind durations that can be
// overridden for specific units. Kinds are matched regardless of case.
type InstructionDurations struct {
	byKind  map[string]float64
	byOp    map[string]float64
	byArity map[int]float64
}

// NewInstructionDurations creates an empty table.
func NewInstructionDurations() *InstructionDurations {
	return &InstructionDurations{
		byKind:  map[string]float64{},
		byOp:    map[string]float64{},
		byArity: map[int]float64{},
	}
}

// DefaultDurations returns the durations of a typical superconducting
// device, in nanoseconds.
func DefaultDurations() *InstructionDurations {
	d := DurationsFromMap(map[string]float64{
		"cx":      2000,
		"rz":      200,
		"sx":      200,
		"x":       200,
		"id":      200,
		"measure": 2000,
		"barrier": 0,
	})

	d.SetDefault(1, 200)
	d.SetDefault(2, 2000)

	return d
}

// DurationsFromMap creates a table from per-kind durations.
func DurationsFromMap(m map[string]float64) *InstructionDurations {
	d := NewInstructionDurations()
	for k, v := range m {
		d.Set(k, v)
	}

	return d
}

// Set sets the duration of every operation of a kind.
func (d *InstructionDurations) Set(kind string, duration float64) *InstructionDurations {
	d.mustBeNonNegative(duration)
	d.byKind[strings.ToLower(kind)] = duration

	return d
}

// SetFor sets the duration of a kind on specific units. It takes precedence
// over Set.
func (d *InstructionDurations) SetFor(
	kind string,
	units []int,
	duration float64,
) *InstructionDurations {
	d.mustBeNonNegative(duration)
	d.byOp[opKey(kind, units)] = duration

	return d
}

// SetDefault sets the duration of operations on the given number of units
// whose kind has no entry.
func (d *InstructionDurations) SetDefault(numUnits int, duration float64) *InstructionDurations {
	d.mustBeNonNegative(duration)
	d.byArity[numUnits] = duration

	return d
}

// Duration returns the duration of an operation.
func (d *InstructionDurations) Duration(op task.Op) (float64, error) {
	if v, ok := d.byOp[opKey(op.Kind, op.Units)]; ok {
		return v, nil
	}

	if v, ok := d.byKind[strings.ToLower(op.Kind)]; ok {
		return v, nil
	}

	if v, ok := d.byArity[len(op.Units)]; ok {
		return v, nil
	}

	return 0, errs.NewValidationError("durations",
		"no duration for %q on units %v", op.Kind, op.Units)
}

func (d *InstructionDurations) mustBeNonNegative(v float64) {
	if v < 0 {
		panic("duration cannot be negative")
	}
}

func opKey(kind string, units []int) string {
	b := strings.Builder{}
	b.WriteString(strings.ToLower(kind))

	for _, u := range units {
		fmt.Fprintf(&b, ",%d", u)
	}

	return b.String()
}
