package cost

import (
	"strings"

	"github.com/sarchlab/multiq/task"
)

// DurationConfig configures a DurationWeighted function.
type DurationConfig struct {
	// Durations maps operation kinds to their duration.
	Durations map[string]float64

	// OneUnitDefault and TwoUnitDefault are used for kinds missing from
	// Durations. Operations on more than two units use TwoUnitDefault.
	OneUnitDefault float64
	TwoUnitDefault float64
}

// DefaultDurationConfig returns durations in nanoseconds typical for
// superconducting devices.
func DefaultDurationConfig() DurationConfig {
	return DurationConfig{
		Durations: map[string]float64{
			"cx":      2000,
			"rz":      200,
			"sx":      200,
			"x":       200,
			"id":      200,
			"measure": 2000,
			"barrier": 0,
		},
		OneUnitDefault: 200,
		TwoUnitDefault: 2000,
	}
}

// DurationWeighted scores tasks by their total operation time.
type DurationWeighted struct {
	durations      map[string]float64
	oneUnitDefault float64
	twoUnitDefault float64
}

// NewDurationWeighted creates a DurationWeighted function.
func NewDurationWeighted(c DurationConfig) DurationWeighted {
	d := make(map[string]float64, len(c.Durations))
	for k, v := range c.Durations {
		d[strings.ToLower(k)] = v
	}

	return DurationWeighted{
		durations:      d,
		oneUnitDefault: c.OneUnitDefault,
		twoUnitDefault: c.TwoUnitDefault,
	}
}

// Cost sums the duration of every operation.
func (f DurationWeighted) Cost(tasks []*task.Task) (float64, error) {
	err := validate(tasks)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, t := range tasks {
		for _, op := range t.Ops() {
			total += f.duration(op)
		}
	}

	return total, nil
}

func (f DurationWeighted) duration(op task.Op) float64 {
	if d, ok := f.durations[op.Kind]; ok {
		return d
	}

	if len(op.Units) == 1 {
		return f.oneUnitDefault
	}

	return f.twoUnitDefault
}
