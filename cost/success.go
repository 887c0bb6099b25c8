package cost

import (
	"sort"
	"strings"

	"github.com/sarchlab/multiq/errs"
	"github.com/sarchlab/multiq/task"
)

// SuccessConfig configures a SuccessEstimate function.
type SuccessConfig struct {
	// ErrorRates maps operation kinds to their error rate.
	ErrorRates map[string]float64

	// NoCost lists kinds that never contribute to the error, such as
	// barriers.
	NoCost []string
}

// DefaultSuccessConfig returns the error rates of a typical u3/cx device.
func DefaultSuccessConfig() SuccessConfig {
	return SuccessConfig{
		ErrorRates: map[string]float64{
			"u3": 1e-4,
			"cx": 1e-3,
			"id": 0,
		},
		NoCost: []string{task.KindBarrier, task.KindMeasure},
	}
}

// SuccessEstimate approximates how likely a task is to run without error.
type SuccessEstimate struct {
	rates  map[string]float64
	noCost map[string]bool
}

// NewSuccessEstimate creates a SuccessEstimate function.
func NewSuccessEstimate(c SuccessConfig) SuccessEstimate {
	f := SuccessEstimate{
		rates:  make(map[string]float64, len(c.ErrorRates)),
		noCost: make(map[string]bool, len(c.NoCost)),
	}

	for k, v := range c.ErrorRates {
		f.rates[strings.ToLower(k)] = v
	}

	for _, k := range c.NoCost {
		f.noCost[k] = true
	}

	return f
}

// Cost returns the sum over tasks of one minus the accumulated error.
func (f SuccessEstimate) Cost(tasks []*task.Task) (float64, error) {
	err := validate(tasks)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, t := range tasks {
		e, err := f.taskError(t)
		if err != nil {
			return 0, err
		}

		total += 1 - e
	}

	return total, nil
}

func (f SuccessEstimate) taskError(t *task.Task) (float64, error) {
	counts := t.CountOps()

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}

	sort.Strings(kinds)

	e := 0.0
	for _, k := range kinds {
		if f.noCost[k] {
			continue
		}

		rate, ok := f.rates[k]
		if !ok {
			return 0, errs.NewValidationError("error_rates",
				"no error rate for %q used by task %s", k, t.ID)
		}

		e += rate * float64(counts[k])
	}

	return e, nil
}
