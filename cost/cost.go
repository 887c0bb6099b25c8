// Package cost provides the functions that score a group of tasks. Composers
// use them to compare candidate batches.
package cost

import (
	"github.com/sarchlab/multiq/errs"
	"github.com/sarchlab/multiq/task"
)

// A Function scores a group of tasks.
type Function interface {
	Cost(tasks []*task.Task) (float64, error)
}

// FunctionFunc adapts a plain function into a Function.
type FunctionFunc func(tasks []*task.Task) (float64, error)

// Cost calls f.
func (f FunctionFunc) Cost(tasks []*task.Task) (float64, error) {
	return f(tasks)
}

func validate(tasks []*task.Task) error {
	for i, t := range tasks {
		if t == nil {
			return errs.NewValidationError("tasks", "task %d is nil", i)
		}

		if t.NumUnits() <= 0 {
			return errs.NewValidationError("tasks",
				"task %s has no units", t.ID)
		}
	}

	return nil
}

// DepthWeighted scores tasks by depth times width.
type DepthWeighted struct{}

// NewDepthWeighted creates a DepthWeighted function.
func NewDepthWeighted() DepthWeighted {
	return DepthWeighted{}
}

// Cost sums depth times unit count over the tasks.
func (DepthWeighted) Cost(tasks []*task.Task) (float64, error) {
	err := validate(tasks)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, t := range tasks {
		total += float64(t.Depth() * t.NumUnits())
	}

	return total, nil
}

// OccupancyWeighted scores tasks by the share of the device they occupy.
type OccupancyWeighted struct {
	capacity int
}

// NewOccupancyWeighted creates an OccupancyWeighted function for a device with
// the given number of units.
func NewOccupancyWeighted(capacity int) OccupancyWeighted {
	if capacity <= 0 {
		panic("capacity must be positive")
	}

	return OccupancyWeighted{capacity: capacity}
}

// Cost returns the total unit count divided by the capacity.
func (f OccupancyWeighted) Cost(tasks []*task.Task) (float64, error) {
	err := validate(tasks)
	if err != nil {
		return 0, err
	}

	units := 0
	for _, t := range tasks {
		units += t.NumUnits()
	}

	return float64(units) / float64(f.capacity), nil
}

// A Term is one part of a Weighted function.
type Term struct {
	Weight   float64
	Function Function
}

// Weighted is a linear combination of functions.
type Weighted struct {
	terms []Term
}

// NewWeighted creates a Weighted function.
func NewWeighted(terms ...Term) Weighted {
	t := make([]Term, len(terms))
	copy(t, terms)

	return Weighted{terms: t}
}

// Cost returns the weighted sum of the terms.
func (f Weighted) Cost(tasks []*task.Task) (float64, error) {
	total := 0.0

	for _, term := range f.terms {
		c, err := term.Function.Cost(tasks)
		if err != nil {
			return 0, err
		}

		total += term.Weight * c
	}

	return total, nil
}
