// Package errs defines the error kinds reported by the placement library.
//
// Overflow is not an error. Components report it through a return flag and
// the overflowed task is handed back to the caller.
package errs

import "fmt"

// A ValidationError reports malformed input, such as an operation that
// references a unit outside of its task or a missing cost table entry.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}

	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// A CapacityError reports a task that can never fit on the device.
type CapacityError struct {
	TaskID   string
	Need     int
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf(
		"capacity: task %s needs %d units, device has %d",
		e.TaskID, e.Need, e.Capacity)
}

// A PlacementError reports that no physical unit or link can host a task on
// a fresh allocation.
type PlacementError struct {
	TaskID string
	Reason string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("placement: task %s: %s", e.TaskID, e.Reason)
}
