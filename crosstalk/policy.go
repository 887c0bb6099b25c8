package crosstalk

import (
	"fmt"
	"math"
)

// A Policy combines the two directional ratios measured between a pair of
// links. The backward ratio is only meaningful if hasBackward is true.
type Policy interface {
	Combine(forward, backward float64, hasBackward bool) float64
}

// MaxPolicy takes the larger of the two ratios.
type MaxPolicy struct{}

// Combine returns the larger ratio.
func (MaxPolicy) Combine(forward, backward float64, hasBackward bool) float64 {
	if !hasBackward {
		return forward
	}

	return math.Max(forward, backward)
}

// MeanPolicy averages the two ratios.
type MeanPolicy struct{}

// Combine returns the mean ratio.
func (MeanPolicy) Combine(forward, backward float64, hasBackward bool) float64 {
	if !hasBackward {
		return forward
	}

	return (forward + backward) / 2
}

// CompoundPolicy multiplies the two ratios.
type CompoundPolicy struct{}

// Combine returns the product of the ratios.
func (CompoundPolicy) Combine(forward, backward float64, hasBackward bool) float64 {
	if !hasBackward {
		return forward
	}

	return forward * backward
}

// PolicyByName returns the policy called max, mean, or compound.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "max":
		return MaxPolicy{}, nil
	case "mean":
		return MeanPolicy{}, nil
	case "compound":
		return CompoundPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown crosstalk policy %q", name)
	}
}
