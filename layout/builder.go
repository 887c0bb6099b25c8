package layout

import (
	"github.com/sarchlab/multiq/crosstalk"
	"github.com/sarchlab/multiq/device"
	"github.com/sarchlab/multiq/hooking"
)

// A Builder can build allocators.
type Builder struct {
	dev    *device.Graph
	rules  crosstalk.Rules
	policy crosstalk.Policy
	hops   int
	split  bool
}

// MakeBuilder returns a Builder.
func MakeBuilder() Builder {
	return Builder{
		policy: crosstalk.MaxPolicy{},
	}
}

// WithDevice sets the device to place tasks on.
func (b Builder) WithDevice(d *device.Graph) Builder {
	b.dev = d
	return b
}

// WithCrosstalkRules sets the crosstalk ratios between links.
func (b Builder) WithCrosstalkRules(r crosstalk.Rules) Builder {
	b.rules = r
	return b
}

// WithCrosstalkPolicy sets how two directional crosstalk ratios combine.
func (b Builder) WithCrosstalkPolicy(p crosstalk.Policy) Builder {
	b.policy = p
	return b
}

// WithExclusionHops sets how far around a placed task the device is kept
// free. With 0 hops only the task's own units are taken.
func (b Builder) WithExclusionHops(n int) Builder {
	if n < 0 {
		panic("exclusion hops cannot be negative")
	}

	b.hops = n

	return b
}

// WithComponentSplit makes the allocator place the connected parts of a task
// one after another, largest first.
func (b Builder) WithComponentSplit(split bool) Builder {
	b.split = split
	return b
}

// Build creates an allocator.
func (b Builder) Build(name string) *Allocator {
	if b.dev == nil {
		panic("device is not set")
	}

	a := &Allocator{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		dev:          b.dev,
		rules:        b.rules,
		policy:       b.policy,
		hops:         b.hops,
		split:        b.split,
	}

	a.Reset()

	return a
}
