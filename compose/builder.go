package compose

import (
	"fmt"

	"github.com/sarchlab/multiq/cost"
	"github.com/sarchlab/multiq/idgen"
	"github.com/sarchlab/multiq/task"
)

// Kind names a composer variant.
type Kind string

// The composer variants.
const (
	KindExhaustive Kind = "exhaustive"
	KindKnapsack   Kind = "knapsack"
	KindGreedy     Kind = "greedy"
)

// A Builder can build composers.
type Builder struct {
	capacity  int
	threshold float64
	costFunc  cost.Function
	valueFunc cost.Function
	window    int
	idGen     idgen.IDGenerator
	tasks     []*task.Task
}

// MakeBuilder returns a Builder.
func MakeBuilder() Builder {
	return Builder{
		threshold: 1e9,
		costFunc:  cost.NewDepthWeighted(),
		valueFunc: cost.NewSuccessEstimate(cost.DefaultSuccessConfig()),
	}
}

// WithCapacity sets the number of units on the device.
func (b Builder) WithCapacity(w int) Builder {
	b.capacity = w
	return b
}

// WithThreshold sets the cost at which the exhaustive search stops growing a
// group.
func (b Builder) WithThreshold(tau float64) Builder {
	b.threshold = tau
	return b
}

// WithCostFunction sets the function that the exhaustive search scores
// groups with.
func (b Builder) WithCostFunction(f cost.Function) Builder {
	b.costFunc = f
	return b
}

// WithValueFunction sets the function that values a single task in the
// knapsack composer.
func (b Builder) WithValueFunction(f cost.Function) Builder {
	b.valueFunc = f
	return b
}

// WithMaxQueueWindow limits the exhaustive search to the first n queued
// tasks. Zero means no limit.
func (b Builder) WithMaxQueueWindow(n int) Builder {
	b.window = n
	return b
}

// WithIDGenerator sets the generator of batch IDs.
func (b Builder) WithIDGenerator(g idgen.IDGenerator) Builder {
	b.idGen = g
	return b
}

// WithTasks sets the initial queue.
func (b Builder) WithTasks(tasks []*task.Task) Builder {
	b.tasks = tasks
	return b
}

// BuildExhaustive creates an Exhaustive composer.
func (b Builder) BuildExhaustive(name string) (*Exhaustive, error) {
	c := &Exhaustive{
		composerBase: newComposerBase(name, b.capacity, b.idGen),
		threshold:    b.threshold,
		costFunc:     b.costFunc,
		window:       b.window,
	}

	err := b.fill(&c.composerBase)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// BuildKnapsack creates a Knapsack composer.
func (b Builder) BuildKnapsack(name string) (*Knapsack, error) {
	c := &Knapsack{
		composerBase: newComposerBase(name, b.capacity, b.idGen),
		valueFunc:    b.valueFunc,
	}

	err := b.fill(&c.composerBase)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// BuildGreedy creates a Greedy composer.
func (b Builder) BuildGreedy(name string) (*Greedy, error) {
	c := &Greedy{
		composerBase: newComposerBase(name, b.capacity, b.idGen),
	}

	err := b.fill(&c.composerBase)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Build creates a composer of the given kind.
func (b Builder) Build(kind Kind, name string) (Composer, error) {
	var (
		c   Composer
		err error
	)

	switch kind {
	case KindExhaustive:
		c, err = b.BuildExhaustive(name)
	case KindKnapsack:
		c, err = b.BuildKnapsack(name)
	case KindGreedy:
		c, err = b.BuildGreedy(name)
	default:
		return nil, fmt.Errorf("unknown composer kind %q", kind)
	}

	if err != nil {
		return nil, err
	}

	return c, nil
}

func (b Builder) fill(c *composerBase) error {
	for _, t := range b.tasks {
		err := c.Push(t)
		if err != nil {
			return err
		}
	}

	return nil
}
