package compose

import (
	"sort"

	"github.com/sarchlab/multiq/cost"
	"github.com/sarchlab/multiq/task"
)

// Exhaustive searches every ordered subset of the queue that starts with the
// queue head. It prefers the largest group and, among groups of the same
// size, the cheapest one.
type Exhaustive struct {
	composerBase

	threshold float64
	costFunc  cost.Function
	window    int
}

type dfsFrame struct {
	group []int
	next  int
}

type candidate struct {
	group []int
	cost  float64
}

// Compose emits the next batch.
func (c *Exhaustive) Compose() (Batch, bool, error) {
	if len(c.queue) == 0 {
		return Batch{}, false, nil
	}

	candidates, err := c.search()
	if err != nil {
		return Batch{}, false, err
	}

	best, found := c.pick(candidates)
	if !found {
		return c.emit(c, c.single()), true, nil
	}

	b := Batch{
		Tasks:    c.removeIndices(best.group),
		Cost:     best.cost,
		Accepted: true,
	}

	return c.emit(c, b), true, nil
}

func (c *Exhaustive) searchLimit() int {
	if c.window > 0 && c.window < len(c.queue) {
		return c.window
	}

	return len(c.queue)
}

func (c *Exhaustive) search() ([]candidate, error) {
	limit := c.searchLimit()
	candidates := []candidate{}
	stack := []dfsFrame{{group: []int{0}, next: 1}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		closed, cand, err := c.visit(f, limit)
		if err != nil {
			return nil, err
		}

		if closed {
			candidates = append(candidates, cand)
			continue
		}

		include := make([]int, len(f.group), len(f.group)+1)
		copy(include, f.group)
		include = append(include, f.next)

		stack = append(stack,
			dfsFrame{group: f.group, next: f.next + 1},
			dfsFrame{group: include, next: f.next + 1},
		)
	}

	return candidates, nil
}

// visit checks whether the frame closes its branch. A branch closes when the
// group reaches the capacity or the threshold, in which case the last task
// added is dropped from the recorded candidate. A branch that runs out of
// tasks records the whole group.
func (c *Exhaustive) visit(f dfsFrame, limit int) (bool, candidate, error) {
	tasks := c.tasksOf(f.group)

	units := 0
	for _, t := range tasks {
		units += t.NumUnits()
	}

	groupCost, err := c.costFunc.Cost(tasks)
	if err != nil {
		return false, candidate{}, err
	}

	violated := units >= c.capacity || groupCost >= c.threshold
	if !violated && f.next < limit {
		return false, candidate{}, nil
	}

	if !violated {
		return true, candidate{group: f.group, cost: groupCost}, nil
	}

	reduced := f.group[:len(f.group)-1]
	if len(reduced) <= 1 {
		return true, candidate{group: reduced}, nil
	}

	reducedCost, err := c.costFunc.Cost(c.tasksOf(reduced))
	if err != nil {
		return false, candidate{}, err
	}

	return true, candidate{group: reduced, cost: reducedCost}, nil
}

func (c *Exhaustive) tasksOf(group []int) []*task.Task {
	tasks := make([]*task.Task, len(group))
	for i, index := range group {
		tasks[i] = c.queue[index]
	}

	return tasks
}

func (c *Exhaustive) pick(candidates []candidate) (candidate, bool) {
	sort.SliceStable(candidates, func(i, j int) bool {
		li, lj := len(candidates[i].group), len(candidates[j].group)
		if li != lj {
			return li > lj
		}

		return 1/(candidates[i].cost+1e-6) > 1/(candidates[j].cost+1e-6)
	})

	for _, cand := range candidates {
		if len(cand.group) > 1 {
			return cand, true
		}
	}

	return candidate{}, false
}
