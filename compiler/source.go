package compiler

import (
	"sort"

	"github.com/sarchlab/multiq/compose"
	"github.com/sarchlab/multiq/task"
)

// A source hands out the tasks that are still waiting for a fill cycle.
type source interface {
	next() (*task.Task, error)
	requeue(t *task.Task)
	empty() bool
}

type queueSource struct {
	queue  []*task.Task
	sorted bool
}

func newQueueSource(tasks []*task.Task, sorted bool) *queueSource {
	s := &queueSource{
		queue:  append([]*task.Task(nil), tasks...),
		sorted: sorted,
	}

	if sorted {
		sort.SliceStable(s.queue, func(i, j int) bool {
			return s.queue[i].NumTwoUnitOps() < s.queue[j].NumTwoUnitOps()
		})
	}

	return s
}

func (s *queueSource) next() (*task.Task, error) {
	t := s.queue[0]
	s.queue = s.queue[1:]

	return t, nil
}

// requeue puts a task back. A sorted queue keeps its order, and the task
// goes before the tasks with the same interaction count.
func (s *queueSource) requeue(t *task.Task) {
	pos := 0
	if s.sorted {
		pos = sort.Search(len(s.queue), func(i int) bool {
			return s.queue[i].NumTwoUnitOps() >= t.NumTwoUnitOps()
		})
	}

	s.queue = append(s.queue, nil)
	copy(s.queue[pos+1:], s.queue[pos:])
	s.queue[pos] = t
}

func (s *queueSource) empty() bool {
	return len(s.queue) == 0
}

// composerSource draws tasks batch by batch. Requeued tasks are handed out
// again before the next batch is composed.
type composerSource struct {
	composer compose.Composer
	carry    []*task.Task
}

func newComposerSource(
	c compose.Composer,
	tasks []*task.Task,
	sorted bool,
) (*composerSource, error) {
	ordered := newQueueSource(tasks, sorted).queue
	for _, t := range ordered {
		err := c.Push(t)
		if err != nil {
			return nil, err
		}
	}

	return &composerSource{composer: c}, nil
}

func (s *composerSource) next() (*task.Task, error) {
	if len(s.carry) == 0 {
		b, ok, err := s.composer.Compose()
		if err != nil {
			return nil, err
		}

		if !ok {
			panic("composer is empty")
		}

		s.carry = append(s.carry, b.Tasks...)
	}

	t := s.carry[0]
	s.carry = s.carry[1:]

	return t, nil
}

func (s *composerSource) requeue(t *task.Task) {
	s.carry = append([]*task.Task{t}, s.carry...)
}

func (s *composerSource) empty() bool {
	return len(s.carry) == 0 && s.composer.Len() == 0
}
