package schedule

import (
	"fmt"
	"sort"

	"github.com/sarchlab/multiq/task"
)

// KindIdle is the kind of padding slots.
const KindIdle = "idle"

// A Slot is a span of time on one unit.
type Slot struct {
	Kind     string
	Units    []int
	Start    float64
	Duration float64
	Idle     bool
}

// End returns the time that the slot finishes.
func (e Slot) End() float64 {
	return e.Start + e.Duration
}

// A Schedule is the timeline of a program.
type Schedule struct {
	Duration float64

	perUnit map[int][]Slot
	ops     []Slot
}

// Units returns the scheduled units in ascending order.
func (s *Schedule) Units() []int {
	units := make([]int, 0, len(s.perUnit))
	for u := range s.perUnit {
		units = append(units, u)
	}

	sort.Ints(units)

	return units
}

// Slots returns the time slots of a unit in time order, including idle
// padding.
func (s *Schedule) Slots(unit int) []Slot {
	entries := make([]Slot, len(s.perUnit[unit]))
	copy(entries, s.perUnit[unit])

	return entries
}

// Ops returns the scheduled operations in program order.
func (s *Schedule) Ops() []Slot {
	ops := make([]Slot, len(s.ops))
	copy(ops, s.ops)

	return ops
}

// BusyTime returns the time that a unit spends on operations.
func (s *Schedule) BusyTime(unit int) float64 {
	busy := 0.0
	for _, e := range s.perUnit[unit] {
		if !e.Idle {
			busy += e.Duration
		}
	}

	return busy
}

// A Scheduler schedules operations as late as possible.
type Scheduler struct {
	durations DurationTable
}

// NewScheduler creates a Scheduler.
func NewScheduler(durations DurationTable) *Scheduler {
	return &Scheduler{durations: durations}
}

// Run schedules the operations. Every unit in units is padded to the full
// program duration. If units is empty, the units that the operations use are
// scheduled.
func (s *Scheduler) Run(ops []task.Op, units []int) (*Schedule, error) {
	if len(units) == 0 {
		units = unitsOf(ops)
	}

	available := make(map[int]float64, len(units))
	slots := make(map[int][]Slot, len(units))

	for _, u := range units {
		available[u] = 0
		slots[u] = nil
	}

	opSlots := make([]Slot, len(ops))

	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]

		d, err := s.durations.Duration(op)
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}

		start := 0.0
		for _, u := range op.Units {
			t, ok := available[u]
			if !ok {
				panic(fmt.Sprintf("op %d uses unit %d, which is not scheduled", i, u))
			}

			if t > start {
				start = t
			}
		}

		for _, u := range op.Units {
			slots[u] = padTo(slots[u], available[u], start)
		}

		e := Slot{Kind: op.Kind, Units: op.Units, Start: start, Duration: d}
		for _, u := range op.Units {
			slots[u] = append(slots[u], e)
			available[u] = start + d
		}

		opSlots[i] = e
	}

	total := 0.0
	for _, t := range available {
		if t > total {
			total = t
		}
	}

	sched := &Schedule{
		Duration: total,
		perUnit:  make(map[int][]Slot, len(units)),
		ops:      make([]Slot, len(ops)),
	}

	for _, u := range units {
		unitSlots := padTo(slots[u], available[u], total)
		sched.perUnit[u] = forward(unitSlots, total)
	}

	for i, e := range opSlots {
		sched.ops[i] = toForward(e, total)
	}

	return sched, nil
}

// padTo appends an idle slot that covers from..until in reverse time.
func padTo(slots []Slot, from, until float64) []Slot {
	if from >= until {
		return slots
	}

	return append(slots, Slot{
		Kind:     KindIdle,
		Start:    from,
		Duration: until - from,
		Idle:     true,
	})
}

func forward(slots []Slot, total float64) []Slot {
	entries := make([]Slot, len(slots))
	for i, e := range slots {
		entries[len(slots)-1-i] = toForward(e, total)
	}

	return entries
}

func toForward(e Slot, total float64) Slot {
	units := make([]int, len(e.Units))
	copy(units, e.Units)

	e.Units = units
	e.Start = total - e.End()

	return e
}

func unitsOf(ops []task.Op) []int {
	seen := map[int]bool{}
	units := []int{}

	for _, op := range ops {
		for _, u := range op.Units {
			if !seen[u] {
				seen[u] = true
				units = append(units, u)
			}
		}
	}

	sort.Ints(units)

	return units
}
