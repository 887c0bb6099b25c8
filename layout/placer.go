package layout

import (
	"fmt"

	"github.com/sarchlab/multiq/crosstalk"
	"github.com/sarchlab/multiq/device"
	"github.com/sarchlab/multiq/errs"
	"github.com/sarchlab/multiq/task"
)

// placer holds the working state of one task placement. It works on copies
// of the allocator state so that a failed placement leaves nothing behind.
type placer struct {
	dev       *device.Graph
	t         *task.Task
	split     bool
	model     *crosstalk.Model
	pool      unitPool
	prog2hw   map[int]int
	neighbors map[int][]int
	updates   []crosstalk.Update
}

func (a *Allocator) newPlacer(t *task.Task) *placer {
	p := &placer{
		dev:       a.dev,
		t:         t,
		split:     a.split,
		model:     a.model.Clone(),
		pool:      a.pool.clone(),
		prog2hw:   map[int]int{},
		neighbors: map[int][]int{},
	}

	for _, l := range t.VirtualLinks() {
		p.neighbors[l.A] = append(p.neighbors[l.A], l.B)
		p.neighbors[l.B] = append(p.neighbors[l.B], l.A)
	}

	return p
}

func (p *placer) place() error {
	for _, links := range p.linkGroups() {
		err := p.placeLinks(links)
		if err != nil {
			return err
		}
	}

	for v := 0; v < p.t.NumUnits(); v++ {
		if _, ok := p.prog2hw[v]; ok {
			continue
		}

		if p.pool.len() == 0 {
			return p.fail("no unit left for virtual unit %d", v)
		}

		p.mapUnit(v, p.pool.units[0])
	}

	return nil
}

func (p *placer) linkGroups() [][]task.VirtualLink {
	if !p.split {
		return [][]task.VirtualLink{p.t.VirtualLinks()}
	}

	groups := [][]task.VirtualLink{}
	for _, c := range p.t.Components() {
		groups = append(groups, c.Links)
	}

	return groups
}

func (p *placer) placeLinks(pending []task.VirtualLink) error {
	for len(pending) > 0 {
		l := p.selectNext(pending)

		_, mappedA := p.prog2hw[l.A]
		_, mappedB := p.prog2hw[l.B]

		var err error

		switch {
		case !mappedA && !mappedB:
			err = p.placeBoth(l)
		case !mappedA:
			err = p.placeOne(l.A, l.B)
		default:
			err = p.placeOne(l.B, l.A)
		}

		if err != nil {
			return err
		}

		pending = p.unplaced(pending)
	}

	return nil
}

// selectNext prefers a link with one endpoint already placed, so that the
// placement grows from what has been placed.
func (p *placer) selectNext(pending []task.VirtualLink) task.VirtualLink {
	for _, l := range pending {
		_, mappedA := p.prog2hw[l.A]
		_, mappedB := p.prog2hw[l.B]

		if mappedA || mappedB {
			return l
		}
	}

	return pending[0]
}

func (p *placer) unplaced(links []task.VirtualLink) []task.VirtualLink {
	left := links[:0:0]

	for _, l := range links {
		_, mappedA := p.prog2hw[l.A]
		_, mappedB := p.prog2hw[l.B]

		if !(mappedA && mappedB) {
			left = append(left, l)
		}
	}

	return left
}

func (p *placer) placeBoth(l task.VirtualLink) error {
	best, found := p.bestLink()
	if !found {
		return p.fail("no free link for virtual link (%d, %d)", l.A, l.B)
	}

	p.mapUnit(l.A, best.A)
	p.mapUnit(l.B, best.B)
	p.consume(best)

	return nil
}

func (p *placer) placeOne(v, mappedNeighbor int) error {
	h, found := p.bestUnit(v)
	if !found {
		return p.fail("no free unit near virtual unit %d", v)
	}

	p.mapUnit(v, h)
	p.consume(device.MakeLinkKey(p.prog2hw[mappedNeighbor], h))

	return nil
}

// bestLink returns the free link with the highest combined reliability of the
// link and both readouts.
func (p *placer) bestLink() (device.LinkKey, bool) {
	best := 0.0
	bestKey := device.LinkKey{}
	found := false

	for _, l := range p.dev.Links() {
		if !p.pool.has(l.Key.A) || !p.pool.has(l.Key.B) {
			continue
		}

		r := p.model.Reliability(l.Key) *
			p.dev.Unit(l.Key.A).Readout *
			p.dev.Unit(l.Key.B).Readout

		if r > best {
			best = r
			bestKey = l.Key
			found = true
		}
	}

	return bestKey, found
}

// bestUnit returns the free unit that maximizes the product of the swap
// reliabilities to v's placed neighbours and the unit's own readout.
func (p *placer) bestUnit(v int) (int, bool) {
	best := 0.0
	bestUnit := -1

	for _, h := range p.pool.units {
		r := p.dev.Unit(h).Readout

		for _, n := range p.neighbors[v] {
			if hw, ok := p.prog2hw[n]; ok {
				r *= p.model.SwapReliability(hw, h)
			}
		}

		if r > best {
			best = r
			bestUnit = h
		}
	}

	return bestUnit, bestUnit >= 0
}

func (p *placer) mapUnit(v, h int) {
	p.pool.mustRemove(h)
	p.prog2hw[v] = h
}

func (p *placer) consume(k device.LinkKey) {
	if _, ok := p.dev.Link(k.A, k.B); !ok {
		return
	}

	p.updates = append(p.updates, p.model.Consume(k)...)
}

func (p *placer) fail(format string, args ...any) error {
	return &errs.PlacementError{
		TaskID: p.t.ID,
		Reason: fmt.Sprintf(format, args...),
	}
}
