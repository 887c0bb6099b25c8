package layout

import "sort"

// unitPool is an ordered set of available physical units.
type unitPool struct {
	units []int
}

func newUnitPool(n int) unitPool {
	p := unitPool{units: make([]int, n)}
	for i := range p.units {
		p.units[i] = i
	}

	return p
}

func (p unitPool) clone() unitPool {
	units := make([]int, len(p.units))
	copy(units, p.units)

	return unitPool{units: units}
}

func (p unitPool) len() int {
	return len(p.units)
}

func (p unitPool) has(u int) bool {
	i := sort.SearchInts(p.units, u)
	return i < len(p.units) && p.units[i] == u
}

func (p *unitPool) remove(u int) bool {
	i := sort.SearchInts(p.units, u)
	if i == len(p.units) || p.units[i] != u {
		return false
	}

	p.units = append(p.units[:i], p.units[i+1:]...)

	return true
}

func (p *unitPool) mustRemove(u int) {
	if !p.remove(u) {
		panic("unit is not available")
	}
}

func (p unitPool) list() []int {
	return p.clone().units
}
