package crosstalk

import (
	"math"
	"sort"

	"github.com/sarchlab/multiq/device"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// MaxError caps the error of a degraded link, so that reliabilities stay
// strictly positive.
const MaxError = 0.9999

// An Update records one reliability change caused by crosstalk.
type Update struct {
	On       device.LinkKey
	Affected device.LinkKey
	Ratio    float64
	Before   float64
	After    float64
}

// A Model is a mutable reliability overlay on a device. It also maintains
// the best swap-path reliability between every pair of units that are not
// sealed.
type Model struct {
	dev      *device.Graph
	rules    Rules
	policy   Policy
	reliab   map[device.LinkKey]float64
	consumed map[device.LinkKey]bool
	sealed   map[int]bool

	dirty bool
	dist  [][]float64
	swap  [][]float64
}

// NewModel creates a Model. A nil policy means MaxPolicy.
func NewModel(d *device.Graph, rules Rules, policy Policy) *Model {
	if policy == nil {
		policy = MaxPolicy{}
	}

	if rules == nil {
		rules = NewRules()
	}

	m := &Model{
		dev:      d,
		rules:    rules,
		policy:   policy,
		reliab:   make(map[device.LinkKey]float64, d.NumLinks()),
		consumed: map[device.LinkKey]bool{},
		sealed:   map[int]bool{},
		dirty:    true,
	}

	for _, l := range d.Links() {
		m.reliab[l.Key] = l.Reliability
	}

	return m
}

// Device returns the underlying device.
func (m *Model) Device() *device.Graph {
	return m.dev
}

// Reliability returns the current reliability of a link.
func (m *Model) Reliability(k device.LinkKey) float64 {
	r, ok := m.reliab[device.MakeLinkKey(k.A, k.B)]
	if !ok {
		panic("link does not exist")
	}

	return r
}

// Consumed returns true if the link has been put to use.
func (m *Model) Consumed(k device.LinkKey) bool {
	return m.consumed[device.MakeLinkKey(k.A, k.B)]
}

// Consume marks a link as in use and degrades every link that has a rule
// with it. Consuming a link a second time changes nothing.
func (m *Model) Consume(k device.LinkKey) []Update {
	k = device.MakeLinkKey(k.A, k.B)
	if m.consumed[k] {
		return nil
	}

	m.consumed[k] = true

	affected := make([]device.LinkKey, 0, len(m.rules[k]))
	for x := range m.rules[k] {
		affected = append(affected, x)
	}

	sort.Slice(affected, func(i, j int) bool {
		if affected[i].A != affected[j].A {
			return affected[i].A < affected[j].A
		}

		return affected[i].B < affected[j].B
	})

	updates := []Update{}
	for _, x := range affected {
		u, changed := m.degrade(k, x)
		if changed {
			updates = append(updates, u)
		}
	}

	if len(updates) > 0 {
		m.dirty = true
	}

	return updates
}

func (m *Model) degrade(on, x device.LinkKey) (Update, bool) {
	before, ok := m.reliab[x]
	if !ok {
		return Update{}, false
	}

	forward := m.rules[on][x]
	backward, hasBackward := m.rules.Ratio(x, on)
	ratio := m.policy.Combine(forward, backward, hasBackward)

	if ratio < 1 {
		return Update{}, false
	}

	e := (1 - before) * ratio
	if e > MaxError {
		e = math.Max(MaxError, 1-before)
	}

	after := 1 - e
	m.reliab[x] = after

	return Update{
		On:       on,
		Affected: x,
		Ratio:    ratio,
		Before:   before,
		After:    after,
	}, after != before
}

// Seal removes units from the swap graph. Paths through sealed units are no
// longer considered.
func (m *Model) Seal(units []int) {
	for _, u := range units {
		if !m.sealed[u] {
			m.sealed[u] = true
			m.dirty = true
		}
	}
}

// Sealed returns true if the unit has been sealed.
func (m *Model) Sealed(u int) bool {
	return m.sealed[u]
}

// Distance returns the negative log reliability of the best swap path
// between two units.
func (m *Model) Distance(i, j int) float64 {
	m.refresh()
	return m.dist[i][j]
}

// SwapReliability returns the reliability of bringing the states of units i
// and j next to each other and operating on them. For adjacent units this is
// the link reliability. Otherwise it is the best over j's neighbours n of the
// swap path from i to n followed by an operation on the link (n, j).
func (m *Model) SwapReliability(i, j int) float64 {
	m.refresh()
	return m.swap[i][j]
}

// Clone returns an independent copy of the model.
func (m *Model) Clone() *Model {
	c := &Model{
		dev:      m.dev,
		rules:    m.rules,
		policy:   m.policy,
		reliab:   make(map[device.LinkKey]float64, len(m.reliab)),
		consumed: make(map[device.LinkKey]bool, len(m.consumed)),
		sealed:   make(map[int]bool, len(m.sealed)),
		dirty:    m.dirty,
		dist:     m.dist,
		swap:     m.swap,
	}

	for k, v := range m.reliab {
		c.reliab[k] = v
	}

	for k, v := range m.consumed {
		c.consumed[k] = v
	}

	for k, v := range m.sealed {
		c.sealed[k] = v
	}

	return c
}

func (m *Model) refresh() {
	if !m.dirty {
		return
	}

	n := m.dev.NumUnits()
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))

	for u := 0; u < n; u++ {
		if !m.sealed[u] {
			g.AddNode(simple.Node(u))
		}
	}

	for k, r := range m.reliab {
		if m.sealed[k.A] || m.sealed[k.B] {
			continue
		}

		g.SetWeightedEdge(g.NewWeightedEdge(
			simple.Node(k.A), simple.Node(k.B), device.SwapCost(r)))
	}

	paths, _ := path.FloydWarshall(g)

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)

		for j := range dist[i] {
			switch {
			case m.sealed[i] || m.sealed[j]:
				dist[i][j] = math.Inf(1)
			case i == j:
				dist[i][j] = 0
			default:
				dist[i][j] = paths.Weight(int64(i), int64(j))
			}
		}
	}

	m.dist = dist
	m.swap = m.buildSwapTable(dist)
	m.dirty = false
}

func (m *Model) buildSwapTable(dist [][]float64) [][]float64 {
	n := len(dist)
	swap := make([][]float64, n)

	for i := range swap {
		swap[i] = make([]float64, n)

		for j := range swap[i] {
			swap[i][j] = m.swapReliability(dist, i, j)
		}
	}

	return swap
}

func (m *Model) swapReliability(dist [][]float64, i, j int) float64 {
	if m.sealed[i] || m.sealed[j] {
		return 0
	}

	if i == j {
		return 1
	}

	if r, ok := m.reliab[device.MakeLinkKey(i, j)]; ok {
		return r
	}

	best := 0.0
	for _, nb := range m.dev.Neighbors(j) {
		if m.sealed[nb] {
			continue
		}

		r := math.Exp(-dist[i][nb]) * m.reliab[device.MakeLinkKey(nb, j)]
		if r > best {
			best = r
		}
	}

	return best
}
