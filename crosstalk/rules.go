// Package crosstalk tracks how the reliability of device links degrades as
// neighbouring links are put to use.
package crosstalk

import (
	"fmt"
	"io"
	"sort"

	"github.com/sarchlab/multiq/device"
	"github.com/sarchlab/multiq/errs"
	"gopkg.in/yaml.v3"
)

// Rules holds the measured crosstalk ratios. Rules[on][affected] is the
// factor by which the error of the affected link grows while the on link is
// operated.
type Rules map[device.LinkKey]map[device.LinkKey]float64

// NewRules creates an empty rule set.
func NewRules() Rules {
	return Rules{}
}

// Add registers a ratio. Link endpoints are normalized.
func (r Rules) Add(on, affected device.LinkKey, ratio float64) {
	on = device.MakeLinkKey(on.A, on.B)
	affected = device.MakeLinkKey(affected.A, affected.B)

	m, ok := r[on]
	if !ok {
		m = map[device.LinkKey]float64{}
		r[on] = m
	}

	m[affected] = ratio
}

// Ratio returns the ratio of one direction.
func (r Rules) Ratio(on, affected device.LinkKey) (float64, bool) {
	m, ok := r[on]
	if !ok {
		return 0, false
	}

	ratio, ok := m[affected]

	return ratio, ok
}

// Validate checks that every rule refers to links of the device and that
// ratios are positive.
func (r Rules) Validate(d *device.Graph) error {
	for on, m := range r {
		if _, ok := d.Link(on.A, on.B); !ok {
			return errs.NewValidationError("crosstalk",
				"rule on unknown link (%d, %d)", on.A, on.B)
		}

		for affected, ratio := range m {
			if _, ok := d.Link(affected.A, affected.B); !ok {
				return errs.NewValidationError("crosstalk",
					"rule affects unknown link (%d, %d)",
					affected.A, affected.B)
			}

			if ratio <= 0 {
				return errs.NewValidationError("crosstalk",
					"ratio %g is not positive", ratio)
			}
		}
	}

	return nil
}

// Renumber translates the rules to new unit IDs. Rules that touch a unit
// missing from the map are dropped.
func (r Rules) Renumber(ids map[int]int) Rules {
	renumbered := NewRules()

	for on, m := range r {
		newOn, ok := renumberLink(on, ids)
		if !ok {
			continue
		}

		for affected, ratio := range m {
			newAffected, ok := renumberLink(affected, ids)
			if !ok {
				continue
			}

			renumbered.Add(newOn, newAffected, ratio)
		}
	}

	return renumbered
}

func renumberLink(k device.LinkKey, ids map[int]int) (device.LinkKey, bool) {
	a, okA := ids[k.A]
	b, okB := ids[k.B]

	if !okA || !okB {
		return device.LinkKey{}, false
	}

	return device.MakeLinkKey(a, b), true
}

// A Pair is a directed pair of links that a rule connects.
type Pair struct {
	On       device.LinkKey
	Affected device.LinkKey
}

// NonAdjacent returns the rules whose links are not one link apart on the
// device. Such rules are kept, but they usually point at a calibration file
// for another device.
func (r Rules) NonAdjacent(d *device.Graph) []Pair {
	pairs := []Pair{}

	for on, m := range r {
		adjacent := map[device.LinkKey]bool{}
		for _, k := range d.AdjacentLinks(on) {
			adjacent[k] = true
		}

		for affected := range m {
			if !adjacent[affected] {
				pairs = append(pairs, Pair{On: on, Affected: affected})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].On != pairs[j].On {
			return linkLess(pairs[i].On, pairs[j].On)
		}

		return linkLess(pairs[i].Affected, pairs[j].Affected)
	})

	return pairs
}

func linkLess(a, b device.LinkKey) bool {
	if a.A != b.A {
		return a.A < b.A
	}

	return a.B < b.B
}

// RuleSpec is one entry of a crosstalk file.
type RuleSpec struct {
	On       [2]int  `yaml:"on" json:"on"`
	Affected [2]int  `yaml:"affected" json:"affected"`
	Ratio    float64 `yaml:"ratio" json:"ratio"`
}

type rulesFile struct {
	Rules []RuleSpec `yaml:"rules" json:"rules"`
}

// LoadRules decodes a crosstalk file. Both YAML and JSON are accepted.
func LoadRules(r io.Reader) (Rules, error) {
	f := rulesFile{}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("decoding crosstalk rules: %w", err)
	}

	rules := NewRules()
	for _, s := range f.Rules {
		rules.Add(
			device.MakeLinkKey(s.On[0], s.On[1]),
			device.MakeLinkKey(s.Affected[0], s.Affected[1]),
			s.Ratio)
	}

	return rules, nil
}
