package device

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// UnitSpec describes a unit in a device file.
type UnitSpec struct {
	ID           int     `yaml:"id" json:"id"`
	ReadoutError float64 `yaml:"readout_error" json:"readout_error"`
}

// LinkSpec describes a link in a device file.
type LinkSpec struct {
	A     int     `yaml:"a" json:"a"`
	B     int     `yaml:"b" json:"b"`
	Error float64 `yaml:"error" json:"error"`
}

// Spec is the on-disk description of a device. Error rates are stored the
// way calibration data reports them and converted to reliabilities on Build.
type Spec struct {
	Name        string     `yaml:"name" json:"name"`
	Units       []UnitSpec `yaml:"units" json:"units"`
	Links       []LinkSpec `yaml:"links" json:"links"`
	FaultyUnits []int      `yaml:"faulty_units" json:"faulty_units"`
	FaultyLinks [][2]int   `yaml:"faulty_links" json:"faulty_links"`
}

// LoadSpec decodes a device description. Both YAML and JSON are accepted.
func LoadSpec(r io.Reader) (Spec, error) {
	spec := Spec{}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(&spec)
	if err != nil {
		return Spec{}, fmt.Errorf("decoding device spec: %w", err)
	}

	return spec, nil
}

// Build creates the device graph described by the spec. If faulty units or
// links are listed, they are removed and only the largest working component
// is kept.
func (s Spec) Build() (*Graph, error) {
	g, _, err := s.BuildRenumbered()

	return g, err
}

// BuildRenumbered is like Build, but also returns how the unit IDs of the
// file map to the unit IDs of the built device. Units that were removed do
// not appear in the map.
func (s Spec) BuildRenumbered() (*Graph, map[int]int, error) {
	b := MakeBuilder()

	for _, u := range s.Units {
		b = b.WithUnit(u.ID, 1-u.ReadoutError)
	}

	for _, l := range s.Links {
		b = b.WithLink(l.A, l.B, 1-l.Error)
	}

	g, err := b.Build(s.Name)
	if err != nil {
		return nil, nil, err
	}

	if len(s.FaultyUnits) == 0 && len(s.FaultyLinks) == 0 {
		identity := make(map[int]int, g.NumUnits())
		for _, u := range g.Units() {
			identity[u.ID] = u.ID
		}

		return g, identity, nil
	}

	faultyLinks := make([]LinkKey, 0, len(s.FaultyLinks))
	for _, l := range s.FaultyLinks {
		faultyLinks = append(faultyLinks, MakeLinkKey(l[0], l[1]))
	}

	return g.WithoutFaulty(s.FaultyUnits, faultyLinks)
}
