package task

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// OpSpec describes an operation in a task file.
type OpSpec struct {
	Kind  string `yaml:"kind" json:"kind"`
	Units []int  `yaml:"units" json:"units"`
}

// Spec describes a task in a task file.
type Spec struct {
	ID    string   `yaml:"id" json:"id"`
	Name  string   `yaml:"name" json:"name"`
	Units int      `yaml:"units" json:"units"`
	Ops   []OpSpec `yaml:"ops" json:"ops"`
}

type specFile struct {
	Tasks []Spec `yaml:"tasks" json:"tasks"`
}

// LoadSpecs decodes a task file. Both YAML and JSON are accepted.
func LoadSpecs(r io.Reader) ([]Spec, error) {
	f := specFile{}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(&f)
	if err != nil {
		return nil, fmt.Errorf("decoding task file: %w", err)
	}

	return f.Tasks, nil
}

// Build creates the task. A task without an ID takes its name as ID.
func (s Spec) Build() (*Task, error) {
	id := s.ID
	if id == "" {
		id = s.Name
	}

	ops := make([]Op, len(s.Ops))
	for i, op := range s.Ops {
		ops[i] = Op(op)
	}

	return New(id, s.Name, s.Units, ops)
}

// BuildAll creates every task of a task file, in order.
func BuildAll(specs []Spec) ([]*Task, error) {
	tasks := make([]*Task, 0, len(specs))
	ids := map[string]bool{}

	for i, s := range specs {
		t, err := s.Build()
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}

		if ids[t.ID] {
			return nil, fmt.Errorf("task %d: duplicate id %q", i, t.ID)
		}

		ids[t.ID] = true
		tasks = append(tasks, t)
	}

	return tasks, nil
}
