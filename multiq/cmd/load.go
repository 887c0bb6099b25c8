package cmd

import (
	"fmt"
	"os"

	"github.com/sarchlab/multiq/crosstalk"
	"github.com/sarchlab/multiq/device"
	"github.com/sarchlab/multiq/task"
	"github.com/sirupsen/logrus"
)

// loadDevice reads a device file and drops its faulty units and links. The
// returned map translates the unit IDs of the file to the device's.
func loadDevice(path string) (*device.Graph, map[int]int, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("no device file given")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	spec, err := device.LoadSpec(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	return spec.BuildRenumbered()
}

func loadTasks(path string) ([]*task.Task, error) {
	if path == "" {
		return nil, fmt.Errorf("no task file given")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	specs, err := task.LoadSpecs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return task.BuildAll(specs)
}

// loadRules reads a crosstalk file written against the unit IDs of the device
// file.
func loadRules(
	path string,
	d *device.Graph,
	ids map[int]int,
	logger *logrus.Logger,
) (crosstalk.Rules, error) {
	if path == "" {
		return crosstalk.NewRules(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rules, err := crosstalk.LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rules = rules.Renumber(ids)

	err = rules.Validate(d)
	if err != nil {
		return nil, err
	}

	for _, p := range rules.NonAdjacent(d) {
		logger.WithFields(logrus.Fields{
			"on":       p.On,
			"affected": p.Affected,
		}).Warn("crosstalk rule between links that are not adjacent")
	}

	return rules, nil
}
