package config

import (
	"io"
	"os"

	"github.com/sarchlab/multiq/cost"
	"github.com/sarchlab/multiq/crosstalk"
	"github.com/sarchlab/multiq/schedule"
	"github.com/sirupsen/logrus"
)

// DurationConfig returns the durations for the duration weighted cost.
func (c *Config) DurationConfig() cost.DurationConfig {
	return cost.DurationConfig{
		Durations:      c.Timing.Durations,
		OneUnitDefault: c.Timing.OneUnitDefault,
		TwoUnitDefault: c.Timing.TwoUnitDefault,
	}
}

// DurationTable returns the durations that programs are scheduled with.
func (c *Config) DurationTable() *schedule.InstructionDurations {
	d := schedule.DurationsFromMap(c.Timing.Durations)
	d.SetDefault(1, c.Timing.OneUnitDefault)
	d.SetDefault(2, c.Timing.TwoUnitDefault)

	return d
}

// SuccessConfig returns the error rates for the success estimate.
func (c *Config) SuccessConfig() cost.SuccessConfig {
	s := cost.DefaultSuccessConfig()
	s.ErrorRates = c.ErrorRates

	return s
}

// CostFunction returns the function that the composer scores groups with.
// The capacity is the number of units on the device.
func (c *Config) CostFunction(capacity int) cost.Function {
	switch c.Composer.Cost {
	case "duration":
		return cost.NewDurationWeighted(c.DurationConfig())
	case "occupancy":
		return cost.NewOccupancyWeighted(capacity)
	case "success":
		return cost.NewSuccessEstimate(c.SuccessConfig())
	default:
		return cost.NewDepthWeighted()
	}
}

// CrosstalkPolicy returns the policy that combines crosstalk ratios.
func (c *Config) CrosstalkPolicy() (crosstalk.Policy, error) {
	return crosstalk.PolicyByName(c.Crosstalk.Policy)
}

// NewLogger creates a logger with the configured level, format, and output.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}

	logger.SetLevel(level)

	if c.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	out, err := c.output()
	if err != nil {
		return nil, err
	}

	logger.SetOutput(out)

	return logger, nil
}

func (c *Config) output() (io.Writer, error) {
	switch c.Logging.Output {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		return os.OpenFile(c.Logging.Output,
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}
}
