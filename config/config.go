// Package config loads the settings of a compilation from a file and the
// environment.
package config

import (
	"fmt"
	"strings"

	"github.com/sarchlab/multiq/compose"
	"github.com/sarchlab/multiq/cost"
	"github.com/sarchlab/multiq/errs"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables that override the
// configuration, for example MULTIQ_COMPOSER_KIND.
const EnvPrefix = "MULTIQ"

// Config is the configuration of a compilation.
type Config struct {
	Device     DeviceConfig       `mapstructure:"device"`
	Tasks      TasksConfig        `mapstructure:"tasks"`
	Composer   ComposerConfig     `mapstructure:"composer"`
	Layout     LayoutConfig       `mapstructure:"layout"`
	Crosstalk  CrosstalkConfig    `mapstructure:"crosstalk"`
	Compiler   CompilerConfig     `mapstructure:"compiler"`
	Timing     TimingConfig       `mapstructure:"timing"`
	ErrorRates map[string]float64 `mapstructure:"error_rates"`
	Logging    LoggingConfig      `mapstructure:"logging"`
	Recording  RecordingConfig    `mapstructure:"recording"`
	Monitoring MonitoringConfig   `mapstructure:"monitoring"`
}

// DeviceConfig locates the device description.
type DeviceConfig struct {
	File string `mapstructure:"file"`
}

// TasksConfig locates the task queue.
type TasksConfig struct {
	File string `mapstructure:"file"`
}

// ComposerConfig selects how tasks are grouped. An empty kind places tasks
// one at a time.
type ComposerConfig struct {
	Kind      string  `mapstructure:"kind"`
	Capacity  int     `mapstructure:"capacity"`
	Threshold float64 `mapstructure:"threshold"`
	Cost      string  `mapstructure:"cost"`
	Window    int     `mapstructure:"window"`
}

// LayoutConfig configures the allocator.
type LayoutConfig struct {
	ExclusionHops  int  `mapstructure:"exclusion_hops"`
	ComponentSplit bool `mapstructure:"component_split"`
}

// CrosstalkConfig configures the crosstalk model.
type CrosstalkConfig struct {
	Policy    string `mapstructure:"policy"`
	RulesFile string `mapstructure:"rules_file"`
}

// CompilerConfig configures the fill cycles.
type CompilerConfig struct {
	SortByInteractions bool `mapstructure:"sort_by_interactions"`
	InteractionGap     int  `mapstructure:"interaction_gap"`
}

// TimingConfig holds operation durations, in nanoseconds.
type TimingConfig struct {
	Durations      map[string]float64 `mapstructure:"durations"`
	OneUnitDefault float64            `mapstructure:"one_unit_default"`
	TwoUnitDefault float64            `mapstructure:"two_unit_default"`
}

// LoggingConfig configures logrus.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RecordingConfig configures the SQLite recorder. An empty path generates a
// unique name.
type RecordingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// MonitoringConfig configures the monitoring server.
type MonitoringConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Port        int  `mapstructure:"port"`
	OpenBrowser bool `mapstructure:"open_browser"`
}

// Load reads the configuration. Values come from the defaults, then the file
// if path is not empty, then MULTIQ_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	c, err := Load("")
	if err != nil {
		panic(err)
	}

	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.file", "")
	v.SetDefault("tasks.file", "")

	v.SetDefault("composer.kind", "")
	v.SetDefault("composer.capacity", 0)
	v.SetDefault("composer.threshold", 1e9)
	v.SetDefault("composer.cost", "depth")
	v.SetDefault("composer.window", 0)

	v.SetDefault("layout.exclusion_hops", 0)
	v.SetDefault("layout.component_split", false)

	v.SetDefault("crosstalk.policy", "max")
	v.SetDefault("crosstalk.rules_file", "")

	v.SetDefault("compiler.sort_by_interactions", true)
	v.SetDefault("compiler.interaction_gap", 10)

	timing := cost.DefaultDurationConfig()
	v.SetDefault("timing.durations", toAnyMap(timing.Durations))
	v.SetDefault("timing.one_unit_default", timing.OneUnitDefault)
	v.SetDefault("timing.two_unit_default", timing.TwoUnitDefault)

	v.SetDefault("error_rates", toAnyMap(cost.DefaultSuccessConfig().ErrorRates))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("recording.enabled", false)
	v.SetDefault("recording.path", "")

	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.port", 0)
	v.SetDefault("monitoring.open_browser", false)
}

// toAnyMap lets viper merge map entries from the file with the defaults key
// by key.
func toAnyMap(m map[string]float64) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

// Validate checks that the values are consistent.
func (c *Config) Validate() error {
	switch compose.Kind(c.Composer.Kind) {
	case "", compose.KindExhaustive, compose.KindKnapsack, compose.KindGreedy:
	default:
		return errs.NewValidationError("composer.kind",
			"unknown composer %q", c.Composer.Kind)
	}

	switch c.Composer.Cost {
	case "depth", "duration", "occupancy", "success":
	default:
		return errs.NewValidationError("composer.cost",
			"unknown cost function %q", c.Composer.Cost)
	}

	switch c.Crosstalk.Policy {
	case "max", "mean", "compound":
	default:
		return errs.NewValidationError("crosstalk.policy",
			"unknown policy %q", c.Crosstalk.Policy)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return errs.NewValidationError("logging.format",
			"unknown format %q", c.Logging.Format)
	}

	return c.validateNumbers()
}

func (c *Config) validateNumbers() error {
	if c.Composer.Capacity < 0 {
		return errs.NewValidationError("composer.capacity",
			"capacity cannot be negative")
	}

	if c.Composer.Window < 0 {
		return errs.NewValidationError("composer.window",
			"window cannot be negative")
	}

	if c.Layout.ExclusionHops < 0 {
		return errs.NewValidationError("layout.exclusion_hops",
			"hops cannot be negative")
	}

	if c.Compiler.InteractionGap < 0 {
		return errs.NewValidationError("compiler.interaction_gap",
			"gap cannot be negative")
	}

	for kind, d := range c.Timing.Durations {
		if d < 0 {
			return errs.NewValidationError("timing.durations",
				"duration of %s cannot be negative", kind)
		}
	}

	for kind, r := range c.ErrorRates {
		if r < 0 || r > 1 {
			return errs.NewValidationError("error_rates",
				"error rate of %s is not in [0, 1]", kind)
		}
	}

	if c.Monitoring.Port < 0 || c.Monitoring.Port > 65535 {
		return errs.NewValidationError("monitoring.port",
			"invalid port %d", c.Monitoring.Port)
	}

	return nil
}
