package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sarchlab/multiq/compiler"
	"github.com/sarchlab/multiq/compose"
	"github.com/sarchlab/multiq/config"
	"github.com/sarchlab/multiq/cost"
	"github.com/sarchlab/multiq/datarecording"
	"github.com/sarchlab/multiq/device"
	"github.com/sarchlab/multiq/hooking"
	"github.com/sarchlab/multiq/layout"
	"github.com/sarchlab/multiq/monitoring"
	"github.com/sarchlab/multiq/tracing"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Place and schedule a queue of tasks on a device.",
	Long: "`compile --device d.yaml --tasks t.yaml` prints one line per " +
		"program.",
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().String("device", "", "Device file")
	compileCmd.Flags().String("tasks", "", "Task file")
	compileCmd.Flags().String("composer", "",
		"Composer: exhaustive, knapsack, or greedy")
	compileCmd.Flags().String("record", "",
		"Record the compilation to the given database, without extension")
	compileCmd.Flags().Bool("monitor", false, "Start the monitoring server")
}

func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("device") {
		c.Device.File, _ = flags.GetString("device")
	}

	if flags.Changed("tasks") {
		c.Tasks.File, _ = flags.GetString("tasks")
	}

	if flags.Changed("composer") {
		c.Composer.Kind, _ = flags.GetString("composer")
	}

	if flags.Changed("record") {
		c.Recording.Enabled = true
		c.Recording.Path, _ = flags.GetString("record")
	}

	if flags.Changed("monitor") {
		c.Monitoring.Enabled, _ = flags.GetBool("monitor")
	}
}

func runCompile(cmd *cobra.Command, _ []string) error {
	applyFlags(cmd, cfg)

	err := cfg.Validate()
	if err != nil {
		return err
	}

	dev, ids, err := loadDevice(cfg.Device.File)
	if err != nil {
		return err
	}

	tasks, err := loadTasks(cfg.Tasks.File)
	if err != nil {
		return err
	}

	c, err := buildCompiler(cfg, dev, ids)
	if err != nil {
		return err
	}

	attachLogging(c, logger)

	util := tracing.NewUtilizationTracer(dev.NumUnits())
	tracing.CollectTrace(c, util)

	if cfg.Recording.Enabled {
		writer := datarecording.New(cfg.Recording.Path)
		defer writer.Close()

		datarecording.NewRecorder(writer).Attach(c)

		execRec := datarecording.NewExecRecorder(writer)
		execRec.Start()
		execRec.Set("Device", dev.Name())
		defer execRec.End()
	}

	if cfg.Monitoring.Enabled {
		m := monitoring.NewMonitor().
			WithPortNumber(cfg.Monitoring.Port).
			WithBrowser(cfg.Monitoring.OpenBrowser)
		bar := m.TrackCompiler(c, len(tasks))
		m.StartServer()

		defer m.CompleteProgressBar(bar)
	}

	logger.WithFields(logrus.Fields{
		"device": dev.Name(),
		"units":  dev.NumUnits(),
		"tasks":  len(tasks),
	}).Info("compiling")

	programs, err := c.Compile(cmd.Context(), tasks)
	if err != nil {
		return err
	}

	return printPrograms(cmd.OutOrStdout(), programs, util.Summaries())
}

func buildCompiler(
	c *config.Config,
	dev *device.Graph,
	ids map[int]int,
) (*compiler.Compiler, error) {
	rules, err := loadRules(c.Crosstalk.RulesFile, dev, ids, logger)
	if err != nil {
		return nil, err
	}

	policy, err := c.CrosstalkPolicy()
	if err != nil {
		return nil, err
	}

	alloc := layout.MakeBuilder().
		WithDevice(dev).
		WithCrosstalkRules(rules).
		WithCrosstalkPolicy(policy).
		WithExclusionHops(c.Layout.ExclusionHops).
		WithComponentSplit(c.Layout.ComponentSplit).
		Build("Allocator")

	b := compiler.MakeBuilder().
		WithAllocator(alloc).
		WithDurations(c.DurationTable()).
		WithSortByInteractions(c.Compiler.SortByInteractions).
		WithInteractionGap(c.Compiler.InteractionGap)

	if c.Composer.Kind != "" {
		composer, err := buildComposer(c, dev)
		if err != nil {
			return nil, err
		}

		b = b.WithComposer(composer)
	}

	return b.Build("Compiler"), nil
}

func buildComposer(c *config.Config, dev *device.Graph) (compose.Composer, error) {
	capacity := c.Composer.Capacity
	if capacity == 0 || capacity > dev.NumUnits() {
		capacity = dev.NumUnits()
	}

	return compose.MakeBuilder().
		WithCapacity(capacity).
		WithThreshold(c.Composer.Threshold).
		WithCostFunction(c.CostFunction(capacity)).
		WithValueFunction(cost.NewSuccessEstimate(c.SuccessConfig())).
		WithMaxQueueWindow(c.Composer.Window).
		Build(compose.Kind(c.Composer.Kind), "Composer")
}

func attachLogging(c *compiler.Compiler, l *logrus.Logger) {
	c.AcceptHook(hooking.NewLogHook(l, logrus.InfoLevel))
	c.Allocator().AcceptHook(hooking.NewLogHook(l, logrus.DebugLevel))

	if c.Composer() != nil {
		c.Composer().AcceptHook(hooking.NewLogHook(l, logrus.DebugLevel))
	}
}

func printPrograms(
	w io.Writer,
	programs []compiler.Program,
	summaries []tracing.ProgramSummary,
) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "PROGRAM\tTASKS\tUNITS\tDURATION\tUTILIZATION")

	for i, p := range programs {
		utilization := 0.0
		if i < len(summaries) {
			utilization = summaries[i].Utilization
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%.0f\t%.2f\n",
			p.ID,
			strings.Join(p.TaskIDs, ","),
			p.Usage,
			p.Schedule.Duration,
			utilization,
		)
	}

	return tw.Flush()
}
