package config

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/multiq/cost"
	"github.com/sarchlab/multiq/crosstalk"
	"github.com/sarchlab/multiq/errs"
	"github.com/sarchlab/multiq/task"
	"github.com/sirupsen/logrus"
)

func writeConfig(content string) string {
	path := filepath.Join(GinkgoT().TempDir(), "multiq.yaml")
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())

	return path
}

var _ = Describe("Config", func() {
	It("should provide defaults", func() {
		c := DefaultConfig()

		Expect(c.Composer.Kind).To(Equal(""))
		Expect(c.Composer.Threshold).To(Equal(1e9))
		Expect(c.Composer.Cost).To(Equal("depth"))
		Expect(c.Compiler.SortByInteractions).To(BeTrue())
		Expect(c.Compiler.InteractionGap).To(Equal(10))
		Expect(c.Crosstalk.Policy).To(Equal("max"))
		Expect(c.Timing.Durations).To(HaveKeyWithValue("cx", 2000.0))
		Expect(c.ErrorRates).To(HaveKeyWithValue("cx", 1e-3))
		Expect(c.Logging.Level).To(Equal("info"))
	})

	It("should read a file", func() {
		path := writeConfig(`
device:
  file: device.yaml
composer:
  kind: knapsack
  cost: success
layout:
  exclusion_hops: 1
crosstalk:
  policy: compound
timing:
  durations:
    cx: 300
`)

		c, err := Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Device.File).To(Equal("device.yaml"))
		Expect(c.Composer.Kind).To(Equal("knapsack"))
		Expect(c.Layout.ExclusionHops).To(Equal(1))
		Expect(c.Crosstalk.Policy).To(Equal("compound"))
		Expect(c.Timing.Durations).To(HaveKeyWithValue("cx", 300.0))
		Expect(c.Timing.Durations).To(HaveKeyWithValue("measure", 2000.0))
	})

	It("should let the environment override the file", func() {
		path := writeConfig("composer:\n  kind: greedy\n")
		GinkgoT().Setenv("MULTIQ_COMPOSER_KIND", "exhaustive")
		GinkgoT().Setenv("MULTIQ_COMPILER_INTERACTION_GAP", "0")

		c, err := Load(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Composer.Kind).To(Equal("exhaustive"))
		Expect(c.Compiler.InteractionGap).To(Equal(0))
	})

	It("should match upper case kinds from a file", func() {
		path := writeConfig(`
composer:
  cost: success
timing:
  durations:
    U3: 300
error_rates:
  U3: 0.01
  CX: 0.02
`)

		c, err := Load(path)
		Expect(err).NotTo(HaveOccurred())

		t := task.MustNew("t", "t", 2, []task.Op{
			{Kind: "U3", Units: []int{0}},
			{Kind: "CX", Units: []int{0, 1}},
		})

		_, err = c.CostFunction(2).Cost([]*task.Task{t})
		Expect(err).NotTo(HaveOccurred())

		d, err := c.DurationTable().Duration(t.Ops()[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(Equal(300.0))
	})

	It("should fail on a missing file", func() {
		_, err := Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))

		Expect(err).To(HaveOccurred())
	})

	DescribeTable("should reject invalid values",
		func(content, field string) {
			_, err := Load(writeConfig(content))

			var verr *errs.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Field).To(Equal(field))
		},
		Entry("composer", "composer:\n  kind: random\n", "composer.kind"),
		Entry("cost", "composer:\n  cost: magic\n", "composer.cost"),
		Entry("policy", "crosstalk:\n  policy: min\n", "crosstalk.policy"),
		Entry("format", "logging:\n  format: xml\n", "logging.format"),
		Entry("hops", "layout:\n  exclusion_hops: -1\n", "layout.exclusion_hops"),
		Entry("gap", "compiler:\n  interaction_gap: -2\n", "compiler.interaction_gap"),
		Entry("rate", "error_rates:\n  cx: 2\n", "error_rates"),
		Entry("port", "monitoring:\n  port: 70000\n", "monitoring.port"),
	)

	It("should build the cost functions", func() {
		c := DefaultConfig()

		Expect(c.CostFunction(5)).To(BeAssignableToTypeOf(cost.DepthWeighted{}))

		c.Composer.Cost = "occupancy"
		Expect(c.CostFunction(5)).To(BeAssignableToTypeOf(cost.OccupancyWeighted{}))

		c.Composer.Cost = "duration"
		Expect(c.CostFunction(5)).To(BeAssignableToTypeOf(cost.DurationWeighted{}))

		c.Composer.Cost = "success"
		Expect(c.CostFunction(5)).To(BeAssignableToTypeOf(cost.SuccessEstimate{}))
	})

	It("should build the duration table", func() {
		c := DefaultConfig()
		c.Timing.Durations["cx"] = 500

		d := c.DurationTable()

		v, err := d.Duration(task.Op{Kind: "cx", Units: []int{0, 1}})
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(500.0))

		v, err = d.Duration(task.Op{Kind: "u3", Units: []int{0}})
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(200.0))
	})

	It("should build the crosstalk policy", func() {
		c := DefaultConfig()
		c.Crosstalk.Policy = "mean"

		p, err := c.CrosstalkPolicy()

		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(crosstalk.MeanPolicy{}))
	})

	It("should build a logger", func() {
		c := DefaultConfig()
		c.Logging.Level = "debug"
		c.Logging.Format = "json"
		c.Logging.Output = "stdout"

		logger, err := c.NewLogger()

		Expect(err).NotTo(HaveOccurred())
		Expect(logger.GetLevel()).To(Equal(logrus.DebugLevel))
		Expect(logger.Formatter).To(BeAssignableToTypeOf(&logrus.JSONFormatter{}))
	})

	It("should reject unknown log levels", func() {
		c := DefaultConfig()
		c.Logging.Level = "loud"

		_, err := c.NewLogger()

		Expect(err).To(HaveOccurred())
	})
})
