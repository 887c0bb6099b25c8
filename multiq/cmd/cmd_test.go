package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/multiq/device"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const deviceYAML = `
name: line4
units:
  - {id: 0, readout_error: 0.01}
  - {id: 1, readout_error: 0.02}
  - {id: 2, readout_error: 0.01}
  - {id: 3, readout_error: 0.03}
links:
  - {a: 0, b: 1, error: 0.01}
  - {a: 1, b: 2, error: 0.02}
  - {a: 2, b: 3, error: 0.01}
`

const tasksYAML = `
tasks:
  - id: bell
    units: 2
    ops:
      - {kind: cx, units: [0, 1]}
      - {kind: measure, units: [0]}
      - {kind: measure, units: [1]}
  - id: ghz
    units: 3
    ops:
      - {kind: cx, units: [0, 1]}
      - {kind: cx, units: [1, 2]}
`

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())

	return path
}

const faultyDeviceYAML = `
name: line5
units:
  - {id: 0, readout_error: 0.01}
  - {id: 1, readout_error: 0.01}
  - {id: 2, readout_error: 0.01}
  - {id: 3, readout_error: 0.01}
  - {id: 4, readout_error: 0.01}
links:
  - {a: 0, b: 1, error: 0.01}
  - {a: 1, b: 2, error: 0.01}
  - {a: 2, b: 3, error: 0.01}
  - {a: 3, b: 4, error: 0.01}
faulty_units: [0]
`

const rulesYAML = `
rules:
  - {on: [1, 2], affected: [3, 4], ratio: 2}
  - {on: [1, 2], affected: [2, 3], ratio: 2}
`

func resetFlags() {
	flagSets := []*pflag.FlagSet{rootCmd.PersistentFlags()}
	for _, c := range []*cobra.Command{compileCmd, deviceInspectCmd} {
		flagSets = append(flagSets, c.Flags())
	}

	for _, fs := range flagSets {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
}

func run(args ...string) (string, error) {
	resetFlags()

	out := bytes.NewBuffer(nil)

	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())

	return out.String(), err
}

var _ = Describe("multiq", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should inspect a device", func() {
		devicePath := writeFile(dir, "device.yaml", deviceYAML)

		out, err := run("device", "inspect", "--device", devicePath)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Device line4: 4 units, 3 links"))
		Expect(out).To(ContainSubstring("1-2"))
	})

	It("should compile a queue", func() {
		devicePath := writeFile(dir, "device.yaml", deviceYAML)
		tasksPath := writeFile(dir, "tasks.yaml", tasksYAML)

		out, err := run("compile",
			"--device", devicePath,
			"--tasks", tasksPath,
			"--composer", "greedy")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("PROGRAM"))
		Expect(out).To(ContainSubstring("bell"))
		Expect(out).To(ContainSubstring("ghz"))
	})

	It("should record a compilation", func() {
		devicePath := writeFile(dir, "device.yaml", deviceYAML)
		tasksPath := writeFile(dir, "tasks.yaml", tasksYAML)
		record := filepath.Join(dir, "run")

		_, err := run("compile",
			"--device", devicePath,
			"--tasks", tasksPath,
			"--composer", "knapsack",
			"--record", record)

		Expect(err).NotTo(HaveOccurred())
		Expect(record + ".sqlite3").To(BeAnExistingFile())
	})

	It("should drop faulty units before compiling", func() {
		devicePath := writeFile(dir, "device.yaml", faultyDeviceYAML)
		tasksPath := writeFile(dir, "tasks.yaml", tasksYAML)
		rulesPath := writeFile(dir, "rules.yaml", rulesYAML)
		configPath := writeFile(dir, "multiq.yaml",
			"crosstalk:\n  rules_file: "+rulesPath+"\n")

		out, err := run("compile",
			"--config", configPath,
			"--device", devicePath,
			"--tasks", tasksPath,
			"--composer", "greedy")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("bell"))
	})

	It("should translate rules and warn about distant links", func() {
		devicePath := writeFile(dir, "device.yaml", faultyDeviceYAML)
		rulesPath := writeFile(dir, "rules.yaml", rulesYAML)

		dev, ids, err := loadDevice(devicePath)
		Expect(err).NotTo(HaveOccurred())
		Expect(dev.NumUnits()).To(Equal(4))

		log, hook := test.NewNullLogger()

		rules, err := loadRules(rulesPath, dev, ids, log)
		Expect(err).NotTo(HaveOccurred())

		ratio, ok := rules.Ratio(device.MakeLinkKey(0, 1), device.MakeLinkKey(2, 3))
		Expect(ok).To(BeTrue())
		Expect(ratio).To(Equal(2.0))

		Expect(hook.Entries).To(HaveLen(1))
		Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))
	})

	It("should fail on a missing device", func() {
		tasksPath := writeFile(dir, "tasks.yaml", tasksYAML)

		_, err := run("compile",
			"--device", filepath.Join(dir, "missing.yaml"),
			"--tasks", tasksPath)

		Expect(err).To(HaveOccurred())
	})

	It("should reject an unknown composer", func() {
		devicePath := writeFile(dir, "device.yaml", deviceYAML)
		tasksPath := writeFile(dir, "tasks.yaml", tasksYAML)

		_, err := run("compile",
			"--device", devicePath,
			"--tasks", tasksPath,
			"--composer", "random")

		Expect(err).To(MatchError(ContainSubstring("composer")))
	})
})
