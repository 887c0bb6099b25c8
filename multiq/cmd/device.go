package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sarchlab/multiq/device"
	"github.com/spf13/cobra"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Work with device files.",
}

var deviceInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the units and links of a device.",
	Long: "`device inspect --device d.yaml` prints the device after faulty " +
		"units and links are removed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("device")
		if path == "" {
			path = cfg.Device.File
		}

		dev, _, err := loadDevice(path)
		if err != nil {
			return err
		}

		return printDevice(cmd.OutOrStdout(), dev)
	},
}

func init() {
	rootCmd.AddCommand(deviceCmd)
	deviceCmd.AddCommand(deviceInspectCmd)

	deviceInspectCmd.Flags().String("device", "", "Device file")
}

func printDevice(w io.Writer, dev *device.Graph) error {
	fmt.Fprintf(w, "Device %s: %d units, %d links, connected: %t\n",
		dev.Name(), dev.NumUnits(), dev.NumLinks(), dev.Connected())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "UNIT\tREADOUT\tNEIGHBORS")

	for _, u := range dev.Units() {
		fmt.Fprintf(tw, "%d\t%.4f\t%v\n", u.ID, u.Readout, dev.Neighbors(u.ID))
	}

	fmt.Fprintln(tw, "LINK\tRELIABILITY\tSWAP COST")

	for _, l := range dev.Links() {
		fmt.Fprintf(tw, "%d-%d\t%.4f\t%.4f\n",
			l.Key.A, l.Key.B, l.Reliability, l.SwapCost())
	}

	return tw.Flush()
}
