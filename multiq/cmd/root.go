// Package cmd provides the command-line interface of multiq.
package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sarchlab/multiq/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *logrus.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "multiq",
	Short: "multiq places several tasks on one device at the same time.",
	Long: `multiq groups queued tasks, places each group onto the units of a ` +
		`device while avoiding crosstalk, and schedules the resulting ` +
		`programs.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Configuration file. MULTIQ_* environment variables override it.")
}

func setup(_ *cobra.Command, _ []string) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger, err = cfg.NewLogger()
	if err != nil {
		return err
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
