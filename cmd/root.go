package cmd

import (
	"fmt"
	"os"

	"csv-reconciler/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "csv-reconciler",
	Short: "Reconcile CSV files between two folders",
	Long: `csv-reconciler pairs the CSV files of two folders by name and splits the
records of each pair into matched, only-in-A and only-in-B sets using a
configurable composite key.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configFile string

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console + debug config gives ISO8601 timestamps on the CLI.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML or JSON config file")
}
