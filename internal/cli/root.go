// Package cli implements trackerctl, the operator command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nikhil-Doal/tracker/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "trackerctl",
	Short: "Operate the tracker backend",
	Long: `trackerctl manages the tracker database and runs the activity analytics
offline against exported extension events.

Configuration is read from the environment and an optional .env file, the
same way the server reads it.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(usageCmd)
}

// loadConfig is swapped in tests.
var loadConfig = config.Load
