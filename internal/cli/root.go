// Package cli implements the jobd command-line interface using
// Cobra. Subcommands: serve, run, tasks.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobd",
	Short: "jobd — dispatch jobs to isolated worker processes",
	Long: `jobd runs tasks in a pool of isolated worker processes.

Run one task from the command line, or start the daemon for the
HTTP API, cron schedules, and the job ledger.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
