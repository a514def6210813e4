// Package commands provides the CLI commands for the txdep tool.
package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "txdep",
	Short: "txdep - dependency and shadow-memory tracking for symbolic execution",
	Long: `txdep replays instruction traces through the dependency and shadow-memory
tracking engine used for interpolation-based subsumption.

Commands:
  replay      Replay a trace and print the dependency graph and interpolant stores
  snapshot    Inspect a saved interpolant snapshot
  init        Initialize txdep configuration interactively

Use "txdep [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(replayCmd)
	RootCmd.AddCommand(snapshotCmd)
	RootCmd.AddCommand(initCmd)
}
