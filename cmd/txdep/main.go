// Package main implements the txdep CLI.
// It replays instruction traces through the dependency and shadow-memory
// tracking engine and manages interpolant snapshots.
package main

import (
	"os"

	"github.com/l3aro/go-interpolant-deps/cmd/txdep/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`txdep version {{.Version}}
`)
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
