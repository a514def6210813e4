package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-interpolant-deps/pkg/interpolant"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect saved interpolant snapshots",
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Decode and display a saved interpolant snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := interpolant.LoadFromFile(args[0])
		if err != nil {
			return fmt.Errorf("loading snapshot: %w", err)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		printSnapshotPart("concretely addressed", snap.Concrete)
		printSnapshotPart("symbolically addressed", snap.Symbolic)
		return nil
	},
}

func printSnapshotPart(title string, entries []interpolant.SnapshotEntry) {
	fmt.Printf("=== %s (%d entries) ===\n", title, len(entries))
	for _, e := range entries {
		fmt.Printf("  %s: %s = %s\n", e.Entity, e.Variable, e.Value.Text)
	}
}

func init() {
	snapshotShowCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	snapshotCmd.AddCommand(snapshotShowCmd)
}
