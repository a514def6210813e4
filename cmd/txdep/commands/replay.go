package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-interpolant-deps/internal/config"
	"github.com/l3aro/go-interpolant-deps/internal/log"
	"github.com/l3aro/go-interpolant-deps/pkg/interpolant"
	"github.com/l3aro/go-interpolant-deps/pkg/state"
	"github.com/l3aro/go-interpolant-deps/pkg/trace"
)

var replayCmd = &cobra.Command{
	Use:   "replay <trace>",
	Short: "Replay an instruction trace and export its interpolant stores",
	Long: `Replays a line-based instruction trace through a fresh execution state,
then prints the concretely- and symbolically-addressed interpolant stores.
With --dump the dependency frame chain and shadow store are printed as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger := log.Default()
		if cfg.Verbose {
			logger.SetLevel(log.DebugLevel)
		}
		logger.SetJSONOutput(cfg.JSONLogs)

		jsonOutput, _ := cmd.Flags().GetBool("json")
		coreOnly, _ := cmd.Flags().GetBool("core-only")
		dump, _ := cmd.Flags().GetBool("dump")
		snapshotPath, _ := cmd.Flags().GetString("snapshot")
		if !cmd.Flags().Changed("core-only") {
			coreOnly = cfg.CoreOnly
		}

		events, err := trace.ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("parsing trace: %w", err)
		}
		if len(events) > cfg.MaxTraceEvents {
			return fmt.Errorf("trace has %d events, limit is %d", len(events), cfg.MaxTraceEvents)
		}
		logger.Debug("trace parsed", "events", len(events))

		st := state.New()
		if err := trace.Replay(events, st); err != nil {
			return fmt.Errorf("replaying trace: %w", err)
		}

		var repl *interpolant.Replacements
		if cfg.BindArrays {
			repl = interpolant.NewReplacements()
		}

		if dump {
			st.Print(os.Stdout)
		}

		concrete, symbolic := st.GetInterpolant(repl, coreOnly)

		if jsonOutput {
			out := map[string]interpolant.TopInterpolantStore{
				"concrete": concrete,
				"symbolic": symbolic,
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
		} else {
			printInterpolant("concretely addressed", concrete)
			printInterpolant("symbolically addressed", symbolic)
		}

		if snapshotPath != "" {
			if snapshotPath == "auto" {
				if err := os.MkdirAll(cfg.SnapshotDir, 0755); err != nil {
					return fmt.Errorf("creating snapshot dir: %w", err)
				}
				base := filepath.Base(args[0])
				snapshotPath = filepath.Join(cfg.SnapshotDir, base+".txsnap")
			}
			snap := st.Snapshot(repl, coreOnly)
			if err := snap.SaveToFile(snapshotPath); err != nil {
				return fmt.Errorf("saving snapshot: %w", err)
			}
			logger.Info("snapshot written", "path", snapshotPath)
		}

		return nil
	},
}

func printInterpolant(title string, store interpolant.TopInterpolantStore) {
	fmt.Printf("=== %s (%d entities) ===\n", title, len(store))
	for entity, lower := range store {
		fmt.Printf("  %s:\n", entity)
		for variable, value := range lower {
			fmt.Printf("    %s = %s\n", variable, value.Text)
		}
	}
}

func init() {
	replayCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	replayCmd.Flags().Bool("core-only", false, "Restrict output to unsat-core locations")
	replayCmd.Flags().Bool("dump", false, "Print the dependency frames and shadow store")
	replayCmd.Flags().String("snapshot", "", "Write a msgpack snapshot to this path ('auto' uses the configured snapshot dir)")
}
