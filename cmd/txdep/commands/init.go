package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-interpolant-deps/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize txdep configuration interactively",
	Long: `Guides you through setting up txdep configuration step by step.
Creates a config file with snapshot and export settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	snapshotDir := cfg.SnapshotDir
	maxEvents := strconv.Itoa(cfg.MaxTraceEvents)
	coreOnly := cfg.CoreOnly
	bindArrays := cfg.BindArrays
	verbose := cfg.Verbose

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Snapshot directory").
				Description("Where interpolant snapshots are written").
				Placeholder(cfg.SnapshotDir).
				Value(&snapshotDir),
			huh.NewInput().
				Title("Max trace events").
				Description("Cap on the number of events replayed from one trace").
				Placeholder(maxEvents).
				Value(&maxEvents),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Export core-only by default?").
				Description("Restrict exported stores to unsat-core locations").
				Value(&coreOnly),
			huh.NewConfirm().
				Title("Bind symbolic arrays on export?").
				Description("Rewrite array identifiers to stable bound variables").
				Value(&bindArrays),
			huh.NewConfirm().
				Title("Verbose logging?").
				Value(&verbose),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cfg.SnapshotDir = snapshotDir
	if n, err := strconv.Atoi(maxEvents); err == nil && n > 0 {
		cfg.MaxTraceEvents = n
	}
	cfg.CoreOnly = coreOnly
	cfg.BindArrays = bindArrays
	cfg.Verbose = verbose

	if err := cfg.Validate(); err != nil {
		return err
	}

	var scope string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should the config be saved?").
				Options(
					huh.NewOption("This project (./.txdep/config.yaml)", "project"),
					huh.NewOption("Globally (~/.txdep/config.yaml)", "global"),
				).
				Value(&scope),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	path := filepath.Join(".txdep", "config.yaml")
	if scope == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".txdep", "config.yaml")
	}

	if err := cfg.Save(path); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", path)
	return nil
}
