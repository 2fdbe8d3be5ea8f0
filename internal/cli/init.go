package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/core"
)

// Initializer scaffolds monitor workspaces, set during app initialization.
var Initializer core.WorkspaceInitializer

var (
	initDriver   string
	initDSN      string
	initInterval int
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Scaffold a monitor workspace",
	Long: `Create a .sheetconfig, an example sources file, and the storage layout in
the given directory (default: the current directory). Existing files are
left alone, so init is safe to re-run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Initializer == nil {
			return fmt.Errorf("workspace initializer not initialized")
		}

		path := "."
		if len(args) == 1 {
			path = args[0]
		}
		base, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		result, err := Initializer.Init(core.InitConfig{
			BasePath: base,
			Driver:   initDriver,
			DSN:      initDSN,
			Interval: initInterval,
		})
		if err != nil {
			return fmt.Errorf("initializing workspace: %w", err)
		}

		printInitPaths("Created:", base, result.Created)
		printInitPaths("Skipped (already exist):", base, result.Skipped)
		fmt.Printf("\nMonitor workspace initialized at %s\n", base)
		return nil
	},
}

func printInitPaths(header, base string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Println(header)
	for _, p := range paths {
		rel, err := filepath.Rel(base, p)
		if err != nil {
			rel = p
		}
		fmt.Printf("  %s\n", rel)
	}
}

func init() {
	initCmd.Flags().StringVar(&initDriver, "driver", "csv", "storage driver (csv, sqlite, or postgres)")
	initCmd.Flags().StringVar(&initDSN, "dsn", "", "database DSN for sqlite or postgres")
	initCmd.Flags().IntVar(&initInterval, "interval", 15, "check interval in minutes (5, 15, or 30)")
	rootCmd.AddCommand(initCmd)
}
