package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "gsda",
	Short: "Google Sheets dashboard automation - KPI threshold monitoring",
	Long: `gsda monitors tabular KPI sources (published Google Sheets, CSV feeds)
against per-metric thresholds and records violations in an event log.

It provides CLI commands for onboarding and offboarding sources, adding and
removing tracked metrics, running evaluation cycles, querying the event log,
and serving the monitor as an HTTP API or MCP server.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gsda %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
