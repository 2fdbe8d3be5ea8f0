package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	gsdamcp "github.com/miguelmontanez/google-sheets-dashboard-automation/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the gsda MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gsda MCP server on stdio",
	Long: `Start the gsda MCP server on stdio transport.

The server exposes the monitor as MCP tools that AI assistants can call:
list_sources, get_source_events, get_event_summary, run_check, and
validate_offboarding.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil || Events == nil || Evaluator == nil || Lifecycle == nil {
			return fmt.Errorf("monitor services not initialized")
		}

		srv := gsdamcp.NewServer(Registry, Events, Evaluator, Lifecycle, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
