package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeForce bool

var purgeCmd = &cobra.Command{
	Use:   "purge [name]",
	Short: "Delete live events from the event log",
	Long: `Delete a source's live events, or the entire live log when no name is
given. Archived events are not touched.

Purged events are gone for good, so the command refuses to run without
--force.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeSourceNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Events == nil {
			return fmt.Errorf("event log not initialized")
		}

		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		if !purgeForce {
			return fmt.Errorf("purging is irreversible; pass --force to confirm")
		}

		deleted, err := Events.Purge(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("purging events: %w", err)
		}

		if name != "" {
			fmt.Printf("purged %d events for %s\n", deleted, name)
		} else {
			fmt.Printf("purged %d events\n", deleted)
		}
		return nil
	},
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeForce, "force", false, "confirm the irreversible purge")
	rootCmd.AddCommand(purgeCmd)
}
