package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sourcesJSON bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List actively monitored sources",
	Long: `List every source with ACTIVE status, with its tracked metric count,
last successful sync, and location.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Registry == nil {
			return fmt.Errorf("registry not initialized")
		}

		sources, err := Registry.ListActive(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sources: %w", err)
		}

		if sourcesJSON {
			data, err := json.MarshalIndent(sources, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding sources: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(sources) == 0 {
			fmt.Println("No active sources.")
			return nil
		}

		fmt.Printf("%-20s %-8s %-22s %s\n", "NAME", "METRICS", "LAST SYNC", "LOCATION")
		for _, src := range sources {
			lastSync := "never"
			if src.LastSyncAt != nil {
				lastSync = src.LastSyncAt.UTC().Format(time.RFC3339)
			}
			fmt.Printf("%-20s %-8d %-22s %s\n", src.Name, len(src.Metrics), lastSync, src.Location)
		}
		return nil
	},
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(sourcesCmd)
}
