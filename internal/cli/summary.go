package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the live event log",
	Long:  `Aggregate the live event log by type, status, and source.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Events == nil {
			return fmt.Errorf("event log not initialized")
		}

		summary, err := Events.Summarize(cmd.Context())
		if err != nil {
			return fmt.Errorf("summarizing events: %w", err)
		}

		if summaryJSON {
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding summary: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Event log summary (%d events)\n", summary.Total)
		printCountGroup("By type", summary.ByType)
		printCountGroup("By status", summary.ByStatus)
		printCountGroup("By source", summary.BySource)
		return nil
	},
}

// printCountGroup prints one aggregate map with sorted keys.
func printCountGroup(heading string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("\n%s:\n", heading)
	for _, k := range keys {
		fmt.Printf("  %-24s %d\n", k, counts[k])
	}
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(summaryCmd)
}
