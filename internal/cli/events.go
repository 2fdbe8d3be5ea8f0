package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

var (
	eventsJSON        bool
	eventsFromArchive bool
)

var eventsCmd = &cobra.Command{
	Use:   "events [name]",
	Short: "Show logged monitoring events",
	Long: `Show events from the live log, oldest first. With a source name, only
that source's events are shown; without one, the whole log.

Pass --archive to read a source's archived events instead (populated when
a source is offboarded with archiving enabled).`,
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

		var (
			events []models.LogEvent
			err    error
		)
		if eventsFromArchive {
			events, err = Events.QueryArchive(cmd.Context(), name)
		} else {
			events, err = Events.QueryBySource(cmd.Context(), name)
		}
		if err != nil {
			return fmt.Errorf("querying events: %w", err)
		}

		if eventsJSON {
			if events == nil {
				events = []models.LogEvent{}
			}
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding events: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(events) == 0 {
			fmt.Println("No events found.")
			return nil
		}

		for _, e := range events {
			fmt.Printf("%s  %-20s %-19s %-8s %s\n",
				e.Timestamp.UTC().Format(time.RFC3339), e.SourceName, e.EventType, e.Status, e.Message)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "output as JSON")
	eventsCmd.Flags().BoolVar(&eventsFromArchive, "archive", false, "read archived events instead of the live log")
	rootCmd.AddCommand(eventsCmd)
}
