package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a test notification",
	Long: `Dispatch a synthetic CRITICAL violation through every configured
notification channel to verify delivery settings. A CRITICAL test event
passes any min_severity floor.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Notifier == nil {
			return fmt.Errorf("notifications are not configured")
		}

		now := time.Now().UTC()
		summary := &models.EvaluationSummary{
			RunID:     "notify-test",
			StartedAt: now,
			Checked:   1,
			Total:     1,
			Sources: []models.SourceResult{{
				SourceName: "notify-test",
				Count:      1,
				Violations: []models.ViolationEvent{{
					Timestamp:  now,
					SourceName: "notify-test",
					MetricName: "Test Metric",
					Value:      0,
					Threshold:  1,
					RowRef:     "1",
					Severity:   models.SeverityCritical,
				}},
			}},
		}

		if err := Notifier.Notify(cmd.Context(), summary); err != nil {
			return fmt.Errorf("sending test notification: %w", err)
		}

		fmt.Println("test notification dispatched")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifyTestCmd)
}
