package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

var checkNotify bool

var (
	sevCriticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	sevHighStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	sevMediumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	sevLowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
)

// severityLabel renders "[CRITICAL]" style tags with the severity's color.
func severityLabel(s models.Severity) string {
	label := "[" + string(s) + "]"
	switch s {
	case models.SeverityCritical:
		return sevCriticalStyle.Render(label)
	case models.SeverityHigh:
		return sevHighStyle.Render(label)
	case models.SeverityMedium:
		return sevMediumStyle.Render(label)
	case models.SeverityLow:
		return sevLowStyle.Render(label)
	default:
		return label
	}
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one evaluation cycle now",
	Long: `Fetch every active source, evaluate tracked KPIs against their
thresholds, and record violations in the event log.

Pass --notify to also dispatch the run's summary through the configured
notification channels.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Evaluator == nil {
			return fmt.Errorf("evaluator not initialized")
		}

		summary, err := Evaluator.EvaluateAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("running evaluation cycle: %w", err)
		}

		printRunSummary(summary)

		if checkNotify {
			if Notifier == nil {
				return fmt.Errorf("notifications are not configured")
			}
			if err := Notifier.Notify(cmd.Context(), summary); err != nil {
				return fmt.Errorf("dispatching notifications: %w", err)
			}
			if summary.Total > 0 || len(summary.Failures) > 0 {
				fmt.Println("notifications dispatched")
			}
		}

		return nil
	},
}

func printRunSummary(summary *models.EvaluationSummary) {
	fmt.Printf("run %s checked %d sources\n", summary.RunID, summary.Checked)

	for _, src := range summary.Sources {
		fmt.Printf("\n== %s (%d violations) ==\n", src.SourceName, src.Count)
		for _, v := range src.Violations {
			fmt.Printf("  %s %s\n", severityLabel(v.Severity), v.Message())
		}
	}

	if len(summary.Failures) > 0 {
		fmt.Println("\nfetch failures:")
		for _, f := range summary.Failures {
			fmt.Printf("  %s: %s\n", f.SourceName, f.Reason)
		}
	}

	if summary.Total == 0 && len(summary.Failures) == 0 {
		fmt.Println("all tracked KPIs at or above thresholds")
		return
	}

	fmt.Printf("\n%d violations across %d sources\n", summary.Total, len(summary.Sources))
}

func init() {
	checkCmd.Flags().BoolVar(&checkNotify, "notify", false, "dispatch the summary through configured notification channels")
	rootCmd.AddCommand(checkCmd)
}
