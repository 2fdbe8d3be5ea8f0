package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var metricCmd = &cobra.Command{
	Use:   "metric",
	Short: "Manage tracked metrics on an onboarded source",
	Long: `Add or remove individual KPI columns on a source that is already
being monitored.`,
}

var metricOnboardThreshold float64

var metricOnboardCmd = &cobra.Command{
	Use:   "onboard <source> <metric>",
	Short: "Track an additional metric on a source",
	Long: `Start tracking a KPI column on an onboarded source with the given
threshold. Onboarding a metric that is already tracked updates its
threshold in place.`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeSourceThenMetric,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Lifecycle == nil {
			return fmt.Errorf("lifecycle service not initialized")
		}

		source, metric := args[0], args[1]
		res := Lifecycle.OnboardMetric(cmd.Context(), source, metric, metricOnboardThreshold)
		if !res.Success {
			return fmt.Errorf("onboarding metric %s on %s: %w", metric, source, res.Err)
		}

		fmt.Println(res.Message)
		return nil
	},
}

var metricOffboardCmd = &cobra.Command{
	Use:   "offboard <source> <metric>",
	Short: "Stop tracking a metric on a source",
	Long: `Remove a KPI column from a source's tracked set, dropping its
threshold. Past events for the metric stay in the event log.`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeSourceThenMetric,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Lifecycle == nil {
			return fmt.Errorf("lifecycle service not initialized")
		}

		source, metric := args[0], args[1]
		res := Lifecycle.OffboardMetric(cmd.Context(), source, metric)
		if !res.Success {
			return fmt.Errorf("offboarding metric %s on %s: %w", metric, source, res.Err)
		}

		fmt.Println(res.Message)
		return nil
	},
}

func init() {
	metricOnboardCmd.Flags().Float64Var(&metricOnboardThreshold, "threshold", 0, "minimum acceptable value for the metric")
	_ = metricOnboardCmd.MarkFlagRequired("threshold")
	metricCmd.AddCommand(metricOnboardCmd)
	metricCmd.AddCommand(metricOffboardCmd)
	rootCmd.AddCommand(metricCmd)
}
