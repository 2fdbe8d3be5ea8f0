package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateOffboardCmd = &cobra.Command{
	Use:   "validate-offboard <name>",
	Short: "Check whether a source can be offboarded",
	Long: `Run the offboarding prechecks for a source without changing anything.

Reports the source's current status and how many live events would be
archived or discarded, plus any issues that would block the offboarding.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSourceNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Lifecycle == nil {
			return fmt.Errorf("lifecycle service not initialized")
		}

		name := args[0]
		check, err := Lifecycle.ValidateOffboarding(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("validating offboarding for %s: %w", name, err)
		}

		if check.Valid {
			fmt.Printf("%s is ready to offboard\n", check.SourceName)
			fmt.Printf("  Status: %s\n", check.CurrentStatus)
			fmt.Printf("  Events: %d live\n", check.EventCount)
			return nil
		}

		fmt.Printf("%s cannot be offboarded:\n", check.SourceName)
		for _, issue := range check.Issues {
			fmt.Printf("  - %s\n", issue)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateOffboardCmd)
}
