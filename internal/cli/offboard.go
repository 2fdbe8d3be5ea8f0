package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var offboardArchive bool

var offboardCmd = &cobra.Command{
	Use:   "offboard <name>",
	Short: "Offboard a source from monitoring",
	Long: `Stop monitoring a source. Its live events are archived by default
(pass --archive=false to discard them), and the source is marked OFFBOARDED.

The record is retained and its name stays reserved: an offboarded name can
never be onboarded again.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSourceNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Lifecycle == nil {
			return fmt.Errorf("lifecycle service not initialized")
		}

		name := args[0]
		res := Lifecycle.OffboardSource(cmd.Context(), name, offboardArchive)
		if !res.Success {
			return fmt.Errorf("offboarding %s: %w", name, res.Err)
		}

		fmt.Println(res.Message)
		return nil
	},
}

func init() {
	offboardCmd.Flags().BoolVar(&offboardArchive, "archive", true, "archive live events before removing them")
	rootCmd.AddCommand(offboardCmd)
}
