package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export [name]",
	Short: "Export live events as CSV",
	Long: `Serialize the live event log as CSV, filtered to one source when a name
is given. Output goes to stdout unless --output names a file.`,
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

		csvText, err := Events.ExportCSV(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("exporting events: %w", err)
		}

		if exportOutput == "" {
			fmt.Print(csvText)
			return nil
		}

		if err := os.WriteFile(exportOutput, []byte(csvText), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", exportOutput, err)
		}
		fmt.Printf("exported events to %s\n", exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write CSV to this file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
