package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	onboardName          string
	onboardURL           string
	onboardKPIs          []string
	onboardThresholdsRaw map[string]string
	onboardFile          string
)

// onboardEntry is one source definition in a bulk onboarding file.
type onboardEntry struct {
	Name       string             `yaml:"name"`
	URL        string             `yaml:"url"`
	KPIs       []string           `yaml:"kpis"`
	Thresholds map[string]float64 `yaml:"thresholds"`
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Onboard a source for KPI monitoring",
	Long: `Onboard a tabular source (published Google Sheet, CSV feed) for threshold
monitoring. The source's header row is validated against the requested KPI
columns before anything is registered.

Either pass a single source via --name/--url/--kpis/--thresholds, or a YAML
file of sources via --file:

    - name: q3-sales
      url: https://example.com/q3.csv
      kpis: [Revenue, Units Sold]
      thresholds:
        Revenue: 50000
        Units Sold: 1200`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Lifecycle == nil {
			return fmt.Errorf("lifecycle service not initialized")
		}

		if onboardFile != "" {
			return onboardFromFile(cmd, onboardFile)
		}

		if onboardName == "" || onboardURL == "" {
			return fmt.Errorf("--name and --url are required (or use --file for bulk onboarding)")
		}

		thresholds, err := parseThresholds(onboardThresholdsRaw)
		if err != nil {
			return err
		}

		res := Lifecycle.OnboardSource(cmd.Context(), onboardURL, onboardName, onboardKPIs, thresholds)
		if !res.Success {
			return fmt.Errorf("onboarding %s: %w", onboardName, res.Err)
		}

		fmt.Println(res.Message)
		return nil
	},
}

// onboardFromFile onboards every entry in a YAML sources file, continuing
// past individual failures so one bad entry does not block the rest.
func onboardFromFile(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading sources file: %w", err)
	}

	var entries []onboardEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing sources file: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no sources found in %s", path)
	}

	failed := 0
	for _, e := range entries {
		res := Lifecycle.OnboardSource(cmd.Context(), e.URL, e.Name, e.KPIs, e.Thresholds)
		if !res.Success {
			failed++
			fmt.Printf("  %s: %v\n", e.Name, res.Err)
			continue
		}
		fmt.Printf("  %s\n", res.Message)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed to onboard", failed, len(entries))
	}

	fmt.Printf("onboarded %d sources from %s\n", len(entries), path)
	return nil
}

// parseThresholds converts --thresholds values ("Revenue=50000") to floats.
func parseThresholds(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	thresholds := make(map[string]float64, len(raw))
	for metric, value := range raw {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold for %s: %q is not a number", metric, value)
		}
		thresholds[metric] = f
	}
	return thresholds, nil
}

func init() {
	onboardCmd.Flags().StringVar(&onboardName, "name", "", "unique source name")
	onboardCmd.Flags().StringVar(&onboardURL, "url", "", "source URL (published sheet or CSV feed)")
	onboardCmd.Flags().StringSliceVar(&onboardKPIs, "kpis", nil, "KPI column names to track")
	onboardCmd.Flags().StringToStringVar(&onboardThresholdsRaw, "thresholds", nil, "per-KPI minimum thresholds (metric=value)")
	onboardCmd.Flags().StringVar(&onboardFile, "file", "", "YAML file of sources to onboard in bulk")
	rootCmd.AddCommand(onboardCmd)
}
