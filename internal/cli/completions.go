package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// activeSourceNames lists ACTIVE source names matching the prefix, with the
// location as the completion description.
func activeSourceNames(cmd *cobra.Command, toComplete string) []string {
	if Registry == nil {
		return nil
	}

	sources, err := Registry.ListActive(cmd.Context())
	if err != nil {
		return nil
	}

	var names []string
	for _, src := range sources {
		if toComplete == "" || strings.HasPrefix(src.Name, toComplete) {
			names = append(names, src.Name+"\t"+src.Location)
		}
	}
	return names
}

// trackedMetricNames lists the metrics tracked on the named source.
func trackedMetricNames(cmd *cobra.Command, source, toComplete string) []string {
	if Registry == nil {
		return nil
	}

	src, err := Registry.FindByName(cmd.Context(), source)
	if err != nil {
		return nil
	}

	var names []string
	for _, metric := range src.Metrics {
		if toComplete == "" || strings.HasPrefix(metric, toComplete) {
			names = append(names, metric)
		}
	}
	return names
}

// completeSourceNames completes a single <name> argument.
func completeSourceNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return activeSourceNames(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeSourceThenMetric completes <source> <metric> argument pairs.
func completeSourceThenMetric(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return activeSourceNames(cmd, toComplete), cobra.ShellCompDirectiveNoFileComp
	case 1:
		return trackedMetricNames(cmd, args[0], toComplete), cobra.ShellCompDirectiveNoFileComp
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}
