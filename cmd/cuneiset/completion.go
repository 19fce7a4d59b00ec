package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/config"
	"github.com/julianknutsen/cuneiset/internal/oracc"
	"github.com/julianknutsen/cuneiset/internal/pipeline"
)

// completeStages completes --from and --to.
func completeStages(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return withPrefix(pipeline.StageNames(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeCorpora completes a single corpus argument.
func completeCorpora(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return withPrefix(oracc.CorpusNames(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeConfigKeys completes the key argument of config get and set.
func completeConfigKeys(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return withPrefix(config.Keys(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

func withPrefix(items []string, prefix string) []string {
	var out []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			out = append(out, item)
		}
	}
	return out
}
