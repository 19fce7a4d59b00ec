package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/oracc"
	"github.com/julianknutsen/cuneiset/internal/style"
)

func newCorporaCmd(stdout, _ io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpora",
		Short: "List the ePSD2 corpora and inspect their catalogues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCorporaList(cmd, stdout)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the corpora and whether they are in the cache",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runCorporaList(cmd, stdout)
			},
		},
		&cobra.Command{
			Use:   "summarize <corpus>",
			Short: "Show catalogue field coverage and values for a downloaded corpus",
			Long: `Show, for a downloaded corpus, the share of catalogue entries that
carry each field and the distinct period, genre and language values.

Example:
  cuneiset corpora summarize admin_ur3`,
			Args:              cobra.ExactArgs(1),
			ValidArgsFunction: completeCorpora,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCorporaSummarize(cmd, stdout, args[0])
			},
		},
	)
	return cmd
}

func runCorporaList(cmd *cobra.Command, stdout io.Writer) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	selected, err := cfg.SelectedCorpora()
	if err != nil {
		return err
	}
	enabled := make(map[oracc.Corpus]bool, len(selected))
	for _, c := range selected {
		enabled[c] = true
	}
	client := oracc.NewClient(cfg.OraccBaseURL, cfg.CacheDir, cfg.DownloadTimeout)

	tbl := style.NewTable(
		style.Column{Name: "CORPUS", Width: 20},
		style.Column{Name: "ARCHIVE", Width: 36},
		style.Column{Name: "SELECTED", Width: 8},
		style.Column{Name: "CACHED", Width: 6},
	)
	for _, c := range oracc.Corpora() {
		tbl.AddRow(string(c), c.ArchiveName(), yesNo(enabled[c]), yesNo(client.Downloaded(c)))
	}
	fmt.Fprint(stdout, tbl.Render())
	return nil
}

// summaryFields are the catalogue fields whose distinct values are listed.
var summaryFields = []string{"period", "genre", "language"}

func runCorporaSummarize(cmd *cobra.Command, stdout io.Writer, name string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	corpus, err := oracc.ParseCorpus(name)
	if err != nil {
		return err
	}
	cat, err := oracc.Load(cfg.CacheDir, corpus)
	if err != nil {
		return hintWrap(err)
	}

	fmt.Fprintf(stdout, "%s %s: %d catalogue entries\n\n", style.Info.Render(style.IconStage), corpus, len(cat.Entries))

	coverage := oracc.Summarize(cat.Entries)
	fields := make([]string, 0, len(coverage))
	for f := range coverage {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	tbl := style.NewTable(
		style.Column{Name: "FIELD", Width: 24},
		style.Column{Name: "PRESENT", Width: 8, Align: style.AlignRight},
	).SetIndent("  ")
	for _, f := range fields {
		tbl.AddRow(f, fmt.Sprintf("%.1f%%", coverage[f]))
	}
	fmt.Fprint(stdout, tbl.Render())

	values := oracc.UniqueValues(cat.Entries, summaryFields)
	for _, f := range summaryFields {
		fmt.Fprintf(stdout, "\n%s (%d)\n", style.Bold.Render(f), len(values[f]))
		for _, v := range values[f] {
			if v == "" {
				v = style.Dim.Render("(empty)")
			}
			fmt.Fprintf(stdout, "  %s\n", v)
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
