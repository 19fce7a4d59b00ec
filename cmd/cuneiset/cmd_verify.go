package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/pipeline"
	"github.com/julianknutsen/cuneiset/internal/style"
)

func newVerifyCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the output files against the last run manifest",
		Long: `Recompute the sha256 of every output recorded in run_manifest.json and
report files that are missing or were modified since the run. Exits
non-zero on any mismatch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, stdout, stderr)
		},
	}
}

func runVerify(cmd *cobra.Command, stdout, _ io.Writer) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := pipeline.ReadManifest(cfg.OutputDir)
	if err != nil {
		return hintWrap(fmt.Errorf("reading manifest: %w", err))
	}
	results, err := pipeline.Verify(cfg.OutputDir, m)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "run %s\n", m.RunID)
	bad := 0
	for _, r := range results {
		switch {
		case r.Missing:
			bad++
			fmt.Fprintf(stdout, "  %s %s: missing\n", style.Error.Render(style.IconFail), r.Path)
		case !r.Match:
			bad++
			fmt.Fprintf(stdout, "  %s %s: modified\n", style.Error.Render(style.IconFail), r.Path)
		default:
			fmt.Fprintf(stdout, "  %s %s\n", style.Success.Render(style.IconPass), r.Path)
		}
	}
	if bad > 0 {
		fmt.Fprintf(stdout, "\n%s of %d outputs changed\n", plural(bad, "file"), len(results))
		return errExit
	}
	fmt.Fprintf(stdout, "\nall %d outputs match\n", len(results))
	return nil
}
