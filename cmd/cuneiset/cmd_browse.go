package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/split"
	"github.com/julianknutsen/cuneiset/internal/tui"
)

func newBrowseCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [csv]",
		Short: "Browse a dataset file in an interactive terminal UI",
		Long: `Open a dataset CSV (default: train.csv in the output directory) and
browse its tablets. Filter by period with p, by genre with g, search with
/ and open a tablet with enter.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, stdout, stderr, args)
		},
	}
}

func runBrowse(cmd *cobra.Command, _, _ io.Writer, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path = split.OutputPath(cfg.OutputDir, split.Train)
	}
	if _, err := os.Stat(path); err != nil {
		return hintWrap(fmt.Errorf("opening %s: %w", filepath.Base(path), err))
	}
	if err := tui.Run(tui.Config{Path: path}); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
