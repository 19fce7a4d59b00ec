// cuneiset builds a glyph-level cuneiform dataset from the Oracc ePSD2
// corpora: download, extract, collate, clean, convert to glyphs and split.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/style"
)

// Version metadata injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit is a sentinel error returned by cobra RunE functions to signal
// non-zero exit. The command has already written its own error to stderr.
var errExit = errors.New("exit")

// run executes the cuneiset CLI with the given args.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	defer flushSentry()
	if err != nil {
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "cuneiset: %v\n", err)
			var he *HintedError
			if errors.As(err, &he) && he.Hint != "" {
				fmt.Fprintf(stderr, "  %s\n", style.Dim.Render(he.Hint))
			}
			reportError(err)
		}
		return 1
	}
	return 0
}

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "cuneiset",
		Short:         "Build glyph-level cuneiform datasets from Oracc",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintf(stderr, "cuneiset: unknown command %q\n", args[0]) //nolint:errcheck // best-effort stderr
			return errExit
		},
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (default $XDG_CONFIG_HOME/cuneiset/config.yaml)")
	flags.String("output-dir", "", "Directory for stage outputs (overrides output_dir)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: text or json")
	flags.String("color", "auto", "Color output: always, auto, never")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		colorMode, _ := cmd.Flags().GetString("color")
		switch colorMode {
		case "always", "auto", "never":
			style.SetColorMode(colorMode)
			return nil
		default:
			return fmt.Errorf("invalid --color value %q: must be always, auto, or never", colorMode)
		}
	}
	root.AddCommand(
		newStageCmd(stdout, stderr, stageDownload),
		newStageCmd(stdout, stderr, stageExtract),
		newStageCmd(stdout, stderr, stageCollate),
		newStageCmd(stdout, stderr, stageClean),
		newStageCmd(stdout, stderr, stageLookups),
		newStageCmd(stdout, stderr, stageGlyphs),
		newStageCmd(stdout, stderr, stageSplit),
		newRunCmd(stdout, stderr),
		newCorporaCmd(stdout, stderr),
		newConvertCmd(stdout, stderr),
		newServeCmd(stdout, stderr),
		newBrowseCmd(stdout, stderr),
		newPublishCmd(stdout, stderr),
		newVerifyCmd(stdout, stderr),
		newDoctorCmd(stdout, stderr),
		newConfigCmd(stdout, stderr),
		newVersionCmd(stdout),
	)
	return root
}
