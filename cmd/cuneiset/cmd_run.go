package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/pipeline"
	"github.com/julianknutsen/cuneiset/internal/style"
)

func newRunCmd(stdout, stderr io.Writer) *cobra.Command {
	var from, to string
	var offline bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the whole pipeline, or a range of stages",
		Long: `Run the pipeline stages in order:

  download → extract → collate → clean → signlist → glyphs → split

Each run gets a run ID and writes run_manifest.json to the output
directory with per-stage row counts, skipped records and output hashes.

Examples:
  cuneiset run
  cuneiset run --offline
  cuneiset run --from clean --to glyphs`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := pipeline.Options{Offline: offline}
			var err error
			if from != "" {
				if opts.From, err = pipeline.ParseStage(from); err != nil {
					return err
				}
			}
			if to != "" {
				if opts.To, err = pipeline.ParseStage(to); err != nil {
					return err
				}
			}
			return runPipeline(cmd, stdout, stderr, opts)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First stage to run")
	cmd.Flags().StringVar(&to, "to", "", "Last stage to run")
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the download stage and use the cache")
	_ = cmd.RegisterFlagCompletionFunc("from", completeStages)
	_ = cmd.RegisterFlagCompletionFunc("to", completeStages)

	return cmd
}

func runPipeline(cmd *cobra.Command, stdout, stderr io.Writer, opts pipeline.Options) error {
	env, err := loadEnv(cmd, stderr)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	p := newProgressPrinter(stdout)
	r := &pipeline.Runner{
		Config:   env.cfg,
		Logger:   env.log,
		Metrics:  env.metrics,
		Progress: p.handle,
	}
	m, err := r.Run(ctx, opts)
	p.stop()
	if err != nil {
		return hintWrap(err)
	}
	fmt.Fprintf(stdout, "\n%s run %s: %s written to %s\n",
		style.Success.Render(style.IconPass), m.RunID,
		plural(len(m.Outputs()), "file"), env.cfg.OutputDir)
	return nil
}

// progressPrinter renders pipeline events, one spinner per stage.
type progressPrinter struct {
	w       io.Writer
	mu      sync.Mutex
	spinner *style.Spinner
	tty     bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w, tty: style.IsTerminal(w)}
}

func (p *progressPrinter) handle(e pipeline.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case pipeline.EventStart:
		p.spinner = style.StartSpinner(p.w, style.Info.Render(style.IconStage+" "+string(e.Stage)))
	case pipeline.EventProgress:
		if p.tty && p.spinner != nil {
			p.spinner.Update(fmt.Sprintf("%s %s: %s", style.IconStage, e.Stage, e.Message))
			return
		}
		fmt.Fprintf(p.w, "  %s\n", style.Dim.Render(e.Message))
	case pipeline.EventDone:
		p.stopLocked()
		fmt.Fprintf(p.w, "%s %s: %s\n", style.Success.Render(style.IconPass), e.Stage, e.Message)
		printReports(p.w, e.Reports)
	case pipeline.EventSkipped:
		fmt.Fprintf(p.w, "%s %s: skipped (%s)\n", style.Warning.Render(style.IconWarn), e.Stage, e.Message)
	case pipeline.EventFailed:
		p.stopLocked()
		fmt.Fprintf(p.w, "%s %s: %s\n", style.Error.Render(style.IconFail), e.Stage, e.Message)
	}
}

// printReports renders each non-empty report as an indented table.
func printReports(w io.Writer, reports []dataset.Report) {
	for _, r := range reports {
		if len(r.Counts) == 0 {
			continue
		}
		tbl := style.NewTable(
			style.Column{Name: r.Title, Width: 44},
			style.Column{Name: "COUNT", Width: 8, Align: style.AlignRight},
		).SetIndent("    ")
		for _, c := range r.Counts {
			v := c.Value
			if v == "" {
				v = "(empty)"
			}
			tbl.AddRow(v, fmt.Sprint(c.N))
		}
		fmt.Fprintf(w, "\n%s", tbl.Render())
	}
}

func (p *progressPrinter) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *progressPrinter) stopLocked() {
	if p.spinner != nil {
		p.spinner.Stop()
		p.spinner = nil
	}
}
