package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianknutsen/cuneiset/internal/clean"
	"github.com/julianknutsen/cuneiset/internal/collate"
	"github.com/julianknutsen/cuneiset/internal/config"
	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/extract"
	"github.com/julianknutsen/cuneiset/internal/glyphs"
	"github.com/julianknutsen/cuneiset/internal/logging"
	"github.com/julianknutsen/cuneiset/internal/metrics"
	"github.com/julianknutsen/cuneiset/internal/oracc"
	"github.com/julianknutsen/cuneiset/internal/signlist"
	"github.com/julianknutsen/cuneiset/internal/split"
)

// EventKind says what happened to a stage.
type EventKind string

// Event kinds.
const (
	EventStart    EventKind = "start"
	EventProgress EventKind = "progress"
	EventDone     EventKind = "done"
	EventSkipped  EventKind = "skipped"
	EventFailed   EventKind = "failed"
)

// Event reports pipeline progress. Done events carry the stage's reports.
type Event struct {
	Stage   Stage
	Kind    EventKind
	Message string
	Reports []dataset.Report
}

// Options selects what a run does.
type Options struct {
	From    Stage
	To      Stage
	Offline bool

	// FetchSignList downloads a missing OSL sign list before the
	// signlist stage reads it. Ignored when Offline.
	FetchSignList bool
}

// Runner runs pipeline stages with a shared configuration.
type Runner struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Client   *oracc.Client // built from Config when nil
	Progress func(Event)
	Now      func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) emit(e Event) {
	if r.Progress != nil {
		r.Progress(e)
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

func (r *Runner) client() *oracc.Client {
	if r.Client != nil {
		return r.Client
	}
	cfg := r.Config
	c := oracc.NewClient(cfg.OraccBaseURL, cfg.CacheDir, cfg.DownloadTimeout)
	c.Workers = cfg.DownloadWorkers
	c.Logger = r.logger()
	return c
}

// Run executes the selected stages in order and writes the manifest and
// metrics. The manifest is written even when a stage fails.
func (r *Runner) Run(ctx context.Context, opts Options) (*Manifest, error) {
	stages, err := Between(opts.From, opts.To)
	if err != nil {
		return nil, err
	}
	cfg := r.Config
	corpora, err := cfg.SelectedCorpora()
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		RunID:   uuid.NewString(),
		Started: r.now().UTC(),
		Config: RunConfig{
			Corpora:      corpusNames(corpora),
			TestFraction: cfg.Split.TestFraction,
			ValFraction:  cfg.Split.ValFraction,
			Seed:         cfg.Split.Seed,
			TrainOnly:    cfg.Split.TrainOnlyGenres,
		},
	}
	ctx = logging.WithRunID(ctx, m.RunID)
	log := r.logger()
	log.InfoContext(ctx, "pipeline started", "stages", len(stages), "from", stages[0], "to", stages[len(stages)-1])

	runErr := r.runStages(ctx, stages, corpora, opts, m)
	m.Finished = r.now().UTC()
	if runErr != nil {
		m.Error = runErr.Error()
	}
	if err := WriteManifest(cfg.OutputDir, m); err != nil && runErr == nil {
		runErr = fmt.Errorf("writing manifest: %w", err)
	}
	if r.Metrics != nil {
		if err := r.Metrics.WriteFile(cfg.MetricsPath()); err != nil {
			log.WarnContext(ctx, "writing metrics failed", "error", err)
		}
	}
	if runErr != nil {
		return m, runErr
	}
	log.InfoContext(ctx, "pipeline finished", "seconds", m.Finished.Sub(m.Started).Seconds())
	return m, nil
}

func corpusNames(corpora []oracc.Corpus) []string {
	names := make([]string, len(corpora))
	for i, c := range corpora {
		names[i] = string(c)
	}
	return names
}

func (r *Runner) runStages(ctx context.Context, stages []Stage, corpora []oracc.Corpus, opts Options, m *Manifest) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if st == StageDownload && opts.Offline {
			r.emit(Event{Stage: st, Kind: EventSkipped, Message: "offline"})
			continue
		}
		r.emit(Event{Stage: st, Kind: EventStart})
		rec := StageRecord{Stage: st, Started: r.now().UTC()}
		paths, err := r.runStage(ctx, st, corpora, opts, &rec)
		rec.Seconds = r.now().Sub(rec.Started).Seconds()
		if err == nil {
			rec.Outputs, err = describeOutputs(r.Config.OutputDir, paths)
		}
		m.Stages = append(m.Stages, rec)
		if err != nil {
			r.emit(Event{Stage: st, Kind: EventFailed, Message: err.Error()})
			return fmt.Errorf("%s: %w", st, err)
		}
		r.emit(Event{Stage: st, Kind: EventDone, Message: summary(rec), Reports: rec.Reports})
	}
	return nil
}

func summary(rec StageRecord) string {
	s := fmt.Sprintf("%d rows", rec.Rows)
	if rec.Dropped > 0 {
		s += fmt.Sprintf(", %d dropped", rec.Dropped)
	}
	if rec.Skipped > 0 {
		s += fmt.Sprintf(", %d skipped", rec.Skipped)
	}
	if rec.Note != "" {
		s += ", " + rec.Note
	}
	return s
}

// runStage runs one stage, fills rec and returns the files it wrote.
func (r *Runner) runStage(ctx context.Context, st Stage, corpora []oracc.Corpus, opts Options, rec *StageRecord) ([]string, error) {
	cfg := r.Config
	log := r.logger()
	switch st {
	case StageDownload:
		c := r.client()
		var mu sync.Mutex
		err := c.DownloadAll(ctx, corpora, func(corpus oracc.Corpus, fetched bool) {
			mu.Lock()
			defer mu.Unlock()
			msg := string(corpus) + " cached"
			if fetched {
				rec.Rows++
				msg = string(corpus) + " downloaded"
			}
			r.emit(Event{Stage: st, Kind: EventProgress, Message: msg})
		})
		if err != nil {
			return nil, err
		}
		if _, err := c.DownloadSignList(ctx, cfg.SignListURL, cfg.SignListFile()); err != nil {
			return nil, err
		}
		rec.Note = fmt.Sprintf("%d of %d corpora fetched", rec.Rows, len(corpora))
		return nil, nil

	case StageExtract:
		results, err := extract.Run(ctx, extract.Options{
			CacheDir:  cfg.CacheDir,
			OutputDir: cfg.OutputDir,
			Workers:   cfg.LoadWorkers,
			Logger:    log,
			Metrics:   r.Metrics,
		}, corpora)
		var paths []string
		for _, res := range results {
			rec.Rows += res.Rows
			rec.Skipped += len(res.Skipped)
			rec.SkipIDs = append(rec.SkipIDs, res.Skipped.IDs()...)
			if res.Path != "" {
				paths = append(paths, res.Path)
			}
			r.emit(Event{Stage: st, Kind: EventProgress,
				Message: fmt.Sprintf("%s: %d rows, %s", res.Corpus, res.Rows, res.Skipped)})
		}
		return paths, err

	case StageCollate:
		res, err := collate.Run(ctx, collate.Options{OutputDir: cfg.OutputDir, Logger: log, Metrics: r.Metrics}, corpora)
		if err != nil {
			return nil, err
		}
		rec.Rows = res.Rows()
		rec.Dropped = res.Start - res.Rows()
		rec.Reports = res.Reports()
		return []string{res.Path}, nil

	case StageClean:
		res, err := clean.Run(ctx, clean.Options{OutputDir: cfg.OutputDir, Logger: log, Metrics: r.Metrics})
		if err != nil {
			return nil, err
		}
		rec.Rows = res.Rows
		rec.Dropped = len(res.Dropped)
		rec.Warnings = len(res.Issues)
		rec.Reports = res.Reports()
		return []string{res.Path}, nil

	case StageSignList:
		if opts.FetchSignList && !opts.Offline {
			fetched, err := r.client().DownloadSignList(ctx, cfg.SignListURL, cfg.SignListFile())
			if err != nil {
				return nil, err
			}
			if fetched {
				r.emit(Event{Stage: st, Kind: EventProgress, Message: "sign list downloaded"})
			}
		}
		res, err := signlist.Run(ctx, signlist.Options{
			OutputDir: cfg.OutputDir,
			SignList:  cfg.SignListFile(),
			EPSD2:     cfg.EPSD2SignListFile(),
			Logger:    log,
			Metrics:   r.Metrics,
		})
		if err != nil {
			return nil, err
		}
		rec.Rows = res.Readings
		rec.Warnings = len(res.Conflicts)
		rec.Note = fmt.Sprintf("%d glyph names", res.GlyphNames)
		return res.Paths, nil

	case StageGlyphs:
		res, err := glyphs.Run(ctx, glyphs.Options{
			OutputDir: cfg.OutputDir,
			Workers:   cfg.LoadWorkers,
			Logger:    log,
			Metrics:   r.Metrics,
		})
		if err != nil {
			return nil, err
		}
		rec.Rows = res.Rows
		rec.Dropped = res.Input - res.Rows
		rec.Note = fmt.Sprintf("%d glyphs, %d unknown morphemes", res.Glyphs, res.Stats.Unknown)
		rec.Reports = res.Reports()
		paths := append([]string{res.Path}, res.GenrePaths...)
		return append(paths, filepath.Join(cfg.OutputDir, glyphs.ObservedFile)), nil

	case StageSplit:
		res, err := split.Run(ctx, split.Options{
			OutputDir: cfg.OutputDir,
			Params: split.Params{
				TestFraction:    cfg.Split.TestFraction,
				ValFraction:     cfg.Split.ValFraction,
				Seed:            cfg.Split.Seed,
				TrainOnlyGenres: cfg.Split.TrainOnlyGenres,
			},
			Logger:  log,
			Metrics: r.Metrics,
		})
		if err != nil {
			return nil, err
		}
		for _, p := range res.Parts {
			rec.Rows += p.Table.Len()
		}
		rec.Note = fmt.Sprintf("train %d, validation %d, test %d",
			res.Size(split.Train), res.Size(split.Validation), res.Size(split.Test))
		rec.Reports = res.Reports()
		return append(res.Paths, res.SummaryPath), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownStage, st)
}
