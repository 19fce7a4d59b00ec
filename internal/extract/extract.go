// Package extract turns downloaded corpora into one CSV of raw
// transliterations per corpus.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/logging"
	"github.com/julianknutsen/cuneiset/internal/metrics"
	"github.com/julianknutsen/cuneiset/internal/oracc"
)

// Stage is the metrics label of this stage.
const Stage = "extract"

// Columns is the header of every per-corpus file.
var Columns = append([]string{dataset.ColID, dataset.ColTransliteration}, oracc.CatalogueFields...)

// Options configures an extraction run.
type Options struct {
	CacheDir  string
	OutputDir string
	Workers   int
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return logging.Discard()
	}
	return o.Logger
}

// Result summarises one corpus. Path is empty when nothing was written.
type Result struct {
	Corpus  oracc.Corpus
	Path    string
	Total   int
	Rows    int
	Skipped dataset.SkipList
}

// OutputPath returns the per-corpus CSV path.
func OutputPath(dir string, corpus oracc.Corpus) string {
	return filepath.Join(dir, fmt.Sprintf("1_%s.csv", corpus))
}

// Run extracts each corpus in order. A corpus that is not downloaded aborts
// the run.
func Run(ctx context.Context, opts Options, corpora []oracc.Corpus) ([]Result, error) {
	start := time.Now()
	defer func() { opts.Metrics.StageDuration(Stage, time.Since(start)) }()

	results := make([]Result, 0, len(corpora))
	for _, c := range corpora {
		res, err := Corpus(ctx, opts, c)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}

type loaded struct {
	id  string
	row map[string]string
	err error
}

// Corpus extracts a single corpus to its CSV file.
func Corpus(ctx context.Context, opts Options, corpus oracc.Corpus) (*Result, error) {
	log := opts.logger().With("stage", Stage, "corpus", corpus)

	cat, err := oracc.Load(opts.CacheDir, corpus)
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "loading texts", "members", len(cat.Entries))

	out := make([]loaded, len(cat.Entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for i, entry := range cat.Entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = loadEntry(cat, entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Corpus: corpus, Total: len(cat.Entries)}
	tbl := dataset.New(Columns...)
	for _, l := range out {
		if l.err != nil {
			res.Skipped.Add(l.id, l.err)
			log.DebugContext(ctx, "skipping text", "id", l.id, "err", l.err)
			continue
		}
		tbl.AppendMap(l.row)
	}
	res.Rows = tbl.Len()
	opts.Metrics.Records(Stage, metrics.OutcomeIn, res.Total)
	opts.Metrics.Records(Stage, metrics.OutcomeSkipped, len(res.Skipped))
	opts.Metrics.Records(Stage, metrics.OutcomeOut, res.Rows)

	if len(res.Skipped) > 0 {
		log.WarnContext(ctx, "failed to load texts", "count", len(res.Skipped), "ids", res.Skipped.IDs())
	}
	if res.Rows == 0 {
		log.WarnContext(ctx, "no texts loaded from corpus")
		// A file left by an earlier run would otherwise be collated again.
		if err := os.Remove(OutputPath(opts.OutputDir, corpus)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("removing stale extract: %w", err)
		}
		return res, nil
	}

	res.Path = OutputPath(opts.OutputDir, corpus)
	if err := tbl.WriteCSV(res.Path); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "wrote corpus", "path", res.Path, "rows", res.Rows)
	return res, nil
}

func loadEntry(cat *oracc.Catalogue, e oracc.CatalogueEntry) loaded {
	id := e.FileID()
	if id == "" {
		id = e.Key
	}
	if err := e.Validate(); err != nil {
		return loaded{id: id, err: err}
	}
	nodes, err := cat.LoadText(e)
	if err != nil {
		return loaded{id: id, err: err}
	}
	text, langs := oracc.Transliterate(nodes)

	row := make(map[string]string, len(Columns))
	for _, f := range oracc.CatalogueFields {
		row[f] = e.Field(f)
	}
	row[dataset.ColID] = id
	row[dataset.ColTransliteration] = text
	row[dataset.ColLangs] = langs
	return loaded{id: id, row: row}
}
