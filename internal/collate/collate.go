// Package collate merges the per-corpus extracts into one table of
// Sumerian tablets with standardised period and genre labels.
package collate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/extract"
	"github.com/julianknutsen/cuneiset/internal/logging"
	"github.com/julianknutsen/cuneiset/internal/metrics"
	"github.com/julianknutsen/cuneiset/internal/oracc"
)

// Stage is the metrics label of this stage.
const Stage = "collate"

// OutputFile is the collated table's file name.
const OutputFile = "2_tablets.csv"

// ErrNoInputs indicates none of the per-corpus files exist.
var ErrNoInputs = errors.New("no extracted corpus files found")

// Columns are the columns kept in the collated table.
var Columns = []string{dataset.ColID, dataset.ColTransliteration, dataset.ColPeriod, dataset.ColGenre}

var required = []string{
	dataset.ColID, dataset.ColTransliteration, dataset.ColLanguage,
	dataset.ColLangs, dataset.ColPeriod, dataset.ColGenre,
}

var (
	excludedPeriods = map[string]bool{"Ebla": true, "fake": true, "Pre-Uruk V": true}

	periodAliases = map[string]string{
		"":          "Unknown",
		"Uncertain": "Unknown",
	}
	genreAliases = map[string]string{
		"":                  "Unknown",
		"uncertain":         "Unknown",
		"Royal/Monumental":  "Royal Inscription",
		"Royal Inscription": "Royal Inscription",
		"Lexical; School":   "Lexical",
		"Lexical":           "Lexical",
		"Liturgy":           "Liturgy",
		"Ritual":            "Liturgy",
		"Hymn-Prayer":       "Liturgy",
		"Mathematical":      "Math/Science",
		"Scientific":        "Math/Science",
		"Astronomical":      "Math/Science",
	}
)

// StandardPeriod maps a catalogue period onto the dataset's labels.
func StandardPeriod(p string) string {
	if s, ok := periodAliases[p]; ok {
		return s
	}
	return p
}

// StandardGenre maps a catalogue genre onto the dataset's labels.
func StandardGenre(g string) string {
	if s, ok := genreAliases[g]; ok {
		return s
	}
	return g
}

// Step is the row count after one filtering step.
type Step struct {
	Name string
	Rows int
}

// Result summarises a collation.
type Result struct {
	Path    string
	Inputs  []string
	Start   int
	Steps   []Step
	Periods []dataset.Count
	Genres  []dataset.Count
}

// Rows returns the final row count.
func (r *Result) Rows() int {
	if len(r.Steps) == 0 {
		return r.Start
	}
	return r.Steps[len(r.Steps)-1].Rows
}

// Reports returns the period and genre counts of the collated table.
func (r *Result) Reports() []dataset.Report {
	return []dataset.Report{
		{Title: "period counts", Counts: r.Periods},
		{Title: "genre counts", Counts: r.Genres},
	}
}

// Options configures a collation run.
type Options struct {
	OutputDir string
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Run reads the extracts of the given corpora from OutputDir, filters and
// standardises them, and writes OutputFile.
func Run(ctx context.Context, opts Options, corpora []oracc.Corpus) (*Result, error) {
	start := time.Now()
	defer func() { opts.Metrics.StageDuration(Stage, time.Since(start)) }()
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("stage", Stage)

	var tables []*dataset.Table
	res := &Result{}
	for _, c := range corpora {
		path := extract.OutputPath(opts.OutputDir, c)
		tbl, err := dataset.ReadCSV(path)
		if errors.Is(err, os.ErrNotExist) {
			log.WarnContext(ctx, "corpus file missing, skipping", "corpus", c, "path", path)
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := tbl.Require(required...); err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		log.InfoContext(ctx, "loaded corpus", "corpus", c, "rows", tbl.Len())
		tables = append(tables, tbl)
		res.Inputs = append(res.Inputs, path)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, opts.OutputDir)
	}

	tbl, err := Collate(tables, res)
	if err != nil {
		return nil, err
	}
	for _, s := range res.Steps {
		log.InfoContext(ctx, "collate step", "step", s.Name, "rows", s.Rows)
	}
	dataset.LogReports(ctx, log, res.Reports())
	opts.Metrics.Records(Stage, metrics.OutcomeIn, res.Start)
	opts.Metrics.Records(Stage, metrics.OutcomeDropped, res.Start-tbl.Len())
	opts.Metrics.Records(Stage, metrics.OutcomeOut, tbl.Len())

	res.Path = filepath.Join(opts.OutputDir, OutputFile)
	if err := tbl.WriteCSV(res.Path); err != nil {
		return nil, err
	}
	return res, nil
}

// Collate concatenates tables and applies the filters and label
// standardisation in order, recording each step in res.
func Collate(tables []*dataset.Table, res *Result) (*dataset.Table, error) {
	tbl := dataset.Concat(tables...)
	if err := tbl.Require(required...); err != nil {
		return nil, err
	}
	res.Start = tbl.Len()

	tbl.Filter(func(r dataset.Row) bool {
		lang := r.Get(dataset.ColLanguage)
		return (lang == "Sumerian" || lang == "") &&
			!strings.Contains(r.Get(dataset.ColLangs), "akk") &&
			!excludedPeriods[r.Get(dataset.ColPeriod)] &&
			r.Get(dataset.ColGenre) != "fake (modern)"
	})
	res.Steps = append(res.Steps, Step{"drop non-Sumerian", tbl.Len()})

	tbl.Filter(func(r dataset.Row) bool { return r.Get(dataset.ColTransliteration) != "" })
	res.Steps = append(res.Steps, Step{"drop empty transliteration", tbl.Len()})

	if _, err := tbl.DedupBy(dataset.ColID); err != nil {
		return nil, err
	}
	res.Steps = append(res.Steps, Step{"drop duplicate ids", tbl.Len()})

	out, err := tbl.Select(Columns...)
	if err != nil {
		return nil, err
	}
	out.AddColumn(dataset.ColPeriod, func(r dataset.Row) string { return StandardPeriod(r.Get(dataset.ColPeriod)) })
	out.AddColumn(dataset.ColGenre, func(r dataset.Row) string { return StandardGenre(r.Get(dataset.ColGenre)) })

	if res.Periods, err = out.ValueCounts(dataset.ColPeriod); err != nil {
		return nil, err
	}
	if res.Genres, err = out.ValueCounts(dataset.ColGenre); err != nil {
		return nil, err
	}
	return out, nil
}
