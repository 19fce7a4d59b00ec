// Package glyphs converts cleaned transliterations into glyph names and
// cuneiform unicode using the sign-list lookups.
package glyphs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianknutsen/cuneiset/internal/clean"
	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/logging"
	"github.com/julianknutsen/cuneiset/internal/metrics"
	"github.com/julianknutsen/cuneiset/internal/signlist"
)

// Stage is the metrics label of this stage.
const Stage = "glyphs"

// Output file names.
const (
	OutputFile   = "5_with_glyphs.csv"
	ObservedFile = "glyph_to_observed_readings.json"
)

// GenreOutputPath is where the rows of one genre are written.
func GenreOutputPath(dir, genre string) string {
	name := strings.TrimSuffix(OutputFile, ".csv") + "_" + strings.ReplaceAll(genre, "/", "") + ".csv"
	return filepath.Join(dir, name)
}

// Options configures a glyph run.
type Options struct {
	OutputDir string
	Workers   int
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Result summarises a glyph run.
type Result struct {
	Path                string
	GenrePaths          []string
	Input               int
	Rows                int
	DupTransliterations int
	DupGlyphs           int
	Glyphs              int
	Stats               *Stats
}

// TopN is how many entries each unknown-reading report keeps.
const TopN = 20

// Reports returns the most frequent unknown readings per category and the
// glyph names that could not be rendered.
func (r *Result) Reports() []dataset.Report {
	st := r.Stats
	return []dataset.Report{
		{Title: "unknown sign names", Counts: Top(st.UnknownSignNames, TopN)},
		{Title: "unknown numbers", Counts: Top(st.UnknownNumbers, TopN)},
		{Title: "unknown readings", Counts: Top(st.UnknownOther, TopN)},
		{Title: "glyph names missing from the unicode table", Counts: Top(st.NameNotInMap, TopN)},
		{Title: "glyph names without unicode", Counts: Top(st.NoUnicode, TopN)},
	}
}

// Run converts the cleaned table in OutputDir with the lookups written
// there and writes the glyph tables and observed readings.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	defer func() { opts.Metrics.StageDuration(Stage, time.Since(start)) }()
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("stage", Stage)

	lookups, err := signlist.LoadLookups(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("loading lookups: %w", err)
	}
	in, err := dataset.ReadCSV(filepath.Join(opts.OutputDir, clean.OutputFile))
	if err != nil {
		return nil, err
	}

	conv := NewConverter(lookups)
	tbl, err := ConvertTable(ctx, conv, in, opts.Workers)
	if err != nil {
		return nil, err
	}
	res := &Result{Input: in.Len(), Stats: conv.Stats()}
	if res.DupTransliterations, err = tbl.DedupBy(dataset.ColTransliteration); err != nil {
		return nil, err
	}
	if res.DupGlyphs, err = tbl.DedupBy(dataset.ColGlyphs); err != nil {
		return nil, err
	}
	res.Rows = tbl.Len()
	glyphCol, _ := tbl.Column(dataset.ColGlyphs)
	for _, g := range glyphCol {
		res.Glyphs += CountGlyphs(g)
	}

	st := res.Stats
	log.InfoContext(ctx, "converted morphemes", "converted", st.Converted, "unknown", st.Unknown,
		"unicode_found", st.FoundUnicode, "unicode_missing", st.UnicodeMisses())
	dataset.LogReports(ctx, log, res.Reports())
	log.InfoContext(ctx, "dropped duplicates",
		"transliteration", res.DupTransliterations, "glyphs", res.DupGlyphs, "rows", res.Rows, "glyph_count", res.Glyphs)
	opts.Metrics.Morphemes(metrics.MorphemeConverted, st.Converted)
	opts.Metrics.Morphemes(metrics.MorphemeUnknown, st.Unknown)
	opts.Metrics.Records(Stage, metrics.OutcomeIn, res.Input)
	opts.Metrics.Records(Stage, metrics.OutcomeDropped, res.Input-res.Rows)
	opts.Metrics.Records(Stage, metrics.OutcomeOut, res.Rows)

	if err := writeGenres(tbl, opts.OutputDir, res); err != nil {
		return nil, err
	}
	res.Path = filepath.Join(opts.OutputDir, OutputFile)
	if err := tbl.WriteCSV(res.Path); err != nil {
		return nil, err
	}
	if err := writeObserved(filepath.Join(opts.OutputDir, ObservedFile), st.Observed); err != nil {
		return nil, err
	}
	return res, nil
}

// ConvertTable builds the glyph table from a cleaned table, converting rows
// on up to workers goroutines. Row order is kept.
func ConvertTable(ctx context.Context, conv *Converter, in *dataset.Table, workers int) (*dataset.Table, error) {
	if err := in.Require(dataset.ColID, dataset.ColTransliterationClean, dataset.ColPeriod, dataset.ColGenre); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	out := make([]Conversion, in.Len())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range out {
		text := in.Get(i, dataset.ColTransliterationClean)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = conv.Convert(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tbl := dataset.New(dataset.FinalColumns...)
	for i, c := range out {
		r := in.Row(i)
		tbl.AppendMap(map[string]string{
			dataset.ColID:              r.Get(dataset.ColID),
			dataset.ColTransliteration: c.Transliteration,
			dataset.ColGlyphNames:      c.GlyphNames,
			dataset.ColGlyphs:          c.Glyphs,
			dataset.ColPeriod:          r.Get(dataset.ColPeriod),
			dataset.ColGenre:           r.Get(dataset.ColGenre),
		})
	}
	return tbl, nil
}

func writeGenres(tbl *dataset.Table, dir string, res *Result) error {
	genres, _ := tbl.Column(dataset.ColGenre)
	var order []string
	rows := make(map[string][]int)
	for i, genre := range genres {
		if _, ok := rows[genre]; !ok {
			order = append(order, genre)
		}
		rows[genre] = append(rows[genre], i)
	}
	for _, genre := range order {
		path := GenreOutputPath(dir, genre)
		if err := tbl.Subset(rows[genre]).WriteCSV(path); err != nil {
			return err
		}
		res.GenrePaths = append(res.GenrePaths, path)
	}
	return nil
}

func writeObserved(path string, observed map[string]map[string]int) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(observed); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
