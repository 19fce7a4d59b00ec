// Package split divides the glyph dataset into train, validation and test
// sets, stratified by period.
package split

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"time"

	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/glyphs"
	"github.com/julianknutsen/cuneiset/internal/logging"
	"github.com/julianknutsen/cuneiset/internal/metrics"
)

// Stage is the metrics label of this stage.
const Stage = "split"

// Split names, in output order.
const (
	Train      = "train"
	Validation = "validation"
	Test       = "test"
)

// Names lists the splits in output order.
var Names = []string{Train, Validation, Test}

// SummaryFile is the workbook of per-split value counts.
const SummaryFile = "split_summary.xlsx"

// OutputPath is where a split is written.
func OutputPath(dir, name string) string { return filepath.Join(dir, name+".csv") }

// Params controls how rows are divided.
type Params struct {
	TestFraction    float64
	ValFraction     float64
	Seed            int64
	TrainOnlyGenres []string
}

// Part is one split with its value counts.
type Part struct {
	Name    string
	Table   *dataset.Table
	Periods []dataset.Count
	Genres  []dataset.Count
}

// Split divides tbl. Rows of a train-only genre go to train. The rest are
// split by period: test takes TestFraction of them, validation takes
// ValFraction of the whole from what remains. Each part is shuffled.
func Split(tbl *dataset.Table, p Params) ([]Part, error) {
	if err := tbl.Require(dataset.ColPeriod, dataset.ColGenre); err != nil {
		return nil, err
	}
	if p.TestFraction < 0 || p.ValFraction < 0 || p.TestFraction+p.ValFraction >= 1 {
		return nil, fmt.Errorf("invalid split fractions test=%v val=%v", p.TestFraction, p.ValFraction)
	}
	trainOnly := make(map[string]bool, len(p.TrainOnlyGenres))
	for _, g := range p.TrainOnlyGenres {
		trainOnly[g] = true
	}

	var reserved, rest []int
	for i := 0; i < tbl.Len(); i++ {
		if trainOnly[tbl.Get(i, dataset.ColGenre)] {
			reserved = append(reserved, i)
		} else {
			rest = append(rest, i)
		}
	}

	rng := rand.New(rand.NewPCG(uint64(p.Seed), uint64(p.Seed)))
	trainVal, test := stratified(tbl, rest, p.TestFraction, rng)
	train, val := stratified(tbl, trainVal, p.ValFraction/(1-p.TestFraction), rng)
	train = append(train, reserved...)

	parts := make([]Part, 0, len(Names))
	for _, x := range []struct {
		name string
		rows []int
	}{{Train, train}, {Validation, val}, {Test, test}} {
		rng.Shuffle(len(x.rows), func(i, j int) { x.rows[i], x.rows[j] = x.rows[j], x.rows[i] })
		sub := tbl.Subset(x.rows)
		periods, err := sub.ValueCounts(dataset.ColPeriod)
		if err != nil {
			return nil, err
		}
		genres, err := sub.ValueCounts(dataset.ColGenre)
		if err != nil {
			return nil, err
		}
		parts = append(parts, Part{Name: x.name, Table: sub, Periods: periods, Genres: genres})
	}
	return parts, nil
}

// stratified picks frac of rows, allocated across periods in proportion
// to their size. It returns the rows kept and the rows picked.
func stratified(tbl *dataset.Table, rows []int, frac float64, rng *rand.Rand) (kept, picked []int) {
	strata := make(map[string][]int)
	for _, i := range rows {
		p := tbl.Get(i, dataset.ColPeriod)
		strata[p] = append(strata[p], i)
	}
	names := make([]string, 0, len(strata))
	sizes := make(map[string]int, len(strata))
	for name, members := range strata {
		names = append(names, name)
		sizes[name] = len(members)
	}
	sort.Strings(names)

	alloc := allocate(names, sizes, frac)
	pick := make(map[int]bool)
	for _, name := range names {
		members := append([]int{}, strata[name]...)
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		for _, i := range members[:alloc[name]] {
			pick[i] = true
		}
	}
	for _, i := range rows {
		if pick[i] {
			picked = append(picked, i)
		} else {
			kept = append(kept, i)
		}
	}
	return kept, picked
}

// allocate distributes ceil(frac*total) picks over the strata by largest
// remainder. Every stratum keeps at least one row, so singletons are never
// picked. Remainder ties go to the stratum that sorts first.
func allocate(names []string, sizes map[string]int, frac float64) map[string]int {
	total := 0
	for _, n := range sizes {
		total += n
	}
	alloc := make(map[string]int, len(names))
	if total == 0 || frac <= 0 {
		return alloc
	}
	want := int(math.Ceil(frac*float64(total) - 1e-9))

	type share struct {
		name string
		rem  float64
	}
	shares := make([]share, 0, len(names))
	given := 0
	for _, name := range names {
		exact := float64(sizes[name]) * float64(want) / float64(total)
		a := min(int(math.Floor(exact)), sizes[name]-1)
		alloc[name] = a
		given += a
		shares = append(shares, share{name, exact - float64(a)})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].rem > shares[j].rem })
	for _, s := range shares {
		if given >= want {
			break
		}
		if alloc[s.name] < sizes[s.name]-1 {
			alloc[s.name]++
			given++
		}
	}
	return alloc
}

// Options configures a split run.
type Options struct {
	OutputDir string
	Params    Params
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Result summarises a split run.
type Result struct {
	Parts       []Part
	Paths       []string
	SummaryPath string
}

// Size returns the row count of the named split.
func (r *Result) Size(name string) int {
	for _, p := range r.Parts {
		if p.Name == name {
			return p.Table.Len()
		}
	}
	return 0
}

// Reports returns the period and genre counts of every split.
func (r *Result) Reports() []dataset.Report {
	out := make([]dataset.Report, 0, 2*len(r.Parts))
	for _, p := range r.Parts {
		out = append(out,
			dataset.Report{Title: p.Name + " period counts", Counts: p.Periods},
			dataset.Report{Title: p.Name + " genre counts", Counts: p.Genres})
	}
	return out
}

// Run splits the glyph table in OutputDir and writes the three splits and
// the summary workbook.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	defer func() { opts.Metrics.StageDuration(Stage, time.Since(start)) }()
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("stage", Stage)

	tbl, err := dataset.ReadCSV(filepath.Join(opts.OutputDir, glyphs.OutputFile))
	if err != nil {
		return nil, err
	}
	tbl, err = tbl.Select(dataset.FinalColumns...)
	if err != nil {
		return nil, err
	}
	parts, err := Split(tbl, opts.Params)
	if err != nil {
		return nil, err
	}

	res := &Result{Parts: parts}
	opts.Metrics.Records(Stage, metrics.OutcomeIn, tbl.Len())
	for _, p := range parts {
		path := OutputPath(opts.OutputDir, p.Name)
		if err := p.Table.WriteCSV(path); err != nil {
			return nil, err
		}
		res.Paths = append(res.Paths, path)
		log.InfoContext(ctx, "wrote split", "split", p.Name, "rows", p.Table.Len())
	}
	dataset.LogReports(ctx, log, res.Reports())
	opts.Metrics.Records(Stage, metrics.OutcomeOut, tbl.Len())
	res.SummaryPath = filepath.Join(opts.OutputDir, SummaryFile)
	if err := WriteSummary(res.SummaryPath, parts); err != nil {
		return nil, err
	}
	return res, nil
}
