// Package clean rewrites collated transliterations into a reduced ATF
// alphabet: editorial marks are dropped, damaged or missing text becomes
// a single "..." marker, and the internal tokens take their final form.
package clean

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/julianknutsen/cuneiset/internal/collate"
	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/logging"
	"github.com/julianknutsen/cuneiset/internal/metrics"
)

// Stage is the metrics label of this stage.
const Stage = "clean"

// OutputFile is the cleaned table's file name.
const OutputFile = "3_cleaned_transliterations.csv"

// Issue is a problem a rule noticed but left in place.
type Issue struct {
	Rule   string
	ID     string
	Detail string
}

func (i Issue) String() string { return fmt.Sprintf("%s: %s: %s", i.ID, i.Rule, i.Detail) }

type cleaner struct {
	id     string
	rule   string
	log    *slog.Logger
	ctx    context.Context
	issues []Issue
}

func (c *cleaner) issue(format string, args ...any) {
	c.issues = append(c.issues, Issue{Rule: c.rule, ID: c.id, Detail: fmt.Sprintf(format, args...)})
}

func (c *cleaner) fix(format string, args ...any) {
	if c.log.Enabled(c.ctx, slog.LevelDebug) {
		c.log.DebugContext(c.ctx, fmt.Sprintf(format, args...), "id", c.id, "rule", c.rule)
	}
}

// Text cleans one transliteration. id selects the few per-tablet repairs.
func Text(id, text string) (string, []Issue) {
	return textWith(context.Background(), logging.Discard(), id, text)
}

func textWith(ctx context.Context, log *slog.Logger, id, text string) (string, []Issue) {
	c := &cleaner{id: id, log: log, ctx: ctx}
	for _, r := range rules {
		c.rule = r.name
		text = r.apply(c, text)
	}
	return text, c.issues
}

// Result summarises a cleaning run.
type Result struct {
	Path    string
	Input   int
	Rows    int
	Dropped []string
	Issues  []Issue
}

// IssueCounts returns the number of issues per rule, sorted by rule.
func (r *Result) IssueCounts() []dataset.Count {
	rules := make([]string, len(r.Issues))
	for i, is := range r.Issues {
		rules[i] = is.Rule
	}
	counts := dataset.CountValues(rules)
	sort.Slice(counts, func(i, j int) bool { return counts[i].Value < counts[j].Value })
	return counts
}

// Reports returns the issue counts per rule.
func (r *Result) Reports() []dataset.Report {
	return []dataset.Report{{Title: "issues by rule", Counts: r.IssueCounts()}}
}

// Options configures a cleaning run.
type Options struct {
	OutputDir string
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Run reads the collated table from OutputDir, adds the cleaned
// transliteration column, drops tablets left without text, and writes
// OutputFile.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	defer func() { opts.Metrics.StageDuration(Stage, time.Since(start)) }()
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("stage", Stage)

	tbl, err := dataset.ReadCSV(filepath.Join(opts.OutputDir, collate.OutputFile))
	if err != nil {
		return nil, err
	}
	res, err := Clean(ctx, log, tbl)
	if err != nil {
		return nil, err
	}
	for _, is := range res.Issues {
		log.WarnContext(ctx, is.Detail, "id", is.ID, "rule", is.Rule)
	}
	log.InfoContext(ctx, "cleaned transliterations",
		"rows", res.Rows, "dropped", len(res.Dropped), "issues", len(res.Issues))
	dataset.LogReports(ctx, log, res.Reports())
	opts.Metrics.Records(Stage, metrics.OutcomeIn, res.Input)
	opts.Metrics.Records(Stage, metrics.OutcomeDropped, len(res.Dropped))
	opts.Metrics.Records(Stage, metrics.OutcomeOut, res.Rows)

	res.Path = filepath.Join(opts.OutputDir, OutputFile)
	if err := tbl.WriteCSV(res.Path); err != nil {
		return nil, err
	}
	return res, nil
}

// Clean adds the cleaned column to tbl in place and drops rows whose
// cleaned text holds nothing but special tokens.
func Clean(ctx context.Context, log *slog.Logger, tbl *dataset.Table) (*Result, error) {
	if err := tbl.Require(dataset.ColID, dataset.ColTransliteration); err != nil {
		return nil, err
	}
	res := &Result{Input: tbl.Len()}
	tbl.AddColumn(dataset.ColTransliterationClean, func(r dataset.Row) string {
		out, issues := textWith(ctx, log, r.Get(dataset.ColID), r.Get(dataset.ColTransliteration))
		res.Issues = append(res.Issues, issues...)
		return out
	})
	tbl.Filter(func(r dataset.Row) bool {
		if HasText(r.Get(dataset.ColTransliterationClean)) {
			return true
		}
		res.Dropped = append(res.Dropped, r.Get(dataset.ColID))
		return false
	})
	res.Rows = tbl.Len()
	return res, nil
}
