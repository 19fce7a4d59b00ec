package collate

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/extract"
	"github.com/julianknutsen/cuneiset/internal/oracc"
)

func TestStandardLabels(t *testing.T) {
	t.Parallel()
	periods := map[string]string{
		"":          "Unknown",
		"Uncertain": "Unknown",
		"Ur III":    "Ur III",
	}
	for in, want := range periods {
		if got := StandardPeriod(in); got != want {
			t.Errorf("StandardPeriod(%q) = %q, want %q", in, got, want)
		}
	}
	genres := map[string]string{
		"":                 "Unknown",
		"uncertain":        "Unknown",
		"Royal/Monumental": "Royal Inscription",
		"Lexical; School":  "Lexical",
		"Hymn-Prayer":      "Liturgy",
		"Ritual":           "Liturgy",
		"Astronomical":     "Math/Science",
		"Administrative":   "Administrative",
	}
	for in, want := range genres {
		if got := StandardGenre(in); got != want {
			t.Errorf("StandardGenre(%q) = %q, want %q", in, got, want)
		}
	}
}

func table(t *testing.T, cols []string, rows ...[]string) *dataset.Table {
	t.Helper()
	tbl := dataset.New(cols...)
	for _, r := range rows {
		if err := tbl.Append(r...); err != nil {
			t.Fatal(err)
		}
	}
	return tbl
}

var cols = []string{"id", "transliteration", "language", "langs", "period", "genre", "ruler"}

func TestCollate(t *testing.T) {
	t.Parallel()
	a := table(t, cols,
		[]string{"P1", "lugal", "Sumerian", "sux", "Ur III", "Administrative", ""},
		[]string{"P2", "šarrum", "Akkadian", "akk", "Old Akkadian", "Letter", ""},
		[]string{"P3", "a", "", "sux, akk-x-oldbab", "Old Babylonian", "Lexical", ""},
		[]string{"P4", "b", "Sumerian", "sux", "Ebla", "Lexical", ""},
		[]string{"P5", "c", "Sumerian", "sux", "Ur III", "fake (modern)", ""},
		[]string{"P6", "", "Sumerian", "sux", "Ur III", "Legal", ""},
	)
	b := dataset.New("genre", "id", "transliteration", "language", "langs", "period")
	_ = b.Append("Royal/Monumental", "Q1", "ur-{d}namma", "Sumerian", "sux", "")
	_ = b.Append("Legal", "P1", "duplicate", "Sumerian", "sux", "Ur III")

	res := &Result{}
	out, err := Collate([]*dataset.Table{a, b}, res)
	if err != nil {
		t.Fatalf("Collate: %v", err)
	}
	if res.Start != 8 {
		t.Errorf("Start = %d, want 8", res.Start)
	}
	wantSteps := []Step{{"drop non-Sumerian", 4}, {"drop empty transliteration", 3}, {"drop duplicate ids", 2}}
	if !reflect.DeepEqual(res.Steps, wantSteps) {
		t.Errorf("Steps = %v, want %v", res.Steps, wantSteps)
	}
	if !reflect.DeepEqual(out.Columns(), Columns) {
		t.Errorf("columns = %v", out.Columns())
	}
	if out.Get(0, "transliteration") != "lugal" {
		t.Errorf("first occurrence not kept: %q", out.Get(0, "transliteration"))
	}
	if out.Get(1, "period") != "Unknown" || out.Get(1, "genre") != "Royal Inscription" {
		t.Errorf("row 2 labels = %q / %q", out.Get(1, "period"), out.Get(1, "genre"))
	}
	if len(res.Periods) != 2 || len(res.Genres) != 2 {
		t.Errorf("counts = %v %v", res.Periods, res.Genres)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tbl := table(t, cols, []string{"P1", "lugal", "Sumerian", "sux", "Uncertain", "uncertain", ""})
	if err := tbl.WriteCSV(extract.OutputPath(dir, oracc.AdminUr3)); err != nil {
		t.Fatal(err)
	}

	res, err := Run(context.Background(), Options{OutputDir: dir}, []oracc.Corpus{oracc.AdminUr3, oracc.Royal})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Rows() != 1 || len(res.Inputs) != 1 {
		t.Errorf("rows %d inputs %v", res.Rows(), res.Inputs)
	}
	out, err := dataset.ReadCSV(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if out.Get(0, "period") != "Unknown" || out.Get(0, "genre") != "Unknown" {
		t.Errorf("labels = %q / %q", out.Get(0, "period"), out.Get(0, "genre"))
	}
	want := []dataset.Report{
		{Title: "period counts", Counts: []dataset.Count{{Value: "Unknown", N: 1}}},
		{Title: "genre counts", Counts: []dataset.Count{{Value: "Unknown", N: 1}}},
	}
	if got := res.Reports(); !reflect.DeepEqual(got, want) {
		t.Errorf("reports = %+v", got)
	}
}

func TestRun_NoInputs(t *testing.T) {
	t.Parallel()
	_, err := Run(context.Background(), Options{OutputDir: t.TempDir()}, oracc.Corpora())
	if !errors.Is(err, ErrNoInputs) {
		t.Errorf("Run = %v, want ErrNoInputs", err)
	}
}

func TestRun_MissingColumn(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tbl := table(t, []string{"id", "transliteration"}, []string{"P1", "x"})
	if err := tbl.WriteCSV(extract.OutputPath(dir, oracc.Varia)); err != nil {
		t.Fatal(err)
	}
	_, err := Run(context.Background(), Options{OutputDir: dir}, []oracc.Corpus{oracc.Varia})
	if !errors.Is(err, dataset.ErrMissingColumn) {
		t.Errorf("Run = %v, want ErrMissingColumn", err)
	}
}
