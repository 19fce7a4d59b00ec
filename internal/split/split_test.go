package split

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/glyphs"
)

var defaults = Params{TestFraction: 0.05, ValFraction: 0.05, Seed: 42, TrainOnlyGenres: []string{"Lexical"}}

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl := dataset.New(dataset.FinalColumns...)
	add := func(n int, period, genre string) {
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("P%d", tbl.Len())
			if err := tbl.Append(id, "lugal", "LUGAL", "𒈗", period, genre); err != nil {
				t.Fatal(err)
			}
		}
	}
	add(60, "Ur III", "Administrative")
	add(39, "Old Babylonian", "Literary")
	add(1, "Early Dynastic IIIa", "Literary")
	add(10, "Old Babylonian", "Lexical")
	return tbl
}

func ids(p Part) []string {
	col, _ := p.Table.Column(dataset.ColID)
	return col
}

func TestAllocate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		sizes map[string]int
		frac  float64
		want  map[string]int
	}{
		{"largest remainder", map[string]int{"a": 10, "b": 5, "c": 1}, 0.2, map[string]int{"a": 3, "b": 1, "c": 0}},
		{"exact", map[string]int{"a": 60, "b": 40}, 0.05, map[string]int{"a": 3, "b": 2}},
		{"singletons stay", map[string]int{"a": 1, "b": 1}, 0.5, map[string]int{"a": 0, "b": 0}},
		{"nothing", map[string]int{"a": 4}, 0, map[string]int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var names []string
			for n := range tt.sizes {
				names = append(names, n)
			}
			sort.Strings(names)
			if got := allocate(names, tt.sizes, tt.frac); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("allocate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	t.Parallel()
	parts, err := Split(sampleTable(t), defaults)
	if err != nil {
		t.Fatal(err)
	}
	sizes := map[string]int{}
	for _, p := range parts {
		sizes[p.Name] = p.Table.Len()
	}
	if want := map[string]int{Train: 100, Validation: 5, Test: 5}; !reflect.DeepEqual(sizes, want) {
		t.Errorf("sizes = %v, want %v", sizes, want)
	}

	for _, p := range parts[1:] {
		for i := 0; i < p.Table.Len(); i++ {
			r := p.Table.Row(i)
			if r.Get(dataset.ColGenre) == "Lexical" {
				t.Errorf("%s holds lexical row %s", p.Name, r.Get(dataset.ColID))
			}
			if r.Get(dataset.ColPeriod) == "Early Dynastic IIIa" {
				t.Errorf("%s holds the singleton period", p.Name)
			}
		}
	}

	seen := map[string]bool{}
	for _, p := range parts {
		for _, id := range ids(p) {
			if seen[id] {
				t.Errorf("%s appears in more than one split", id)
			}
			seen[id] = true
		}
	}
	if len(seen) != 110 {
		t.Errorf("rows covered = %d, want 110", len(seen))
	}

	test := parts[2]
	if !reflect.DeepEqual(test.Periods, []dataset.Count{{Value: "Ur III", N: 3}, {Value: "Old Babylonian", N: 2}}) {
		t.Errorf("test periods = %v", test.Periods)
	}
}

func TestSplit_Seeded(t *testing.T) {
	t.Parallel()
	a, err := Split(sampleTable(t), defaults)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Split(sampleTable(t), defaults)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if !reflect.DeepEqual(ids(a[i]), ids(b[i])) {
			t.Errorf("%s differs between runs with the same seed", a[i].Name)
		}
	}

	other := defaults
	other.Seed = 7
	c, err := Split(sampleTable(t), other)
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(ids(a[0]), ids(c[0])) {
		t.Error("train order unchanged by a different seed")
	}
}

func TestSplit_BadFractions(t *testing.T) {
	t.Parallel()
	p := defaults
	p.TestFraction, p.ValFraction = 0.6, 0.5
	if _, err := Split(sampleTable(t), p); err == nil {
		t.Fatal("expected error")
	}
}

func TestRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := sampleTable(t).WriteCSV(filepath.Join(dir, glyphs.OutputFile)); err != nil {
		t.Fatal(err)
	}
	res, err := Run(context.Background(), Options{OutputDir: dir, Params: defaults})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Size(Train) != 100 || res.Size(Validation) != 5 || res.Size(Test) != 5 {
		t.Errorf("sizes = %d/%d/%d", res.Size(Train), res.Size(Validation), res.Size(Test))
	}

	val, err := dataset.ReadCSV(OutputPath(dir, Validation))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(val.Columns(), dataset.FinalColumns) || val.Len() != 5 {
		t.Errorf("validation.csv: columns %v, rows %d", val.Columns(), val.Len())
	}

	f, err := excelize.OpenFile(res.SummaryPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if got := f.GetSheetList(); !reflect.DeepEqual(got, Names) {
		t.Errorf("sheets = %v", got)
	}
	for cell, want := range map[string]string{"A1": "rows", "B1": "100", "A3": "period", "D3": "genre", "A4": "Ur III", "B4": "54"} {
		got, err := f.GetCellValue(Train, cell)
		if err != nil || got != want {
			t.Errorf("train!%s = %q, %v; want %q", cell, got, err, want)
		}
	}

	reports := res.Reports()
	if len(reports) != 6 || reports[0].Title != "train period counts" || reports[0].Total() != 100 {
		t.Errorf("reports = %+v", reports)
	}
}
