// Package dataset holds the in-memory tables passed between pipeline stages
// and their CSV encoding.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

var (
	// ErrMissingColumn indicates a table lacks a column a stage needs.
	ErrMissingColumn = errors.New("missing column")
	// ErrWidth indicates a row whose width differs from the header.
	ErrWidth = errors.New("row width does not match header")
)

// Table is a header plus string rows, in insertion order.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	t := &Table{columns: append([]string{}, columns...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// Columns returns the header.
func (t *Table) Columns() []string { return append([]string{}, t.columns...) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Has reports whether the table has a column.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Require returns ErrMissingColumn naming every absent column.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingColumn, missing)
	}
	return nil
}

// Append adds a row. Its width must match the header.
func (t *Table) Append(values ...string) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrWidth, len(values), len(t.columns))
	}
	t.rows = append(t.rows, append([]string{}, values...))
	return nil
}

// AppendMap adds a row from named values; absent columns are empty.
func (t *Table) AppendMap(values map[string]string) {
	row := make([]string, len(t.columns))
	for i, c := range t.columns {
		row[i] = values[c]
	}
	t.rows = append(t.rows, row)
}

// Row returns row i.
func (t *Table) Row(i int) Row { return Row{table: t, values: t.rows[i]} }

// Get returns the value of col in row i, or "" when the column is absent.
func (t *Table) Get(i int, col string) string { return t.Row(i).Get(col) }

// Set stores a value in an existing column of row i.
func (t *Table) Set(i int, col, value string) {
	if j, ok := t.index[col]; ok {
		t.rows[i][j] = value
	}
}

// Column returns every value of col in row order.
func (t *Table) Column(col string) ([]string, error) {
	j, ok := t.index[col]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, nil
}

// AddColumn appends a column, or overwrites an existing one, computing
// each value from its row.
func (t *Table) AddColumn(col string, fill func(Row) string) {
	j, ok := t.index[col]
	if !ok {
		t.columns = append(t.columns, col)
		j = len(t.columns) - 1
		t.index[col] = j
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], "")
		}
	}
	for i := range t.rows {
		t.rows[i][j] = fill(Row{table: t, values: t.rows[i]})
	}
}

// Select returns a new table with only the named columns, in that order.
func (t *Table) Select(cols ...string) (*Table, error) {
	if err := t.Require(cols...); err != nil {
		return nil, err
	}
	out := New(cols...)
	out.rows = make([][]string, len(t.rows))
	for i, r := range t.rows {
		row := make([]string, len(cols))
		for k, c := range cols {
			row[k] = r[t.index[c]]
		}
		out.rows[i] = row
	}
	return out, nil
}

// Filter keeps the rows for which keep returns true and reports how many
// were removed.
func (t *Table) Filter(keep func(Row) bool) int {
	kept := t.rows[:0]
	for _, r := range t.rows {
		if keep(Row{table: t, values: r}) {
			kept = append(kept, r)
		}
	}
	removed := len(t.rows) - len(kept)
	for i := len(kept); i < len(t.rows); i++ {
		t.rows[i] = nil
	}
	t.rows = kept
	return removed
}

// DedupBy keeps the first row for each value of col and reports how many
// rows were dropped.
func (t *Table) DedupBy(col string) (int, error) {
	j, ok := t.index[col]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumn, col)
	}
	seen := make(map[string]bool, len(t.rows))
	return t.Filter(func(r Row) bool {
		v := r.values[j]
		if seen[v] {
			return false
		}
		seen[v] = true
		return true
	}), nil
}

// Subset returns a new table sharing the header, holding the given rows.
func (t *Table) Subset(rows []int) *Table {
	out := New(t.columns...)
	out.rows = make([][]string, len(rows))
	for k, i := range rows {
		out.rows[k] = append([]string{}, t.rows[i]...)
	}
	return out
}

// Count is one entry of a value histogram.
type Count struct {
	Value string `json:"value"`
	N     int    `json:"n"`
}

// ValueCounts returns how often each value of col occurs, most frequent
// first and ties in value order.
func (t *Table) ValueCounts(col string) ([]Count, error) {
	values, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	return CountValues(values), nil
}

// CountValues builds a histogram of values, most frequent first.
func CountValues(values []string) []Count {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	out := make([]Count, 0, len(counts))
	for v, n := range counts {
		out = append(out, Count{Value: v, N: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].N != out[b].N {
			return out[a].N > out[b].N
		}
		return out[a].Value < out[b].Value
	})
	return out
}

// Concat stacks tables, keeping only the columns every table shares, in
// the first table's column order.
func Concat(tables ...*Table) *Table {
	if len(tables) == 0 {
		return New()
	}
	var cols []string
	for _, c := range tables[0].columns {
		shared := true
		for _, other := range tables[1:] {
			if !other.Has(c) {
				shared = false
				break
			}
		}
		if shared {
			cols = append(cols, c)
		}
	}
	out := New(cols...)
	for _, tbl := range tables {
		sel, _ := tbl.Select(cols...)
		out.rows = append(out.rows, sel.rows...)
	}
	return out
}

// Row is a view of one table row.
type Row struct {
	table  *Table
	values []string
}

// Get returns the value of col, or "" when the column is absent.
func (r Row) Get(col string) string {
	if j, ok := r.table.index[col]; ok {
		return r.values[j]
	}
	return ""
}

// ReadCSV reads a table from a CSV file with a header row.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	t, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Decode reads a table from CSV with a header row.
func Decode(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}
	t := New(header...)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// WriteCSV writes the table with a header row, creating parent directories.
func (t *Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.Encode(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Encode writes the table as CSV with a header row.
func (t *Table) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return err
	}
	return cw.Error()
}
