// Package signlist builds and serves the lookup tables that map readings
// to glyph names and glyph names to cuneiform unicode.
package signlist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/julianknutsen/cuneiset/internal/logging"
	"github.com/julianknutsen/cuneiset/internal/metrics"
)

// Stage is the metrics label of this stage.
const Stage = "signlist"

// Output file names.
const (
	ReadingsFile = "morpheme_to_glyph_names.json"
	UnicodeFile  = "glyph_name_to_glyph.json"
)

// ErrNoSignList indicates the OSL sign list has not been downloaded.
var ErrNoSignList = errors.New("sign list not found")

// Tables are the two lookup tables in their written form.
type Tables struct {
	Readings map[string][]string
	Unicode  map[string]string
}

// Write stores both tables as JSON files in dir.
func (t *Tables) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, ReadingsFile), t.Readings); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, UnicodeFile), t.Unicode)
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Lookups answers reading and glyph-name queries.
type Lookups struct {
	readings map[string][]string
	unicode  map[string]string
	reverse  map[string][]string
}

// NewLookups indexes t, including the reverse glyph name to readings table.
func NewLookups(t *Tables) *Lookups {
	l := &Lookups{
		readings: t.Readings,
		unicode:  t.Unicode,
		reverse:  make(map[string][]string),
	}
	seen := make(map[[2]string]bool)
	for reading, names := range t.Readings {
		for _, n := range names {
			if seen[[2]string{n, reading}] {
				continue
			}
			seen[[2]string{n, reading}] = true
			l.reverse[n] = append(l.reverse[n], reading)
		}
	}
	for _, rs := range l.reverse {
		sort.Strings(rs)
	}
	return l
}

// LoadLookups reads the tables written by Run from dir.
func LoadLookups(dir string) (*Lookups, error) {
	t := &Tables{}
	if err := readJSON(filepath.Join(dir, ReadingsFile), &t.Readings); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, UnicodeFile), &t.Unicode); err != nil {
		return nil, err
	}
	return NewLookups(t), nil
}

// GlyphNames returns the candidate glyph names of a reading and whether the
// reading is known.
func (l *Lookups) GlyphNames(reading string) ([]string, bool) {
	names, ok := l.readings[reading]
	return names, ok
}

// Unicode returns the unicode rendering of a glyph name. A known name may
// have an empty rendering.
func (l *Lookups) Unicode(name string) (string, bool) {
	u, ok := l.unicode[name]
	return u, ok
}

// HasGlyphName reports whether name is a known glyph name.
func (l *Lookups) HasGlyphName(name string) bool {
	_, ok := l.unicode[name]
	return ok
}

// Len returns the number of known readings.
func (l *Lookups) Len() int { return len(l.readings) }

// Readings returns the sorted readings that map to a glyph name.
func (l *Lookups) Readings(name string) []string { return l.reverse[name] }

// Options configures a lookup build.
type Options struct {
	OutputDir string
	SignList  string
	EPSD2     string // optional; skipped with a warning when missing
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Result summarises a lookup build.
type Result struct {
	Readings   int
	GlyphNames int
	Overrides  int
	Conflicts  []Conflict
	Paths      []string
}

// Run builds the lookup tables from the sign lists and writes them to
// OutputDir.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	defer func() { opts.Metrics.StageDuration(Stage, time.Since(start)) }()
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.With("stage", Stage)

	b := newBuild()
	if err := readFile(opts.SignList, b.ReadOSL); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoSignList, opts.SignList)
		}
		return nil, err
	}
	if opts.EPSD2 != "" {
		err := readFile(opts.EPSD2, b.ReadEPSD2)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.WarnContext(ctx, "ePSD2 sign list missing, skipping", "path", opts.EPSD2)
		case err != nil:
			return nil, err
		}
	}

	t, conflicts := b.Tables()
	for _, c := range conflicts {
		log.WarnContext(ctx, "glyph name has more than one unicode", "name", c.Name, "unicodes", c.Unicodes)
	}
	if err := t.Write(opts.OutputDir); err != nil {
		return nil, err
	}
	res := &Result{
		Readings:   len(t.Readings),
		GlyphNames: len(t.Unicode),
		Overrides:  len(b.overrides),
		Conflicts:  conflicts,
		Paths: []string{
			filepath.Join(opts.OutputDir, ReadingsFile),
			filepath.Join(opts.OutputDir, UnicodeFile),
		},
	}
	log.InfoContext(ctx, "wrote lookups", "readings", res.Readings, "glyph_names", res.GlyphNames)
	opts.Metrics.Records(Stage, metrics.OutcomeOut, res.Readings)
	return res, nil
}

func readFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return read(f)
}
