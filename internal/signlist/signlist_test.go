package signlist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleOSL = `{"sl:signlist": {"j:letters": [{"sl:letter": {"j:signs": [
  {"sl:sign": {"n": "AN", "sl:ucun": "𒀭",
    "j:aka": [{"sl:aka": {"n": "DINGIR"}}],
    "j:values": [{"sl:v": {"n": "an"}}, {"sl:v": {"n": "dingir"}}, {"sl:q": {"n": "ignored"}}],
    "j:forms": [{"sl:form": {"n": "AN@t", "j:values": [{"sl:v": {"n": "an₃"}}]}}]}},
  {"sl:sign": {"n": "E₂", "sl:ucun": "𒂍", "j:values": [{"sl:v": {"n": "e₂"}}, {"sl:v": {"n": "lil₂"}}]}},
  {"sl:sign": {"n": "KID", "sl:ucun": "𒆤", "j:values": [{"sl:v": {"n": "lil₂"}}]}},
  {"sl:sign": {"n": "|GUD&amp;GUD|", "sl:ucun": "𒄞𒄞", "j:values": [{"sl:v": {"n": "dab₇"}}]}},
  {"sl:sign": {"n": "DUB", "sl:ucun": "𒁾"}},
  {"sl:sign": {"n": "DUB", "sl:ucun": "𒁿"}}
]}}]}}`

const sampleEPSD2 = `{"index": {"lil₂": "E₂", "gud₂": "GUD"}}`

func build(t *testing.T, epsd2 bool) (*Tables, []Conflict) {
	t.Helper()
	b := newBuild()
	if err := b.ReadOSL(strings.NewReader(sampleOSL)); err != nil {
		t.Fatal(err)
	}
	if epsd2 {
		if err := b.ReadEPSD2(strings.NewReader(sampleEPSD2)); err != nil {
			t.Fatal(err)
		}
	}
	return b.Tables()
}

func TestTables(t *testing.T) {
	t.Parallel()
	tbl, conflicts := build(t, false)

	for reading, want := range map[string][]string{
		"an":     {"AN"},
		"dingir": {"AN"},
		"an₃":    {"AN@t"},
		"lil₂":   {"E₂", "KID"},
		"dab₇":   {"|GUD&GUD|"},
	} {
		if got := tbl.Readings[reading]; !reflect.DeepEqual(got, want) {
			t.Errorf("Readings[%q] = %v, want %v", reading, got, want)
		}
	}
	if _, ok := tbl.Readings["ignored"]; ok {
		t.Error("non-value entry was read as a reading")
	}

	for name, want := range map[string]string{
		"AN":        "𒀭",
		"DINGIR":    "𒀭",
		"AN@t":      "",
		"|GUD&GUD|": "𒄞𒄞",
		"DUB":       "𒁾",
	} {
		got, ok := tbl.Unicode[name]
		if !ok || got != want {
			t.Errorf("Unicode[%q] = %q, %v; want %q", name, got, ok, want)
		}
	}

	if len(conflicts) != 1 || conflicts[0].Name != "DUB" || len(conflicts[0].Unicodes) != 2 {
		t.Errorf("conflicts = %v", conflicts)
	}
}

func TestTables_EPSD2Overrides(t *testing.T) {
	t.Parallel()
	tbl, _ := build(t, true)
	if got := tbl.Readings["lil₂"]; !reflect.DeepEqual(got, []string{"E₂"}) {
		t.Errorf("lil₂ = %v", got)
	}
	if got := tbl.Readings["gud₂"]; !reflect.DeepEqual(got, []string{"GUD"}) {
		t.Errorf("gud₂ = %v", got)
	}
}

func TestLookups(t *testing.T) {
	t.Parallel()
	tbl, _ := build(t, true)
	l := NewLookups(tbl)

	if names, ok := l.GlyphNames("an"); !ok || !reflect.DeepEqual(names, []string{"AN"}) {
		t.Errorf("GlyphNames(an) = %v, %v", names, ok)
	}
	if _, ok := l.GlyphNames("nope"); ok {
		t.Error("unknown reading reported as known")
	}
	if got := l.Readings("AN"); !reflect.DeepEqual(got, []string{"an", "dingir"}) {
		t.Errorf("Readings(AN) = %v", got)
	}
	if got := l.Readings("E₂"); !reflect.DeepEqual(got, []string{"e₂", "lil₂"}) {
		t.Errorf("Readings(E₂) = %v", got)
	}
	if got := l.Readings("KID"); got != nil {
		t.Errorf("Readings(KID) = %v, want none after override", got)
	}
	if !l.HasGlyphName("AN@t") || l.HasGlyphName("AN@x") {
		t.Error("HasGlyphName")
	}
	if u, ok := l.Unicode("AN@t"); !ok || u != "" {
		t.Errorf("Unicode(AN@t) = %q, %v", u, ok)
	}
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	out := filepath.Join(dir, "outputs")
	res, err := Run(context.Background(), Options{
		OutputDir: out,
		SignList:  writeFile(t, dir, "osl.json", sampleOSL),
		EPSD2:     writeFile(t, dir, "epsd2-sl.json", sampleEPSD2),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Overrides != 2 || len(res.Conflicts) != 1 {
		t.Errorf("result = %+v", res)
	}

	raw, err := os.ReadFile(filepath.Join(out, ReadingsFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"|GUD&GUD|"`) {
		t.Errorf("names should be written unescaped: %s", raw)
	}

	l, err := LoadLookups(out)
	if err != nil {
		t.Fatalf("LoadLookups: %v", err)
	}
	if names, _ := l.GlyphNames("lil₂"); !reflect.DeepEqual(names, []string{"E₂"}) {
		t.Errorf("lil₂ = %v", names)
	}
	if u, _ := l.Unicode("|GUD&GUD|"); u != "𒄞𒄞" {
		t.Errorf("unicode = %q", u)
	}
}

func TestRun_MissingEPSD2(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	res, err := Run(context.Background(), Options{
		OutputDir: dir,
		SignList:  writeFile(t, dir, "osl.json", sampleOSL),
		EPSD2:     filepath.Join(dir, "absent.json"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Overrides != 0 {
		t.Errorf("overrides = %d", res.Overrides)
	}
}

func TestRun_MissingSignList(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := Run(context.Background(), Options{OutputDir: dir, SignList: filepath.Join(dir, "osl.json")})
	if !errors.Is(err, ErrNoSignList) {
		t.Fatalf("err = %v, want ErrNoSignList", err)
	}
}

func TestRun_BadSignList(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := Run(context.Background(), Options{OutputDir: dir, SignList: writeFile(t, dir, "osl.json", "{")})
	if err == nil || errors.Is(err, ErrNoSignList) {
		t.Fatalf("err = %v, want decode error", err)
	}
}

func TestLoadLookups_Missing(t *testing.T) {
	t.Parallel()
	if _, err := LoadLookups(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}
