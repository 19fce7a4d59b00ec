package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/julianknutsen/cuneiset/internal/dataset"
	"github.com/julianknutsen/cuneiset/internal/metrics"
	"github.com/julianknutsen/cuneiset/internal/oracc"
)

const catalogue = `{"members": {
  "P100001": {"id_text": "P100001", "designation": "A 1", "provenience": "Umma", "project": "epsd2/admin/ur3", "period": "Ur III", "genre": "Administrative", "language": "Sumerian"},
  "P100002": {"id_text": "P100002", "designation": "A 2", "provenience": "Umma", "project": "epsd2/admin/ur3"},
  "P100003": {"id_text": "P100003", "designation": "A 3", "provenience": "Umma"},
  "P100004": {"id_text": "P100004", "designation": "A 4", "provenience": "Umma", "project": "epsd2/admin/ur3", "genre": "Legal"}
}}`

func writeFixture(t *testing.T, cache string) {
	t.Helper()
	dir := filepath.Join(oracc.AdminUr3.Dir(cache), "admin", "ur3")
	texts := map[string]string{
		"P100001": `{"cdl": [{"node": "c", "type": "text", "id": "x", "cdl": [
			{"node": "d", "type": "line-start"},
			{"node": "l", "frag": "1(diš)", "f": {"lang": "sux", "form": "1(diš)"}},
			{"node": "l", "frag": "udu", "f": {"lang": "sux", "form": "udu"}}
		]}]}`,
		"P100003": `{"cdl": []}`,
		"P100004": `{"cdl": [{"node": "zz"}]}`,
	}
	if err := os.MkdirAll(filepath.Join(dir, "corpusjson"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "catalogue.json"), []byte(catalogue), 0o644); err != nil {
		t.Fatal(err)
	}
	for id, body := range texts {
		if err := os.WriteFile(filepath.Join(dir, "corpusjson", id+".json"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCorpus(t *testing.T) {
	t.Parallel()
	cache, out := t.TempDir(), t.TempDir()
	writeFixture(t, cache)

	m := metrics.New()
	res, err := Corpus(context.Background(), Options{CacheDir: cache, OutputDir: out, Workers: 3, Metrics: m}, oracc.AdminUr3)
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	if res.Total != 4 || res.Rows != 1 {
		t.Errorf("total %d rows %d, want 4 and 1", res.Total, res.Rows)
	}
	if got := res.Skipped.IDs(); len(got) != 3 || got[0] != "P100002" || got[1] != "P100003" || got[2] != "P100004" {
		t.Errorf("skipped = %v, want P100002..P100004 in catalogue order", got)
	}
	if res.Path != OutputPath(out, oracc.AdminUr3) {
		t.Errorf("path = %q", res.Path)
	}

	tbl, err := dataset.ReadCSV(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("rows = %d", tbl.Len())
	}
	r := tbl.Row(0)
	if r.Get("id") != "P100001" || r.Get("transliteration") != "#SURFACE#\n1(diš) udu" {
		t.Errorf("row = %q / %q", r.Get("id"), r.Get("transliteration"))
	}
	if r.Get("langs") != "sux" || r.Get("period") != "Ur III" || r.Get("project") != "epsd2/admin/ur3" {
		t.Errorf("metadata = langs %q period %q project %q", r.Get("langs"), r.Get("period"), r.Get("project"))
	}
}

func TestCorpus_NothingLoaded(t *testing.T) {
	t.Parallel()
	cache, out := t.TempDir(), t.TempDir()
	dir := filepath.Join(oracc.Varia.Dir(cache), "varia")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "catalogue.json"), []byte(`{"members": {"P1": {"id_text": "P1", "designation": "d", "provenience": "p", "project": "x"}}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	stale := OutputPath(out, oracc.Varia)
	if err := os.WriteFile(stale, []byte("id,transliteration\nP9,old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Corpus(context.Background(), Options{CacheDir: cache, OutputDir: out}, oracc.Varia)
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	if res.Path != "" || res.Rows != 0 || len(res.Skipped) != 1 {
		t.Errorf("result = %+v", res)
	}
	if _, err := os.Stat(OutputPath(out, oracc.Varia)); !os.IsNotExist(err) {
		t.Errorf("stale file kept for empty corpus: %v", err)
	}
}

func TestRun_NotDownloadedAborts(t *testing.T) {
	t.Parallel()
	cache := t.TempDir()
	writeFixture(t, cache)
	results, err := Run(context.Background(), Options{CacheDir: cache, OutputDir: t.TempDir()}, []oracc.Corpus{oracc.AdminUr3, oracc.Royal})
	if !errors.Is(err, oracc.ErrNotDownloaded) {
		t.Fatalf("Run = %v, want ErrNotDownloaded", err)
	}
	if len(results) != 1 {
		t.Errorf("results before abort = %d, want 1", len(results))
	}
}
