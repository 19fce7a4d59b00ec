package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julianknutsen/cuneiset/internal/config"
	"github.com/julianknutsen/cuneiset/internal/metrics"
	"github.com/julianknutsen/cuneiset/internal/oracc"
	"github.com/julianknutsen/cuneiset/internal/signlist"
	"github.com/julianknutsen/cuneiset/internal/split"
)

const signList = `{"sl:signlist": {"j:letters": [{"sl:letter": {"j:signs": [
  {"sl:sign": {"n": "LU", "sl:ucun": "𒇻", "j:values": [{"sl:v": {"n": "udu"}}]}}
]}}]}}`

// writeCorpus lays out an extracted admin_ur3 corpus whose n texts hold
// 1..n copies of "udu".
func writeCorpus(t *testing.T, cache string, n int) {
	t.Helper()
	dir := filepath.Join(oracc.AdminUr3.Dir(cache), "admin", "ur3")
	if err := os.MkdirAll(filepath.Join(dir, "corpusjson"), 0o755); err != nil {
		t.Fatal(err)
	}
	var members []string
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("P2%05d", i)
		members = append(members, fmt.Sprintf(`%q: {"id_text": %q, "designation": "T %d", "provenience": "Umma",
			"project": "epsd2/admin/ur3", "period": "Ur III", "genre": "Administrative", "language": "Sumerian"}`, id, id, i))
		lemmas := []string{`{"node": "d", "type": "line-start"}`}
		for j := 0; j < i; j++ {
			lemmas = append(lemmas, `{"node": "l", "frag": "udu", "f": {"lang": "sux", "form": "udu"}}`)
		}
		body := `{"cdl": [{"node": "c", "type": "text", "cdl": [` + strings.Join(lemmas, ",") + `]}]}`
		if err := os.WriteFile(filepath.Join(dir, "corpusjson", id+".json"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cat := `{"members": {` + strings.Join(members, ",\n") + `}}`
	if err := os.WriteFile(filepath.Join(dir, "catalogue.json"), []byte(cat), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.CacheDir = filepath.Join(root, "cache")
	cfg.OutputDir = filepath.Join(root, "outputs")
	cfg.Corpora = []string{string(oracc.AdminUr3)}
	cfg.SignListPath = filepath.Join(root, "osl.json")
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.SignListPath, []byte(signList), 0o644); err != nil {
		t.Fatal(err)
	}
	writeCorpus(t, cfg.CacheDir, 20)
	return cfg
}

func TestBetween(t *testing.T) {
	t.Parallel()
	all, err := Between("", "")
	if err != nil || len(all) != 7 || all[0] != StageDownload || all[6] != StageSplit {
		t.Fatalf("Between() = %v, %v", all, err)
	}
	mid, err := Between(StageCollate, StageSignList)
	if err != nil || strings.Join(stageStrings(mid), ",") != "collate,clean,signlist" {
		t.Errorf("Between(collate, signlist) = %v, %v", mid, err)
	}
	if _, err := Between(StageSplit, StageExtract); err == nil {
		t.Error("reversed range accepted")
	}
	if _, err := Between("nope", ""); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("err = %v", err)
	}
}

func stageStrings(s []Stage) []string {
	out := make([]string, len(s))
	for i, st := range s {
		out[i] = string(st)
	}
	return out
}

func TestParseStage(t *testing.T) {
	t.Parallel()
	if st, err := ParseStage("glyphs"); err != nil || st != StageGlyphs {
		t.Errorf("ParseStage(glyphs) = %q, %v", st, err)
	}
	if _, err := ParseStage("upload"); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("err = %v", err)
	}
}

func TestManifestCodec(t *testing.T) {
	t.Parallel()
	if _, err := EncodeManifest(&Manifest{}); err == nil {
		t.Error("manifest without run id encoded")
	}
	if _, err := DecodeManifest([]byte(`{"stages": []}`)); err == nil {
		t.Error("manifest without run id decoded")
	}
	m := &Manifest{RunID: "r1", Stages: []StageRecord{{Stage: StageClean, Rows: 3}}}
	data, err := EncodeManifest(m)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeManifest(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Stage(StageClean) == nil || got.Stage(StageClean).Rows != 3 || got.Stage(StageSplit) != nil {
		t.Errorf("decoded = %+v", got)
	}
}

func TestRunner_Offline(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	var events []Event
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := &Runner{
		Config:   cfg,
		Metrics:  metrics.New(),
		Progress: func(e Event) { events = append(events, e) },
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}

	m, err := r.Run(context.Background(), Options{Offline: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.RunID == "" || m.Error != "" || len(m.Stages) != 6 {
		t.Fatalf("manifest = %+v", m)
	}
	if events[0].Stage != StageDownload || events[0].Kind != EventSkipped {
		t.Errorf("first event = %+v", events[0])
	}
	if rec := m.Stage(StageExtract); rec.Rows != 20 || rec.Skipped != 0 {
		t.Errorf("extract = %+v", rec)
	}
	rec := m.Stage(StageSplit)
	if rec.Rows != 20 || rec.Note != "train 18, validation 1, test 1" {
		t.Errorf("split = %+v", rec)
	}
	if len(rec.Outputs) != 4 || !strings.HasPrefix(rec.Outputs[0].Hash, "sha256:") {
		t.Errorf("split outputs = %+v", rec.Outputs)
	}
	if c := m.Stage(StageCollate); len(c.Reports) != 2 || c.Reports[0].Total() != 20 {
		t.Errorf("collate reports = %+v", c.Reports)
	}
	var collateDone *Event
	for i := range events {
		if events[i].Stage == StageCollate && events[i].Kind == EventDone {
			collateDone = &events[i]
		}
	}
	if collateDone == nil || len(collateDone.Reports) != 2 {
		t.Errorf("collate done event = %+v", collateDone)
	}

	onDisk, err := ReadManifest(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if onDisk.RunID != m.RunID || onDisk.Config.Seed != 42 {
		t.Errorf("manifest on disk = %+v", onDisk)
	}
	if _, err := os.Stat(cfg.MetricsPath()); err != nil {
		t.Errorf("metrics file: %v", err)
	}

	results, err := Verify(cfg.OutputDir, m)
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range results {
		if !res.Match {
			t.Errorf("%s does not match its recorded hash", res.Path)
		}
	}

	train := split.OutputPath(cfg.OutputDir, split.Train)
	if err := os.WriteFile(train, []byte("tampered\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(split.OutputPath(cfg.OutputDir, split.Test)); err != nil {
		t.Fatal(err)
	}
	results, err = Verify(cfg.OutputDir, m)
	if err != nil {
		t.Fatal(err)
	}
	var changed, missing []string
	for _, res := range results {
		switch {
		case res.Missing:
			missing = append(missing, res.Path)
		case !res.Match:
			changed = append(changed, res.Path)
		}
	}
	if strings.Join(changed, ",") != "train.csv" || strings.Join(missing, ",") != "test.csv" {
		t.Errorf("changed %v, missing %v", changed, missing)
	}
}

func TestRunner_Range(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	m, err := (&Runner{Config: cfg}).Run(context.Background(), Options{From: StageExtract, To: StageCollate})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(m.Stages) != 2 || m.Stage(StageCollate).Rows != 20 {
		t.Errorf("stages = %+v", m.Stages)
	}
}

func TestRunner_FailureWritesManifest(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	m, err := (&Runner{Config: cfg}).Run(context.Background(), Options{From: StageClean})
	if err == nil {
		t.Fatal("expected error without a collated table")
	}
	if !strings.HasPrefix(err.Error(), "clean: ") || m.Error == "" {
		t.Errorf("err = %v, manifest error = %q", err, m.Error)
	}
	onDisk, err := ReadManifest(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if onDisk.Error == "" || len(onDisk.Stages) != 1 {
		t.Errorf("manifest on disk = %+v", onDisk)
	}
}

func TestRunner_FetchSignList(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, signList)
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.SignListURL = server.URL + "/sl.json"
	cfg.SignListPath = filepath.Join(t.TempDir(), "sl.json")
	r := &Runner{Config: cfg, Metrics: metrics.New()}

	only := Options{From: StageSignList, To: StageSignList}
	if _, err := r.Run(context.Background(), only); !errors.Is(err, signlist.ErrNoSignList) {
		t.Fatalf("without fetch: err = %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("sign list fetched without being asked")
	}

	only.FetchSignList = true
	m, err := r.Run(context.Background(), only)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1", hits.Load())
	}
	if rec := m.Stage(StageSignList); rec == nil || rec.Rows != 1 {
		t.Errorf("signlist = %+v", rec)
	}
}
