package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecords(t *testing.T) {
	t.Parallel()
	m := New()
	m.Records("collate", OutcomeIn, 10)
	m.Records("collate", OutcomeIn, 5)
	m.Records("collate", OutcomeDropped, 0)
	m.Morphemes(MorphemeUnknown, 2)

	if got := testutil.ToFloat64(m.records.WithLabelValues("collate", OutcomeIn)); got != 15 {
		t.Errorf("collate/in = %v, want 15", got)
	}
	if got := testutil.ToFloat64(m.morphemes.WithLabelValues(MorphemeUnknown)); got != 2 {
		t.Errorf("unknown morphemes = %v, want 2", got)
	}
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()
	var m *Metrics
	m.Records("x", OutcomeIn, 1)
	m.Morphemes(MorphemeConverted, 1)
	m.StageDuration("x", time.Second)
	m.Request("/", 200, time.Millisecond)
	if err := m.WriteFile(filepath.Join(t.TempDir(), "m.prom")); err != nil {
		t.Errorf("WriteFile on nil: %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()
	m := New()
	m.Records("split", OutcomeOut, 3)
	m.StageDuration("split", 1500*time.Millisecond)

	path := filepath.Join(t.TempDir(), "out", "cuneiset.prom")
	if err := m.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`cuneiset_records_total{outcome="out",stage="split"} 3`,
		`cuneiset_stage_duration_seconds{stage="split"} 1.5`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics file missing %q:\n%s", want, data)
		}
	}
}

func TestHandler(t *testing.T) {
	t.Parallel()
	m := New()
	m.Request("/api/convert", http.StatusOK, 2*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `cuneiset_http_requests_total{code="200",route="/api/convert"} 1`) {
		t.Errorf("body missing request counter:\n%s", rec.Body.String())
	}
}
