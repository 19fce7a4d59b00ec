package dataset

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestReport_Total(t *testing.T) {
	t.Parallel()
	r := Report{Counts: []Count{{Value: "a", N: 2}, {Value: "b", N: 5}}}
	if got := r.Total(); got != 7 {
		t.Errorf("Total = %d, want 7", got)
	}
}

func TestLogReports(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	LogReports(context.Background(), log, []Report{
		{Title: "period counts", Counts: []Count{{Value: "Ur III", N: 3}, {Value: "", N: 1}}},
		{Title: "genre counts"},
	})

	out := buf.String()
	for _, want := range []string{`msg="period counts"`, `"counts.Ur III"=3`, `counts.(empty)=1`} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "genre counts") {
		t.Errorf("empty report was logged:\n%s", out)
	}
}
